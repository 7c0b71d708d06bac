package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fiffu/framenotify/lib/models"
)

var ErrNotFound = errors.New("not found")

type SubscriptionStore interface {
	// Activate inserts an active subscription for (fid, app key), or rewrites
	// url/token on the existing row if it is inactive. An already active row
	// is left untouched. Reports whether a row was written.
	Activate(ctx context.Context, fid uint64, appKey, appURL, token string) (bool, error)
	Deactivate(ctx context.Context, fid uint64, appKey string) (bool, error)
	DeactivateByToken(ctx context.Context, appURL, token string) (int64, error)
	Create(ctx context.Context, sub *models.Subscription) error
	Find(ctx context.Context, fid uint64, appKey string) (*models.Subscription, error)
	FindByToken(ctx context.Context, token string) (*models.Subscription, error)
	ListActive(ctx context.Context) (models.Subscriptions, error)
}

type subscriptionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSubscriptionStore(db *gorm.DB) SubscriptionStore {
	return &subscriptionStore{db, func() time.Time { return time.Now().UTC() }}
}

func (s *subscriptionStore) Activate(ctx context.Context, fid uint64, appKey, appURL, token string) (bool, error) {
	now := s.now()
	sub := &models.Subscription{
		FID:       fid,
		AppKey:    appKey,
		AppURL:    appURL,
		Token:     token,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fid"}, {Name: "app_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"app_url", "token", "status", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "subscriptions.status = ?", Vars: []any{models.StatusInactive}},
			}},
		}).
		Create(sub)
	if err := tx.Error; err != nil {
		return false, err
	}
	return tx.RowsAffected > 0, nil
}

func (s *subscriptionStore) Deactivate(ctx context.Context, fid uint64, appKey string) (bool, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("fid = ? AND app_key = ?", fid, appKey).
		Where("status = ?", models.StatusActive).
		Updates(map[string]any{"status": models.StatusInactive, "updated_at": s.now()})
	if err := tx.Error; err != nil {
		return false, err
	}
	return tx.RowsAffected > 0, nil
}

func (s *subscriptionStore) DeactivateByToken(ctx context.Context, appURL, token string) (int64, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("app_url = ? AND token = ?", appURL, token).
		Where("status = ?", models.StatusActive).
		Updates(map[string]any{"status": models.StatusInactive, "updated_at": s.now()})
	return tx.RowsAffected, tx.Error
}

func (s *subscriptionStore) Create(ctx context.Context, sub *models.Subscription) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *subscriptionStore) Find(ctx context.Context, fid uint64, appKey string) (*models.Subscription, error) {
	sub := &models.Subscription{}
	tx := s.db.WithContext(ctx).Where("fid = ? AND app_key = ?", fid, appKey).First(sub)
	return sub, notFound(tx.Error)
}

func (s *subscriptionStore) FindByToken(ctx context.Context, token string) (*models.Subscription, error) {
	sub := &models.Subscription{}
	tx := s.db.WithContext(ctx).Where("token = ?", token).First(sub)
	return sub, notFound(tx.Error)
}

func (s *subscriptionStore) ListActive(ctx context.Context) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).Where("status = ?", models.StatusActive).Order("id").Find(&subs)
	return subs, tx.Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
