package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fiffu/framenotify/lib/models"
)

type PostStore interface {
	// Save upserts the post and returns the status it had before, or "" if
	// it did not exist.
	Save(ctx context.Context, post *models.Post) (string, error)
	Find(ctx context.Context, id uint64) (*models.Post, error)
	RecordDeliveredTokens(ctx context.Context, postID uint64, tokens []string) error
	DeliveredTokens(ctx context.Context, postID uint64) ([]string, error)
}

type postStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) PostStore {
	return &postStore{db}
}

func (s *postStore) Save(ctx context.Context, post *models.Post) (string, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := models.Post{}
		err := tx.Where("id = ?", post.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(post).Error
		case err != nil:
			return err
		}

		previous = existing.Status
		post.CreatedAt = existing.CreatedAt
		return tx.Save(post).Error
	})
	return previous, err
}

func (s *postStore) Find(ctx context.Context, id uint64) (*models.Post, error) {
	post := &models.Post{}
	tx := s.db.WithContext(ctx).Where("id = ?", id).First(post)
	return post, notFound(tx.Error)
}

func (s *postStore) RecordDeliveredTokens(ctx context.Context, postID uint64, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	rows := make([]models.DeliveredToken, 0, len(tokens))
	for _, token := range tokens {
		rows = append(rows, models.DeliveredToken{PostID: postID, Token: token})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (s *postStore) DeliveredTokens(ctx context.Context, postID uint64) ([]string, error) {
	var tokens []string
	tx := s.db.WithContext(ctx).
		Model(&models.DeliveredToken{}).
		Where("post_id = ?", postID).
		Order("created_at, token").
		Pluck("token", &tokens)
	return tokens, tx.Error
}
