package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fiffu/framenotify/lib/models"
	"github.com/fiffu/framenotify/lib/store"
)

// LegacySubscriptions is the old single-document layout:
// {fid: {app_key: {url, token, timestamp}}}.
type LegacySubscriptions map[string]map[string]LegacyApp

type LegacyApp struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

type MigrationReport struct {
	Migrated models.Subscriptions
	Skipped  int
	DryRun   bool
}

type migrateLegacy struct {
	log  *zap.Logger
	subs store.SubscriptionStore
}

func (svc *migrateLegacy) MigrateLegacy(ctx context.Context, r io.Reader, dryRun bool) (*MigrationReport, error) {
	var legacy LegacySubscriptions
	if err := json.NewDecoder(r).Decode(&legacy); err != nil {
		return nil, fmt.Errorf("decode legacy subscriptions: %w", err)
	}

	report := &MigrationReport{DryRun: dryRun}
	for _, fidKey := range sortedKeys(legacy) {
		fid, err := strconv.ParseUint(fidKey, 10, 64)
		if err != nil {
			return report, fmt.Errorf("invalid fid %q: %w", fidKey, err)
		}

		apps := legacy[fidKey]
		for _, appKey := range sortedKeys(apps) {
			app := apps[appKey]

			existing, err := svc.subs.Find(ctx, fid, appKey)
			switch {
			case err == nil:
				svc.log.Sugar().Infow("Skipping existing subscription", "fid", fid, "app_key", appKey, "id", existing.ID)
				report.Skipped++
				continue
			case !errors.Is(err, store.ErrNotFound):
				return report, err
			}

			created := time.Now().UTC()
			if app.Timestamp != nil {
				created = time.Unix(*app.Timestamp, 0).UTC()
			}
			sub := models.Subscription{
				FID:       fid,
				AppKey:    appKey,
				AppURL:    app.URL,
				Token:     app.Token,
				Status:    models.StatusActive,
				CreatedAt: created,
				UpdatedAt: created,
			}
			if !dryRun {
				if err := svc.subs.Create(ctx, &sub); err != nil {
					return report, err
				}
				svc.log.Sugar().Infow("Migrated subscription", "fid", fid, "app_key", appKey, "id", sub.ID)
			}
			report.Migrated = append(report.Migrated, sub)
		}
	}
	return report, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
