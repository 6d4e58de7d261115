package activity

import (
	"context"
	"fmt"
	"log"
	"time"

	"slackpulse-backend/internal/cache"
	"slackpulse-backend/internal/models"
)

// LogStore is the slice of the session store the activity layer reads:
// equality on (workspace, user) plus range/order/limit on timestamp.
type LogStore interface {
	ListRange(ctx context.Context, workspaceID, userID string, from, to time.Time) ([]models.PresenceLog, error)
	ListAfter(ctx context.Context, workspaceID, userID string, after, to time.Time) ([]models.PresenceLog, error)
	LastInRange(ctx context.Context, workspaceID, userID string, from, to time.Time) (*models.PresenceLog, error)
}

// Service memoizes per-day derivations in an injected cache. Past days are
// immutable once cached; today's entry is revalidated with a tail fetch of
// only the logs newer than the last cached one.
type Service struct {
	logs  LogStore
	cache cache.Cache
	loc   *time.Location
	ttl   time.Duration
	now   func() time.Time
}

func NewService(logs LogStore, c cache.Cache, loc *time.Location, ttl time.Duration) *Service {
	return &Service{
		logs:  logs,
		cache: c,
		loc:   loc,
		ttl:   ttl,
		now:   time.Now,
	}
}

// CalculateActivityForDate derives one user's activity for a calendar date.
// Store failures propagate; cache failures degrade to "no cache".
func (s *Service) CalculateActivityForDate(ctx context.Context, workspaceID, userID, dateStr string) (models.ActivityData, error) {
	now := s.now()
	day, err := NewDay(dateStr, s.loc, now)
	if err != nil {
		return models.ActivityData{}, err
	}

	key := cacheKey(workspaceID, userID, dateStr)
	cached, rehydrated, haveCache := s.readCache(ctx, key)

	if !day.IsToday && haveCache {
		// Past days are immutable once fully observed.
		cached.Source = models.SourceCache
		if rehydrated {
			cached.Source = models.SourceCacheRehydrated
		}
		return cached, nil
	}

	var (
		logs   []models.PresenceLog
		source string
	)

	if day.IsToday && haveCache {
		lastKnown := day.Start
		if n := len(cached.LogsForDay); n > 0 {
			lastKnown = cached.LogsForDay[n-1].Timestamp
		}

		fresh, err := s.logs.ListAfter(ctx, workspaceID, userID, lastKnown, day.End)
		if err != nil {
			return models.ActivityData{}, fmt.Errorf("incremental log fetch: %w", err)
		}

		logs = make([]models.PresenceLog, 0, len(cached.LogsForDay)+len(fresh))
		logs = append(logs, cached.LogsForDay...)
		logs = append(logs, fresh...)

		if len(fresh) > 0 {
			source = models.SourceStoreIncr
		} else {
			source = models.SourceCacheNoNewLogs
		}
	} else {
		logs, err = s.logs.ListRange(ctx, workspaceID, userID, day.Start, day.End)
		if err != nil {
			return models.ActivityData{}, fmt.Errorf("full log fetch: %w", err)
		}
		source = models.SourceStoreFull
	}

	prevDay := day.Prev()
	prior, err := s.logs.LastInRange(ctx, workspaceID, userID, prevDay.Start, prevDay.End)
	if err != nil {
		return models.ActivityData{}, fmt.Errorf("prior-day state fetch: %w", err)
	}

	data := DeriveFromLogs(logs, prior, day, now)
	data.Source = source

	s.writeCache(ctx, key, data, now)
	return data, nil
}

func cacheKey(workspaceID, userID, dateStr string) string {
	return fmt.Sprintf("activity:%s:%s:%s", workspaceID, userID, dateStr)
}

func (s *Service) readCache(ctx context.Context, key string) (models.ActivityData, bool, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("activity cache: read failed for %s: %v", key, err)
		return models.ActivityData{}, false, false
	}
	if raw == nil {
		return models.ActivityData{}, false, false
	}

	data, rehydrated, err := decodeEnvelope(raw, s.loc)
	if err != nil {
		log.Printf("activity cache: corrupt entry for %s: %v", key, err)
		return models.ActivityData{}, false, false
	}
	return data, rehydrated, true
}

func (s *Service) writeCache(ctx context.Context, key string, data models.ActivityData, now time.Time) {
	raw, err := encodeEnvelope(data, now)
	if err != nil {
		log.Printf("activity cache: encode failed for %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		log.Printf("activity cache: write failed for %s: %v", key, err)
	}
}
