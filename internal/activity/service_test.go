package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"slackpulse-backend/internal/cache"
	"slackpulse-backend/internal/models"
)

type fakeLogStore struct {
	logs []models.PresenceLog

	rangeCalls int
	afterCalls int
	failAll    bool
}

func (f *fakeLogStore) ListRange(_ context.Context, _, _ string, from, to time.Time) ([]models.PresenceLog, error) {
	if f.failAll {
		return nil, errors.New("store unavailable")
	}
	f.rangeCalls++
	var out []models.PresenceLog
	for _, l := range f.logs {
		if !l.Timestamp.Before(from) && !l.Timestamp.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLogStore) ListAfter(_ context.Context, _, _ string, after, to time.Time) ([]models.PresenceLog, error) {
	if f.failAll {
		return nil, errors.New("store unavailable")
	}
	f.afterCalls++
	var out []models.PresenceLog
	for _, l := range f.logs {
		if l.Timestamp.After(after) && !l.Timestamp.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLogStore) LastInRange(_ context.Context, _, _ string, from, to time.Time) (*models.PresenceLog, error) {
	if f.failAll {
		return nil, errors.New("store unavailable")
	}
	var last *models.PresenceLog
	for i := range f.logs {
		l := f.logs[i]
		if l.Timestamp.Before(from) || l.Timestamp.After(to) {
			continue
		}
		if last == nil || l.Timestamp.After(last.Timestamp) {
			last = &l
		}
	}
	return last, nil
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("quota exceeded")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("quota exceeded")
}

func newTestService(store LogStore, c cache.Cache, now time.Time) *Service {
	svc := NewService(store, c, time.UTC, time.Hour)
	svc.now = func() time.Time { return now }
	return svc
}

func TestServiceFullFetchThenIncrementalEquivalence(t *testing.T) {
	morning := []models.PresenceLog{
		{UserID: "U1", Presence: models.PresenceActive, Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		{UserID: "U1", Presence: models.PresenceAway, Timestamp: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)},
	}
	afternoon := []models.PresenceLog{
		{UserID: "U1", Presence: models.PresenceActive, Timestamp: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)},
		{UserID: "U1", Presence: models.PresenceAway, Timestamp: time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)},
	}
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	// Incremental path: first view sees the morning, second view after the
	// afternoon logs arrive.
	store := &fakeLogStore{logs: morning}
	svc := newTestService(store, cache.NewMemory(), now)

	first, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("first derivation failed: %v", err)
	}
	if first.Source != models.SourceStoreFull {
		t.Errorf("expected store_full on cold cache, got %s", first.Source)
	}

	store.logs = append(store.logs, afternoon...)
	incremental, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("incremental derivation failed: %v", err)
	}
	if incremental.Source != models.SourceStoreIncr {
		t.Errorf("expected store_incremental, got %s", incremental.Source)
	}
	if store.rangeCalls != 1 {
		t.Errorf("expected exactly one full-range query, got %d", store.rangeCalls)
	}

	// One-shot path over the same total observations.
	oneShotStore := &fakeLogStore{logs: append(append([]models.PresenceLog{}, morning...), afternoon...)}
	oneShotSvc := newTestService(oneShotStore, cache.NewMemory(), now)
	full, err := oneShotSvc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("one-shot derivation failed: %v", err)
	}

	if incremental.TotalActiveMs != full.TotalActiveMs {
		t.Errorf("incremental total %d != full total %d", incremental.TotalActiveMs, full.TotalActiveMs)
	}
	if len(incremental.WorkSessions) != len(full.WorkSessions) {
		t.Fatalf("incremental sessions %d != full sessions %d", len(incremental.WorkSessions), len(full.WorkSessions))
	}
	for i := range full.WorkSessions {
		if incremental.WorkSessions[i] != full.WorkSessions[i] {
			t.Errorf("session %d differs: %+v vs %+v", i, incremental.WorkSessions[i], full.WorkSessions[i])
		}
	}
}

func TestServiceRevalidatedWithNoNewLogs(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	store := &fakeLogStore{logs: []models.PresenceLog{
		{UserID: "U1", Presence: models.PresenceActive, Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		{UserID: "U1", Presence: models.PresenceAway, Timestamp: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(store, cache.NewMemory(), now)

	if _, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10"); err != nil {
		t.Fatalf("warm-up derivation failed: %v", err)
	}

	second, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("revalidation failed: %v", err)
	}
	if second.Source != models.SourceCacheNoNewLogs {
		t.Errorf("expected cache_revalidated_no_new_logs, got %s", second.Source)
	}
	if second.TotalActiveMs != 3_600_000 {
		t.Errorf("expected unchanged 1h total, got %d", second.TotalActiveMs)
	}
}

func TestServicePastDayIsServedFromCacheWithoutStoreQueries(t *testing.T) {
	now := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	store := &fakeLogStore{logs: []models.PresenceLog{
		{UserID: "U1", Presence: models.PresenceActive, Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		{UserID: "U1", Presence: models.PresenceAway, Timestamp: time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(store, cache.NewMemory(), now)

	first, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("initial derivation failed: %v", err)
	}
	if first.Source != models.SourceStoreFull {
		t.Errorf("expected store_full, got %s", first.Source)
	}

	cachedHit, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if cachedHit.Source != models.SourceCacheRehydrated {
		t.Errorf("expected rehydrated cache hit, got %s", cachedHit.Source)
	}
	if cachedHit.TotalActiveMs != first.TotalActiveMs {
		t.Errorf("cached total %d != derived total %d", cachedHit.TotalActiveMs, first.TotalActiveMs)
	}
	if store.rangeCalls != 1 || store.afterCalls != 0 {
		t.Errorf("expected no additional store queries, got range=%d after=%d", store.rangeCalls, store.afterCalls)
	}
	if len(cachedHit.LogsForDay) != 2 {
		t.Errorf("expected raw logs preserved through the cache, got %d", len(cachedHit.LogsForDay))
	}
	for _, l := range cachedHit.LogsForDay {
		if l.Timestamp.IsZero() {
			t.Errorf("expected rehydrated timestamps, got zero value")
		}
	}
}

func TestServiceCacheFailureDegradesToNoCache(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	store := &fakeLogStore{logs: []models.PresenceLog{
		{UserID: "U1", Presence: models.PresenceActive, Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(store, failingCache{}, now)

	data, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("expected cache failure to be absorbed, got %v", err)
	}
	if data.Source != models.SourceStoreFull {
		t.Errorf("expected full fetch fallback, got %s", data.Source)
	}
	if data.TotalActiveMs == 0 {
		t.Errorf("expected derivation to proceed without cache")
	}
}

func TestServiceCorruptCacheEntryIsIgnored(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	store := &fakeLogStore{logs: []models.PresenceLog{
		{UserID: "U1", Presence: models.PresenceActive, Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
	}}
	mem := cache.NewMemory()
	mem.Set(context.Background(), cacheKey("T1", "U1", "2026-03-10"), []byte("{not json"), 0)
	svc := newTestService(store, mem, now)

	data, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10")
	if err != nil {
		t.Fatalf("expected corrupt entry to degrade to no cache, got %v", err)
	}
	if data.Source != models.SourceStoreFull {
		t.Errorf("expected full fetch after corrupt entry, got %s", data.Source)
	}
}

func TestServiceStoreFailurePropagates(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeLogStore{failAll: true}, cache.NewMemory(), now)

	if _, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "2026-03-10"); err == nil {
		t.Fatalf("expected store failure to propagate")
	}
}

func TestServiceRejectsMalformedDate(t *testing.T) {
	svc := newTestService(&fakeLogStore{}, cache.NewMemory(), time.Now())
	if _, err := svc.CalculateActivityForDate(context.Background(), "T1", "U1", "not-a-date"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
