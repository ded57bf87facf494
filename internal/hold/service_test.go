package hold

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/override"
)

// memRepo simulates the transactional capacity check in memory. The mutex
// stands in for the row lock the real repository takes, so concurrent
// acquires observe the same check-then-insert atomicity.
type memRepo struct {
	mu     sync.Mutex
	rows   map[string]*Hold
	nextID int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]*Hold{}}
}

func (m *memRepo) activeOverlapping(offeringID string, start, end time.Time, now time.Time) int {
	n := 0
	for _, h := range m.rows {
		if h.OfferingID != offeringID || !h.ActiveAt(now) {
			continue
		}
		if h.WindowStart.Before(end) && h.WindowEnd.After(start) {
			n++
		}
	}
	return n
}

func (m *memRepo) Acquire(ctx context.Context, h *Hold, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if m.activeOverlapping(h.OfferingID, h.WindowStart, h.WindowEnd, now) >= capacity {
		return ErrSlotUnavailable
	}
	m.nextID++
	h.ID = fmt.Sprintf("hold-%d", m.nextID)
	h.Status = StatusActive
	h.CreatedAt = now
	cp := *h
	m.rows[h.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *memRepo) GetActiveByRequestID(ctx context.Context, requestID string) (*Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, h := range m.rows {
		if h.BookingRequestID == requestID && h.ActiveAt(now) {
			cp := *h
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) Renew(ctx context.Context, id string, expiresAt time.Time) (*Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rows[id]
	if !ok || h.Status != StatusActive {
		return nil, ErrNotFound
	}
	if !h.ExpiresAt.After(time.Now().UTC()) {
		return nil, ErrAlreadyExpired
	}
	h.ExpiresAt = expiresAt
	cp := *h
	return &cp, nil
}

func (m *memRepo) Release(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.rows[id]; ok && h.Status == StatusActive {
		h.Status = StatusReleased
	}
	return nil
}

func (m *memRepo) ReleaseTx(ctx context.Context, tx pgx.Tx, id string) error {
	return m.Release(ctx, id)
}

func (m *memRepo) ReleaseByRequestID(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.rows {
		if h.BookingRequestID == requestID && h.Status == StatusActive {
			h.Status = StatusReleased
		}
	}
	return nil
}

func (m *memRepo) CountActiveOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeOverlapping(offeringID, start, end, time.Now().UTC()), nil
}

func (m *memRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, h := range m.rows {
		if h.Status == StatusActive && !h.ExpiresAt.After(now) {
			h.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memRepo) ActiveWindowCounts(ctx context.Context, now time.Time) ([]WindowCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey := map[string]*WindowCount{}
	for _, h := range m.rows {
		if !h.ActiveAt(now) {
			continue
		}
		key := h.OfferingID + h.WindowStart.String()
		if wc, ok := byKey[key]; ok {
			wc.Holds++
			continue
		}
		byKey[key] = &WindowCount{
			OfferingID:  h.OfferingID,
			WindowStart: h.WindowStart,
			WindowEnd:   h.WindowEnd,
			Holds:       1,
		}
	}
	var out []WindowCount
	for _, wc := range byKey {
		out = append(out, *wc)
	}
	return out, nil
}

type fakeOfferings struct {
	byID map[string]*offering.Offering
}

func (f *fakeOfferings) GetByID(ctx context.Context, id string) (*offering.Offering, error) {
	if o, ok := f.byID[id]; ok {
		return o, nil
	}
	return nil, offering.ErrNotFound
}

func (f *fakeOfferings) List(ctx context.Context, filter offering.Filter) ([]*offering.Offering, int, error) {
	return nil, 0, nil
}

type fakeOverrides struct {
	rows []*override.Override
}

func (f *fakeOverrides) Create(ctx context.Context, req override.CreateRequest) (*override.Override, error) {
	return nil, nil
}

func (f *fakeOverrides) ListForDate(ctx context.Context, offeringID string, date time.Time) ([]*override.Override, error) {
	return f.rows, nil
}

func (f *fakeOverrides) List(ctx context.Context, filter override.Filter) ([]*override.Override, int, error) {
	return f.rows, len(f.rows), nil
}

func (f *fakeOverrides) Delete(ctx context.Context, id string) error { return nil }

func testWindow() (time.Time, time.Time) {
	start := time.Date(2026, 7, 10, 14, 0, 0, 0, time.UTC)
	return start, start.Add(2 * time.Hour)
}

func newTestService(repo *memRepo, overrides *fakeOverrides, capacity int) Service {
	offerings := &fakeOfferings{byID: map[string]*offering.Offering{
		"off-1": {
			ID:                  "off-1",
			Name:                "Portrait Session",
			DayStart:            "10:00:00",
			DayEnd:              "18:00:00",
			SlotDurationMinutes: 120,
			SlotCapacity:        capacity,
		},
	}}
	return NewService(repo, offerings, overrides, 15*time.Minute, zap.NewNop())
}

func TestAcquireUpToCapacity(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeOverrides{}, 2)
	ctx := context.Background()
	start, end := testWindow()

	h1, err := svc.Acquire(ctx, "req-1", "off-1", start, end)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, h1.Status)
	assert.True(t, h1.ExpiresAt.After(time.Now().UTC()))

	_, err = svc.Acquire(ctx, "req-2", "off-1", start, end)
	require.NoError(t, err)

	// Third caller loses: capacity 2 is exhausted.
	_, err = svc.Acquire(ctx, "req-3", "off-1", start, end)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestConcurrentAcquiresRespectCapacity(t *testing.T) {
	const capacity = 3
	const callers = 16

	repo := newMemRepo()
	svc := newTestService(repo, &fakeOverrides{}, capacity)
	start, end := testWindow()

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Acquire(context.Background(), fmt.Sprintf("req-%d", i), "off-1", start, end)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotUnavailable):
			lost++
		default:
			t.Fatalf("unexpected acquire error: %v", err)
		}
	}
	assert.Equal(t, capacity, won, "exactly capacity acquires may win the window")
	assert.Equal(t, callers-capacity, lost)
}

func TestAcquireUnknownOffering(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeOverrides{}, 2)
	start, end := testWindow()

	_, err := svc.Acquire(context.Background(), "req-1", "missing", start, end)
	assert.ErrorIs(t, err, ErrOfferingMissing)
}

func TestAcquireBlackout(t *testing.T) {
	overrides := &fakeOverrides{rows: []*override.Override{{Blackout: true}}}
	svc := newTestService(newMemRepo(), overrides, 2)
	start, end := testWindow()

	_, err := svc.Acquire(context.Background(), "req-1", "off-1", start, end)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestAcquireCapacityOverride(t *testing.T) {
	one := 1
	overrides := &fakeOverrides{rows: []*override.Override{{CapacityOverride: &one}}}
	repo := newMemRepo()
	svc := newTestService(repo, overrides, 5)
	ctx := context.Background()
	start, end := testWindow()

	_, err := svc.Acquire(ctx, "req-1", "off-1", start, end)
	require.NoError(t, err)

	// The override shrinks capacity from 5 to 1.
	_, err = svc.Acquire(ctx, "req-2", "off-1", start, end)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestExpiredHoldFreesCapacity(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeOverrides{}, 1)
	ctx := context.Background()
	start, end := testWindow()

	h, err := svc.Acquire(ctx, "req-1", "off-1", start, end)
	require.NoError(t, err)

	// Lapse the stored hold; its capacity claim must evaporate without
	// any sweep running.
	repo.rows[h.ID].ExpiresAt = time.Now().UTC().Add(-time.Second)

	_, err = svc.Acquire(ctx, "req-2", "off-1", start, end)
	assert.NoError(t, err)
}

func TestReleaseIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeOverrides{}, 1)
	ctx := context.Background()
	start, end := testWindow()

	h, err := svc.Acquire(ctx, "req-1", "off-1", start, end)
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, h.ID))
	require.NoError(t, svc.Release(ctx, h.ID))

	// Released capacity is claimable again.
	_, err = svc.Acquire(ctx, "req-2", "off-1", start, end)
	assert.NoError(t, err)
}

func TestRenewLapsedHold(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeOverrides{}, 1)
	ctx := context.Background()
	start, end := testWindow()

	h, err := svc.Acquire(ctx, "req-1", "off-1", start, end)
	require.NoError(t, err)
	repo.rows[h.ID].ExpiresAt = time.Now().UTC().Add(-time.Second)

	_, err = svc.Renew(ctx, h.ID)
	assert.ErrorIs(t, err, ErrAlreadyExpired)
}

func TestSweeperExpiresStale(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeOverrides{}, 3)
	ctx := context.Background()
	start, end := testWindow()

	h1, err := svc.Acquire(ctx, "req-1", "off-1", start, end)
	require.NoError(t, err)
	h2, err := svc.Acquire(ctx, "req-2", "off-1", start, end)
	require.NoError(t, err)

	repo.rows[h1.ID].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	n, err := repo.ExpireStale(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StatusExpired, repo.rows[h1.ID].Status)
	assert.Equal(t, StatusActive, repo.rows[h2.ID].Status)
}
