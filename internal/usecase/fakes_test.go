package usecase

import (
	"context"
	"sync"

	"bakery-backend/internal/domain"
)

type fakeBranchRepo struct {
	mu       sync.Mutex
	branches map[int64]domain.Branch
	err      error
	calls    int
}

func newFakeBranchRepo(branches ...domain.Branch) *fakeBranchRepo {
	r := &fakeBranchRepo{branches: make(map[int64]domain.Branch)}
	for _, b := range branches {
		r.branches[b.ID] = b
	}
	return r
}

func (r *fakeBranchRepo) GetActiveBranchByID(ctx context.Context, id int64) (*domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	b, ok := r.branches[id]
	if !ok || !b.IsActive {
		return nil, domain.ErrBranchNotFound
	}
	return &b, nil
}

func (r *fakeBranchRepo) ListActiveBranches(ctx context.Context) ([]domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Branch
	for _, b := range r.branches {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeZoneRepo struct {
	mu        sync.Mutex
	zones     []domain.ShippingZone
	overrides []domain.BranchZoneOverride
	err       error
	calls     int
}

func (r *fakeZoneRepo) ListActiveZonesWithOverrides(ctx context.Context, branchID int64) ([]domain.ZoneWithOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.ZoneWithOverride
	for _, z := range r.zones {
		if !z.IsActive {
			continue
		}
		zw := domain.ZoneWithOverride{Zone: z}
		for i := range r.overrides {
			o := r.overrides[i]
			if o.BranchID == branchID && o.ZoneID == z.ID && o.IsActive {
				zw.Override = &o
			}
		}
		out = append(out, zw)
	}
	return out, nil
}

func (r *fakeZoneRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []domain.ShippingCalculationLog
	err     error
	panics  bool
	block   chan struct{}
	// stall waits for the write deadline instead of returning
	stall bool
}

func (r *fakeLogRepo) InsertCalculationLog(ctx context.Context, entry *domain.ShippingCalculationLog) error {
	if r.block != nil {
		<-r.block
	}
	if r.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	if r.panics {
		panic("insert exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLogRepo) snapshot() []domain.ShippingCalculationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ShippingCalculationLog, len(r.entries))
	copy(out, r.entries)
	return out
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }
