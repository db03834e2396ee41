package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gomate/internal/domain"
	"gomate/internal/remote"
)

type orchestratorFixture struct {
	store    *MockStore
	clock    *testClock
	conn     *MockConnectivity
	prefs    *PreferenceService
	calls    int32
	fetch    func(ctx context.Context, call int32) ([]domain.Route, error)
	orch     *Orchestrator[[]domain.Route]
	volatile interface {
		Get(string) (interface{}, bool)
	}
}

func newOrchestratorFixture(cfg OrchestratorConfig, fetch func(ctx context.Context, call int32) ([]domain.Route, error)) *orchestratorFixture {
	f := &orchestratorFixture{
		store: NewMockStore(),
		clock: newTestClock(),
		conn:  &MockConnectivity{},
		fetch: fetch,
	}
	volatile, offline := newTestCaches(f.store, f.clock)
	f.volatile = volatile
	f.prefs = NewPreferenceService(f.store, f.clock.Now, nil)
	f.orch = NewOrchestrator(Dataset[[]domain.Route]{
		Name:        DatasetSchedule,
		VolatileKey: VolatileKeySchedule,
		Fetch: func(ctx context.Context) ([]domain.Route, error) {
			return f.fetch(ctx, atomic.AddInt32(&f.calls, 1))
		},
	}, cfg, volatile, offline, f.conn, f.prefs, nil)
	return f
}

func routesNamed(names ...string) []domain.Route {
	routes := make([]domain.Route, 0, len(names))
	for _, name := range names {
		routes = append(routes, domain.Route{ID: name, Name: name, Stops: []string{}})
	}
	return routes
}

func TestOrchestrator_FreshFetchWritesThrough(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(OrchestratorConfig{AllowStaleFallback: true}, func(context.Context, int32) ([]domain.Route, error) {
		return routesNamed("A"), nil
	})

	res, err := f.orch.Read(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != SyncStateFresh || len(res.Data) != 1 || res.Data[0].ID != "A" {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.orch.State() != SyncStateFresh {
		t.Errorf("expected state FRESH, got %s", f.orch.State())
	}

	// The second read is served from the volatile cache.
	if _, err := f.orch.Read(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", f.calls)
	}

	cached, ok := f.orch.Cached(ctx)
	if !ok || cached[0].ID != "A" {
		t.Errorf("expected durable copy of A, got %+v", cached)
	}
	if _, ok := f.prefs.LastSync(ctx); !ok {
		t.Error("expected last sync to be recorded")
	}
}

func TestOrchestrator_VolatileExpiryRefetches(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(OrchestratorConfig{}, func(context.Context, int32) ([]domain.Route, error) {
		return routesNamed("A"), nil
	})

	_, _ = f.orch.Read(ctx)
	f.clock.Advance(5*time.Minute + time.Second)
	_, _ = f.orch.Read(ctx)

	if f.calls != 2 {
		t.Errorf("expected a refetch after the TTL, got %d fetches", f.calls)
	}
}

func TestOrchestrator_FallbackServed(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(OrchestratorConfig{AllowStaleFallback: true}, func(_ context.Context, call int32) ([]domain.Route, error) {
		if call == 1 {
			return routesNamed("D"), nil
		}
		return nil, remote.ErrNetwork
	})

	if _, err := f.orch.Read(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.orch.ForceRefresh()

	res, err := f.orch.Read(ctx)
	if err != nil {
		t.Fatalf("fallback must not fail, got %v", err)
	}
	if res.State != SyncStateFallbackServed || res.Data[0].ID != "D" {
		t.Fatalf("expected D from fallback, got %+v", res)
	}
	if res.Stale {
		t.Error("a fresh durable entry is not stale")
	}
	if f.orch.State() != SyncStateFallbackServed {
		t.Errorf("expected state FALLBACK_SERVED, got %s", f.orch.State())
	}
}

func TestOrchestrator_StaleFallback(t *testing.T) {
	ctx := context.Background()
	fail := false
	fetch := func(context.Context, int32) ([]domain.Route, error) {
		if fail {
			return nil, remote.ErrTimeout
		}
		return routesNamed("old"), nil
	}

	f := newOrchestratorFixture(OrchestratorConfig{AllowStaleFallback: true}, fetch)
	_, _ = f.orch.Read(ctx)
	fail = true
	f.clock.Advance(48 * time.Hour)

	res, err := f.orch.Read(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Stale || res.State != SyncStateFallbackServed {
		t.Errorf("expected stale fallback, got %+v", res)
	}

	strict := newOrchestratorFixture(OrchestratorConfig{AllowStaleFallback: false}, fetch)
	fail = false
	_, _ = strict.orch.Read(ctx)
	fail = true
	strict.clock.Advance(48 * time.Hour)

	if _, err := strict.orch.Read(ctx); !errors.Is(err, ErrNoDataAvailable) {
		t.Errorf("expected ErrNoDataAvailable without stale fallback, got %v", err)
	}
}

func TestOrchestrator_ColdFailure(t *testing.T) {
	f := newOrchestratorFixture(OrchestratorConfig{AllowStaleFallback: true}, func(context.Context, int32) ([]domain.Route, error) {
		return nil, remote.ErrNetwork
	})

	res, err := f.orch.Read(context.Background())
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
	if !errors.Is(err, remote.ErrNetwork) {
		t.Errorf("expected the cause to be kept, got %v", err)
	}
	if res.State != SyncStateFailed || res.Data != nil {
		t.Errorf("expected empty FAILED result, got %+v", res)
	}
}

func TestOrchestrator_GenerationOrdering(t *testing.T) {
	ctx := context.Background()
	releaseA := make(chan struct{})
	f := newOrchestratorFixture(OrchestratorConfig{AllowStaleFallback: true}, func(_ context.Context, call int32) ([]domain.Route, error) {
		if call == 1 {
			<-releaseA
			return routesNamed("A"), nil
		}
		return routesNamed("B"), nil
	})

	resA := make(chan Result[[]domain.Route], 1)
	go func() {
		res, _ := f.orch.Read(ctx)
		resA <- res
	}()
	if !waitFor(func() bool { return atomic.LoadInt32(&f.calls) == 1 }) {
		t.Fatal("fetch A never started")
	}

	f.orch.ForceRefresh()
	resB, err := f.orch.Read(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resB.Data[0].ID != "B" {
		t.Fatalf("expected B, got %+v", resB.Data)
	}

	close(releaseA)
	late := <-resA
	if late.Data[0].ID != "A" {
		t.Errorf("the superseded caller still gets its own result, got %+v", late.Data)
	}

	cached, ok := f.volatile.Get(VolatileKeySchedule)
	if !ok || cached.([]domain.Route)[0].ID != "B" {
		t.Errorf("volatile cache regressed to %+v", cached)
	}
	durable, ok := f.orch.Cached(ctx)
	if !ok || durable[0].ID != "B" {
		t.Errorf("durable cache regressed to %+v", durable)
	}
	if f.orch.Generation() != 1 {
		t.Errorf("expected generation 1, got %d", f.orch.Generation())
	}
}

func TestOrchestrator_SingleFlight(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	f := newOrchestratorFixture(OrchestratorConfig{}, func(context.Context, int32) ([]domain.Route, error) {
		<-release
		return routesNamed("shared"), nil
	})

	const readers = 5
	var wg sync.WaitGroup
	results := make([]Result[[]domain.Route], readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = f.orch.Read(ctx)
		}(i)
	}

	if !waitFor(func() bool { return atomic.LoadInt32(&f.calls) == 1 }) {
		t.Fatal("fetch never started")
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&f.calls); got != 1 {
		t.Errorf("expected 1 fetch for joined readers, got %d", got)
	}
	for i, res := range results {
		if res.State != SyncStateFresh || res.Data[0].ID != "shared" {
			t.Errorf("reader %d got %+v", i, res)
		}
	}
}

func TestOrchestrator_SingleFlightSharesFailure(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	f := newOrchestratorFixture(OrchestratorConfig{}, func(context.Context, int32) ([]domain.Route, error) {
		<-release
		return nil, remote.ErrNetwork
	})

	const readers = 3
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		go func() {
			_, err := f.orch.Read(ctx)
			errs <- err
		}()
	}

	if !waitFor(func() bool { return atomic.LoadInt32(&f.calls) == 1 }) {
		t.Fatal("fetch never started")
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < readers; i++ {
		if err := <-errs; !errors.Is(err, ErrNoDataAvailable) {
			t.Errorf("expected ErrNoDataAvailable, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&f.calls); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}
}

func TestOrchestrator_OfflineSkipsRemote(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(OrchestratorConfig{AllowStaleFallback: true}, func(context.Context, int32) ([]domain.Route, error) {
		return routesNamed("live"), nil
	})

	_, _ = f.orch.Read(ctx)
	f.orch.ForceRefresh()
	f.conn.SetOffline(true)

	res, err := f.orch.Read(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != SyncStateFallbackServed {
		t.Errorf("expected FALLBACK_SERVED while offline, got %s", res.State)
	}
	if f.calls != 1 {
		t.Errorf("expected no fetch while offline, got %d", f.calls)
	}
}

func TestOrchestrator_CallerCancelDoesNotCancelFetch(t *testing.T) {
	release := make(chan struct{})
	var sawCancel atomic.Bool
	f := newOrchestratorFixture(OrchestratorConfig{}, func(ctx context.Context, _ int32) ([]domain.Route, error) {
		select {
		case <-release:
		case <-ctx.Done():
			sawCancel.Store(true)
			return nil, ctx.Err()
		}
		return routesNamed("A"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Read(ctx)
		done <- err
	}()
	if !waitFor(func() bool { return atomic.LoadInt32(&f.calls) == 1 }) {
		t.Fatal("fetch never started")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	close(release)
	if !waitFor(func() bool { _, ok := f.volatile.Get(VolatileKeySchedule); return ok }) {
		t.Error("the shared fetch should still complete and write through")
	}
	if sawCancel.Load() {
		t.Error("fetch saw the caller's cancellation")
	}
}

func TestOrchestrator_PersistFailureKeepsResult(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(OrchestratorConfig{}, func(context.Context, int32) ([]domain.Route, error) {
		return routesNamed("A"), nil
	})
	f.store.SetErrors(nil, errStoreDown)

	res, err := f.orch.Read(ctx)
	if err != nil {
		t.Fatalf("storage failure must not surface, got %v", err)
	}
	if res.State != SyncStateFresh || res.Data[0].ID != "A" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestOrchestrator_LateCallerKeepsNewerState(t *testing.T) {
	ctx := context.Background()
	releaseA := make(chan struct{})
	f := newOrchestratorFixture(OrchestratorConfig{}, func(_ context.Context, call int32) ([]domain.Route, error) {
		if call == 1 {
			<-releaseA
			return routesNamed("A"), nil
		}
		return nil, remote.ErrNetwork
	})

	done := make(chan SyncState, 1)
	go func() {
		res, _ := f.orch.Read(ctx)
		done <- res.State
	}()
	if !waitFor(func() bool { return atomic.LoadInt32(&f.calls) == 1 }) {
		t.Fatal("fetch A never started")
	}

	f.orch.ForceRefresh()
	if _, err := f.orch.Read(ctx); !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
	if f.orch.State() != SyncStateFailed {
		t.Fatalf("expected state FAILED, got %s", f.orch.State())
	}

	close(releaseA)
	if late := <-done; late != SyncStateFresh {
		t.Errorf("the superseded caller should still see its own result, got %s", late)
	}
	if f.orch.State() != SyncStateFailed {
		t.Errorf("superseded caller overwrote state with %s", f.orch.State())
	}
}

func TestOrchestrator_StateDoesNotWaitOnDurableWrite(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(OrchestratorConfig{}, func(context.Context, int32) ([]domain.Route, error) {
		return routesNamed("A"), nil
	})

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.store.mu.Lock()
	f.store.SetHook = func(string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	f.store.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Read(ctx)
		done <- err
	}()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("durable write never started")
	}

	states := make(chan SyncState, 1)
	go func() { states <- f.orch.State() }()
	select {
	case state := <-states:
		if state != SyncStateFetching {
			t.Errorf("expected state FETCHING during write-through, got %s", state)
		}
	case <-time.After(time.Second):
		t.Fatal("State blocked on the durable write")
	}
	if f.orch.Generation() != 0 {
		t.Errorf("expected generation 0, got %d", f.orch.Generation())
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orch.State() != SyncStateFresh {
		t.Errorf("expected state FRESH, got %s", f.orch.State())
	}
}
