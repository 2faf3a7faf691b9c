package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/infra/clock"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/token/tokentest"
)

var epoch = time.Unix(1_800_000_000, 0)

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type memPersister struct {
	mu      sync.Mutex
	rec     *domain.PersistedSession
	loadErr error
	saves   int
	clears  int
}

func (p *memPersister) Load(context.Context) (*domain.PersistedSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.rec == nil {
		return nil, nil
	}
	cp := *p.rec
	return &cp, nil
}

func (p *memPersister) Save(_ context.Context, s *domain.PersistedSession) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *s
	p.rec = &cp
	p.saves++
	return nil
}

func (p *memPersister) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec = nil
	p.clears++
	return nil
}

type fixture struct {
	clock   *clock.Fake
	nav     *recordingNavigator
	metrics *metric.Registry
	store   *Store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:   clock.NewFake(epoch),
		nav:     &recordingNavigator{},
		metrics: metric.NewRegistry(),
	}
	base := []Option{
		WithClock(f.clock),
		WithNavigator(f.nav),
		WithMetrics(f.metrics),
		WithLogger(logger.Nop()),
	}
	f.store = New(append(base, opts...)...)
	t.Cleanup(func() { f.store.Close() })
	return f
}

func TestNew_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	st := f.store.State()
	if st.State != domain.StateUnauthenticated {
		t.Errorf("State = %v, want unauthenticated", st.State)
	}
	if !st.Expired {
		t.Error("Expired should be true without a token")
	}
	if st.Watching {
		t.Error("Watching should be false")
	}
}

func TestStore_ExpiredTokenLogsOutOnFirstTick(t *testing.T) {
	f := newFixture(t)
	f.store.SetToken(tokentest.New(t, epoch.Add(-time.Second)))
	f.store.StartWatcher()

	f.clock.Advance(time.Second)

	if f.store.HasToken() {
		t.Error("token should be cleared")
	}
	if f.store.Watching() {
		t.Error("watcher should be stopped")
	}
	if !f.store.IsExpired() {
		t.Error("session should be expired")
	}
	if got := f.nav.calls(); len(got) != 1 || got[0] != DefaultEntryPath {
		t.Errorf("navigation = %v, want [%q]", got, DefaultEntryPath)
	}
	if got := testutil.ToFloat64(f.metrics.Logouts.WithLabelValues(metric.ReasonExpired)); got != 1 {
		t.Errorf("expired logouts = %v, want 1", got)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", f.clock.Pending())
	}
}

func TestStore_ValidTokenSurvivesTicks(t *testing.T) {
	f := newFixture(t)
	tok := tokentest.New(t, epoch.Add(time.Hour))
	f.store.SetToken(tok)
	f.store.StartWatcher()

	f.clock.Advance(2 * time.Second)

	if f.store.Token() != tok {
		t.Error("token should be unchanged")
	}
	if f.store.IsExpired() {
		t.Error("session should not be expired")
	}
	if !f.store.Watching() {
		t.Error("watcher should still run")
	}
	if len(f.nav.calls()) != 0 {
		t.Errorf("navigation = %v, want none", f.nav.calls())
	}
	if got := testutil.ToFloat64(f.metrics.WatcherTicks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
}

func TestStore_ExpiresWhenClockReachesExp(t *testing.T) {
	f := newFixture(t)
	f.store.SetToken(tokentest.New(t, epoch.Add(3*time.Second)))
	f.store.StartWatcher()

	f.clock.Advance(2 * time.Second)
	if !f.store.HasToken() {
		t.Fatal("token should survive until exp")
	}

	f.clock.Advance(time.Second)
	if f.store.HasToken() {
		t.Error("token should be cleared once now reaches exp")
	}
	if len(f.nav.calls()) != 1 {
		t.Errorf("navigation calls = %d, want 1", len(f.nav.calls()))
	}
}

func TestStore_MalformedTokenLogsOut(t *testing.T) {
	f := newFixture(t)
	f.store.SetToken("not-a-jwt")
	f.store.StartWatcher()

	f.clock.Advance(time.Second)

	if f.store.HasToken() {
		t.Error("malformed token should be cleared")
	}
	if len(f.nav.calls()) != 1 {
		t.Errorf("navigation calls = %d, want 1", len(f.nav.calls()))
	}
	if got := testutil.ToFloat64(f.metrics.Logouts.WithLabelValues(metric.ReasonMalformed)); got != 1 {
		t.Errorf("malformed logouts = %v, want 1", got)
	}
}

func TestStore_StartWithoutToken(t *testing.T) {
	f := newFixture(t)

	f.store.StartWatcher()

	if f.store.Watching() {
		t.Error("watcher should not be scheduled without a token")
	}
	if f.clock.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", f.clock.Pending())
	}
	if !f.store.IsExpired() {
		t.Error("session should be marked expired")
	}
}

func TestStore_StopPreventsFurtherChecks(t *testing.T) {
	f := newFixture(t)
	f.store.SetToken(tokentest.New(t, epoch.Add(2*time.Second)))
	f.store.StartWatcher()
	f.clock.Advance(time.Second)

	f.store.StopWatcher()
	f.clock.Advance(time.Hour)

	if !f.store.HasToken() {
		t.Error("no check should run after stop")
	}
	if got := testutil.ToFloat64(f.metrics.WatcherTicks); got != 1 {
		t.Errorf("ticks = %v, want 1", got)
	}
	if len(f.nav.calls()) != 0 {
		t.Error("no navigation expected after stop")
	}
}

func TestStore_StopIsSafeWithoutWatcher(t *testing.T) {
	f := newFixture(t)
	f.store.StopWatcher()
	f.store.StopWatcher()

	if f.store.Watching() {
		t.Error("Watching should be false")
	}
}

func TestStore_StartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.store.SetToken(tokentest.New(t, epoch.Add(time.Hour)))

	f.store.StartWatcher()
	f.store.StartWatcher()

	if f.clock.Pending() != 1 {
		t.Errorf("pending timers = %d, want 1", f.clock.Pending())
	}

	f.clock.Advance(time.Second)
	if got := testutil.ToFloat64(f.metrics.WatcherTicks); got != 1 {
		t.Errorf("ticks = %v, want 1", got)
	}
}

func TestStore_LogoutIsReentrant(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Login(tokentest.New(t, epoch.Add(time.Hour))); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	f.store.Logout()
	f.store.Logout()

	if f.store.HasToken() || f.store.Watching() {
		t.Error("session should stay logged out")
	}
	if got := f.nav.calls(); len(got) != 2 {
		t.Errorf("navigation calls = %d, want 2", len(got))
	}
	f.clock.Advance(time.Minute)
	if got := testutil.ToFloat64(f.metrics.WatcherTicks); got != 0 {
		t.Errorf("ticks after logout = %v, want 0", got)
	}
}

func TestStore_LoginRequiresToken(t *testing.T) {
	f := newFixture(t)

	err := f.store.Login("")
	if !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Login(\"\") error = %v, want ErrMissingArgument", err)
	}
}

func TestStore_SetEmptyTokenStopsWatcher(t *testing.T) {
	f := newFixture(t)
	f.store.Login(tokentest.New(t, epoch.Add(time.Hour)))

	f.store.SetToken("")

	if f.store.Watching() {
		t.Error("watcher should stop when the token is cleared")
	}
	if !f.store.IsExpired() {
		t.Error("session should be expired without a token")
	}
	if len(f.nav.calls()) != 0 {
		t.Error("clearing the token directly should not navigate")
	}
}

func TestStore_LoginAfterLogoutRestartsWatcher(t *testing.T) {
	f := newFixture(t)
	f.store.Login(tokentest.New(t, epoch.Add(-time.Second)))
	f.clock.Advance(time.Second)
	if f.store.HasToken() {
		t.Fatal("expired token should be cleared")
	}

	tok := tokentest.New(t, epoch.Add(time.Hour))
	f.store.Login(tok)
	f.clock.Advance(3 * time.Second)

	if f.store.Token() != tok || !f.store.Watching() {
		t.Error("new session should be active and watched")
	}
}

func TestStore_CustomEntryPathAndInterval(t *testing.T) {
	f := newFixture(t, WithEntryPath("/login"), WithInterval(5*time.Second))
	f.store.Login(tokentest.New(t, epoch.Add(-time.Second)))

	f.clock.Advance(4 * time.Second)
	if !f.store.HasToken() {
		t.Fatal("no tick should fire before the interval")
	}

	f.clock.Advance(time.Second)
	if got := f.nav.calls(); len(got) != 1 || got[0] != "/login" {
		t.Errorf("navigation = %v, want [/login]", got)
	}
}

func TestStore_InitRestoresPersistedSession(t *testing.T) {
	tok := tokentest.New(t, epoch.Add(time.Hour))
	p := &memPersister{rec: &domain.PersistedSession{Token: tok}}
	f := newFixture(t, WithPersister(p))

	f.store.Init(context.Background())

	if f.store.Token() != tok {
		t.Error("token should be restored")
	}
	if !f.store.Watching() {
		t.Error("watcher should start after restore")
	}
}

func TestStore_InitWithoutPersistedSession(t *testing.T) {
	f := newFixture(t, WithPersister(&memPersister{}))

	f.store.Init(context.Background())

	if f.store.HasToken() || f.store.Watching() {
		t.Error("store should stay unauthenticated")
	}
}

func TestStore_InitLoadFailure(t *testing.T) {
	p := &memPersister{loadErr: errors.New("disk on fire")}
	f := newFixture(t, WithPersister(p))

	f.store.Init(context.Background())

	if f.store.HasToken() {
		t.Error("store should stay unauthenticated after a load failure")
	}
}

func TestStore_PersistsLoginAndClearsOnLogout(t *testing.T) {
	p := &memPersister{}
	f := newFixture(t, WithPersister(p))
	tok := tokentest.New(t, epoch.Add(-time.Second))

	f.store.Login(tok)
	if p.rec == nil || p.rec.Token != tok {
		t.Fatalf("persisted = %+v, want token saved", p.rec)
	}
	if p.rec.SavedAt != epoch.UnixMilli() {
		t.Errorf("SavedAt = %d, want %d", p.rec.SavedAt, epoch.UnixMilli())
	}

	f.clock.Advance(time.Second)

	if p.rec != nil {
		t.Errorf("persisted = %+v, want cleared", p.rec)
	}
	if p.clears != 1 {
		t.Errorf("clears = %d, want 1", p.clears)
	}
}

func TestStore_LogoutDuringConcurrentReads(t *testing.T) {
	s := New(WithLogger(logger.Nop()), WithInterval(time.Millisecond))
	defer s.Close()
	s.Login(tokentest.New(t, time.Now().Add(time.Hour)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.State()
				_ = s.HasToken()
			}
		}()
	}
	s.Logout()
	wg.Wait()

	if s.HasToken() || s.Watching() {
		t.Error("session should be logged out")
	}
}

func TestStore_Info(t *testing.T) {
	f := newFixture(t)

	info := f.store.Info()
	if info.State != "unauthenticated" || info.Subject != "" || !info.Expired {
		t.Errorf("Info() without token = %+v", info)
	}

	exp := epoch.Add(90 * time.Second)
	if err := f.store.Login(tokentest.New(t, exp)); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	info = f.store.Info()
	if info.State != "authenticated" {
		t.Errorf("State = %q, want authenticated", info.State)
	}
	if info.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", info.Subject)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if info.Remaining != 90*time.Second {
		t.Errorf("Remaining = %v, want 90s", info.Remaining)
	}
	if !info.Watching {
		t.Error("Watching should be true after Login")
	}
}

func TestStore_Validate(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		tok  string
		want *domain.DomainError
	}{
		{"valid", tokentest.New(t, epoch.Add(time.Hour)), nil},
		{"empty", "", domain.ErrMissingArgument},
		{"malformed", "not-a-jwt", domain.ErrTokenMalformed},
		{"expired", tokentest.New(t, epoch.Add(-time.Second)), domain.ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.store.Validate(tt.tok)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
	if f.store.HasToken() {
		t.Error("Validate must not assign the token")
	}
}
