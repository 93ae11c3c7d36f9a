package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/session"
)

// newTestManager spins up a minimal mail service and a manager with an
// active session against it. listCalls counts message list requests.
func newTestManager(t *testing.T) (*session.Manager, *int64) {
	t.Helper()

	var listCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/domains", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hydra:member": [{"id": "d1", "domain": "example.test"}],
			"hydra:totalItems": 1
		}`))
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "acc-1", "address": "user@example.test"}`))
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "acc-1", "token": "tok-1"}`))
	})
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&listCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hydra:member": [], "hydra:totalItems": 0}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	manager := session.NewManager(session.Config{
		API:    mailtm.NewClient(server.URL),
		Logger: logger,
	})
	if _, err := manager.CreateAccount(context.Background(), "user", "pw", "example.test"); err != nil {
		t.Fatalf("creating test session: %v", err)
	}

	return manager, &listCalls
}

func TestPollerInitialFetch(t *testing.T) {
	manager, listCalls := newTestManager(t)

	p := New(manager, time.Hour)
	cmd := p.Start()
	defer p.Stop()

	msg := cmd()
	result, ok := msg.(RefreshResultMsg)
	if !ok {
		t.Fatalf("expected RefreshResultMsg, got %T", msg)
	}
	if result.Err != nil {
		t.Errorf("initial fetch failed: %v", result.Err)
	}
	if result.Skipped {
		t.Error("initial fetch must not be skipped")
	}

	if calls := atomic.LoadInt64(listCalls); calls != 1 {
		t.Errorf("expected 1 list call, got %d", calls)
	}

	state, lastSync, err := p.Status()
	if state != Idle {
		t.Errorf("expected Idle after fetch, got %v", state)
	}
	if err != nil {
		t.Errorf("unexpected poller error: %v", err)
	}
	if lastSync.IsZero() {
		t.Error("expected lastSync to be set")
	}
}

func TestPollerReportsFetchFailure(t *testing.T) {
	// A manager with no session makes every fetch fail.
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	manager := session.NewManager(session.Config{
		API:    mailtm.NewClient("http://127.0.0.1:1"),
		Logger: logger,
	})

	p := New(manager, time.Hour)
	cmd := p.Start()
	defer p.Stop()

	msg := cmd()
	result, ok := msg.(RefreshResultMsg)
	if !ok {
		t.Fatalf("expected RefreshResultMsg, got %T", msg)
	}
	if result.Err == nil {
		t.Error("expected fetch error to be reported")
	}

	state, _, err := p.Status()
	if state != Errored {
		t.Errorf("expected Errored state, got %v", state)
	}
	if err == nil {
		t.Error("expected Status to carry the last error")
	}
}

func TestManualRefreshIsDebounced(t *testing.T) {
	manager, listCalls := newTestManager(t)

	p := New(manager, time.Hour)
	cmd := p.Start()
	defer p.Stop()

	// Consume the initial fetch result.
	if msg := cmd(); msg == nil {
		t.Fatal("expected initial result")
	}

	// Two back-to-back manual refreshes; the second falls inside the
	// cooldown window and is dropped.
	p.Refresh(1)
	p.Refresh(1)

	if msg := p.WaitForNextResult()(); msg == nil {
		t.Fatal("expected manual refresh result")
	}

	// Give a wrongly queued second refresh time to surface.
	time.Sleep(100 * time.Millisecond)

	if calls := atomic.LoadInt64(listCalls); calls != 2 {
		t.Errorf("expected 2 list calls (initial + one manual), got %d", calls)
	}
}

func TestStartTwiceIsNoOp(t *testing.T) {
	manager, _ := newTestManager(t)

	p := New(manager, time.Hour)
	cmd := p.Start()
	defer p.Stop()

	if again := p.Start(); again != nil {
		t.Error("second Start must return nil")
	}

	if msg := cmd(); msg == nil {
		t.Fatal("expected initial result from first Start")
	}
}

func TestPollerRestartsAfterStop(t *testing.T) {
	manager, listCalls := newTestManager(t)

	p := New(manager, time.Hour)
	cmd := p.Start()
	if msg := cmd(); msg == nil {
		t.Fatal("expected initial result from first run")
	}
	p.Stop()

	// Deleting an account stops the poller; creating a new one starts
	// it again. The second run must poll and must not crash teardown.
	cmd = p.Start()
	if cmd == nil {
		t.Fatal("restart must return a subscription command")
	}

	msg := cmd()
	result, ok := msg.(RefreshResultMsg)
	if !ok {
		t.Fatalf("expected RefreshResultMsg from restarted run, got %T", msg)
	}
	if result.Err != nil {
		t.Errorf("restarted fetch failed: %v", result.Err)
	}

	if calls := atomic.LoadInt64(listCalls); calls != 2 {
		t.Errorf("expected 2 list calls across both runs, got %d", calls)
	}

	p.Stop()
	// A second stop must stay a no-op.
	p.Stop()
}

func TestStopHaltsPolling(t *testing.T) {
	manager, listCalls := newTestManager(t)

	p := New(manager, 20*time.Millisecond)
	cmd := p.Start()

	// Wait for the initial fetch, then stop.
	if msg := cmd(); msg == nil {
		t.Fatal("expected initial result")
	}
	p.Stop()

	settled := atomic.LoadInt64(listCalls)
	time.Sleep(100 * time.Millisecond)

	// A tick already in flight when Stop ran may still land; beyond
	// that the count must not keep growing.
	after := atomic.LoadInt64(listCalls)
	if after > settled+1 {
		t.Errorf("polling continued after Stop: %d -> %d calls", settled, after)
	}
}
