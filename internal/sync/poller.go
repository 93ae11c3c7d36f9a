package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/session"
)

// State represents the current state of the inbox poller.
type State int

const (
	Idle State = iota
	Running
	Errored
)

// fetchTimeout is the maximum time allowed for a single refresh.
const fetchTimeout = 30 * time.Second

// refreshCooldown debounces manual refresh requests. A manual refresh
// inside the cooldown window is dropped, not queued.
const refreshCooldown = 2 * time.Second

// RefreshResultMsg is a tea.Msg sent when a refresh attempt completes.
type RefreshResultMsg struct {
	Err error

	// Skipped is set when the refresh was dropped because a fetch was
	// already in flight.
	Skipped bool

	At time.Time
}

// Poller drives background polling of the active mailbox. It owns a
// recurring ticker plus a manual-trigger channel, and reports results
// to the Bubble Tea runtime through a message channel. Stop must be
// called on teardown or the ticker keeps firing against a possibly
// deleted account.
type Poller struct {
	manager  *session.Manager
	interval time.Duration

	resultCh  chan RefreshResultMsg
	triggerCh chan int
	stopCh    chan struct{}

	mu         gosync.Mutex
	running    bool
	state      State
	lastErr    error
	lastSync   time.Time
	lastManual time.Time
}

// New creates a poller for the given session manager.
func New(mgr *session.Manager, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{
		manager:   mgr,
		interval:  interval,
		resultCh:  make(chan RefreshResultMsg, 16),
		triggerCh: make(chan int, 16),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a subscription
// command that delivers RefreshResultMsg messages to the runtime.
// Calling Start on a running poller is a no-op; after Stop, a fresh
// run channel is created so the poller can be started again (account
// deletion stops it, creating a new account starts it anew).
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.loop(stopCh)

	return p.waitForResult()
}

// Stop halts the polling goroutine. Stopping an already stopped
// poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh requests an immediate fetch of the given page. Requests
// inside the cooldown window are dropped; in-flight fetches are never
// cancelled.
func (p *Poller) Refresh(page int) {
	p.mu.Lock()
	if time.Since(p.lastManual) < refreshCooldown {
		p.mu.Unlock()
		return
	}
	p.lastManual = time.Now()
	p.mu.Unlock()

	select {
	case p.triggerCh <- page:
	default:
		// Channel full; skip to avoid blocking
	}
}

// Status returns the poller state, the time of the last successful
// refresh, and the last error.
func (p *Poller) Status() (State, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.lastSync, p.lastErr
}

// loop runs the polling loop until the run's stop channel is closed.
// The channel is passed in so a restart never races a previous run.
func (p *Poller) loop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.fetch(1)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.fetch(1)
		case page := <-p.triggerCh:
			p.fetch(page)
		}
	}
}

// fetch performs a single refresh and reports the outcome.
func (p *Poller) fetch(page int) {
	p.setState(Running, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	err := p.manager.FetchMessages(ctx, page)
	if errors.Is(err, session.ErrFetchInFlight) {
		p.setState(Idle, nil)
		p.sendResult(RefreshResultMsg{Skipped: true, At: time.Now()})
		return
	}
	if err != nil {
		p.setState(Errored, err)
		p.sendResult(RefreshResultMsg{Err: err, At: time.Now()})
		return
	}

	p.setState(Idle, nil)
	p.sendResult(RefreshResultMsg{At: time.Now()})
}

// setState updates the poller status fields.
func (p *Poller) setState(state State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = state
	p.lastErr = err
	if state == Idle && err == nil {
		p.lastSync = time.Now()
	}
}

// sendResult sends a result without blocking the polling goroutine.
func (p *Poller) sendResult(msg RefreshResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next refresh
// result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it after processing a RefreshResultMsg to keep
// listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
