package session

import (
	"sync"
	"time"

	"github.com/example/recab-client/internal/observability"
	"github.com/example/recab-client/internal/storage"
)

// Monitor enforces the sliding inactivity window. Any qualifying input event
// calls Touch; once the window elapses without one, the identity is cleared
// and the registered redirect runs.
type Monitor struct {
	holder   *Holder
	kv       storage.KV
	window   time.Duration
	now      func() time.Time
	onExpire func()

	mu   sync.Mutex
	last time.Time
}

func NewMonitor(holder *Holder, kv storage.KV, window time.Duration, onExpire func()) *Monitor {
	m := &Monitor{
		holder:   holder,
		kv:       kv,
		window:   window,
		now:      time.Now,
		onExpire: onExpire,
	}
	m.last = m.now()
	var ms int64
	if storage.GetJSON(kv, storage.KeyLastActivity, &ms) && ms > 0 {
		m.last = time.UnixMilli(ms)
	}
	return m
}

// Touch records a qualifying input event and resets the window.
func (m *Monitor) Touch() {
	m.mu.Lock()
	m.last = m.now()
	storage.PutJSON(m.kv, storage.KeyLastActivity, m.last.UnixMilli())
	m.mu.Unlock()
}

// ExpireIfIdle clears the session when the window has elapsed. Returns true
// when an expiry actually happened.
func (m *Monitor) ExpireIfIdle() bool {
	m.mu.Lock()
	idle := m.now().Sub(m.last)
	m.mu.Unlock()

	if idle < m.window {
		return false
	}
	if m.holder.User() == nil {
		return false
	}
	m.holder.SignOut()
	m.kv.Delete(storage.KeyLastActivity)
	observability.SessionExpiries.Inc()
	if m.onExpire != nil {
		m.onExpire()
	}
	return true
}

// Run polls for expiry until stop is closed. The poll interval only bounds
// detection latency, not the window itself.
func (m *Monitor) Run(stop <-chan struct{}, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.ExpireIfIdle()
		}
	}
}
