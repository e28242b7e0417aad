package scan

import (
	"sync"
	"time"

	"github.com/rl1809/stock-ledger/internal/port"
)

// Gate sits between a source and its handler. It drops scans while
// inactive and collapses repeats of the same code inside window, which is
// how a single physical scan shows up when a reader fires twice.
type Gate struct {
	next   port.ScanHandler
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	active   bool
	lastCode string
	lastAt   time.Time
}

func NewGate(next port.ScanHandler, window time.Duration) *Gate {
	return &Gate{
		next:   next,
		window: window,
		now:    time.Now,
		active: true,
	}
}

func (g *Gate) SetActive(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = active
}

func (g *Gate) IsActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

func (g *Gate) OnScan(barcode string) {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return
	}

	now := g.now()
	if barcode == g.lastCode && now.Sub(g.lastAt) < g.window {
		g.mu.Unlock()
		return
	}
	g.lastCode = barcode
	g.lastAt = now
	g.mu.Unlock()

	g.next.OnScan(barcode)
}

func (g *Gate) OnError(err error) {
	g.next.OnError(err)
}
