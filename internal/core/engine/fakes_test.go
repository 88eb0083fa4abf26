package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/core/table"
)

var errProviderDown = errors.New("provider unavailable")

// fakeHandle is an unloaded session returned by fakeProvider.
type fakeHandle struct {
	core.SessionData
	loadErr error
	block   bool
}

func (h *fakeHandle) Load(ctx context.Context) error {
	if h.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if h.loadErr != nil {
		return h.loadErr
	}
	h.LapsTable = table.New("driver_id", "lap_number")
	h.ResultsTable = table.New("driver_id", "position")
	return nil
}

type fakeProvider struct {
	mu        sync.Mutex
	schedule  map[int][]core.Event
	schedErr  map[int]error
	fail      map[string]error
	blockKeys map[string]bool
	calls     []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		schedule:  make(map[int][]core.Event),
		schedErr:  make(map[int]error),
		fail:      make(map[string]error),
		blockKeys: make(map[string]bool),
	}
}

func key(year int, id core.Identifier) string {
	return fmt.Sprintf("%d:%s", year, id)
}

func (p *fakeProvider) EventSchedule(_ context.Context, year int) ([]core.Event, error) {
	if err := p.schedErr[year]; err != nil {
		return nil, err
	}
	return p.schedule[year], nil
}

func (p *fakeProvider) Session(_ context.Context, year int, id core.Identifier, sessionType string) (SessionHandle, error) {
	k := key(year, id)
	p.mu.Lock()
	p.calls = append(p.calls, k)
	p.mu.Unlock()

	round, _ := id.Round()
	name, _ := id.Event()
	if name == "" {
		name = fmt.Sprintf("Round %d Grand Prix", round)
	}
	return &fakeHandle{
		SessionData: core.SessionData{Year: year, RoundNumber: round, Name: name, Type: sessionType},
		loadErr:     p.fail[k],
		block:       p.blockKeys[k],
	}, nil
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func season(rounds ...int) []core.Event {
	events := make([]core.Event, 0, len(rounds))
	for _, r := range rounds {
		events = append(events, core.Event{
			RoundNumber: r,
			EventName:   fmt.Sprintf("Round %d Grand Prix", r),
			EventFormat: "conventional",
		})
	}
	return events
}

func instantLimiter() *AdaptiveLimiter {
	limiter, _ := NewAdaptiveLimiter(DefaultBounds)
	limiter.Jitter = noJitter
	limiter.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return limiter
}
