package sse

import (
	"context"
	"sync"
)

// TotalsUpdate is pushed to every screen watching an event's counters.
type TotalsUpdate struct {
	EventID int64       `json:"event_id"`
	Kind    string      `json:"kind"`
	Totals  interface{} `json:"totals"`
}

// TotalsEmitter fans live totals out to SSE subscribers per event.
type TotalsEmitter struct {
	mu      sync.RWMutex
	clients map[int64][]chan TotalsUpdate
}

func NewTotalsEmitter() *TotalsEmitter {
	return &TotalsEmitter{clients: make(map[int64][]chan TotalsUpdate)}
}

// Subscribe returns a channel that receives updates for eventID until ctx
// is done, at which point the channel is closed.
func (e *TotalsEmitter) Subscribe(ctx context.Context, eventID int64) <-chan TotalsUpdate {
	ch := make(chan TotalsUpdate, 10)

	e.mu.Lock()
	e.clients[eventID] = append(e.clients[eventID], ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(eventID, ch)
	}()
	return ch
}

// Emit never blocks; a subscriber with a full buffer misses the update.
func (e *TotalsEmitter) Emit(update TotalsUpdate) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, ch := range e.clients[update.EventID] {
		select {
		case ch <- update:
		default:
		}
	}
}

func (e *TotalsEmitter) remove(eventID int64, ch chan TotalsUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[eventID]
	for i, c := range clients {
		if c == ch {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

func (e *TotalsEmitter) ClientCount(eventID int64) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[eventID])
}
