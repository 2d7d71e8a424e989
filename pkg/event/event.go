// Package event dispatches marketplace events to in-process listeners, one of
// which may forward them to Kafka.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/reqid"
)

// All is the listener key that receives every event.
const All = "*"

// Event is one fact about the marketplace. Key groups related events (an
// order id, a product id) and becomes the Kafka message key.
type Event struct {
	Name      string         `json:"name"`
	Key       string         `json:"key"`
	Data      map[string]any `json:"data,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	At        time.Time      `json:"at"`
}

// Handler receives an event.
type Handler func(ctx context.Context, e Event)

// Bus is a listener registry. The zero value is not usable; call New.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers h for name, or for every event when name is All.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Fire dispatches synchronously.
func (b *Bus) Fire(ctx context.Context, e Event) {
	for _, h := range b.listeners(ctx, &e) {
		h(ctx, e)
	}
}

// FireAsync dispatches on new goroutines detached from ctx cancellation, so a
// finished request does not abort delivery. Wait blocks until they return.
func (b *Bus) FireAsync(ctx context.Context, e Event) {
	hs := b.listeners(ctx, &e)
	detached := context.WithoutCancel(ctx)
	for _, h := range hs {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			h(detached, e)
		}(h)
	}
}

// Wait blocks until every async delivery has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) listeners(ctx context.Context, e *Event) []Handler {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if e.RequestID == "" {
		e.RequestID = reqid.FromCtx(ctx)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, 0, len(b.handlers[e.Name])+len(b.handlers[All]))
	hs = append(hs, b.handlers[e.Name]...)
	hs = append(hs, b.handlers[All]...)
	return hs
}
