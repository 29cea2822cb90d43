package realtime

import (
	"context"
	"log"
	"route-planner-service/internal/domain"
	"sync"
)

// Buffered frames per subscriber before new reports are dropped.
const subscriberBuffer = 16

// Hub fans position reports out to live subscribers of a route.
// Publish never blocks: a subscriber whose buffer is full misses the frame.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[int64]map[uint64]chan domain.PositionReport
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[uint64]chan domain.PositionReport)}
}

// Subscribe registers a listener for routeID. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(routeID int64) (<-chan domain.PositionReport, func()) {
	ch := make(chan domain.PositionReport, subscriberBuffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[routeID] == nil {
		h.subs[routeID] = make(map[uint64]chan domain.PositionReport)
	}
	h.subs[routeID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[routeID], id)
			if len(h.subs[routeID]) == 0 {
				delete(h.subs, routeID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) Publish(_ context.Context, report domain.PositionReport) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs[report.RouteID] {
		select {
		case ch <- report:
		default:
			log.Printf("op=realtime.Publish route_id=%d subscriber=%d dropped=true", report.RouteID, id)
		}
	}
}

// Subscribers returns the number of live subscribers for routeID.
func (h *Hub) Subscribers(routeID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[routeID])
}
