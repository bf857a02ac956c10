package system

import (
	"sync"

	common_models "go-shareguard/internal/common/models"

	"go.uber.org/zap"
)

// EventHub fans approval events out to live websocket subscribers. Publish
// never blocks: a slow subscriber loses events rather than stalling the
// workflow.
type EventHub struct {
	mu     sync.RWMutex
	subs   map[int]chan common_models.ApprovalEvent
	nextID int
	logger *zap.Logger
}

func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		subs:   make(map[int]chan common_models.ApprovalEvent),
		logger: logger,
	}
}

func (h *EventHub) Publish(event common_models.ApprovalEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Debug("dropping event for slow subscriber", zap.Int("subscriber", id))
		}
	}
}

// Subscribe returns a buffered event channel and a cancel function that must
// be called when the subscriber goes away.
func (h *EventHub) Subscribe() (<-chan common_models.ApprovalEvent, func()) {
	ch := make(chan common_models.ApprovalEvent, 16)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
	return ch, cancel
}
