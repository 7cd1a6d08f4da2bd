package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
)

const sendBufferSize = 16

type subscriberCounter interface {
	IncSubscribers()
	DecSubscribers()
}

type subscriber struct {
	tableID string
	send    chan []byte

	// revision of the last state queued; guarded by Hub.mu
	revision uint64
	synced   bool
}

// Hub fans table updates out to every screen watching a table.
type Hub struct {
	logger  *slog.Logger
	counter subscriberCounter

	mu     sync.Mutex
	tables map[string]map[*subscriber]struct{}
}

func NewHub(logger *slog.Logger, counter subscriberCounter) *Hub {
	return &Hub{
		logger:  logger.With("component", "ws_hub"),
		counter: counter,
		tables:  make(map[string]map[*subscriber]struct{}),
	}
}

func (that *Hub) subscribe(tableID string) *subscriber {
	sub := &subscriber{
		tableID: tableID,
		send:    make(chan []byte, sendBufferSize),
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	subs, ok := that.tables[tableID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		that.tables[tableID] = subs
	}

	subs[sub] = struct{}{}
	that.counter.IncSubscribers()

	return sub
}

func (that *Hub) unsubscribe(sub *subscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(sub)
}

// removeLocked closes the subscriber's channel once. Callers hold mu.
func (that *Hub) removeLocked(sub *subscriber) {
	subs, ok := that.tables[sub.tableID]
	if !ok {
		return
	}

	if _, ok = subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	close(sub.send)
	that.counter.DecSubscribers()

	if len(subs) == 0 {
		delete(that.tables, sub.tableID)
	}
}

// deliver queues data for one subscriber. A subscriber whose buffer is full is dropped.
func (that *Hub) deliver(sub *subscriber, data []byte) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.deliverLocked(sub, data)
}

func (that *Hub) deliverLocked(sub *subscriber, data []byte) {
	if _, ok := that.tables[sub.tableID][sub]; !ok {
		return
	}

	select {
	case sub.send <- data:
	default:
		that.logger.Warn("dropping slow subscriber", "tableID", sub.tableID)
		that.removeLocked(sub)
	}
}

// deliverStateLocked queues a state unless the subscriber already has this
// revision or a newer one. Callers hold mu.
func (that *Hub) deliverStateLocked(sub *subscriber, revision uint64, data []byte) {
	if sub.synced && revision <= sub.revision {
		return
	}

	sub.revision = revision
	sub.synced = true

	that.deliverLocked(sub, data)
}

// sendState queues table for one subscriber, following the same revision rule as Publish.
func (that *Hub) sendState(sub *subscriber, table *entity.Table) {
	data, err := stateMessage(table)
	if err != nil {
		that.logger.Error("failed to encode table state", "tableID", table.ID, "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.deliverStateLocked(sub, table.Revision, data)
}

// Publish sends the table's current state to all of its subscribers. States
// arriving out of order are dropped, so a screen never goes back to an older board.
func (that *Hub) Publish(table *entity.Table) {
	data, err := stateMessage(table)
	if err != nil {
		that.logger.Error("failed to encode table state", "tableID", table.ID, "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.tables[table.ID] {
		that.deliverStateLocked(sub, table.Revision, data)
	}
}

// Close tells the table's subscribers it is gone and disconnects them.
func (that *Hub) Close(tableID string) {
	data, err := encodeMessage(ActionClosed, Payload{TableID: tableID})
	if err != nil {
		that.logger.Error("failed to encode close message", "tableID", tableID, "error", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.tables[tableID] {
		if data != nil {
			that.deliverLocked(sub, data)
		}

		that.removeLocked(sub)
	}
}

// Subscribers reports how many screens watch tableID.
func (that *Hub) Subscribers(tableID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.tables[tableID])
}
