package events

import (
	evbus "github.com/asaskevich/EventBus"
	"github.com/talkincode/sweetshop/internal/domain"
)

const (
	TopicSweetCreated  = "sweet:created"
	TopicSweetUpdated  = "sweet:updated"
	TopicSweetDeleted  = "sweet:deleted"
	TopicStockAdjusted = "stock:adjusted"
	TopicStockRejected = "stock:rejected"
)

// Adjustment reasons
const (
	ReasonPurchase = "purchase"
	ReasonRestock  = "restock"
	ReasonAdjust   = "adjust"
)

// StockAdjusted is published after a successful ledger adjustment
type StockAdjusted struct {
	ID       int64
	Delta    int
	Quantity int
	Reason   string
}

// StockRejected is published when an adjustment would drive stock negative
type StockRejected struct {
	ID        int64
	Requested int
	Available int
	Reason    string
}

// Bus is the in-process event bus. A nil *Bus discards events.
type Bus struct {
	bus evbus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

// Subscribe registers a synchronous handler. Handlers run on the
// publishing goroutine after the publisher released its locks.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler that runs on its own goroutine.
func (b *Bus) SubscribeAsync(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// WaitAsync blocks until async handlers are done
func (b *Bus) WaitAsync() {
	if b == nil {
		return
	}
	b.bus.WaitAsync()
}

func (b *Bus) publish(topic string, arg interface{}) {
	if b == nil || !b.bus.HasCallback(topic) {
		return
	}
	b.bus.Publish(topic, arg)
}

func (b *Bus) SweetCreated(s domain.Sweet) {
	b.publish(TopicSweetCreated, s)
}

func (b *Bus) SweetUpdated(s domain.Sweet) {
	b.publish(TopicSweetUpdated, s)
}

func (b *Bus) SweetDeleted(id int64) {
	b.publish(TopicSweetDeleted, id)
}

func (b *Bus) StockAdjusted(ev StockAdjusted) {
	b.publish(TopicStockAdjusted, ev)
}

func (b *Bus) StockRejected(ev StockRejected) {
	b.publish(TopicStockRejected, ev)
}
