package app

import (
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/events"
	"github.com/talkincode/sweetshop/pkg/metrics"
)

// registerMetrics feeds the metric store from inventory events. Handlers
// run async so publishers never wait on a metric write.
func registerMetrics(bus *events.Bus) error {
	subs := map[string]interface{}{
		events.TopicStockAdjusted: func(ev events.StockAdjusted) {
			switch ev.Reason {
			case events.ReasonPurchase:
				metrics.Incr(metrics.PurchaseTotal, 1)
				metrics.Incr(metrics.PurchaseUnits, int64(-ev.Delta))
			case events.ReasonRestock:
				metrics.Incr(metrics.RestockTotal, 1)
				metrics.Incr(metrics.RestockUnits, int64(ev.Delta))
			}
		},
		events.TopicStockRejected: func(ev events.StockRejected) {
			switch ev.Reason {
			case events.ReasonPurchase:
				metrics.Incr(metrics.PurchaseRejected, 1)
			case events.ReasonAdjust:
				metrics.Incr(metrics.AdjustRejected, 1)
			}
		},
		events.TopicSweetCreated: func(domain.Sweet) {
			metrics.Incr(metrics.SweetCreated, 1)
		},
		events.TopicSweetUpdated: func(domain.Sweet) {
			metrics.Incr(metrics.SweetUpdated, 1)
		},
		events.TopicSweetDeleted: func(int64) {
			metrics.Incr(metrics.SweetDeleted, 1)
		},
	}
	for topic, fn := range subs {
		if err := bus.SubscribeAsync(topic, fn); err != nil {
			return err
		}
	}
	return nil
}
