package observability

import (
	"log/slog"

	"curio/core/events"
	"curio/core/types"
	"curio/native/market"
)

// InstrumentedEmitter forwards engine events to structured logging and the
// Prometheus registry. It is wired as the engines' emitter in the service
// binary; packages under test keep their own capturing emitters.
type InstrumentedEmitter struct {
	logger *slog.Logger
}

// NewInstrumentedEmitter builds an emitter over the supplied logger. A nil
// logger falls back to slog.Default.
func NewInstrumentedEmitter(logger *slog.Logger) *InstrumentedEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstrumentedEmitter{logger: logger}
}

type payloadCarrier interface {
	Event() *types.Event
}

// Emit implements events.Emitter.
func (e *InstrumentedEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	eventType := evt.EventType()
	metrics := MarketMetrics()
	switch eventType {
	case market.EventTypeSaleListed:
		metrics.salesListed.WithLabelValues(kindLabel(evt)).Inc()
	case market.EventTypeOfferMade:
		metrics.offersMade.Inc()
	case market.EventTypeSaleCancelled:
		metrics.salesClosed.WithLabelValues(kindLabel(evt)).Inc()
	case market.EventTypeBidPlaced:
		metrics.bidsPlaced.Inc()
	case market.EventTypeBidRemoved:
		metrics.bidsRemoved.Inc()
	case market.EventTypeTradeExecuted:
		metrics.tradesSettled.Inc()
	}
	e.logger.Info("engine event", "type", eventType, "attributes", eventAttrs(evt))
}

func eventAttrs(evt events.Event) map[string]string {
	carrier, ok := evt.(payloadCarrier)
	if !ok {
		return nil
	}
	payload := carrier.Event()
	if payload == nil {
		return nil
	}
	return payload.Attributes
}

func kindLabel(evt events.Event) string {
	if kind, ok := eventAttrs(evt)["kind"]; ok && kind != "" {
		return kind
	}
	return "unknown"
}
