package transaction

import (
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// EngineOption configures a Preparer or Service at construction time. Every
// collaborator is injected here; the engines never resolve anything from
// ambient state at call time.
type EngineOption func(*engineConfig)

type engineConfig struct {
	discounts  DiscountPolicy
	clock      Clock
	ids        IDGenerator
	dispatcher Dispatcher
	logger     *zap.Logger
	tracer     trace.Tracer
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		discounts:  zeroDiscount{},
		clock:      systemClock{},
		ids:        uuidGenerator{},
		dispatcher: nopDispatcher{},
		logger:     zap.NewNop(),
		tracer:     tracenoop.NewTracerProvider().Tracer("walletcore"),
	}
}

// WithDiscountPolicy sets the transfer discount policy.
func WithDiscountPolicy(p DiscountPolicy) EngineOption {
	return func(c *engineConfig) {
		c.discounts = p
	}
}

// WithClock sets the timestamp source.
func WithClock(clock Clock) EngineOption {
	return func(c *engineConfig) {
		c.clock = clock
	}
}

// WithIDGenerator sets the identifier source.
func WithIDGenerator(ids IDGenerator) EngineOption {
	return func(c *engineConfig) {
		c.ids = ids
	}
}

// WithDispatcher sets the created-event dispatcher.
func WithDispatcher(d Dispatcher) EngineOption {
	return func(c *engineConfig) {
		c.dispatcher = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used to span apply batches.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(c *engineConfig) {
		c.tracer = tracer
	}
}
