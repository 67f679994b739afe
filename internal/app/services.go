package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/odyssey-erp/odyssey-mfg/internal/dispatch"
	"github.com/odyssey-erp/odyssey-mfg/internal/events"
	"github.com/odyssey-erp/odyssey-mfg/internal/lifecycle"
	"github.com/odyssey-erp/odyssey-mfg/internal/production"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/quotations"
	"github.com/odyssey-erp/odyssey-mfg/internal/settings"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

// ServiceDeps are the shared resources both binaries build the domain from.
type ServiceDeps struct {
	Config   *Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Settings *settings.Store
	Metrics  lifecycle.Metrics
	Tracer   trace.Tracer
	// Publisher receives events raised by the services. Nil publishes to Bus.
	Publisher events.Publisher
}

// Services is the wired order domain.
type Services struct {
	Bus          *events.Bus
	OrderRepo    orders.Repository
	Orders       *orders.Service
	Quotations   *quotations.Service
	Production   *production.Service
	Dispatch     *dispatch.Service
	Orchestrator *lifecycle.Orchestrator
	Evaluator    *lifecycle.Evaluator
	Subscriber   *lifecycle.Subscriber
}

// NewServices wires repositories, services and the lifecycle subscriber. The
// subscriber is always registered on Bus; whether services publish to Bus
// directly depends on deps.Publisher.
func NewServices(deps ServiceDeps) *Services {
	bus := events.NewBus(deps.Logger)
	var publisher events.Publisher = bus
	if deps.Publisher != nil {
		publisher = deps.Publisher
	}

	orderRepo := orders.NewRepository(deps.Pool)
	productionRepo := production.NewRepository(deps.Pool)
	quotationService := quotations.NewService(quotations.NewRepository(deps.Pool))

	orderDeps := orders.ServiceDeps{
		Quotations: quotationService,
		WorkOrders: productionRepo,
		Publisher:  publisher,
		Logger:     deps.Logger,
	}
	if deps.Settings != nil {
		orderDeps.Prefixes = deps.Settings
	}
	orderService := orders.NewService(orderRepo, orderDeps)

	opts := []lifecycle.Option{
		lifecycle.WithLogger(deps.Logger),
		lifecycle.WithAuditor(shared.NewAuditLogger(deps.Pool)),
	}
	if deps.Metrics != nil {
		opts = append(opts, lifecycle.WithMetrics(deps.Metrics))
	}
	if deps.Tracer != nil {
		opts = append(opts, lifecycle.WithTracer(deps.Tracer))
	}
	if deps.Config != nil && deps.Config.TransitionMaxRetries > 0 {
		opts = append(opts, lifecycle.WithMaxRetries(deps.Config.TransitionMaxRetries))
	}
	orchestrator := lifecycle.NewOrchestrator(orderRepo, productionRepo, opts...)
	evaluator := lifecycle.NewEvaluator(orchestrator, productionRepo)
	subscriber := lifecycle.NewSubscriber(orchestrator, evaluator)
	bus.Subscribe(subscriber)

	return &Services{
		Bus:          bus,
		OrderRepo:    orderRepo,
		Orders:       orderService,
		Quotations:   quotationService,
		Production:   production.NewService(productionRepo, orderRepo, publisher, deps.Logger),
		Dispatch:     dispatch.NewService(dispatch.NewRepository(deps.Pool), orderRepo, publisher, deps.Logger),
		Orchestrator: orchestrator,
		Evaluator:    evaluator,
		Subscriber:   subscriber,
	}
}
