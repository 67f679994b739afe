package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/production"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

type memStore struct {
	mu        sync.Mutex
	orders    map[int64]*orders.Order
	saveErr   error
	conflicts int
	saves     int
	// beforeSave runs once, ahead of the version check of the next save.
	beforeSave func(cur *orders.Order)
}

func newMemStore(list ...*orders.Order) *memStore {
	s := &memStore{orders: make(map[int64]*orders.Order)}
	for _, o := range list {
		s.orders[o.ID] = o.Clone()
	}
	return s
}

func (s *memStore) Get(_ context.Context, id int64) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *memStore) SaveTransition(_ context.Context, o *orders.Order, expectedVersion int64, _ orders.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cur, ok := s.orders[o.ID]
	if !ok {
		return orders.ErrNotFound
	}
	if s.beforeSave != nil {
		s.beforeSave(cur)
		s.beforeSave = nil
	}
	if s.conflicts > 0 {
		s.conflicts--
		cur.Version++
		return orders.ErrVersionConflict
	}
	if cur.Version != expectedVersion {
		return orders.ErrVersionConflict
	}
	saved := o.Clone()
	saved.Version = expectedVersion + 1
	s.orders[o.ID] = saved
	s.saves++
	return nil
}

func (s *memStore) order(id int64) *orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Clone()
}

func (s *memStore) set(o *orders.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

type fakeProduction struct {
	workOrders  map[int64]int
	cards       map[int64][]production.JobCard
	works       map[int64][]production.JobWork
	inspections map[int64]*production.Inspection
	readErr     error
}

func newFakeProduction() *fakeProduction {
	return &fakeProduction{
		workOrders:  make(map[int64]int),
		cards:       make(map[int64][]production.JobCard),
		works:       make(map[int64][]production.JobWork),
		inspections: make(map[int64]*production.Inspection),
	}
}

func (f *fakeProduction) CountWorkOrders(_ context.Context, orderID int64) (int, error) {
	return f.workOrders[orderID], nil
}

func (f *fakeProduction) ListJobCards(_ context.Context, orderID int64) ([]production.JobCard, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.cards[orderID], nil
}

func (f *fakeProduction) ListJobWorks(_ context.Context, orderID int64) ([]production.JobWork, error) {
	return f.works[orderID], nil
}

func (f *fakeProduction) GetInspection(_ context.Context, orderID int64) (*production.Inspection, error) {
	return f.inspections[orderID], nil
}

type recordingAuditor struct {
	mu   sync.Mutex
	logs []shared.AuditLog
	err  error
}

func (a *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return a.err
}

type countingMetrics struct {
	mu          sync.Mutex
	transitions map[string]int
	evaluations map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{transitions: map[string]int{}, evaluations: map[string]int{}}
}

func (m *countingMetrics) ObserveTransition(_, _, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[outcome]++
}

func (m *countingMetrics) ObserveEvaluation(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations[result]++
}

var errDisk = errors.New("disk full")

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store      *memStore
	production *fakeProduction
	audit      *recordingAuditor
	metrics    *countingMetrics
	orch       *Orchestrator
	eval       *Evaluator
}

func newFixture(list ...*orders.Order) *fixture {
	f := &fixture{
		store:      newMemStore(list...),
		production: newFakeProduction(),
		audit:      &recordingAuditor{},
		metrics:    newCountingMetrics(),
	}
	f.orch = NewOrchestrator(f.store, f.production,
		WithAuditor(f.audit),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return fixedNow }),
	)
	f.eval = NewEvaluator(f.orch, f.production)
	return f
}

func sampleOrder(id int64, status orderstatus.Status) *orders.Order {
	delivery := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	notes := "rush"
	return &orders.Order{
		ID:            id,
		OrderCode:     "SO-2610-00001",
		SONumber:      1,
		CompanyID:     1,
		CustomerID:    3,
		CustomerName:  "Shree Fabricators",
		ItemName:      "Bracket",
		Quantity:      250,
		UOM:           "pcs",
		Processes:     []string{"Cutting", "Bending"},
		UnitPrice:     12.5,
		GSTPercent:    18,
		PackagingCost: 100,
		TransportCost: 250,
		TotalAmount:   4038,
		DeliveryDate:  &delivery,
		Notes:         &notes,
		Status:        status,
		PaymentStatus: orders.PaymentPending,
		Version:       1,
		StatusHistory: []orders.StatusChange{{OrderID: id, Status: status, ChangedBy: 1}},
	}
}
