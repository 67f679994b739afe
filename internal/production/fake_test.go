package production

import (
	"context"
	"sync"

	"github.com/odyssey-erp/odyssey-mfg/internal/events"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
)

type memRepo struct {
	mu          sync.Mutex
	nextID      int64
	workOrders  []WorkOrder
	jobCards    map[int64]*JobCard
	jobWorks    map[int64]*JobWork
	inspections map[int64]*Inspection
	completed   map[int64]CompletedJob
	// beforeJobWorkSave runs once, ahead of the next job work save.
	beforeJobWorkSave func(m *memRepo)
}

func newMemRepo() *memRepo {
	return &memRepo{
		jobCards:    make(map[int64]*JobCard),
		jobWorks:    make(map[int64]*JobWork),
		inspections: make(map[int64]*Inspection),
		completed:   make(map[int64]CompletedJob),
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) CountWorkOrders(_ context.Context, orderID int64) (int, error) {
	n := 0
	for _, wo := range m.workOrders {
		if wo.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) ListWorkOrders(_ context.Context, orderID int64) ([]WorkOrder, error) {
	var out []WorkOrder
	for _, wo := range m.workOrders {
		if wo.OrderID == orderID {
			out = append(out, wo)
		}
	}
	return out, nil
}

func (m *memRepo) InsertWorkOrder(_ context.Context, wo WorkOrder) (int64, error) {
	wo.ID = m.id()
	m.workOrders = append(m.workOrders, wo)
	return wo.ID, nil
}

func (m *memRepo) GetJobCard(_ context.Context, id int64) (*JobCard, error) {
	jc, ok := m.jobCards[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *jc
	return &c, nil
}

func (m *memRepo) ListJobCards(_ context.Context, orderID int64) ([]JobCard, error) {
	var out []JobCard
	for id := int64(1); id <= m.nextID; id++ {
		if jc, ok := m.jobCards[id]; ok && jc.OrderID == orderID {
			out = append(out, *jc)
		}
	}
	return out, nil
}

func (m *memRepo) InsertJobCard(_ context.Context, jc JobCard) (int64, error) {
	jc.ID = m.id()
	m.jobCards[jc.ID] = &jc
	return jc.ID, nil
}

func (m *memRepo) SaveJobCard(_ context.Context, jc JobCard) error {
	if _, ok := m.jobCards[jc.ID]; !ok {
		return ErrNotFound
	}
	m.jobCards[jc.ID] = &jc
	return nil
}

func (m *memRepo) ResetJobCards(_ context.Context, orderID int64) error {
	for _, jc := range m.jobCards {
		if jc.OrderID == orderID {
			jc.Status = JobCardPending
			jc.StartedAt = nil
			jc.CompletedBy = nil
			jc.CompletedAt = nil
		}
	}
	return nil
}

func (m *memRepo) GetJobWork(_ context.Context, id int64) (*JobWork, error) {
	jw, ok := m.jobWorks[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *jw
	return &c, nil
}

func (m *memRepo) ListJobWorks(_ context.Context, orderID int64) ([]JobWork, error) {
	var out []JobWork
	for id := int64(1); id <= m.nextID; id++ {
		if jw, ok := m.jobWorks[id]; ok && jw.OrderID == orderID {
			out = append(out, *jw)
		}
	}
	return out, nil
}

func (m *memRepo) InsertJobWork(_ context.Context, jw JobWork) (int64, error) {
	jw.ID = m.id()
	m.jobWorks[jw.ID] = &jw
	return jw.ID, nil
}

func (m *memRepo) SaveJobWork(_ context.Context, prev, next JobWork) error {
	if m.beforeJobWorkSave != nil {
		hook := m.beforeJobWorkSave
		m.beforeJobWorkSave = nil
		hook(m)
	}
	cur, ok := m.jobWorks[next.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.QuantityReceived != prev.QuantityReceived || cur.Status != prev.Status ||
		next.QuantityReceived > cur.QuantitySent {
		return ErrJobWorkConflict
	}
	m.jobWorks[next.ID] = &next
	return nil
}

func (m *memRepo) GetInspection(_ context.Context, orderID int64) (*Inspection, error) {
	in, ok := m.inspections[orderID]
	if !ok {
		return nil, nil
	}
	c := *in
	return &c, nil
}

func (m *memRepo) UpsertInspection(_ context.Context, in Inspection) (int64, error) {
	if cur, ok := m.inspections[in.OrderID]; ok {
		in.ID = cur.ID
	} else {
		in.ID = m.id()
	}
	m.inspections[in.OrderID] = &in
	return in.ID, nil
}

func (m *memRepo) InsertCompletedJob(_ context.Context, cj CompletedJob) error {
	if _, ok := m.completed[cj.OrderID]; !ok {
		m.completed[cj.OrderID] = cj
	}
	return nil
}

type stubOrders struct {
	orders map[int64]*orders.Order
}

func (s stubOrders) Get(_ context.Context, id int64) (*orders.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) kinds() []events.Kind {
	out := make([]events.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}
