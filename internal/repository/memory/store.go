// Package memory is an in-process implementation of the repository
// interfaces. It is selected with STORE_DRIVER=memory and backs the unit tests.
// Writes follow the same rules as postgres: unique table numbers, a single open
// register and version-checked updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/changefeed"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu        sync.RWMutex
	orders    map[uuid.UUID]*model.Order
	tables    map[uuid.UUID]*model.Table
	registers map[uuid.UUID]*model.CashRegister
	employees map[uuid.UUID]*model.Employee
	products  map[uuid.UUID]*model.Product
	bus       changefeed.Bus
	now       func() time.Time
}

// NewStore returns an empty store. bus may be nil.
func NewStore(bus changefeed.Bus) *Store {
	return &Store{
		orders:    make(map[uuid.UUID]*model.Order),
		tables:    make(map[uuid.UUID]*model.Table),
		registers: make(map[uuid.UUID]*model.CashRegister),
		employees: make(map[uuid.UUID]*model.Employee),
		products:  make(map[uuid.UUID]*model.Product),
		bus:       bus,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Orders() repository.OrderRepository               { return orderRepo{s} }
func (s *Store) Tables() repository.TableRepository               { return tableRepo{s} }
func (s *Store) CashRegisters() repository.CashRegisterRepository { return registerRepo{s} }
func (s *Store) Employees() repository.EmployeeRepository         { return employeeRepo{s} }
func (s *Store) Products() repository.ProductRepository           { return productRepo{s} }

func (s *Store) publish(coll changefeed.Collection, op changefeed.Op, doc any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(changefeed.Change{Collection: coll, Op: op, Document: doc, At: s.now()})
}

func checkCtx(ctx context.Context) error {
	return ctx.Err()
}

// ── Orders ───────────────────────────────────────────────────────────────────

type orderRepo struct{ s *Store }

func (r orderRepo) Create(ctx context.Context, o *model.Order) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Items == nil {
		o.Items = model.OrderItems{}
	}
	r.s.mu.Lock()
	if _, ok := r.s.orders[o.ID]; ok {
		r.s.mu.Unlock()
		return repository.ErrDuplicate
	}
	now := r.s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	r.s.orders[o.ID] = o.Clone()
	r.s.mu.Unlock()

	r.s.publish(changefeed.Orders, changefeed.OpInsert, o.Clone())
	return nil
}

func (r orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o.Clone(), nil
}

func (r orderRepo) Update(ctx context.Context, o *model.Order) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	cur, ok := r.s.orders[o.ID]
	if !ok || cur.Version != o.Version {
		r.s.mu.Unlock()
		return repository.ErrStaleWrite
	}
	o.Version++
	o.CreatedAt = cur.CreatedAt
	o.UpdatedAt = r.s.now()
	r.s.orders[o.ID] = o.Clone()
	r.s.mu.Unlock()

	r.s.publish(changefeed.Orders, changefeed.OpUpdate, o.Clone())
	return nil
}

func (r orderRepo) List(ctx context.Context, f dto.OrderFilter) ([]model.Order, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}

	r.s.mu.RLock()
	var matched []model.Order
	for _, o := range r.s.orders {
		if f.Status != "" && f.Status != "all" && o.Status != f.Status {
			continue
		}
		if f.SaleType != "" && o.SaleType != f.SaleType {
			continue
		}
		if f.TableID != "" && (o.TableID == nil || o.TableID.String() != f.TableID) {
			continue
		}
		if f.Date != "" && o.CreatedAt.Format("2006-01-02") != f.Date {
			continue
		}
		matched = append(matched, *o.Clone())
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []model.Order{}, total, nil
	}
	end := min(start+f.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r orderRepo) ListFinalizedSince(ctx context.Context, since time.Time) ([]model.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	var out []model.Order
	for _, o := range r.s.orders {
		if o.Status == model.OrderFinalized && o.FinalizedAt != nil && !o.FinalizedAt.Before(since) {
			out = append(out, *o.Clone())
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FinalizedAt.Before(*out[j].FinalizedAt) })
	return out, nil
}

// ── Tables ───────────────────────────────────────────────────────────────────

type tableRepo struct{ s *Store }

func (r tableRepo) Create(ctx context.Context, t *model.Table) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.mu.Lock()
	for _, other := range r.s.tables {
		if other.Number == t.Number || other.ID == t.ID {
			r.s.mu.Unlock()
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.tables[t.ID] = t.Clone()
	r.s.mu.Unlock()

	r.s.publish(changefeed.Tables, changefeed.OpInsert, t.Clone())
	return nil
}

func (r tableRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (r tableRepo) FindByNumber(ctx context.Context, number int) (*model.Table, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tables {
		if t.Number == number {
			return t.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r tableRepo) Update(ctx context.Context, t *model.Table) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	cur, ok := r.s.tables[t.ID]
	if !ok || cur.Version != t.Version {
		r.s.mu.Unlock()
		return repository.ErrStaleWrite
	}
	t.Version++
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = r.s.now()
	r.s.tables[t.ID] = t.Clone()
	r.s.mu.Unlock()

	r.s.publish(changefeed.Tables, changefeed.OpUpdate, t.Clone())
	return nil
}

func (r tableRepo) List(ctx context.Context, status string) ([]model.Table, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := make([]model.Table, 0, len(r.s.tables))
	for _, t := range r.s.tables {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t.Clone())
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r tableRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]int64)
	for _, t := range r.s.tables {
		out[t.Status]++
	}
	return out, nil
}

// ── Cash registers ───────────────────────────────────────────────────────────

type registerRepo struct{ s *Store }

func (r registerRepo) Create(ctx context.Context, reg *model.CashRegister) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	if reg.SalesLog == nil {
		reg.SalesLog = model.SalesLog{}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.registers[reg.ID]; ok {
		return repository.ErrDuplicate
	}
	if reg.Status == model.RegisterOpen {
		for _, other := range r.s.registers {
			if other.Status == model.RegisterOpen {
				return repository.ErrDuplicate
			}
		}
	}
	now := r.s.now()
	reg.CreatedAt, reg.UpdatedAt = now, now
	r.s.registers[reg.ID] = reg.Clone()
	return nil
}

func (r registerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reg, ok := r.s.registers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return reg.Clone(), nil
}

func (r registerRepo) FindOpen(ctx context.Context) (*model.CashRegister, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, reg := range r.s.registers {
		if reg.Status == model.RegisterOpen {
			return reg.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r registerRepo) Update(ctx context.Context, reg *model.CashRegister) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.registers[reg.ID]
	if !ok || cur.Version != reg.Version {
		return repository.ErrStaleWrite
	}
	if reg.Status == model.RegisterOpen && cur.Status != model.RegisterOpen {
		for _, other := range r.s.registers {
			if other.ID != reg.ID && other.Status == model.RegisterOpen {
				return repository.ErrDuplicate
			}
		}
	}
	reg.Version++
	reg.CreatedAt = cur.CreatedAt
	reg.UpdatedAt = r.s.now()
	r.s.registers[reg.ID] = reg.Clone()
	return nil
}

func (r registerRepo) HasSale(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, reg := range r.s.registers {
		if reg.HasOrder(orderID) {
			return true, nil
		}
	}
	return false, nil
}

// ── Employees ────────────────────────────────────────────────────────────────

type employeeRepo struct{ s *Store }

func (r employeeRepo) Create(ctx context.Context, e *model.Employee) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[e.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	e.CreatedAt, e.UpdatedAt = now, now
	c := *e
	r.s.employees[e.ID] = &c
	return nil
}

func (r employeeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (r employeeRepo) FindFirstActive(ctx context.Context) (*model.Employee, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var first *model.Employee
	for _, e := range r.s.employees {
		if !e.Active {
			continue
		}
		if first == nil || e.CreatedAt.Before(first.CreatedAt) {
			first = e
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	c := *first
	return &c, nil
}

// ── Products ─────────────────────────────────────────────────────────────────

type productRepo struct{ s *Store }

func (r productRepo) Create(ctx context.Context, p *model.Product) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.mu.Lock()
	if _, ok := r.s.products[p.ID]; ok {
		r.s.mu.Unlock()
		return repository.ErrDuplicate
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	c := *p
	r.s.products[p.ID] = &c
	r.s.mu.Unlock()

	pub := *p
	r.s.publish(changefeed.Products, changefeed.OpInsert, &pub)
	return nil
}

// ReplaceProduct mirrors a catalogue edit made by the service that owns
// products.
func (s *Store) ReplaceProduct(p *model.Product) {
	s.mu.Lock()
	c := *p
	c.UpdatedAt = s.now()
	s.products[p.ID] = &c
	s.mu.Unlock()

	pub := c
	s.publish(changefeed.Products, changefeed.OpUpdate, &pub)
}

func (r productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}
