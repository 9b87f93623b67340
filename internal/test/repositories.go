package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error

	SetCustomerErr error
	mu             sync.Mutex
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, CreatedAt: time.Now()}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// AddUser registers login directly and returns the stored user.
func (s *UserRepositoryStub) AddUser(login string, staff bool) *model.User {
	user, err := s.Create(context.Background(), login, "hash:"+login)
	if err != nil {
		panic(err)
	}
	user.IsStaff = staff
	return user
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// SetExternalCustomerID stores the gateway customer reference.
func (s *UserRepositoryStub) SetExternalCustomerID(ctx context.Context, id int64, customerRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetCustomerErr != nil {
		return s.SetCustomerErr
	}
	user, ok := s.ByID[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	ref := customerRef
	user.ExternalCustomerID = &ref
	return nil
}

// OrderStore keeps orders, payment attempts and the catalog in memory with
// the same constraints the PostgreSQL schema enforces.
type OrderStore struct {
	mu       sync.Mutex
	orders   map[int64]*model.Order
	numbers  map[string]int64
	txns     map[string]*model.PaymentTransaction
	products map[int64]model.Product
	nextID   int64

	// CreateErrs are returned, one per call, before CreateWithItems touches state.
	CreateErrs  []error
	AttachErr   error
	CatalogErr  error
	CreateCalls int
	Writes      int
	Now         func() time.Time
}

var (
	_ repository.OrderRepository       = (*OrderStore)(nil)
	_ repository.TransactionRepository = (*OrderStore)(nil)
	_ repository.ProductRepository     = (*OrderStore)(nil)
)

// NewOrderStore creates an empty store with products in its catalog.
func NewOrderStore(products ...model.Product) *OrderStore {
	s := &OrderStore{
		orders:   make(map[int64]*model.Order),
		numbers:  make(map[string]int64),
		txns:     make(map[string]*model.PaymentTransaction),
		products: make(map[int64]model.Product),
		Now:      time.Now,
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *OrderStore) id() int64 {
	s.nextID++
	return s.nextID
}

// CreateWithItems stores order and assigns identifiers.
func (s *OrderStore) CreateWithItems(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if len(s.CreateErrs) > 0 {
		err := s.CreateErrs[0]
		s.CreateErrs = s.CreateErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, taken := s.numbers[order.Number]; taken {
		return domainErrors.ErrDuplicateOrderNumber
	}

	now := s.Now()
	order.ID = s.id()
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].ID = s.id()
		order.Items[i].OrderID = order.ID
	}
	s.orders[order.ID] = cloneOrder(order)
	s.numbers[order.Number] = order.ID
	s.Writes++
	return nil
}

// GetByID returns a copy of the stored order.
func (s *OrderStore) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return cloneOrder(order), nil
}

// AttachPayment supersedes the pending attempt of an order still awaiting
// payment and stores txn.
func (s *OrderStore) AttachPayment(ctx context.Context, orderID int64, txn *model.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AttachErr != nil {
		return s.AttachErr
	}
	order, ok := s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if !order.AwaitingPayment() {
		return domainErrors.ErrStaleStatus
	}
	if _, taken := s.txns[txn.Reference]; taken {
		return domainErrors.ErrDuplicateReference
	}

	now := s.Now()
	for _, existing := range s.txns {
		if existing.OrderID == orderID && existing.Status == model.TransactionStatusPending {
			existing.Status = model.TransactionStatusSuperseded
			existing.UpdatedAt = now
		}
	}
	txn.ID = s.id()
	txn.OrderID = orderID
	txn.CreatedAt = now
	txn.UpdatedAt = now
	stored := *txn
	s.txns[txn.Reference] = &stored

	ref := txn.Reference
	order.PaymentReference = &ref
	order.UpdatedAt = now
	s.Writes++
	return nil
}

// UpdateStatus moves the order when its status still equals from.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if order.Status != from {
		return cloneOrder(order), domainErrors.ErrStaleStatus
	}
	order.Status = to
	order.UpdatedAt = s.Now()
	s.Writes++
	return cloneOrder(order), nil
}

// SelectStalePending returns the oldest orders awaiting payment.
func (s *OrderStore) SelectStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, order := range s.orders {
		if order.AwaitingPayment() && order.CreatedAt.Before(createdBefore) {
			out = append(out, *cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CancelPending cancels an order still awaiting payment with its pending attempt.
func (s *OrderStore) CancelPending(ctx context.Context, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || !order.AwaitingPayment() {
		return false, nil
	}
	now := s.Now()
	for _, txn := range s.txns {
		if txn.OrderID == orderID && txn.Status == model.TransactionStatusPending {
			txn.Status = model.TransactionStatusCancelled
			txn.UpdatedAt = now
		}
	}
	order.Status = model.OrderStatusCancelled
	order.PaymentStatus = model.PaymentStatusCancelled
	order.UpdatedAt = now
	s.Writes++
	return true, nil
}

// GetByReference returns a copy of the stored attempt.
func (s *OrderStore) GetByReference(ctx context.Context, reference string) (*model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[reference]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	out := *txn
	return &out, nil
}

// Settle runs fn under the store lock, mirroring the row locks of PostgreSQL.
func (s *OrderStore) Settle(ctx context.Context, reference string, fn repository.SettleFunc) (*repository.SettleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.txns[reference]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	order, ok := s.orders[stored.OrderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}

	txn := *stored
	current := cloneOrder(order)
	current.Items = nil
	settlement, err := fn(&txn, current)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return &repository.SettleResult{Transaction: &txn, Order: current}, nil
	}

	now := s.Now()
	stored.Status = settlement.TransactionStatus
	stored.Metadata = settlement.Metadata
	stored.UpdatedAt = now
	order.Status = settlement.OrderStatus
	order.PaymentStatus = settlement.PaymentStatus
	order.UpdatedAt = now
	s.Writes++

	txn = *stored
	current = cloneOrder(order)
	current.Items = nil
	return &repository.SettleResult{Transaction: &txn, Order: current, Changed: true}, nil
}

// FindByIDs returns the known products among ids.
func (s *OrderStore) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CatalogErr != nil {
		return nil, s.CatalogErr
	}
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// Order returns the stored order or nil.
func (s *OrderStore) Order(id int64) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[id]; ok {
		return cloneOrder(order)
	}
	return nil
}

// Transaction returns the stored attempt or nil.
func (s *OrderStore) Transaction(reference string) *model.PaymentTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn, ok := s.txns[reference]; ok {
		out := *txn
		return &out
	}
	return nil
}

// TransactionsFor returns every attempt recorded for an order.
func (s *OrderStore) TransactionsFor(orderID int64) []model.PaymentTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaymentTransaction
	for _, txn := range s.txns {
		if txn.OrderID == orderID {
			out = append(out, *txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Backdate shifts the creation time of an order into the past.
func (s *OrderStore) Backdate(orderID int64, age time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[orderID]; ok {
		order.CreatedAt = order.CreatedAt.Add(-age)
	}
}

// SetOrderStatus overwrites the order status without any checks.
func (s *OrderStore) SetOrderStatus(orderID int64, status model.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[orderID]; ok {
		order.Status = status
	}
}

// Len reports the number of stored orders.
func (s *OrderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func cloneOrder(o *model.Order) *model.Order {
	out := *o
	if o.PaymentReference != nil {
		ref := *o.PaymentReference
		out.PaymentReference = &ref
	}
	out.Items = append([]model.OrderItem(nil), o.Items...)
	return &out
}
