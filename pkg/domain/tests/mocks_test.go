package tests

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"storefront/pkg/common/domain"
	"storefront/pkg/domain/model"
)

var _ model.SessionStorage = &mockSessionStorage{}

type mockSessionStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockSessionStorage() *mockSessionStorage {
	return &mockSessionStorage{data: make(map[string][]byte)}
}

func (m *mockSessionStorage) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	return data, ok, nil
}

func (m *mockSessionStorage) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *mockSessionStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockSessionStorage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

var _ domain.EventDispatcher = &mockEventDispatcher{}

type mockEventDispatcher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventDispatcher) Dispatch(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *mockEventDispatcher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type())
	}
	return types
}

var _ model.ProductRepository = &mockProductRepository{}

type mockProductRepository struct {
	store map[uuid.UUID]*model.Product
}

func newMockProductRepository(products ...model.Product) *mockProductRepository {
	repo := &mockProductRepository{store: make(map[uuid.UUID]*model.Product)}
	for i := range products {
		product := products[i]
		repo.store[product.ID] = &product
	}
	return repo
}

func (m *mockProductRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (m *mockProductRepository) Create(product *model.Product) error {
	if _, exists := m.store[product.ID]; exists {
		return errors.New("product with this ID already exists")
	}
	m.store[product.ID] = product
	return nil
}

func (m *mockProductRepository) Find(id uuid.UUID) (*model.Product, error) {
	if product, ok := m.store[id]; ok {
		clone := *product
		return &clone, nil
	}
	return nil, model.ErrProductNotFound
}

func (m *mockProductRepository) FindMany(ids []uuid.UUID) ([]model.Product, error) {
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := m.store[id]; ok {
			products = append(products, *product)
		}
	}
	return products, nil
}

func (m *mockProductRepository) List(filter model.ProductFilter) ([]model.Product, error) {
	products := make([]model.Product, 0, len(m.store))
	for _, product := range m.store {
		if filter.Category == "" || product.Category == filter.Category {
			products = append(products, *product)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

var _ model.OrderRepository = &mockOrderRepository{}

type mockOrderRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*model.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{store: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (m *mockOrderRepository) Create(order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[order.ID]; exists {
		return errors.New("order with this ID already exists")
	}
	stored := *order
	m.store[order.ID] = &stored
	return nil
}

func (m *mockOrderRepository) Find(id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.store[id]; ok {
		clone := *order
		return &clone, nil
	}
	return nil, model.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(userID uuid.UUID) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []model.Order{}
	for _, order := range m.store {
		if order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m *mockOrderRepository) Update(order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[order.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if existing.Version != order.Version-1 {
		return model.ErrOptimisticLock
	}
	updated := *order
	m.store[order.ID] = &updated
	return nil
}

func (m *mockOrderRepository) Get(id uuid.UUID) *model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id]
}

func (m *mockOrderRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

var _ model.AddressRepository = &mockAddressRepository{}

type mockAddressRepository struct {
	store map[uuid.UUID]*model.Address
	order []uuid.UUID
}

func newMockAddressRepository() *mockAddressRepository {
	return &mockAddressRepository{store: make(map[uuid.UUID]*model.Address)}
}

func (m *mockAddressRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (m *mockAddressRepository) Create(address *model.Address) error {
	stored := *address
	m.store[address.ID] = &stored
	m.order = append(m.order, address.ID)
	return nil
}

func (m *mockAddressRepository) Update(address *model.Address) error {
	if _, ok := m.store[address.ID]; !ok {
		return model.ErrAddressNotFound
	}
	stored := *address
	m.store[address.ID] = &stored
	return nil
}

func (m *mockAddressRepository) Find(id uuid.UUID) (*model.Address, error) {
	if address, ok := m.store[id]; ok {
		clone := *address
		return &clone, nil
	}
	return nil, model.ErrAddressNotFound
}

func (m *mockAddressRepository) ListByUser(userID uuid.UUID) ([]model.Address, error) {
	addresses := []model.Address{}
	for _, id := range m.order {
		if address, ok := m.store[id]; ok && address.UserID == userID {
			addresses = append(addresses, *address)
		}
	}
	return addresses, nil
}

func (m *mockAddressRepository) Delete(id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return model.ErrAddressNotFound
	}
	delete(m.store, id)
	return nil
}

var _ model.PaymentMethodRepository = &mockPaymentMethodRepository{}

type mockPaymentMethodRepository struct {
	store map[uuid.UUID]*model.PaymentMethod
}

func newMockPaymentMethodRepository() *mockPaymentMethodRepository {
	return &mockPaymentMethodRepository{store: make(map[uuid.UUID]*model.PaymentMethod)}
}

func (m *mockPaymentMethodRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (m *mockPaymentMethodRepository) Create(method *model.PaymentMethod) error {
	stored := *method
	m.store[method.ID] = &stored
	return nil
}

func (m *mockPaymentMethodRepository) Find(id uuid.UUID) (*model.PaymentMethod, error) {
	if method, ok := m.store[id]; ok {
		clone := *method
		return &clone, nil
	}
	return nil, model.ErrPaymentMethodNotFound
}

func (m *mockPaymentMethodRepository) ListByUser(userID uuid.UUID) ([]model.PaymentMethod, error) {
	methods := []model.PaymentMethod{}
	for _, method := range m.store {
		if method.UserID == userID {
			methods = append(methods, *method)
		}
	}
	return methods, nil
}

func (m *mockPaymentMethodRepository) Delete(id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return model.ErrPaymentMethodNotFound
	}
	delete(m.store, id)
	return nil
}

var _ model.Generator = &mockGenerator{}

type mockGenerator struct {
	output  string
	err     error
	prompts []string
	schemas []model.OutputSchema
}

func (m *mockGenerator) Generate(prompt string, schema model.OutputSchema) ([]byte, error) {
	m.prompts = append(m.prompts, prompt)
	m.schemas = append(m.schemas, schema)
	if m.err != nil {
		return nil, m.err
	}
	return []byte(m.output), nil
}
