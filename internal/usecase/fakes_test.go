package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billsync/internal/domain/errors"
	"github.com/wekeepgrowing/billsync/internal/domain/portal"
	"github.com/wekeepgrowing/billsync/internal/domain/repository"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
)

// MockPropertyRepository is a mock implementation of PropertyRepository
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id string) (*entity.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Property), args.Error(1)
}

func (m *MockPropertyRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Property, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*entity.Property), args.Error(1)
}

func (m *MockPropertyRepository) ListSuppliers(ctx context.Context, propertyID string) ([]entity.PropertySupplier, error) {
	args := m.Called(ctx, propertyID)
	return args.Get(0).([]entity.PropertySupplier), args.Error(1)
}

func (m *MockPropertyRepository) Save(ctx context.Context, property *entity.Property) error {
	return m.Called(ctx, property).Error(0)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockCurrencyRepository is a mock implementation of CurrencyRepository
type MockCurrencyRepository struct {
	mock.Mock
}

func (m *MockCurrencyRepository) DefaultCurrency(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// memoryBills is an in-memory BillRepository.
type memoryBills struct {
	mu      sync.Mutex
	bills   map[string]*entity.Bill
	creates int
	updates int
}

func newMemoryBills() *memoryBills {
	return &memoryBills{bills: make(map[string]*entity.Bill)}
}

func (m *memoryBills) GetByID(_ context.Context, id string) (*entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memoryBills) ListByProperty(_ context.Context, propertyID string) ([]*entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Bill
	for _, b := range m.bills {
		if b.PropertyID == propertyID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillNumber < out[j].BillNumber })
	return out, nil
}

func (m *memoryBills) Create(_ context.Context, bill *entity.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	cp := *bill
	m.bills[bill.ID] = &cp
	m.creates++
	return nil
}

func (m *memoryBills) Update(_ context.Context, bill *entity.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bills[bill.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *bill
	m.bills[bill.ID] = &cp
	m.updates++
	return nil
}

func (m *memoryBills) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bills, id)
	return nil
}

func (m *memoryBills) all(propertyID string) []*entity.Bill {
	out, _ := m.ListByProperty(context.Background(), propertyID)
	return out
}

type memoryAttachments struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (m *memoryAttachments) Put(_ context.Context, propertyID, supplierID, billNumber string, pdf []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := propertyID + "/" + supplierID + "/" + billNumber + ".pdf"
	m.puts[key] = pdf
	return key, nil
}

type fakeCatalog map[string]*supplier.Config

func (c fakeCatalog) Get(id string) (*supplier.Config, bool) {
	cfg, ok := c[id]
	return cfg, ok
}

type fakeCredentials struct{}

func (fakeCredentials) Open(_ context.Context, _, supplierID string) (string, string, error) {
	if supplierID == "nologin" {
		return "", "", domainErrors.NewCredentialMissingError(supplierID, repository.ErrNotFound)
	}
	return "user-" + supplierID, "pass", nil
}

// fakeSession serves canned documents keyed by URL.
type fakeSession struct {
	mu       sync.Mutex
	supplier string
	docs     map[string]string
	loginErr error
	onFetch  func(url string)
	fetched  []string
	tenants  [][2]string
}

func (s *fakeSession) Login(_ context.Context, _, _ string) error {
	return s.loginErr
}

func (s *fakeSession) Fetch(_ context.Context, url string) (*portal.Document, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, url)
	hook := s.onFetch
	body, ok := s.docs[url]
	s.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if !ok {
		return nil, domainErrors.NewNetworkError(s.supplier, 404, nil)
	}
	return &portal.Document{URL: "https://" + s.supplier + ".test" + url, StatusCode: 200, Body: []byte(body)}, nil
}

func (s *fakeSession) FetchBinary(ctx context.Context, url string) ([]byte, error) {
	doc, err := s.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

func (s *fakeSession) SelectTenant(associationID, apartmentID string) bool {
	if associationID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = append(s.tenants, [2]string{associationID, apartmentID})
	return true
}

func (s *fakeSession) BaseURL() string {
	return "https://" + s.supplier + ".test"
}

type fakeFactory struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	created  map[string]int
}

func newFakeFactory(sessions ...*fakeSession) *fakeFactory {
	f := &fakeFactory{sessions: map[string]*fakeSession{}, created: map[string]int{}}
	for _, s := range sessions {
		f.sessions[s.supplier] = s
	}
	return f
}

func (f *fakeFactory) NewSession(cfg *supplier.Config) (portal.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created[cfg.ID]++
	s, ok := f.sessions[cfg.ID]
	if !ok {
		s = &fakeSession{supplier: cfg.ID}
	}
	return s, nil
}

func (f *fakeFactory) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[id]
}

type fakePDFText struct {
	text string
}

func (f fakePDFText) ExtractText(_ context.Context, _ []byte) (string, error) {
	return f.text, nil
}

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []entity.Event
	onSend func(entity.Event)
}

func (r *recordingSink) Send(e entity.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	hook := r.onSend
	r.mu.Unlock()
	if hook != nil {
		hook(e)
	}
	return nil
}

func (r *recordingSink) names() []entity.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.EventName, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func (r *recordingSink) byName(name entity.EventName) []entity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingSink) syncID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ""
	}
	return r.events[0].SyncID
}
