package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/notify"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// Mock repositories for testing
type mockItemRepository struct {
	items     map[uuid.UUID]*domain.Item
	createErr error
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{items: make(map[uuid.UUID]*domain.Item)}
}

func cloneItem(it *domain.Item) *domain.Item {
	b, _ := json.Marshal(it)
	var out domain.Item
	_ = json.Unmarshal(b, &out)
	return &out
}

func (m *mockItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.items[item.ID] = cloneItem(item)
	return nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *domain.Item) error {
	if _, ok := m.items[item.ID]; !ok {
		return repository.ErrItemNotFound
	}
	m.items[item.ID] = cloneItem(item)
	return nil
}

func (m *mockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return cloneItem(it), nil
}

func (m *mockItemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]*domain.Item, int, error) {
	var all []*domain.Item
	for _, it := range m.items {
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		all = append(all, cloneItem(it))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ProductName < all[j].ProductName })

	start := (filter.Page - 1) * filter.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

type mockDraftStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID][]byte
}

func newMockDraftStore() *mockDraftStore {
	return &mockDraftStore{drafts: make(map[uuid.UUID][]byte)}
}

func (m *mockDraftStore) Create(ctx context.Context, d *domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[d.ID]; ok {
		return repository.ErrDraftExists
	}
	d.Version = 1
	m.drafts[d.ID], _ = json.Marshal(d)
	return nil
}

func (m *mockDraftStore) Get(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.drafts[id]
	if !ok {
		return nil, repository.ErrDraftNotFound
	}
	var d domain.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	domain.Normalize(&d)
	return &d, nil
}

func (m *mockDraftStore) Save(ctx context.Context, d *domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.drafts[d.ID]
	if !ok {
		return repository.ErrDraftNotFound
	}
	var stored domain.Draft
	_ = json.Unmarshal(data, &stored)
	if stored.Version != d.Version {
		return repository.ErrDraftConflict
	}
	d.Version++
	m.drafts[d.ID], _ = json.Marshal(d)
	return nil
}

func (m *mockDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[id]; !ok {
		return repository.ErrDraftNotFound
	}
	delete(m.drafts, id)
	return nil
}

type recordingNotifier struct {
	calls []string
	lines [][]domain.StockLine
	err   error
}

func (n *recordingNotifier) NotifyLowStock(ctx context.Context, item *domain.Item, lines []domain.StockLine) error {
	n.calls = append(n.calls, item.ProductName)
	n.lines = append(n.lines, lines)
	return n.err
}

type fakeObjectStore struct {
	contentType string
	size        int64
	err         error
}

func (f *fakeObjectStore) Put(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.contentType, f.size = contentType, size
	_, _ = io.Copy(io.Discard, body)
	return "https://cdn.example.com/inventory/" + filename, nil
}

type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 receipt"), nil
}

type recordingMailer struct {
	to     []string
	emails []notify.Email
}

func (m *recordingMailer) Send(ctx context.Context, to string, email notify.Email) error {
	m.to = append(m.to, to)
	m.emails = append(m.emails, email)
	return nil
}

var errBoom = errors.New("boom")

func newTestInventory(repo repository.ItemRepository, notifier LowStockNotifier) *inventoryService {
	s := NewInventoryService(repo, notifier, zap.NewNop()).(*inventoryService)
	s.now = fixedClock
	return s
}

func newTestDrafts(store repository.DraftStore, inv InventoryService) *draftService {
	s := NewDraftService(store, inv, DraftDefaults{DefaultStock: 5, DefaultReorderLevel: 10}, zap.NewNop()).(*draftService)
	s.now = fixedClock
	return s
}
