package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/sangkips/sales-api/internal/domain/repository"
)

var errStorageDown = errors.New("storage down")

// fakeSaleRepository is an in-memory SaleRepository that counts calls and can
// be told to fail.
type fakeSaleRepository struct {
	mu    sync.Mutex
	sales map[uuid.UUID]entity.Sale

	createCalls int
	updateCalls int
	deleteCalls int

	createErr error
	updateErr error
	deleteErr error
	getErr    error
	numberErr error
	listErr   error
}

func newFakeSaleRepository() *fakeSaleRepository {
	return &fakeSaleRepository{sales: make(map[uuid.UUID]entity.Sale)}
}

func (f *fakeSaleRepository) put(sale entity.Sale) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales[sale.ID] = sale
}

func (f *fakeSaleRepository) Create(_ context.Context, sale *entity.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.sales[sale.ID] = *sale
	return nil
}

func (f *fakeSaleRepository) Update(_ context.Context, sale *entity.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.sales[sale.ID] = *sale
	return nil
}

func (f *fakeSaleRepository) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	if _, ok := f.sales[id]; !ok {
		return false, nil
	}
	delete(f.sales, id)
	return true, nil
}

func (f *fakeSaleRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	sale, ok := f.sales[id]
	if !ok {
		return nil, nil
	}
	return &sale, nil
}

func (f *fakeSaleRepository) GetBySaleNumber(_ context.Context, saleNumber int) (*entity.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.numberErr != nil {
		return nil, f.numberErr
	}
	for _, sale := range f.sales {
		if sale.SaleNumber == saleNumber && sale.Status == enum.SaleStatusActive {
			s := sale
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeSaleRepository) List(_ context.Context, params *repository.SaleFilterParams) ([]entity.Sale, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []entity.Sale
	for _, sale := range f.sales {
		if params.Branch != "" && sale.Branch != params.Branch {
			continue
		}
		out = append(out, sale)
	}
	return out, int64(len(out)), nil
}

type publishedEvent struct {
	topic string
	key   string
	body  []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	calls  int
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, key: partitionKey, body: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.topic
	}
	return out
}
