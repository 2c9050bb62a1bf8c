package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/config"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/sangkips/sales-api/internal/domain/event"
	"github.com/sangkips/sales-api/internal/domain/pricing"
	"github.com/sangkips/sales-api/internal/domain/repository"
	"github.com/sangkips/sales-api/internal/domain/validation"
	"github.com/sangkips/sales-api/internal/metrics"
	"github.com/sangkips/sales-api/pkg/apperror"
	"github.com/sangkips/sales-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	svc     *SaleService
	repo    *fakeSaleRepository
	pub     *fakePublisher
	metrics *metrics.Metrics
	events  config.EventsConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	repo := newFakeSaleRepository()
	pub := &fakePublisher{}
	m := metrics.New()
	events := config.EventsConfig{PublishTimeout: time.Second}

	svc := NewSaleService(
		repo,
		validation.NewValidator(10, 200, 20),
		pricing.NewEngine(pricing.ModeFlat, log),
		NewNotifier(pub, events, m, log),
		m,
		log,
	)
	return &fixture{svc: svc, repo: repo, pub: pub, metrics: m, events: events}
}

func (f *fixture) topic(kind enum.EventKind) string {
	return f.events.Topic(kind).Topic
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func beerInput(number int) *CreateSaleInput {
	return &CreateSaleInput{
		SaleNumber: number,
		Date:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		CustomerID: uuid.New(),
		Branch:     "Downtown",
		Items: []SaleItemInput{
			{Description: "Beer Heineken", Quantity: 5, UnitValue: dec("10.00")},
			{Description: "Beer Heineken", Quantity: 3, UnitValue: dec("10.00")},
		},
	}
}

func TestCreateSalePricesAndPublishes(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateSale(context.Background(), beerInput(1001))

	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusActive, res.Status)
	require.Len(t, res.Items, 2)
	assert.True(t, res.Items[0].Discount.Equal(dec("0.10")))
	assert.True(t, res.Items[0].TotalAmount.Equal(dec("49.90")))
	assert.True(t, res.Items[1].TotalAmount.Equal(dec("29.90")))
	assert.True(t, res.TotalAmount.Equal(dec("79.80")), res.TotalAmount.String())
	assert.Equal(t, 1, f.repo.createCalls)

	require.Equal(t, []string{f.topic(enum.EventSaleCreated)}, f.pub.topics())
	var env event.Envelope
	require.NoError(t, json.Unmarshal(f.pub.events[0].body, &env))
	assert.Equal(t, "SaleCreated", env.EventType)
	assert.Equal(t, res.ID, env.AggregateID)
	assert.Contains(t, string(env.Payload), `"total_amount":79.80`)
	assert.Equal(t, res.ID.String(), f.pub.events[0].key)
}

func TestCreateSaleTotalMatchesItems(t *testing.T) {
	f := newFixture(t)
	in := beerInput(7)
	in.Items = append(in.Items,
		SaleItemInput{Description: "Wine Cabernet", Quantity: 12, UnitValue: dec("35.50")},
		SaleItemInput{Description: "Water Bottle", Quantity: 2, UnitValue: dec("1.25")},
	)

	res, err := f.svc.CreateSale(context.Background(), in)

	require.NoError(t, err)
	sum := decimal.Zero
	for _, item := range res.Items {
		want := item.UnitValue.Mul(decimal.NewFromInt(int64(item.Quantity))).Sub(item.Discount.Decimal)
		assert.True(t, item.TotalAmount.Equal(want), item.Description)
		sum = sum.Add(item.TotalAmount.Decimal)
	}
	assert.True(t, res.TotalAmount.Equal(sum))
}

func TestCreateSaleRejectsInvalidInputBeforeStorage(t *testing.T) {
	f := newFixture(t)
	in := beerInput(0)
	in.Branch = ""

	_, err := f.svc.CreateSale(context.Background(), in)

	require.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Len(t, apperror.GetAppError(err).Errors, 2)
	assert.Zero(t, f.repo.createCalls)
	assert.Zero(t, f.pub.calls)
}

func TestCreateSaleRejectsProductOverLimit(t *testing.T) {
	f := newFixture(t)
	in := beerInput(3)
	in.Items = []SaleItemInput{
		{Description: "Beer Heineken", Quantity: 15, UnitValue: dec("10.00")},
		{Description: "Beer Heineken", Quantity: 6, UnitValue: dec("10.00")},
	}

	_, err := f.svc.CreateSale(context.Background(), in)

	require.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Contains(t, apperror.GetAppError(err).Errors[0].Message, "Beer Heineken")
	assert.Zero(t, f.repo.createCalls)
}

func TestCreateSaleRejectsOverflowingProductQuantity(t *testing.T) {
	f := newFixture(t)
	in := beerInput(4)
	in.Items = []SaleItemInput{
		{Description: "Beer Heineken", Quantity: 1 << 62, UnitValue: dec("10.00")},
		{Description: "Beer Heineken", Quantity: 1 << 62, UnitValue: dec("10.00")},
	}

	_, err := f.svc.CreateSale(context.Background(), in)

	require.True(t, apperror.IsKind(err, apperror.KindValidation), "got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.GetAppError(err).Code)
	assert.Contains(t, apperror.GetAppError(err).Errors[0].Message, "Beer Heineken")
	assert.Zero(t, f.repo.createCalls)
	assert.Zero(t, f.pub.calls)
}

func TestCreateSaleDuplicateNumberConflicts(t *testing.T) {
	f := newFixture(t)
	f.repo.put(entity.Sale{ID: uuid.New(), SaleNumber: 55, Status: enum.SaleStatusActive})

	_, err := f.svc.CreateSale(context.Background(), beerInput(55))

	require.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Zero(t, f.repo.createCalls)
	assert.Zero(t, f.pub.calls)
}

func TestCreateSaleReusesNumberOfCancelledSale(t *testing.T) {
	f := newFixture(t)
	f.repo.put(entity.Sale{ID: uuid.New(), SaleNumber: 55, Status: enum.SaleStatusCancelled})

	_, err := f.svc.CreateSale(context.Background(), beerInput(55))

	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.createCalls)
}

func TestCreateSaleStorageUniqueViolationConflicts(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = repository.ErrDuplicateSaleNumber

	_, err := f.svc.CreateSale(context.Background(), beerInput(9))

	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Zero(t, f.pub.calls)
}

func TestCreateSaleWrapsStorageFaults(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = errStorageDown

	_, err := f.svc.CreateSale(context.Background(), beerInput(9))

	require.True(t, apperror.IsKind(err, apperror.KindPersistence))
	assert.True(t, errors.Is(err, errStorageDown))
	assert.NotContains(t, err.Error(), "storage down")
	assert.Contains(t, err.Error(), "sale number 9")
}

func TestCreateSaleLookupFaultIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	f.repo.numberErr = errStorageDown

	_, err := f.svc.CreateSale(context.Background(), beerInput(9))

	assert.True(t, apperror.IsKind(err, apperror.KindPersistence))
	assert.Zero(t, f.repo.createCalls)
}

func TestCreateSalePricingFailure(t *testing.T) {
	f := newFixture(t)
	in := beerInput(12)
	in.Items = []SaleItemInput{{Description: "Chewing gum pack", Quantity: 4, UnitValue: dec("0.01")}}

	_, err := f.svc.CreateSale(context.Background(), in)

	require.True(t, apperror.IsKind(err, apperror.KindPricing))
	var perr *pricing.PricingError
	assert.ErrorAs(t, err, &perr)
	assert.Zero(t, f.repo.createCalls)
}

func TestCreateSaleSucceedsWhenPublishFails(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker unavailable")

	res, err := f.svc.CreateSale(context.Background(), beerInput(99))

	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, f.pub.calls)
	assert.Equal(t, int64(1), f.metrics.FailedPublishes())
}

func TestCreateSalePublishesAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	pub := &ctxCheckingPublisher{}
	f.svc.notifier = NewNotifier(pub, f.events, f.metrics, zaptest.NewLogger(t))
	cancel()

	_, err := f.svc.CreateSale(ctx, beerInput(100))

	require.NoError(t, err)
	assert.NoError(t, pub.ctxErr)
}

type ctxCheckingPublisher struct {
	ctxErr error
}

func (p *ctxCheckingPublisher) Publish(ctx context.Context, _ string, _ []byte, _ string) error {
	p.ctxErr = ctx.Err()
	return nil
}

func (p *ctxCheckingPublisher) Close() error { return nil }

func seedSale(t *testing.T, f *fixture, number int) *SaleResult {
	t.Helper()
	res, err := f.svc.CreateSale(context.Background(), beerInput(number))
	require.NoError(t, err)
	f.pub.events = nil
	f.pub.calls = 0
	return res
}

func TestUpdateSaleMissingIDIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: uuid.NewString(), CreateSaleInput: *beerInput(1)})

	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.Zero(t, f.repo.updateCalls)
	assert.Zero(t, f.pub.calls)
}

func TestUpdateSaleCollectsIDAndFieldErrors(t *testing.T) {
	f := newFixture(t)
	in := beerInput(0)

	_, err := f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: "nope", CreateSaleInput: *in})

	require.True(t, apperror.IsKind(err, apperror.KindValidation))
	var fields []string
	for _, fe := range apperror.GetAppError(err).Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"id", "sale_number"}, fields)
}

func TestUpdateSaleRepricesAndKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	created := seedSale(t, f, 10)

	in := beerInput(10)
	in.Branch = "Uptown"
	in.Items = []SaleItemInput{{Description: "Beer Heineken", Quantity: 12, UnitValue: dec("10.00")}}

	res, err := f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: created.ID.String(), CreateSaleInput: *in})

	require.NoError(t, err)
	assert.Equal(t, created.ID, res.ID)
	assert.Equal(t, created.CreatedAt, res.CreatedAt)
	assert.Equal(t, enum.SaleStatusActive, res.Status)
	assert.Equal(t, "Uptown", res.Branch)
	require.NotNil(t, res.UpdatedAt)
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].Discount.Equal(dec("0.20")))
	assert.True(t, res.TotalAmount.Equal(dec("119.80")))
	assert.Equal(t, 1, f.repo.updateCalls)

	stored := f.repo.sales[created.ID]
	for _, item := range stored.Items {
		assert.Equal(t, created.ID, item.SaleID)
		assert.NotNil(t, item.UpdatedAt)
	}
	assert.Equal(t, []string{f.topic(enum.EventSaleModified)}, f.pub.topics())
}

func TestUpdateSalePublishesRemovedProducts(t *testing.T) {
	f := newFixture(t)
	in := beerInput(20)
	in.Items = append(in.Items, SaleItemInput{Description: "Wine Cabernet", Quantity: 1, UnitValue: dec("30.00")})
	created, err := f.svc.CreateSale(context.Background(), in)
	require.NoError(t, err)
	f.pub.events = nil

	upd := beerInput(20)
	upd.Items = []SaleItemInput{{Description: "Wine Cabernet", Quantity: 2, UnitValue: dec("30.00")}}
	_, err = f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: created.ID.String(), CreateSaleInput: *upd})

	require.NoError(t, err)
	require.Equal(t, []string{
		f.topic(enum.EventSaleModified),
		f.topic(enum.EventSaleItemCancelled),
	}, f.pub.topics())

	var env event.Envelope
	require.NoError(t, json.Unmarshal(f.pub.events[1].body, &env))
	var payload event.SaleItemCancelled
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "Beer Heineken", payload.Description)
	assert.Equal(t, created.ID, payload.SaleID)
}

func TestUpdateSaleNumberTakenByAnotherSale(t *testing.T) {
	f := newFixture(t)
	first := seedSale(t, f, 30)
	seedSale(t, f, 31)

	_, err := f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: first.ID.String(), CreateSaleInput: *beerInput(31)})

	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Zero(t, f.repo.updateCalls)
}

func TestUpdateCancelledSaleConflicts(t *testing.T) {
	f := newFixture(t)
	created := seedSale(t, f, 40)
	_, err := f.svc.CancelSale(context.Background(), created.ID.String())
	require.NoError(t, err)

	_, err = f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: created.ID.String(), CreateSaleInput: *beerInput(40)})

	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestUpdateSaleWrapsStorageFaults(t *testing.T) {
	f := newFixture(t)
	created := seedSale(t, f, 50)
	f.repo.updateErr = errStorageDown

	_, err := f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: created.ID.String(), CreateSaleInput: *beerInput(50)})

	assert.True(t, apperror.IsKind(err, apperror.KindPersistence))
	assert.Zero(t, f.pub.calls)
}

func TestUpdateSaleDeletedConcurrentlyIsNotFound(t *testing.T) {
	f := newFixture(t)
	created := seedSale(t, f, 51)
	f.repo.updateErr = repository.ErrSaleNotFound

	_, err := f.svc.UpdateSale(context.Background(), &UpdateSaleInput{ID: created.ID.String(), CreateSaleInput: *beerInput(51)})

	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.Equal(t, http.StatusNotFound, apperror.GetAppError(err).Code)
	assert.Zero(t, f.pub.calls)
}

func TestCancelSaleDeletedConcurrentlyIsNotFound(t *testing.T) {
	f := newFixture(t)
	created := seedSale(t, f, 52)
	f.repo.updateErr = repository.ErrSaleNotFound

	_, err := f.svc.CancelSale(context.Background(), created.ID.String())

	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.Zero(t, f.pub.calls)
}

func TestDeleteSale(t *testing.T) {
	t.Run("missing id is not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.DeleteSale(context.Background(), uuid.NewString())

		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
		assert.Zero(t, f.pub.calls)
	})

	t.Run("blank id is invalid", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.DeleteSale(context.Background(), "")

		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		assert.Zero(t, f.repo.deleteCalls)
	})

	t.Run("existing sale publishes once", func(t *testing.T) {
		f := newFixture(t)
		created := seedSale(t, f, 60)

		res, err := f.svc.DeleteSale(context.Background(), created.ID.String())

		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 1, f.pub.calls)
		assert.Equal(t, []string{f.topic(enum.EventSaleCancelled)}, f.pub.topics())
	})

	t.Run("publish failure still succeeds with one attempt", func(t *testing.T) {
		f := newFixture(t)
		created := seedSale(t, f, 61)
		f.pub.err = errors.New("broker unavailable")

		res, err := f.svc.DeleteSale(context.Background(), created.ID.String())

		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 1, f.pub.calls)
	})

	t.Run("storage fault is persistence error", func(t *testing.T) {
		f := newFixture(t)
		f.repo.deleteErr = errStorageDown

		_, err := f.svc.DeleteSale(context.Background(), uuid.NewString())

		assert.True(t, apperror.IsKind(err, apperror.KindPersistence))
		assert.Zero(t, f.pub.calls)
	})
}

func TestCancelSale(t *testing.T) {
	f := newFixture(t)
	created := seedSale(t, f, 70)

	res, err := f.svc.CancelSale(context.Background(), created.ID.String())

	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusCancelled, res.Status)
	assert.NotNil(t, res.UpdatedAt)
	assert.Equal(t, []string{f.topic(enum.EventSaleCancelled)}, f.pub.topics())

	_, err = f.svc.CancelSale(context.Background(), created.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = f.svc.CancelSale(context.Background(), uuid.NewString())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetSale(t *testing.T) {
	f := newFixture(t)
	created := seedSale(t, f, 80)

	res, err := f.svc.GetSale(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, res.ID)
	assert.True(t, res.TotalAmount.Equal(dec("79.80")))

	_, err = f.svc.GetSale(context.Background(), uuid.NewString())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	f.repo.getErr = errStorageDown
	_, err = f.svc.GetSale(context.Background(), created.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindPersistence))
}

func TestListSales(t *testing.T) {
	f := newFixture(t)
	seedSale(t, f, 90)
	seedSale(t, f, 91)

	res, err := f.svc.ListSales(context.Background(), &repository.SaleFilterParams{Branch: "Downtown"})

	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, int64(2), res.Pagination.Total)
	assert.Equal(t, pagination.DefaultPerPage, res.Pagination.PerPage)

	f.repo.listErr = errStorageDown
	_, err = f.svc.ListSales(context.Background(), &repository.SaleFilterParams{})
	assert.True(t, apperror.IsKind(err, apperror.KindPersistence))
}
