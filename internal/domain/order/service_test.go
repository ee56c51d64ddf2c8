package order

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/cart"
	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/MuhammadAwais984/storefront/internal/pkg/pagination"
	"github.com/MuhammadAwais984/storefront/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) HandleOrderEvent(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type OrderServiceSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	service  *Service
	events   *recorder
	customer user.User
	laptop   product.Product
	mouse    product.Product
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	t := s.T()
	s.ctx = context.Background()
	s.db = testutil.NewDB(t,
		&user.User{}, &user.Address{},
		&product.Category{}, &product.Product{}, &product.ProductImage{},
		&cart.CartItem{},
		&Order{}, &OrderItem{}, &OrderStatusHistory{},
	)
	s.service = NewService(s.db, logger.Discard())
	s.events = &recorder{}
	s.service.Subscribe(s.events)

	s.customer = user.User{Email: "jane@example.com", Password: "x", Name: "Jane", Role: auth.RoleCustomer}
	require.NoError(t, s.db.Create(&s.customer).Error)

	category := product.Category{Name: "Electronics", Slug: "electronics"}
	require.NoError(t, s.db.Create(&category).Error)
	s.laptop = product.Product{Name: "Laptop", Price: decimal.NewFromInt(500), CategoryID: category.ID}
	s.mouse = product.Product{Name: "Mouse", Price: decimal.NewFromInt(300), CategoryID: category.ID}
	require.NoError(t, s.db.Create(&s.laptop).Error)
	require.NoError(t, s.db.Create(&s.mouse).Error)
}

func (s *OrderServiceSuite) fillCart() {
	c := cart.NewUserCart(s.db, s.customer.ID)
	s.Require().NoError(c.Add(s.ctx, s.laptop.ID, 2))
	s.Require().NoError(c.Add(s.ctx, s.mouse.ID, 1))
}

func (s *OrderServiceSuite) count(model interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Count(&n).Error)
	return n
}

func (s *OrderServiceSuite) TestCreateOrderConvertsCart() {
	s.fillCart()

	order, err := s.service.CreateOrder(s.ctx, s.customer.ID, "221B Baker Street")
	s.Require().NoError(err)

	s.True(decimal.NewFromInt(1300).Equal(order.TotalPrice), order.TotalPrice.String())
	s.Equal(StatusPending, order.Status)
	s.Equal("221B Baker Street", order.Address)
	s.Len(order.Items, 2)
	s.Regexp(`^ORD-\d{8}-\d{5}$`, order.OrderNumber)
	s.Nil(order.GuestToken)
	s.Require().Len(order.StatusHistory, 1)
	s.Equal(StatusPending, order.StatusHistory[0].Status)

	s.Zero(s.count(&cart.CartItem{}))
	s.Equal([]EventType{EventCreated}, s.events.types())
}

func (s *OrderServiceSuite) TestCreateOrderEmptyCartWritesNothing() {
	_, err := s.service.CreateOrder(s.ctx, s.customer.ID, "somewhere")
	s.Require().Error(err)
	s.ErrorIs(err, apperror.ErrNotFound)
	s.Equal("Cart is empty", apperror.Message(err))

	s.Zero(s.count(&Order{}))
	s.Empty(s.events.types())
}

func (s *OrderServiceSuite) TestCreateOrderRequiresAddress() {
	s.fillCart()

	_, err := s.service.CreateOrder(s.ctx, s.customer.ID, "   ")
	s.Require().Error(err)
	s.ErrorIs(err, apperror.ErrNotFound)

	// the cart survives a failed checkout
	s.EqualValues(2, s.count(&cart.CartItem{}))
	s.Zero(s.count(&Order{}))
}

func (s *OrderServiceSuite) TestCreateOrderFallsBackToSavedAddress() {
	s.Require().NoError(s.db.Create(&user.Address{UserID: s.customer.ID, Line: "1 Saved Road"}).Error)
	s.fillCart()

	order, err := s.service.CreateOrder(s.ctx, s.customer.ID, "")
	s.Require().NoError(err)
	s.Equal("1 Saved Road", order.Address)
}

func (s *OrderServiceSuite) TestItemsKeepSnapshotAfterCatalogChange() {
	s.fillCart()
	order, err := s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(&s.laptop).Updates(map[string]interface{}{
		"name":  "Laptop Pro",
		"price": decimal.NewFromInt(900),
	}).Error)

	reloaded, err := s.service.GetUserOrder(s.ctx, s.customer.ID, order.ID)
	s.Require().NoError(err)
	s.Equal("Laptop", reloaded.Items[0].ProductName)
	s.True(decimal.NewFromInt(500).Equal(reloaded.Items[0].UnitPrice))
	s.True(decimal.NewFromInt(1300).Equal(reloaded.TotalPrice))
}

func (s *OrderServiceSuite) TestConcurrentCheckoutOrdersCartOnce() {
	s.fillCart()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	s.Equal(1, succeeded)
	s.EqualValues(1, s.count(&Order{}))
	s.Zero(s.count(&cart.CartItem{}))
}

func (s *OrderServiceSuite) TestGuestOrderReusesUserByEmail() {
	req := &GuestOrderRequest{
		Name:    "Guest",
		Email:   "Guest@Example.com",
		Address: "Guest Lane 1",
		Items:   []GuestItemRequest{{ProductID: s.mouse.ID, Quantity: 1}},
	}

	first, err := s.service.CreateGuestOrder(s.ctx, req)
	s.Require().NoError(err)
	req.Email = "guest@example.com"
	second, err := s.service.CreateGuestOrder(s.ctx, req)
	s.Require().NoError(err)

	s.Equal(first.Order.UserID, second.Order.UserID)
	s.NotEqual(first.GuestToken, second.GuestToken)

	var guest user.User
	s.Require().NoError(s.db.First(&guest, first.Order.UserID).Error)
	s.Equal(auth.RoleGuest, guest.Role)
	s.False(guest.HasPassword())
}

func (s *OrderServiceSuite) TestGuestOrderSumsDuplicateItems() {
	result, err := s.service.CreateGuestOrder(s.ctx, &GuestOrderRequest{
		Name:    "Guest",
		Email:   "g@example.com",
		Address: "addr",
		Items: []GuestItemRequest{
			{ProductID: s.laptop.ID, Quantity: 1},
			{ProductID: s.mouse.ID, Quantity: 1},
			{ProductID: s.laptop.ID, Quantity: 1},
		},
	})
	s.Require().NoError(err)

	s.Require().Len(result.Order.Items, 2)
	s.Equal(s.laptop.ID, result.Order.Items[0].ProductID)
	s.Equal(2, result.Order.Items[0].Quantity)
	s.True(decimal.NewFromInt(1300).Equal(result.Order.TotalPrice))

	events := s.events.types()
	s.Require().Len(events, 1)
	s.Equal(result.GuestToken, s.events.events[0].GuestToken)
	s.Equal("g@example.com", s.events.events[0].Email)
}

func (s *OrderServiceSuite) TestGuestOrderMissingProductFails() {
	_, err := s.service.CreateGuestOrder(s.ctx, &GuestOrderRequest{
		Name:    "Guest",
		Email:   "g@example.com",
		Address: "addr",
		Items: []GuestItemRequest{
			{ProductID: s.laptop.ID, Quantity: 1},
			{ProductID: 9999, Quantity: 1},
		},
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperror.ErrNotFound)

	s.Zero(s.count(&Order{}))
	s.Zero(s.count(&OrderItem{}))
	s.EqualValues(1, s.count(&user.User{}))
}

func (s *OrderServiceSuite) TestGuestTokenLookupAndCancel() {
	result, err := s.service.CreateGuestOrder(s.ctx, &GuestOrderRequest{
		Name: "Guest", Email: "g@example.com", Address: "addr",
		Items: []GuestItemRequest{{ProductID: s.mouse.ID, Quantity: 2}},
	})
	s.Require().NoError(err)

	orders, err := s.service.GetOrdersByGuestToken(s.ctx, result.GuestToken)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(result.Order.ID, orders[0].ID)

	_, err = s.service.CancelGuestOrder(s.ctx, result.Order.ID, "wrong-token")
	s.ErrorIs(err, apperror.ErrForbidden)
	unchanged, err := s.service.GetOrder(s.ctx, result.Order.ID)
	s.Require().NoError(err)
	s.Equal(StatusPending, unchanged.Status)

	canceled, err := s.service.CancelGuestOrder(s.ctx, result.Order.ID, result.GuestToken)
	s.Require().NoError(err)
	s.Equal(StatusCanceled, canceled.Status)

	_, err = s.service.CancelGuestOrder(s.ctx, 4242, result.GuestToken)
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *OrderServiceSuite) TestCancelOrderOwnership() {
	s.fillCart()
	order, err := s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
	s.Require().NoError(err)

	_, err = s.service.CancelOrder(s.ctx, s.customer.ID+100, order.ID)
	s.ErrorIs(err, apperror.ErrNotFound)

	canceled, err := s.service.CancelOrder(s.ctx, s.customer.ID, order.ID)
	s.Require().NoError(err)
	s.Equal(StatusCanceled, canceled.Status)
	s.Len(canceled.StatusHistory, 2)

	// repeated cancellation does not add history
	again, err := s.service.CancelOrder(s.ctx, s.customer.ID, order.ID)
	s.Require().NoError(err)
	s.Len(again.StatusHistory, 2)
}

func (s *OrderServiceSuite) TestRepeatedCancelPublishesOnce() {
	s.fillCart()
	order, err := s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		_, err = s.service.CancelOrder(s.ctx, s.customer.ID, order.ID)
		s.Require().NoError(err)
	}
	again, err := s.service.UpdateStatus(s.ctx, order.ID, &UpdateStatusRequest{Status: StatusCanceled}, 77)
	s.Require().NoError(err)
	s.Equal(StatusCanceled, again.Status)
	s.Len(again.StatusHistory, 2)

	s.Equal([]EventType{EventCreated, EventCanceled}, s.events.types())

	result, err := s.service.CreateGuestOrder(s.ctx, &GuestOrderRequest{
		Name: "Guest", Email: "g@example.com", Address: "addr",
		Items: []GuestItemRequest{{ProductID: s.mouse.ID, Quantity: 1}},
	})
	s.Require().NoError(err)
	for i := 0; i < 2; i++ {
		_, err = s.service.CancelGuestOrder(s.ctx, result.Order.ID, result.GuestToken)
		s.Require().NoError(err)
	}

	s.Equal([]EventType{EventCreated, EventCanceled, EventCreated, EventCanceled}, s.events.types())
}

func (s *OrderServiceSuite) TestUpdateStatusFollowsLifecycle() {
	s.fillCart()
	order, err := s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
	s.Require().NoError(err)
	adminID := uint(77)

	_, err = s.service.UpdateStatus(s.ctx, order.ID, &UpdateStatusRequest{Status: StatusDelivered}, adminID)
	s.ErrorIs(err, apperror.ErrInvalid)

	shipped, err := s.service.UpdateStatus(s.ctx, order.ID, &UpdateStatusRequest{Status: StatusShipped}, adminID)
	s.Require().NoError(err)
	s.Equal(StatusShipped, shipped.Status)
	s.Require().NotNil(shipped.StatusHistory[1].CreatedBy)
	s.Equal(adminID, *shipped.StatusHistory[1].CreatedBy)

	_, err = s.service.CancelOrder(s.ctx, s.customer.ID, order.ID)
	s.ErrorIs(err, apperror.ErrInvalid)

	delivered, err := s.service.UpdateStatus(s.ctx, order.ID, &UpdateStatusRequest{Status: StatusDelivered}, adminID)
	s.Require().NoError(err)
	s.Equal(StatusDelivered, delivered.Status)

	_, err = s.service.UpdateStatus(s.ctx, order.ID, &UpdateStatusRequest{Status: StatusPending}, adminID)
	s.ErrorIs(err, apperror.ErrInvalid)

	_, err = s.service.UpdateStatus(s.ctx, 999, &UpdateStatusRequest{Status: StatusShipped}, adminID)
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *OrderServiceSuite) TestListOrdersFiltersAndPaginates() {
	for i := 0; i < 3; i++ {
		_, err := s.service.CreateGuestOrder(s.ctx, &GuestOrderRequest{
			Name: "Guest", Email: "g@example.com", Address: "addr",
			Items: []GuestItemRequest{{ProductID: s.mouse.ID, Quantity: 1}},
		})
		s.Require().NoError(err)
	}
	s.fillCart()
	mine, err := s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
	s.Require().NoError(err)
	_, err = s.service.CancelOrder(s.ctx, s.customer.ID, mine.ID)
	s.Require().NoError(err)

	all, err := s.service.ListOrders(s.ctx, &OrderListRequest{})
	s.Require().NoError(err)
	s.EqualValues(4, all.Pagination.Total)

	canceled, err := s.service.ListOrders(s.ctx, &OrderListRequest{Status: StatusCanceled})
	s.Require().NoError(err)
	s.Require().Len(canceled.Orders, 1)
	s.Equal(mine.ID, canceled.Orders[0].ID)

	page, err := s.service.ListOrders(s.ctx, &OrderListRequest{Request: pagination.Request{Page: 2, Limit: 2}})
	s.Require().NoError(err)
	s.Len(page.Orders, 2)
	s.False(page.Pagination.HasNext)

	own, err := s.service.ListUserOrders(s.ctx, s.customer.ID, &OrderListRequest{})
	s.Require().NoError(err)
	s.EqualValues(1, own.Pagination.Total)

	_, err = s.service.GetUserOrder(s.ctx, s.customer.ID, all.Orders[len(all.Orders)-1].ID)
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *OrderServiceSuite) TestDeleteOrderCascades() {
	s.fillCart()
	order, err := s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteOrder(s.ctx, order.ID))
	s.Zero(s.count(&Order{}))
	s.Zero(s.count(&OrderItem{}))
	s.Zero(s.count(&OrderStatusHistory{}))
	s.Equal([]EventType{EventCreated, EventDeleted}, s.events.types())

	s.ErrorIs(s.service.DeleteOrder(s.ctx, order.ID), apperror.ErrNotFound)
}

func (s *OrderServiceSuite) TestExportOrders() {
	s.fillCart()
	_, err := s.service.CreateOrder(s.ctx, s.customer.ID, "addr")
	s.Require().NoError(err)

	var buf bytes.Buffer
	n, err := s.service.ExportOrders(s.ctx, &OrderListRequest{}, &buf)
	s.Require().NoError(err)
	s.Equal(1, n)

	file, err := xlsx.OpenBinary(buf.Bytes())
	s.Require().NoError(err)
	s.Require().Len(file.Sheets, 2)
	s.Len(file.Sheets[0].Rows, 2)
	s.Len(file.Sheets[1].Rows, 3)
	s.Equal("jane@example.com", file.Sheets[0].Rows[1].Cells[3].Value)
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusShipped}:   true,
		{StatusPending, StatusCanceled}:  true,
		{StatusShipped, StatusDelivered}: true,
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := allowed[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
	assert.False(t, Status("LOST").Valid())
}

func TestOrderHelpers(t *testing.T) {
	created := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20240309-00042", formatOrderNumber(created, 42))

	o := &Order{Status: StatusShipped}
	assert.False(t, o.CanBeCanceled())
	o.Status = StatusPending
	assert.True(t, o.CanBeCanceled())
}
