package bookings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ticketbooth/internal/events"
	"ticketbooth/internal/notifications"
	"ticketbooth/internal/payments"
	"ticketbooth/internal/pricing"
	"ticketbooth/internal/promocodes"
	"ticketbooth/internal/shared/config"
	"ticketbooth/internal/tickets"
	"ticketbooth/internal/users"
	"ticketbooth/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingRepo struct {
	finalizeErr error
	settlements []*Settlement
	sessions    []*Session
}

func (f *fakeBookingRepo) FinalizeOrder(_ context.Context, session *Session, settle *Settlement) ([]Booking, error) {
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	f.sessions = append(f.sessions, session)
	f.settlements = append(f.settlements, settle)

	rows := make([]Booking, 0, len(session.Units))
	for _, unit := range session.Units {
		rows = append(rows, Booking{
			ID:          uuid.New(),
			CommonOrder: session.CommonOrder,
			OrderNumber: unit.OrderNumber,
			TicketID:    unit.TicketID,
			NetPrice:    unit.NetPrice,
		})
	}
	return rows, nil
}

func (f *fakeBookingRepo) GetBookingByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	return nil, errors.New("record not found")
}

func (f *fakeBookingRepo) GetBookingsByCommonOrder(_ context.Context, commonOrder string) ([]Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ListBookingsByCustomer(_ context.Context, customerID uuid.UUID, page, limit int) ([]Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeBookingRepo) ListBookingsByOrganiser(_ context.Context, organiserID uuid.UUID, page, limit int) ([]Booking, int64, error) {
	return nil, 0, nil
}

type fakeSessionStore struct {
	saved     map[string]*Session
	discarded []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{saved: make(map[string]*Session)}
}

func (f *fakeSessionStore) Save(_ context.Context, session *Session) error {
	f.saved[session.CommonOrder] = session
	return nil
}

func (f *fakeSessionStore) Load(_ context.Context, commonOrder string) (*Session, error) {
	session, ok := f.saved[commonOrder]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return session, nil
}

func (f *fakeSessionStore) Discard(_ context.Context, commonOrder string) error {
	f.discarded = append(f.discarded, commonOrder)
	delete(f.saved, commonOrder)
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*users.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return user, nil
}

type fakeEventRepo struct {
	events map[uuid.UUID]*events.Event
}

func (f *fakeEventRepo) GetEventByID(_ context.Context, id uuid.UUID) (*events.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return event, nil
}

type stubPromoRepo struct{}

func (stubPromoRepo) FindByCode(_ context.Context, code string) (*promocodes.Promocode, error) {
	return nil, errors.New("record not found")
}

func (stubPromoRepo) AppliesToTicket(_ context.Context, promocodeID, ticketID uuid.UUID) (bool, error) {
	return true, nil
}

func (stubPromoRepo) HasUsage(_ context.Context, userID, promocodeID, ticketID uuid.UUID) (bool, error) {
	return false, nil
}

// stubAdapter scripts one gateway for orchestrator tests.
type stubAdapter struct {
	name         string
	createResult *payments.CreateResult
	createErr    error
	status       *payments.StatusResult
	statusErr    error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) CreatePayment(_ context.Context, _ payments.Order, _ string, _ payments.Customer) (*payments.CreateResult, error) {
	return s.createResult, s.createErr
}

func (s *stubAdapter) VerifyStatus(_ context.Context, _ string) (*payments.StatusResult, error) {
	return s.status, s.statusErr
}

type stubGateways map[int]payments.Adapter

func (s stubGateways) Resolve(method int) payments.Adapter { return s[method] }

type fakeProducer struct {
	published []*notifications.BookingCommitted
	err       error
}

func (f *fakeProducer) PublishBookingCommitted(_ context.Context, event *notifications.BookingCommitted) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

type checkoutFixture struct {
	service  *service
	repo     *fakeBookingRepo
	sessions *fakeSessionStore
	tickets  *fakeTicketRepo
	producer *fakeProducer
	customer *users.User
	event    *events.Event
	cfg      *config.Config
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	ticketRepo := newFakeTicketRepo()
	bookingRepo := &fakeBookingRepo{}
	sessionStore := newFakeSessionStore()
	producer := &fakeProducer{}

	customer := &users.User{ID: uuid.New(), Name: "Ann Lee", Email: "ann@example.com", Role: users.RoleCustomer}
	userRepo := &fakeUserRepo{users: map[uuid.UUID]*users.User{customer.ID: customer}}

	now := time.Now()
	event := &events.Event{
		ID:          uuid.New(),
		OrganiserID: uuid.New(),
		Title:       "Jazz Night",
		StartDate:   now.AddDate(0, 0, -1),
		EndDate:     now.AddDate(0, 1, 0),
		Repetitive:  true,
		Status:      "published",
	}
	eventRepo := &fakeEventRepo{events: map[uuid.UUID]*events.Event{event.ID: event}}

	cfg := &config.Config{}
	cfg.Regional.CurrencyDefault = "USD"
	cfg.Booking.MaxTicketQty = 10
	cfg.Commission.AdminPercent = 20

	svc := NewService(
		bookingRepo,
		sessionStore,
		NewValidator(ticketRepo, cfg.Booking),
		pricing.NewEngine(ticketRepo),
		promocodes.NewApplier(stubPromoRepo{}),
		payments.NewRegistry(cfg, logger.New()),
		userRepo,
		eventRepo,
		ticketRepo,
		producer,
		cfg,
		logger.New(),
	).(*service)

	return &checkoutFixture{
		service:  svc,
		repo:     bookingRepo,
		sessions: sessionStore,
		tickets:  ticketRepo,
		producer: producer,
		customer: customer,
		event:    event,
		cfg:      cfg,
	}
}

func (f *checkoutFixture) addTicket(price float64, capacity int) *tickets.Ticket {
	ticket := &tickets.Ticket{ID: uuid.New(), EventID: f.event.ID, Title: "Standard", Price: price, Quantity: capacity}
	f.tickets.tickets[ticket.ID] = ticket
	return ticket
}

func (f *checkoutFixture) request(ticket *tickets.Ticket, quantity int) *BookingRequest {
	return &BookingRequest{
		EventID:     f.event.ID,
		TicketIDs:   []uuid.UUID{ticket.ID},
		Quantities:  []int{quantity},
		BookingDate: time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	}
}

func (f *checkoutFixture) actor() Actor {
	return Actor{ID: f.customer.ID, Email: f.customer.Email, Role: f.customer.Role}
}

func TestCheckoutFreeCartSettlesWithoutGateway(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(0, 100)

	req := fixture.request(ticket, 2)
	req.PaymentMethod = payments.MethodPayPal // would fail if invoked; no gateway is configured

	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)

	require.True(t, result.Status, result.Message)
	require.Len(t, fixture.repo.settlements, 1)

	settle := fixture.repo.settlements[0]
	assert.Equal(t, GatewayFree, settle.Gateway)
	assert.True(t, settle.Paid)
	assert.Equal(t, PaymentTypeOffline, settle.PaymentType)
	assert.Equal(t, result.CommonOrder, settle.TxnID)

	session := fixture.repo.sessions[0]
	assert.Len(t, session.Units, 2)
	assert.Zero(t, session.TotalAmount)

	// Committed event goes out once the settlement lands.
	require.Len(t, fixture.producer.published, 1)
	assert.Equal(t, session.CommonOrder, fixture.producer.published[0].CommonOrder)
}

func TestCheckoutUnconfiguredGatewayFailsGenerically(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(50, 100)

	req := fixture.request(ticket, 1)
	req.PaymentMethod = payments.MethodPayPal

	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)

	require.False(t, result.Status)
	// The missing secret must not leak to the caller.
	assert.Equal(t, "Booking failed. Please try again.", result.Message)
	assert.Empty(t, fixture.repo.settlements)

	// The staged session is discarded after the gateway refusal.
	assert.NotEmpty(t, fixture.sessions.discarded)
	assert.Empty(t, fixture.sessions.saved)
}

func TestCheckoutUnknownPaymentMethodRejected(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(50, 100)

	req := fixture.request(ticket, 1)
	req.PaymentMethod = 42

	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)

	require.False(t, result.Status)
	assert.Equal(t, "unsupported payment method", result.Message)
}

func TestCheckoutDuplicateSettlementIsNoopSuccess(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(0, 100)
	fixture.repo.finalizeErr = ErrAlreadySettled

	result := fixture.service.Checkout(context.Background(), fixture.actor(), fixture.request(ticket, 1))

	require.True(t, result.Status)
	assert.Contains(t, result.Message, "already")
	assert.Empty(t, fixture.producer.published)
}

func TestCheckoutSettlementFailureIsGeneric(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(0, 100)
	fixture.repo.finalizeErr = errors.New("duplicate key value violates unique constraint")

	result := fixture.service.Checkout(context.Background(), fixture.actor(), fixture.request(ticket, 1))

	require.False(t, result.Status)
	assert.Equal(t, "Booking failed. Please try again.", result.Message)
}

func TestCheckoutAdminSettlesDirectly(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(75, 100)

	admin := &users.User{ID: uuid.New(), Name: "Root", Email: "root@example.com", Role: users.RoleAdmin}
	fixture.service.users.(*fakeUserRepo).users[admin.ID] = admin

	req := fixture.request(ticket, 1)
	result := fixture.service.Checkout(context.Background(), Actor{ID: admin.ID, Role: users.RoleAdmin}, req)

	require.True(t, result.Status, result.Message)
	require.Len(t, fixture.repo.settlements, 1)

	settle := fixture.repo.settlements[0]
	assert.Equal(t, GatewayOffline, settle.Gateway)
	assert.False(t, settle.Paid) // money collected outside the platform
	assert.Equal(t, PaymentTypeOffline, settle.PaymentType)
}

func TestCheckoutBulkSettlesAsPaid(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(75, 100)

	admin := &users.User{ID: uuid.New(), Name: "Root", Email: "root@example.com", Role: users.RoleAdmin}
	fixture.service.users.(*fakeUserRepo).users[admin.ID] = admin

	req := fixture.request(ticket, 3)
	req.IsBulk = true

	result := fixture.service.Checkout(context.Background(), Actor{ID: admin.ID, Role: users.RoleAdmin}, req)

	require.True(t, result.Status, result.Message)
	require.Len(t, fixture.repo.settlements, 1)

	// Complimentary batches carry a price but never collect money; the units
	// are still marked paid so they count as redeemed.
	settle := fixture.repo.settlements[0]
	assert.True(t, settle.Paid)
	assert.Equal(t, GatewayOffline, settle.Gateway)
	assert.Equal(t, PaymentTypeOffline, settle.PaymentType)
}

func TestCheckoutGatewayRejectionSurfacesProviderMessage(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(50, 100)

	createErr := fmt.Errorf("%w: create bill returned 422", payments.ErrProviderRejected)
	fixture.service.gateways = stubGateways{
		payments.MethodBillplz: &stubAdapter{name: "billplz", createErr: createErr},
	}

	req := fixture.request(ticket, 1)
	req.PaymentMethod = payments.MethodBillplz

	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)

	require.False(t, result.Status)
	assert.Equal(t, createErr.Error(), result.Message)
	assert.Empty(t, fixture.repo.settlements)
	assert.Empty(t, fixture.sessions.saved)
}

func TestCheckoutBulkRequiresAdmin(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(0, 100)

	req := fixture.request(ticket, 1)
	req.IsBulk = true

	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)

	require.False(t, result.Status)
	assert.Contains(t, result.Message, "admin")
}

func TestCheckoutPublishFailureDoesNotFailBooking(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(0, 100)
	fixture.producer.err = errors.New("kafka unreachable")

	result := fixture.service.Checkout(context.Background(), fixture.actor(), fixture.request(ticket, 1))

	require.True(t, result.Status, result.Message)
	require.Len(t, fixture.repo.settlements, 1)
}

func TestCheckoutRejectsDateOutsideSchedule(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(20, 100)

	req := fixture.request(ticket, 1)
	req.BookingDate = time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)

	require.False(t, result.Status)
	assert.Contains(t, result.Message, "schedule")
}

func TestCheckoutRejectsWithinPreBookingWindow(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(20, 100)
	fixture.cfg.Booking.PreBookingHours = 48

	req := fixture.request(ticket, 1)
	req.BookingDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	req.StartTime = "00:30:00"

	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)

	require.False(t, result.Status)
	assert.Contains(t, result.Message, "close")
}

func TestGatewayCallbackUnknownSessionFails(t *testing.T) {
	fixture := newCheckoutFixture(t)

	result := fixture.service.HandleGatewayCallback(context.Background(), payments.MethodBillplz, "175000000001", "bill_abc")

	require.False(t, result.Status)
	assert.Equal(t, "Booking failed. Please try again.", result.Message)
	assert.Empty(t, fixture.repo.settlements)
}

func TestGatewayCallbackUnpaidSurfacesMessage(t *testing.T) {
	fixture := newCheckoutFixture(t)
	fixture.service.gateways = stubGateways{
		payments.MethodToyyibPay: &stubAdapter{name: "toyyibpay", status: &payments.StatusResult{Paid: false}},
	}

	session := &Session{CommonOrder: "175000000007", Currency: "USD", TotalAmount: 40}
	require.NoError(t, fixture.sessions.Save(context.Background(), session))

	result := fixture.service.HandleGatewayCallback(context.Background(), payments.MethodToyyibPay, session.CommonOrder, "bill_x")

	require.False(t, result.Status)
	assert.Equal(t, "payment was not completed", result.Message)
	assert.Empty(t, fixture.repo.settlements)
	assert.Contains(t, fixture.sessions.discarded, session.CommonOrder)
}

func TestGatewayCallbackSettlesWithVerifiedAmount(t *testing.T) {
	fixture := newCheckoutFixture(t)
	fixture.service.gateways = stubGateways{
		payments.MethodBillplz: &stubAdapter{name: "billplz", status: &payments.StatusResult{
			Paid:          true,
			TransactionID: "bill_y",
			Amount:        95.50,
		}},
	}

	session := &Session{CommonOrder: "175000000008", Currency: "USD", TotalAmount: 100}
	require.NoError(t, fixture.sessions.Save(context.Background(), session))

	result := fixture.service.HandleGatewayCallback(context.Background(), payments.MethodBillplz, session.CommonOrder, "bill_y")

	require.True(t, result.Status, result.Message)
	require.Len(t, fixture.repo.settlements, 1)

	// The provider-confirmed amount is what lands on the transaction, even
	// when it disagrees with the staged total.
	settle := fixture.repo.settlements[0]
	assert.Equal(t, 95.50, settle.AmountPaid)
	assert.Equal(t, "bill_y", settle.TxnID)
	assert.True(t, settle.Paid)
}

func TestCheckoutOnBehalfRequiresPrivilege(t *testing.T) {
	fixture := newCheckoutFixture(t)
	ticket := fixture.addTicket(0, 100)

	other := &users.User{ID: uuid.New(), Name: "Bea", Email: "bea@example.com", Role: users.RoleCustomer}
	fixture.service.users.(*fakeUserRepo).users[other.ID] = other

	req := fixture.request(ticket, 1)
	req.CustomerID = &other.ID

	// A plain customer cannot book for someone else.
	result := fixture.service.Checkout(context.Background(), fixture.actor(), req)
	require.False(t, result.Status)

	// The event organiser can.
	organiser := &users.User{ID: fixture.event.OrganiserID, Name: "Org", Email: "org@example.com", Role: users.RoleOrganiser}
	fixture.service.users.(*fakeUserRepo).users[organiser.ID] = organiser

	result = fixture.service.Checkout(context.Background(), Actor{ID: organiser.ID, Role: users.RoleOrganiser}, req)
	require.True(t, result.Status, result.Message)
	require.Len(t, fixture.repo.sessions, 1)
	assert.Equal(t, other.ID, fixture.repo.sessions[0].CustomerID)
}
