package bookings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
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
)

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  users.Role
}

type Service interface {
	// Checkout runs the full submission pipeline: validation,
	// availability, pricing, discounts and either direct settlement or a
	// gateway handoff. It never returns an error; failures come back as a
	// non-status result with a caller-safe message.
	Checkout(ctx context.Context, actor Actor, req *BookingRequest) *CheckoutResult

	// HandleGatewayCallback settles an order after the customer returns
	// from a hosted payment page. Safe to invoke repeatedly.
	HandleGatewayCallback(ctx context.Context, method int, commonOrder, reference string) *CheckoutResult

	GetBooking(ctx context.Context, actor Actor, id uuid.UUID) (*BookingResponse, error)
	ListBookings(ctx context.Context, actor Actor, page, limit int) (*PaginatedBookingsResponse, error)
}

// GatewayRegistry resolves a payment method id to its gateway adapter.
type GatewayRegistry interface {
	Resolve(method int) payments.Adapter
}

type service struct {
	repo      Repository
	sessions  SessionStore
	validator *Validator
	engine    *pricing.Engine
	applier   *promocodes.Applier
	gateways  GatewayRegistry
	users     users.Repository
	events    events.Repository
	tickets   tickets.Repository
	producer  notifications.Producer
	cfg       *config.Config
	log       *logger.Logger

	now      func() time.Time
	newToken func() string
}

func NewService(
	repo Repository,
	sessions SessionStore,
	validator *Validator,
	engine *pricing.Engine,
	applier *promocodes.Applier,
	gateways GatewayRegistry,
	usersRepo users.Repository,
	eventsRepo events.Repository,
	ticketsRepo tickets.Repository,
	producer notifications.Producer,
	cfg *config.Config,
	log *logger.Logger,
) Service {
	return &service{
		repo:      repo,
		sessions:  sessions,
		validator: validator,
		engine:    engine,
		applier:   applier,
		gateways:  gateways,
		users:     usersRepo,
		events:    eventsRepo,
		tickets:   ticketsRepo,
		producer:  producer,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		newToken:  newOrderToken,
	}
}

// newOrderToken builds the shared order token for one checkout submission.
func newOrderToken() string {
	return fmt.Sprintf("%d%03d", time.Now().Unix(), rand.Intn(988)+1)
}

func failureResult(err error) *CheckoutResult {
	checkoutErr := AsCheckoutError(err)
	return &CheckoutResult{Status: false, Message: checkoutErr.PublicMessage()}
}

func (s *service) Checkout(ctx context.Context, actor Actor, req *BookingRequest) *CheckoutResult {
	if err := req.Validate(); err != nil {
		return failureResult(err)
	}

	event, err := s.events.GetEventByID(ctx, req.EventID)
	if err != nil {
		return failureResult(validationError("event not found"))
	}
	if !event.IsPublished() {
		return failureResult(validationError("event is not open for booking"))
	}
	if err := s.checkTiming(event, req); err != nil {
		return failureResult(err)
	}

	customer, err := s.resolveCustomer(ctx, actor, event, req)
	if err != nil {
		return failureResult(err)
	}
	if req.IsBulk && actor.Role != users.RoleAdmin {
		return failureResult(validationError("bulk bookings require an admin account"))
	}

	selections, err := s.resolveSelections(ctx, event, req)
	if err != nil {
		return failureResult(err)
	}

	if err := s.validator.Validate(ctx, customer.ID, req.ParsedBookingDate(), selections, req.IsBulk); err != nil {
		return failureResult(err)
	}

	session, err := s.buildSession(ctx, customer, event, req, selections)
	if err != nil {
		return failureResult(err)
	}

	s.log.LogCheckoutStarted(ctx, session.CommonOrder, event.ID.String(), customer.ID.String())

	if s.isDirectSettle(actor, req, session.TotalAmount) {
		// Complimentary batches count as paid even when the units carry a
		// price; nothing is ever collected for them.
		settle := &Settlement{
			TxnID:       session.CommonOrder,
			AmountPaid:  0,
			Currency:    session.Currency,
			Gateway:     GatewayOffline,
			Paid:        session.TotalAmount <= 0 || session.IsBulk,
			PaymentType: PaymentTypeOffline,
		}
		if session.TotalAmount <= 0 {
			settle.Gateway = GatewayFree
		}
		return s.finalize(ctx, session, settle)
	}

	adapter := s.gateways.Resolve(req.PaymentMethod)
	if adapter == nil {
		return failureResult(validationError("unsupported payment method"))
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		s.log.ErrorWithContext(ctx, "failed to stage checkout session", err,
			map[string]interface{}{"common_order": session.CommonOrder})
		return failureResult(settlementError("could not stage checkout"))
	}

	order := payments.Order{
		CommonOrder: session.CommonOrder,
		Amount:      session.TotalAmount,
		Description: event.Title,
		CardToken:   req.CardToken,
	}
	payer := payments.Customer{Name: customer.Name, Email: customer.Email, Phone: customer.Phone}

	result, err := adapter.CreatePayment(ctx, order, session.Currency, payer)
	if err != nil {
		_ = s.sessions.Discard(ctx, session.CommonOrder)
		s.log.LogGatewayError(ctx, session.CommonOrder, adapter.Name(), err)
		if errors.Is(err, payments.ErrConfigMissing) {
			return failureResult(configError(err.Error()))
		}
		return failureResult(gatewayError(err.Error()))
	}

	if result.Direct {
		settle := &Settlement{
			TxnID:          result.TransactionID,
			AmountPaid:     session.TotalAmount,
			Currency:       session.Currency,
			Gateway:        adapter.Name(),
			PayerReference: result.PayerReference,
			Paid:           true,
			PaymentType:    PaymentTypeOnline,
		}
		return s.finalize(ctx, session, settle)
	}

	s.log.LogGatewayRedirect(ctx, session.CommonOrder, adapter.Name())
	return &CheckoutResult{
		Status:      true,
		URL:         result.RedirectURL,
		Message:     "Redirecting to payment gateway",
		CommonOrder: session.CommonOrder,
	}
}

func (s *service) HandleGatewayCallback(ctx context.Context, method int, commonOrder, reference string) *CheckoutResult {
	session, err := s.sessions.Load(ctx, commonOrder)
	if err != nil {
		return failureResult(settlementError("checkout session expired or unknown"))
	}

	adapter := s.gateways.Resolve(method)
	if adapter == nil {
		return failureResult(validationError("unsupported payment method"))
	}

	// Always re-verify server side; callback query parameters are not
	// trusted for amount or status.
	status, err := adapter.VerifyStatus(ctx, reference)
	if err != nil {
		_ = s.sessions.Discard(ctx, commonOrder)
		s.log.LogGatewayError(ctx, commonOrder, adapter.Name(), err)
		if errors.Is(err, payments.ErrConfigMissing) {
			return failureResult(configError(err.Error()))
		}
		return failureResult(gatewayError(err.Error()))
	}
	if !status.Paid {
		_ = s.sessions.Discard(ctx, commonOrder)
		return failureResult(gatewayError("payment was not completed"))
	}

	amount := status.Amount
	if amount == 0 {
		amount = session.TotalAmount
	} else if math.Abs(amount-session.TotalAmount) >= 0.01 {
		// Settle with the amount the provider confirmed; the gap is flagged
		// for reconciliation.
		s.log.LogAmountMismatch(ctx, commonOrder, adapter.Name(), amount, session.TotalAmount)
	}
	settle := &Settlement{
		TxnID:          status.TransactionID,
		AmountPaid:     amount,
		Currency:       session.Currency,
		Gateway:        adapter.Name(),
		PayerReference: status.PayerReference,
		Paid:           true,
		PaymentType:    PaymentTypeOnline,
	}
	return s.finalize(ctx, session, settle)
}

// finalize commits the session and discards the staged state whatever the
// outcome, so a retry can never replay stale pricing.
func (s *service) finalize(ctx context.Context, session *Session, settle *Settlement) *CheckoutResult {
	committed, err := s.repo.FinalizeOrder(ctx, session, settle)
	_ = s.sessions.Discard(ctx, session.CommonOrder)

	if errors.Is(err, ErrAlreadySettled) {
		s.log.LogDuplicateSettlement(ctx, session.CommonOrder)
		return &CheckoutResult{Status: true, Message: "Booking already completed", CommonOrder: session.CommonOrder}
	}
	if err != nil {
		s.log.ErrorWithContext(ctx, "settlement failed", err,
			map[string]interface{}{"common_order": session.CommonOrder})
		return failureResult(err)
	}

	s.log.LogOrderSettled(ctx, session.CommonOrder, settle.TxnID, len(committed))
	s.publishCommitted(ctx, session, settle, committed)

	return &CheckoutResult{Status: true, Message: "Booking completed", CommonOrder: session.CommonOrder}
}

// publishCommitted emits the booking.committed event. Publish failures are
// logged and never fail the booking.
func (s *service) publishCommitted(ctx context.Context, session *Session, settle *Settlement, committed []Booking) {
	ids := make([]uuid.UUID, 0, len(committed))
	for _, booking := range committed {
		ids = append(ids, booking.ID)
	}

	event := &notifications.BookingCommitted{
		CommonOrder: session.CommonOrder,
		BookingIDs:  ids,
		CustomerID:  session.CustomerID,
		EventID:     session.EventID,
		AmountPaid:  settle.AmountPaid,
		Currency:    settle.Currency,
		CommittedAt: s.now(),
	}
	if err := s.producer.PublishBookingCommitted(ctx, event); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish booking event", err,
			map[string]interface{}{"common_order": session.CommonOrder})
	}
}

func (s *service) resolveCustomer(ctx context.Context, actor Actor, event *events.Event, req *BookingRequest) (*users.User, error) {
	targetID := actor.ID
	if req.CustomerID != nil && *req.CustomerID != actor.ID {
		allowed := actor.Role == users.RoleAdmin ||
			actor.Role == users.RolePOS ||
			(actor.Role == users.RoleOrganiser && event.OrganiserID == actor.ID)
		if !allowed {
			return nil, validationError("not allowed to book on behalf of another customer")
		}
		targetID = *req.CustomerID
	}

	customer, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, validationError("customer account not found")
	}
	return customer, nil
}

func (s *service) resolveSelections(ctx context.Context, event *events.Event, req *BookingRequest) ([]Selection, error) {
	loaded, err := s.tickets.GetTicketsByIDs(ctx, req.TicketIDs)
	if err != nil {
		return nil, settlementError("could not load tickets")
	}
	byID := make(map[uuid.UUID]*tickets.Ticket, len(loaded))
	for i := range loaded {
		byID[loaded[i].ID] = &loaded[i]
	}

	selections := make([]Selection, 0, len(req.TicketIDs))
	for i, ticketID := range req.TicketIDs {
		ticket, ok := byID[ticketID]
		if !ok {
			return nil, validationError("ticket not found")
		}
		if ticket.EventID != event.ID {
			return nil, validationError("ticket does not belong to the event")
		}

		seatIDs := req.SeatsForTicket(ticketID)
		if len(seatIDs) > 0 && len(seatIDs) != req.Quantities[i] {
			return nil, validationError(fmt.Sprintf("ticket %q needs one seat per unit", ticket.Title))
		}

		selections = append(selections, Selection{
			Ticket:   ticket,
			Quantity: req.Quantities[i],
			SeatIDs:  seatIDs,
		})
	}
	return selections, nil
}

// buildSession prices the cart, applies promocodes and stages every unit.
func (s *service) buildSession(ctx context.Context, customer *users.User, event *events.Event, req *BookingRequest, selections []Selection) (*Session, error) {
	commonOrder := s.newToken()

	session := &Session{
		CommonOrder:       commonOrder,
		CustomerID:        customer.ID,
		OrganiserID:       event.OrganiserID,
		EventID:           event.ID,
		Currency:          s.cfg.Regional.CurrencyDefault,
		PaymentMethod:     req.PaymentMethod,
		CommissionPercent: s.cfg.Commission.AdminPercent,
		IsBulk:            req.IsBulk,
		EventStartDate:    req.ParsedBookingDate().Format(dateLayout),
		EventEndDate:      req.ParsedBookingEndDate().Format(dateLayout),
		EventStartTime:    pickTime(req.StartTime, event.StartTime),
		EventEndTime:      pickTime(req.EndTime, event.EndTime),
		CreatedAt:         s.now(),
	}

	attendeesLeft := groupAttendees(req.Attendees)

	unitIndex := 0
	for _, selection := range selections {
		if selection.Quantity == 0 {
			continue
		}

		quote, err := s.engine.QuoteTicket(ctx, selection.Ticket)
		if err != nil {
			return nil, settlementError("could not price ticket")
		}

		for u := 0; u < selection.Quantity; u++ {
			unitIndex++
			unit := PendingUnit{
				OrderNumber:    fmt.Sprintf("%s-%d", commonOrder, unitIndex),
				TicketID:       selection.Ticket.ID,
				Price:          quote.UnitPrice,
				Tax:            quote.Tax,
				NetPrice:       quote.NetPrice,
				OrganiserPrice: quote.OrganiserPrice,
				AdminTax:       quote.AdminTax,
			}

			if u < len(selection.SeatIDs) {
				seatID := selection.SeatIDs[u]
				unit.SeatID = &seatID
				if seat, err := s.tickets.GetSeatByID(ctx, seatID); err == nil {
					unit.SeatName = seat.Name
				}
			}

			if next := attendeesLeft[selection.Ticket.ID]; len(next) > 0 {
				unit.AttendeeName = next[0].Name
				unit.AttendeePhone = next[0].Phone
				unit.AttendeeAddress = next[0].Address
				attendeesLeft[selection.Ticket.ID] = next[1:]
			}

			session.Units = append(session.Units, unit)
		}
	}

	if err := s.applyPromocodes(ctx, customer.ID, req, selections, session); err != nil {
		return nil, err
	}

	total := 0.0
	for _, unit := range session.Units {
		total += unit.NetPrice
	}
	session.TotalAmount = round2(total)
	return session, nil
}

// applyPromocodes runs the best-effort discount pass over the staged units.
func (s *service) applyPromocodes(ctx context.Context, customerID uuid.UUID, req *BookingRequest, selections []Selection, session *Session) error {
	codeByTicket := make(map[uuid.UUID]string)
	for i, selection := range selections {
		if code := req.PromocodeForLine(i); code != "" {
			codeByTicket[selection.Ticket.ID] = code
		}
	}
	if len(codeByTicket) == 0 {
		return nil
	}

	promoUnits := make([]promocodes.Unit, 0, len(session.Units))
	for i, unit := range session.Units {
		code := codeByTicket[unit.TicketID]
		if code == "" || unit.NetPrice <= 0 {
			continue
		}
		promoUnits = append(promoUnits, promocodes.Unit{
			Index:    i,
			TicketID: unit.TicketID,
			NetPrice: unit.NetPrice,
			Code:     code,
		})
	}
	if len(promoUnits) == 0 {
		return nil
	}

	discounts, usages, err := s.applier.Apply(ctx, customerID, promoUnits)
	if err != nil {
		// Best effort: the cart proceeds undiscounted.
		s.log.ErrorWithContext(ctx, "promocode pass failed", err,
			map[string]interface{}{"common_order": session.CommonOrder})
		return nil
	}

	for _, discount := range discounts {
		unit := &session.Units[discount.Index]
		unit.NetPrice = round2(unit.NetPrice - discount.Reward)
		unit.OrganiserPrice = round2(unit.OrganiserPrice - discount.Reward)
		if unit.OrganiserPrice < 0 {
			unit.OrganiserPrice = 0
		}
		promocodeID := discount.PromocodeID
		unit.PromocodeID = &promocodeID
		unit.PromocodeReward = discount.Reward
	}
	applied := make(map[string]bool, len(usages))
	for _, usage := range usages {
		applied[usage.Code] = true
		session.Usages = append(session.Usages, StagedUsage{
			PromocodeID: usage.PromocodeID,
			TicketID:    usage.TicketID,
			Code:        usage.Code,
		})
	}
	for _, code := range codeByTicket {
		if !applied[code] {
			s.log.LogPromocodeSkipped(ctx, code, "not redeemable for this cart")
		}
	}
	return nil
}

// isDirectSettle decides whether settlement runs without any gateway: free
// carts, elevated roles, complimentary batches and permitted offline
// payments.
func (s *service) isDirectSettle(actor Actor, req *BookingRequest, total float64) bool {
	if total <= 0 {
		return true
	}
	if actor.Role == users.RoleAdmin || req.IsBulk {
		return true
	}
	if req.OfflinePayment {
		switch actor.Role {
		case users.RolePOS:
			return true
		case users.RoleOrganiser:
			return s.cfg.Booking.OfflinePaymentOrganiser
		case users.RoleCustomer:
			return s.cfg.Booking.OfflinePaymentCustomer
		}
	}
	return false
}

func (s *service) checkTiming(event *events.Event, req *BookingRequest) error {
	now := s.now()
	bookingDate := req.ParsedBookingDate()

	if bookingDate.Before(truncateToDay(event.StartDate)) || bookingDate.After(truncateToDay(event.EndDate)) {
		return validationError("booking date is outside the event schedule")
	}

	eventEnd := combineDateTime(event.EndDate, event.EndTime)
	if now.After(eventEnd) {
		return timingError("event has already ended")
	}

	if s.cfg.Booking.PreBookingHours > 0 {
		occurrenceStart := combineDateTime(bookingDate, pickTime(req.StartTime, event.StartTime))
		deadline := occurrenceStart.Add(-time.Duration(s.cfg.Booking.PreBookingHours * float64(time.Hour)))
		if now.After(deadline) {
			return timingError(fmt.Sprintf("bookings close %.0f hour(s) before the event starts", s.cfg.Booking.PreBookingHours))
		}
	}
	return nil
}

func (s *service) GetBooking(ctx context.Context, actor Actor, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := actor.Role == users.RoleAdmin ||
		booking.CustomerID == actor.ID ||
		booking.OrganiserID == actor.ID
	if !allowed {
		return nil, validationError("not allowed to view this booking")
	}

	response := toBookingResponse(booking)
	return &response, nil
}

func (s *service) ListBookings(ctx context.Context, actor Actor, page, limit int) (*PaginatedBookingsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var items []Booking
	var total int64
	var err error
	if actor.Role == users.RoleOrganiser {
		items, total, err = s.repo.ListBookingsByOrganiser(ctx, actor.ID, page, limit)
	} else {
		items, total, err = s.repo.ListBookingsByCustomer(ctx, actor.ID, page, limit)
	}
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &PaginatedBookingsResponse{
		Bookings:   toBookingResponses(items),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func groupAttendees(inputs []AttendeeInput) map[uuid.UUID][]AttendeeInput {
	grouped := make(map[uuid.UUID][]AttendeeInput)
	for _, input := range inputs {
		grouped[input.TicketID] = append(grouped[input.TicketID], input)
	}
	return grouped
}

func pickTime(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func combineDateTime(date time.Time, clock string) time.Time {
	parsed, err := time.Parse("15:04:05", clock)
	if err != nil {
		parsed, err = time.Parse("15:04", clock)
	}
	if err != nil {
		// No usable time of day; treat the whole day as in range.
		return time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, date.Location())
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, date.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
