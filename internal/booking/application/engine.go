package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

// BookSeatRequest asks for one seat on a vehicle. TicketID is optional; an
// empty value lets the engine mint one.
type BookSeatRequest struct {
	VehicleID   string
	Row         int
	Col         int
	UserID      string
	Source      string
	Destination string
	TicketID    string
}

type EngineOption func(*Engine)

// WithReleaseSeatOnCancel frees the ticket's seat when a booking is cancelled.
// Off by default: cancellation only removes the ticket and the seat stays
// Booked.
func WithReleaseSeatOnCancel(enabled bool) EngineOption {
	return func(e *Engine) {
		e.releaseSeatOnCancel = enabled
	}
}

// WithEventBus publishes TicketBooked and BookingCancelled on bus.
func WithEventBus(bus BookingEventBus) EngineOption {
	return func(e *Engine) {
		e.eventBus = bus
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine reserves seats and issues tickets across the vehicle and user
// repositories. The two documents are written one after the other; a failure
// between the writes is reported as ErrPartialBooking and left for Audit.
type Engine struct {
	users       domain.UserRepository
	vehicles    domain.VehicleRepository
	hasher      domain.PasswordHasher
	idGenerator pkgDomain.IDGenerator[string]
	logger      pkgApp.AppLogger
	eventBus    BookingEventBus
	now         func() time.Time

	releaseSeatOnCancel bool

	// docMu is held shared by bookings and cancellations and exclusively by
	// Audit, so an audit never sees a booking between its two writes.
	docMu        sync.RWMutex
	vehicleLocks *keyedMutex
	userLocks    *keyedMutex
}

func NewEngine(
	users domain.UserRepository,
	vehicles domain.VehicleRepository,
	hasher domain.PasswordHasher,
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
	options ...EngineOption,
) *Engine {
	e := &Engine{
		users:        users,
		vehicles:     vehicles,
		hasher:       hasher,
		idGenerator:  idGenerator,
		logger:       logger,
		now:          time.Now,
		vehicleLocks: newKeyedMutex(),
		userLocks:    newKeyedMutex(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *Engine) ReleasesSeatOnCancel() bool {
	return e.releaseSeatOnCancel
}

// BookSeat marks the seat Booked, persists the vehicle, then issues a ticket
// to the user and persists the users. The seat is not rolled back if the
// ticket cannot be persisted.
func (e *Engine) BookSeat(ctx context.Context, req BookSeatRequest) (domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		pkgApp.LogError(ctx, e.logger, "context cancelled", err, nil)
		return domain.Ticket{}, err
	}

	e.docMu.RLock()
	defer e.docMu.RUnlock()

	fields := map[string]interface{}{
		"vehicle_id": req.VehicleID,
		"user_id":    req.UserID,
		"row":        req.Row,
		"col":        req.Col,
	}

	vehicle, err := e.reserveSeat(ctx, req, fields)
	if err != nil {
		return domain.Ticket{}, err
	}

	ticketID := req.TicketID
	if ticketID == "" {
		ticketID = e.idGenerator()
	}
	ticket := domain.Ticket{
		ID:          ticketID,
		UserID:      req.UserID,
		Source:      req.Source,
		Destination: req.Destination,
		IssuedOn:    e.now().Format(domain.IssueDateLayout),
		Row:         req.Row,
		Col:         req.Col,
		Vehicle:     vehicle,
	}
	fields["ticket_id"] = ticket.ID

	if err := e.issueTicket(ctx, ticket); err != nil {
		pkgApp.LogError(ctx, e.logger, "seat booked but ticket not persisted", err, fields)
		return domain.Ticket{}, fmt.Errorf("%w: ticket %s for seat %d-%d on %s: %w",
			domain.ErrPartialBooking, ticket.ID, req.Row, req.Col, req.VehicleID, err)
	}

	pkgApp.LogInfo(ctx, e.logger, "seat booked", fields)
	e.publish(ctx, NewTicketBookedEvent(ticket))
	return ticket.Clone(), nil
}

// reserveSeat validates the request, runs the check-and-set on the seat and
// persists the vehicle while holding the vehicle lock. It returns the vehicle
// after mutation.
func (e *Engine) reserveSeat(ctx context.Context, req BookSeatRequest, fields map[string]interface{}) (domain.Vehicle, error) {
	unlock := e.vehicleLocks.Lock(req.VehicleID)
	defer unlock()

	vehicle, ok := e.vehicles.FindByID(ctx, req.VehicleID)
	if !ok {
		pkgApp.LogError(ctx, e.logger, "booking rejected", domain.ErrNotFound, fields)
		return domain.Vehicle{}, fmt.Errorf("vehicle %s: %w", req.VehicleID, domain.ErrNotFound)
	}

	if !vehicle.Seats.InBounds(req.Row, req.Col) {
		pkgApp.LogError(ctx, e.logger, "booking rejected", domain.ErrInvalidSeatIndex, fields)
		return domain.Vehicle{}, fmt.Errorf("seat %d-%d on %s: %w", req.Row, req.Col, req.VehicleID, domain.ErrInvalidSeatIndex)
	}

	user, ok := e.users.FindByID(ctx, req.UserID)
	if !ok {
		pkgApp.LogError(ctx, e.logger, "booking rejected", domain.ErrNotFound, fields)
		return domain.Vehicle{}, fmt.Errorf("user %s: %w", req.UserID, domain.ErrNotFound)
	}
	if req.TicketID != "" && user.TicketIndex(req.TicketID) >= 0 {
		return domain.Vehicle{}, fmt.Errorf("ticket %s already issued to user %s", req.TicketID, user.ID)
	}

	if vehicle.Seats[req.Row][req.Col] == domain.SeatBooked {
		pkgApp.LogInfo(ctx, e.logger, "seat already booked", fields)
		return domain.Vehicle{}, fmt.Errorf("seat %d-%d on %s: %w", req.Row, req.Col, req.VehicleID, domain.ErrSeatUnavailable)
	}

	vehicle.Seats[req.Row][req.Col] = domain.SeatBooked
	vehicle.Source = req.Source
	vehicle.Destination = req.Destination

	if err := e.vehicles.Update(ctx, vehicle); err != nil {
		return domain.Vehicle{}, fmt.Errorf("book seat %d-%d on %s: %w", req.Row, req.Col, req.VehicleID, err)
	}
	if err := e.vehicles.Persist(ctx); err != nil {
		pkgApp.LogError(ctx, e.logger, "failed to persist booked seat", err, fields)
		return domain.Vehicle{}, fmt.Errorf("book seat %d-%d on %s: %w", req.Row, req.Col, req.VehicleID, err)
	}
	return vehicle, nil
}

func (e *Engine) issueTicket(ctx context.Context, ticket domain.Ticket) error {
	unlock := e.userLocks.Lock(ticket.UserID)
	defer unlock()

	user, ok := e.users.FindByID(ctx, ticket.UserID)
	if !ok {
		return fmt.Errorf("user %s: %w", ticket.UserID, domain.ErrNotFound)
	}
	if err := user.AddTicket(ticket); err != nil {
		return err
	}
	if err := e.users.Update(ctx, user); err != nil {
		return err
	}
	return e.users.Persist(ctx)
}

// CancelBooking removes a ticket from the acting user after re-checking their
// credentials. The result stays boolean; the error says why it is false.
func (e *Engine) CancelBooking(ctx context.Context, ticketID string, creds Credentials) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	e.docMu.RLock()
	defer e.docMu.RUnlock()

	fields := map[string]interface{}{"ticket_id": ticketID, "name": creds.Name}

	if ticketID == "" {
		pkgApp.LogInfo(ctx, e.logger, "cancellation rejected: empty ticket id", fields)
		return false, fmt.Errorf("empty ticket id: %w", domain.ErrNotFound)
	}

	actor, ok := authenticate(ctx, e.users, e.hasher, creds)
	if !ok {
		pkgApp.LogInfo(ctx, e.logger, "cancellation rejected: credentials", fields)
		return false, fmt.Errorf("cancel ticket %s: %w", ticketID, domain.ErrAuthorization)
	}
	fields["user_id"] = actor.ID

	ticket, err := e.removeTicket(ctx, actor.ID, ticketID)
	if err != nil {
		pkgApp.LogError(ctx, e.logger, "cancellation failed", err, fields)
		return false, err
	}

	if e.releaseSeatOnCancel {
		if err := e.releaseSeat(ctx, ticket); err != nil {
			pkgApp.LogError(ctx, e.logger, "ticket cancelled but seat not released", err, fields)
			return false, fmt.Errorf("%w: release seat for ticket %s: %w", domain.ErrPartialBooking, ticketID, err)
		}
	}

	pkgApp.LogInfo(ctx, e.logger, "booking cancelled", fields)
	e.publish(ctx, NewBookingCancelledEvent(ticket))
	return true, nil
}

func (e *Engine) removeTicket(ctx context.Context, userID, ticketID string) (domain.Ticket, error) {
	unlock := e.userLocks.Lock(userID)
	defer unlock()

	user, ok := e.users.FindByID(ctx, userID)
	if !ok {
		return domain.Ticket{}, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	ticket, found := user.RemoveTicket(ticketID)
	if !found {
		return domain.Ticket{}, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrNotFound)
	}
	if err := e.users.Update(ctx, user); err != nil {
		return domain.Ticket{}, err
	}
	if err := e.users.Persist(ctx); err != nil {
		return domain.Ticket{}, err
	}
	return ticket, nil
}

func (e *Engine) releaseSeat(ctx context.Context, ticket domain.Ticket) error {
	unlock := e.vehicleLocks.Lock(ticket.Vehicle.ID)
	defer unlock()

	vehicle, ok := e.vehicles.FindByID(ctx, ticket.Vehicle.ID)
	if !ok {
		return fmt.Errorf("vehicle %s: %w", ticket.Vehicle.ID, domain.ErrNotFound)
	}
	if !vehicle.Seats.InBounds(ticket.Row, ticket.Col) {
		return fmt.Errorf("seat %d-%d on %s: %w", ticket.Row, ticket.Col, vehicle.ID, domain.ErrInvalidSeatIndex)
	}

	vehicle.Seats[ticket.Row][ticket.Col] = domain.SeatFree
	if err := e.vehicles.Update(ctx, vehicle); err != nil {
		return err
	}
	return e.vehicles.Persist(ctx)
}

// FetchSeats returns a copy of the vehicle's seat grid.
func (e *Engine) FetchSeats(ctx context.Context, vehicleID string) (domain.SeatGrid, error) {
	vehicle, ok := e.vehicles.FindByID(ctx, vehicleID)
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, domain.ErrNotFound)
	}
	return vehicle.SeatMap(), nil
}

// ListBookings reads the stored users document and returns the user's tickets
// in the order they were issued.
func (e *Engine) ListBookings(ctx context.Context, userID string) ([]domain.Ticket, error) {
	users, err := e.users.Stored(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	var user domain.User
	found := false
	for _, u := range users {
		if u.ID == userID {
			user, found = u, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	pkgApp.LogDebug(ctx, e.logger, "bookings listed", map[string]interface{}{
		"user_id": userID,
		"count":   len(user.Tickets),
	})
	if user.Tickets == nil {
		return []domain.Ticket{}, nil
	}
	return user.Tickets, nil
}

// publish is best effort: the booking is already durable when it runs.
func (e *Engine) publish(ctx context.Context, event pkgDomain.Event[BookingEventData]) {
	if e.eventBus == nil {
		return
	}
	if err := e.eventBus.Publish(ctx, event); err != nil {
		pkgApp.LogError(ctx, e.logger, "failed to publish booking event", err, map[string]interface{}{
			"event_name": event.EventName(),
			"ticket_id":  event.Payload().TicketID,
		})
	}
}
