package booking

import (
	"context"
	"fmt"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/application"
	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure"
)

// Dependencies are the collaborators the booking slice is assembled from.
type Dependencies struct {
	Users       domain.UserRepository
	Vehicles    domain.VehicleRepository
	Hasher      domain.PasswordHasher
	IDGenerator pkgDomain.IDGenerator[string]
	EventBus    application.BookingEventBus
	Logger      pkgApp.AppLogger
}

// BookingSlice exposes the booking use cases through command and query buses.
type BookingSlice struct {
	signUpBus        pkgApp.CommandBus[pkgDomain.Command[application.SignUpData], application.SignUpData]
	cancelBookingBus pkgApp.CommandBus[pkgDomain.Command[application.CancelBookingData], application.CancelBookingData]

	loginBus          pkgApp.QueryBus[pkgDomain.Query[application.LoginData], application.LoginData, domain.User]
	bookSeatBus       pkgApp.QueryBus[pkgDomain.Query[application.BookSeatData], application.BookSeatData, domain.Ticket]
	searchVehiclesBus pkgApp.QueryBus[pkgDomain.Query[application.SearchVehiclesData], application.SearchVehiclesData, []domain.Vehicle]
	fetchSeatsBus     pkgApp.QueryBus[pkgDomain.Query[application.FetchSeatsData], application.FetchSeatsData, domain.SeatGrid]
	listBookingsBus   pkgApp.QueryBus[pkgDomain.Query[application.ListBookingsData], application.ListBookingsData, []domain.Ticket]
	auditBus          pkgApp.QueryBus[pkgDomain.Query[application.AuditData], application.AuditData, application.AuditReport]

	idGenerator pkgDomain.IDGenerator[string]
	gate        *application.Gate
	engine      *application.Engine
}

func NewBookingSlice(deps Dependencies, options ...application.EngineOption) *BookingSlice {
	logger := deps.Logger

	if deps.EventBus != nil {
		eventHandler := application.NewBookingEventLogHandler(logger)
		deps.EventBus.RegisterHandler(application.TicketBookedEvent, eventHandler)
		deps.EventBus.RegisterHandler(application.BookingCancelledEvent, eventHandler)
		options = append([]application.EngineOption{application.WithEventBus(deps.EventBus)}, options...)
	}

	gate := application.NewGate(deps.Users, deps.Hasher, deps.IDGenerator, logger)
	index := application.NewSearchIndex(deps.Vehicles, logger)
	engine := application.NewEngine(deps.Users, deps.Vehicles, deps.Hasher, deps.IDGenerator, logger, options...)

	s := &BookingSlice{
		signUpBus:         pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.SignUpData], application.SignUpData](logger),
		cancelBookingBus:  pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.CancelBookingData], application.CancelBookingData](logger),
		loginBus:          pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.LoginData], application.LoginData, domain.User](logger),
		bookSeatBus:       pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.BookSeatData], application.BookSeatData, domain.Ticket](logger),
		searchVehiclesBus: pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.SearchVehiclesData], application.SearchVehiclesData, []domain.Vehicle](logger),
		fetchSeatsBus:     pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.FetchSeatsData], application.FetchSeatsData, domain.SeatGrid](logger),
		listBookingsBus:   pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.ListBookingsData], application.ListBookingsData, []domain.Ticket](logger),
		auditBus:          pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.AuditData], application.AuditData, application.AuditReport](logger),
		idGenerator:       deps.IDGenerator,
		gate:              gate,
		engine:            engine,
	}

	s.signUpBus.RegisterHandler(application.SignUpCommand, application.NewSignUpHandler(gate, logger))
	s.cancelBookingBus.RegisterHandler(application.CancelBookingCommand, application.NewCancelBookingHandler(engine, logger))

	s.loginBus.RegisterHandler(application.LoginQuery, application.NewLoginHandler(gate, logger))
	s.bookSeatBus.RegisterHandler(application.BookSeatQuery, application.NewBookSeatHandler(engine, logger))
	s.searchVehiclesBus.RegisterHandler(application.SearchVehiclesQuery, application.NewSearchVehiclesHandler(index, logger))
	s.fetchSeatsBus.RegisterHandler(application.FetchSeatsQuery, application.NewFetchSeatsHandler(engine, logger))
	s.listBookingsBus.RegisterHandler(application.ListBookingsQuery, application.NewListBookingsHandler(engine, logger))
	s.auditBus.RegisterHandler(application.AuditQuery, application.NewAuditHandler(engine, logger))

	return s
}

// SignUp registers a user and returns the id it was stored under.
func (s *BookingSlice) SignUp(ctx context.Context, name, password string) (string, error) {
	id := s.idGenerator()
	err := s.signUpBus.Dispatch(ctx, application.NewSignUpCommand(application.SignUpData{
		UserID:   id,
		Name:     name,
		Password: password,
	}))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *BookingSlice) Login(ctx context.Context, name, password string) (domain.User, error) {
	return s.loginBus.Dispatch(ctx, application.NewLoginQuery(application.LoginData{Name: name, Password: password}))
}

// OpenSession logs in and binds the user to a new session. Close it with
// Logout.
func (s *BookingSlice) OpenSession(ctx context.Context, name, password string) (*application.Session, error) {
	session := &application.Session{}
	if !s.gate.LoginSession(ctx, session, name, password) {
		return nil, fmt.Errorf("login %s: %w", name, domain.ErrAuthorization)
	}
	return session, nil
}

func (s *BookingSlice) Logout(ctx context.Context, session *application.Session) {
	s.gate.Logout(ctx, session)
}

func (s *BookingSlice) SearchVehicles(ctx context.Context, source, destination string) ([]domain.Vehicle, error) {
	return s.searchVehiclesBus.Dispatch(ctx, application.NewSearchVehiclesQuery(application.SearchVehiclesData{
		Source:      source,
		Destination: destination,
	}))
}

func (s *BookingSlice) FetchSeats(ctx context.Context, vehicleID string) (domain.SeatGrid, error) {
	return s.fetchSeatsBus.Dispatch(ctx, application.NewFetchSeatsQuery(application.FetchSeatsData{VehicleID: vehicleID}))
}

// BookSeat dispatches the booking and returns the ticket the engine issued.
func (s *BookingSlice) BookSeat(ctx context.Context, req application.BookSeatRequest) (domain.Ticket, error) {
	return s.bookSeatBus.Dispatch(ctx, application.NewBookSeatQuery(req))
}

// CancelBooking keeps the boolean result; err carries the reason when false.
func (s *BookingSlice) CancelBooking(ctx context.Context, ticketID string, creds application.Credentials) (bool, error) {
	err := s.cancelBookingBus.Dispatch(ctx, application.NewCancelBookingCommand(application.CancelBookingData{
		TicketID:    ticketID,
		Credentials: creds,
	}))
	return err == nil, err
}

func (s *BookingSlice) ListBookings(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return s.listBookingsBus.Dispatch(ctx, application.NewListBookingsQuery(application.ListBookingsData{UserID: userID}))
}

func (s *BookingSlice) Audit(ctx context.Context) (application.AuditReport, error) {
	return s.auditBus.Dispatch(ctx, application.NewAuditQuery())
}

func (s *BookingSlice) ReleasesSeatOnCancel() bool {
	return s.engine.ReleasesSeatOnCancel()
}
