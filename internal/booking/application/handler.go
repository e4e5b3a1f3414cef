package application

import (
	"context"
	"fmt"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

type signUpHandler struct {
	gate   *Gate
	logger pkgApp.AppLogger
}

func (h *signUpHandler) Handle(ctx context.Context, command pkgDomain.Command[SignUpData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	_, err := h.gate.SignUpAs(ctx, data.UserID, data.Name, data.Password)
	return err
}

func NewSignUpHandler(gate *Gate, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[SignUpData], SignUpData] {
	return &signUpHandler{gate: gate, logger: logger}
}

type bookSeatHandler struct {
	engine *Engine
	logger pkgApp.AppLogger
}

func (h *bookSeatHandler) Handle(ctx context.Context, query pkgDomain.Query[BookSeatData]) (domain.Ticket, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return domain.Ticket{}, ctx.Err()
	}

	return h.engine.BookSeat(ctx, query.Payload())
}

func NewBookSeatHandler(engine *Engine, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[BookSeatData], BookSeatData, domain.Ticket] {
	return &bookSeatHandler{engine: engine, logger: logger}
}

type cancelBookingHandler struct {
	engine *Engine
	logger pkgApp.AppLogger
}

func (h *cancelBookingHandler) Handle(ctx context.Context, command pkgDomain.Command[CancelBookingData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	cancelled, err := h.engine.CancelBooking(ctx, data.TicketID, data.Credentials)
	if err != nil {
		return err
	}
	if !cancelled {
		return fmt.Errorf("ticket %s: %w", data.TicketID, domain.ErrNotFound)
	}
	return nil
}

func NewCancelBookingHandler(engine *Engine, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[CancelBookingData], CancelBookingData] {
	return &cancelBookingHandler{engine: engine, logger: logger}
}

type loginHandler struct {
	gate   *Gate
	logger pkgApp.AppLogger
}

func (h *loginHandler) Handle(ctx context.Context, query pkgDomain.Query[LoginData]) (domain.User, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return domain.User{}, ctx.Err()
	}

	data := query.Payload()
	user, ok := h.gate.Login(ctx, data.Name, data.Password)
	if !ok {
		return domain.User{}, domain.ErrAuthorization
	}
	return user, nil
}

func NewLoginHandler(gate *Gate, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[LoginData], LoginData, domain.User] {
	return &loginHandler{gate: gate, logger: logger}
}

type searchVehiclesHandler struct {
	index  *SearchIndex
	logger pkgApp.AppLogger
}

func (h *searchVehiclesHandler) Handle(ctx context.Context, query pkgDomain.Query[SearchVehiclesData]) ([]domain.Vehicle, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return nil, ctx.Err()
	}

	data := query.Payload()
	return h.index.SearchByStops(ctx, data.Source, data.Destination), nil
}

func NewSearchVehiclesHandler(index *SearchIndex, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[SearchVehiclesData], SearchVehiclesData, []domain.Vehicle] {
	return &searchVehiclesHandler{index: index, logger: logger}
}

type fetchSeatsHandler struct {
	engine *Engine
	logger pkgApp.AppLogger
}

func (h *fetchSeatsHandler) Handle(ctx context.Context, query pkgDomain.Query[FetchSeatsData]) (domain.SeatGrid, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return nil, ctx.Err()
	}

	return h.engine.FetchSeats(ctx, query.Payload().VehicleID)
}

func NewFetchSeatsHandler(engine *Engine, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[FetchSeatsData], FetchSeatsData, domain.SeatGrid] {
	return &fetchSeatsHandler{engine: engine, logger: logger}
}

type listBookingsHandler struct {
	engine *Engine
	logger pkgApp.AppLogger
}

func (h *listBookingsHandler) Handle(ctx context.Context, query pkgDomain.Query[ListBookingsData]) ([]domain.Ticket, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return nil, ctx.Err()
	}

	return h.engine.ListBookings(ctx, query.Payload().UserID)
}

func NewListBookingsHandler(engine *Engine, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[ListBookingsData], ListBookingsData, []domain.Ticket] {
	return &listBookingsHandler{engine: engine, logger: logger}
}

type auditHandler struct {
	engine *Engine
	logger pkgApp.AppLogger
}

func (h *auditHandler) Handle(ctx context.Context, query pkgDomain.Query[AuditData]) (AuditReport, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return AuditReport{}, ctx.Err()
	}

	return h.engine.Audit(ctx)
}

func NewAuditHandler(engine *Engine, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[AuditData], AuditData, AuditReport] {
	return &auditHandler{engine: engine, logger: logger}
}

// bookingEventLogHandler records booking lifecycle events in the log.
type bookingEventLogHandler struct {
	logger pkgApp.AppLogger
}

func (h *bookingEventLogHandler) Handle(ctx context.Context, event pkgDomain.Event[BookingEventData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return ctx.Err()
	}

	data := event.Payload()
	pkgApp.LogInfo(ctx, h.logger, "booking event received", map[string]interface{}{
		"event_name": event.EventName(),
		"ticket_id":  data.TicketID,
		"user_id":    data.UserID,
		"vehicle_id": data.VehicleID,
	})
	return nil
}

func NewBookingEventLogHandler(logger pkgApp.AppLogger) pkgApp.EventHandler[pkgDomain.Event[BookingEventData], BookingEventData] {
	return &bookingEventLogHandler{logger: logger}
}
