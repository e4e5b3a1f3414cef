package application

import (
	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

const (
	TicketBookedEvent     = "TicketBooked"
	BookingCancelledEvent = "BookingCancelled"
)

// BookingEventData is the payload shared by booking lifecycle events.
type BookingEventData struct {
	TicketID    string `json:"ticket_id"`
	UserID      string `json:"user_id"`
	VehicleID   string `json:"vehicle_id"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	IssuedOn    string `json:"issued_on"`
}

// BookingEventBus carries booking lifecycle events.
type BookingEventBus = pkgApp.EventBus[pkgDomain.Event[BookingEventData], BookingEventData]

type bookingEvent struct {
	name string
	data BookingEventData
}

func (e bookingEvent) EventName() string {
	return e.name
}

func (e bookingEvent) Payload() BookingEventData {
	return e.data
}

func eventDataFromTicket(ticket domain.Ticket) BookingEventData {
	return BookingEventData{
		TicketID:    ticket.ID,
		UserID:      ticket.UserID,
		VehicleID:   ticket.Vehicle.ID,
		Row:         ticket.Row,
		Col:         ticket.Col,
		Source:      ticket.Source,
		Destination: ticket.Destination,
		IssuedOn:    ticket.IssuedOn,
	}
}

func NewTicketBookedEvent(ticket domain.Ticket) pkgDomain.Event[BookingEventData] {
	return bookingEvent{name: TicketBookedEvent, data: eventDataFromTicket(ticket)}
}

func NewBookingCancelledEvent(ticket domain.Ticket) pkgDomain.Event[BookingEventData] {
	return bookingEvent{name: BookingCancelledEvent, data: eventDataFromTicket(ticket)}
}
