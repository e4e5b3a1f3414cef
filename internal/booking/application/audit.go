package application

import (
	"context"
	"fmt"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
)

// TicketRef points at one ticket the audit could not match to a booked seat.
type TicketRef struct {
	UserID    string `json:"user_id"`
	TicketID  string `json:"ticket_id"`
	VehicleID string `json:"vehicle_id"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Reason    string `json:"reason"`
}

// SeatDiscrepancy counts booked cells on a vehicle that no ticket accounts for.
type SeatDiscrepancy struct {
	VehicleID   string `json:"vehicle_id"`
	BookedSeats int    `json:"booked_seats"`
	Tickets     int    `json:"tickets"`
}

func (d SeatDiscrepancy) Unticketed() int {
	return d.BookedSeats - d.Tickets
}

type AuditReport struct {
	OrphanTickets   []TicketRef       `json:"orphan_tickets"`
	UnticketedSeats []SeatDiscrepancy `json:"unticketed_seats"`
}

func (r AuditReport) Consistent() bool {
	return len(r.OrphanTickets) == 0 && len(r.UnticketedSeats) == 0
}

const (
	reasonUnknownVehicle = "unknown vehicle"
	reasonSeatNotBooked  = "seat not booked"
)

// Audit reads both stored documents and reports where they disagree. Partial
// bookings show up as unticketed seats; released or edited seats show up as
// orphan tickets. Bookings and cancellations wait while it runs.
func (e *Engine) Audit(ctx context.Context) (AuditReport, error) {
	e.docMu.Lock()
	defer e.docMu.Unlock()

	vehicles, err := e.vehicles.Stored(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("audit: %w", err)
	}
	users, err := e.users.Stored(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("audit: %w", err)
	}

	byID := make(map[string]domain.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}

	report := AuditReport{
		OrphanTickets:   []TicketRef{},
		UnticketedSeats: []SeatDiscrepancy{},
	}
	ticketed := make(map[string]int, len(vehicles))

	for _, u := range users {
		for _, t := range u.Tickets {
			ref := TicketRef{
				UserID:    u.ID,
				TicketID:  t.ID,
				VehicleID: t.Vehicle.ID,
				Row:       t.Row,
				Col:       t.Col,
			}
			v, ok := byID[t.Vehicle.ID]
			switch {
			case !ok:
				ref.Reason = reasonUnknownVehicle
				report.OrphanTickets = append(report.OrphanTickets, ref)
			case !v.Seats.IsBooked(t.Row, t.Col):
				ref.Reason = reasonSeatNotBooked
				report.OrphanTickets = append(report.OrphanTickets, ref)
			default:
				ticketed[v.ID]++
			}
		}
	}

	for _, v := range vehicles {
		d := SeatDiscrepancy{
			VehicleID:   v.ID,
			BookedSeats: v.Seats.BookedCount(),
			Tickets:     ticketed[v.ID],
		}
		if d.Unticketed() > 0 {
			report.UnticketedSeats = append(report.UnticketedSeats, d)
		}
	}

	fields := map[string]interface{}{
		"orphan_tickets":   len(report.OrphanTickets),
		"unticketed_seats": len(report.UnticketedSeats),
	}
	if report.Consistent() {
		pkgApp.LogInfo(ctx, e.logger, "audit found documents consistent", fields)
	} else {
		pkgApp.LogInfo(ctx, e.logger, "audit found discrepancies", fields)
	}
	return report, nil
}
