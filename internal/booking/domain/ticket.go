package domain

import "fmt"

// IssueDateLayout is the layout of Ticket.IssuedOn.
const IssueDateLayout = "2006-01-02"

// Ticket proves one successful seat reservation. Vehicle is the state of the
// vehicle right after the seat was booked.
type Ticket struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	IssuedOn    string  `json:"issued_on"`
	Row         int     `json:"row"`
	Col         int     `json:"col"`
	Vehicle     Vehicle `json:"vehicle"`
}

func (t Ticket) Clone() Ticket {
	out := t
	out.Vehicle = t.Vehicle.Clone()
	return out
}

func (t Ticket) Info() string {
	return fmt.Sprintf("Ticket ID: %s belongs to User %s from %s to %s on %s (vehicle %s, seat %d-%d)",
		t.ID, t.UserID, t.Source, t.Destination, t.IssuedOn, t.Vehicle.ID, t.Row+1, t.Col+1)
}
