package domain

import "fmt"

// User is a registered identity. The plaintext password is never stored.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"password_hash"`
	Tickets      []Ticket `json:"tickets"`
}

func (u User) Clone() User {
	out := u
	if u.Tickets != nil {
		out.Tickets = make([]Ticket, len(u.Tickets))
		for i, t := range u.Tickets {
			out.Tickets[i] = t.Clone()
		}
	}
	return out
}

// TicketIndex returns the position of the ticket with id, or -1.
func (u User) TicketIndex(id string) int {
	for i, t := range u.Tickets {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// AddTicket appends ticket, refusing an id the user already holds.
func (u *User) AddTicket(ticket Ticket) error {
	if u.TicketIndex(ticket.ID) >= 0 {
		return fmt.Errorf("ticket %s already issued to user %s", ticket.ID, u.ID)
	}
	u.Tickets = append(u.Tickets, ticket)
	return nil
}

// RemoveTicket drops the ticket with id, keeping the order of the others.
func (u *User) RemoveTicket(id string) (Ticket, bool) {
	i := u.TicketIndex(id)
	if i < 0 {
		return Ticket{}, false
	}
	removed := u.Tickets[i]
	u.Tickets = append(u.Tickets[:i:i], u.Tickets[i+1:]...)
	return removed, true
}
