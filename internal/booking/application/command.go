package application

import (
	"github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

const (
	SignUpCommand        = "SignUp"
	CancelBookingCommand = "CancelBooking"
)

// SignUpData registers a user under a caller-chosen id.
type SignUpData struct {
	UserID   string
	Name     string
	Password string
}

type signUpCommand struct {
	data SignUpData
}

func (c signUpCommand) CommandName() string {
	return SignUpCommand
}

func (c signUpCommand) Payload() SignUpData {
	return c.data
}

func NewSignUpCommand(data SignUpData) domain.Command[SignUpData] {
	return signUpCommand{data: data}
}

type CancelBookingData struct {
	TicketID    string
	Credentials Credentials
}

type cancelBookingCommand struct {
	data CancelBookingData
}

func (c cancelBookingCommand) CommandName() string {
	return CancelBookingCommand
}

func (c cancelBookingCommand) Payload() CancelBookingData {
	return c.data
}

func NewCancelBookingCommand(data CancelBookingData) domain.Command[CancelBookingData] {
	return cancelBookingCommand{data: data}
}
