package application

import (
	"github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

const (
	LoginQuery          = "Login"
	BookSeatQuery       = "BookSeat"
	SearchVehiclesQuery = "SearchVehicles"
	FetchSeatsQuery     = "FetchSeats"
	ListBookingsQuery   = "ListBookings"
	AuditQuery          = "Audit"
)

type LoginData struct {
	Name     string
	Password string
}

type loginQuery struct {
	data LoginData
}

func (q loginQuery) QueryName() string {
	return LoginQuery
}

func (q loginQuery) Payload() LoginData {
	return q.data
}

func NewLoginQuery(data LoginData) domain.Query[LoginData] {
	return loginQuery{data: data}
}

// BookSeatData goes through the query bus so the issued ticket comes back to
// the caller.
type BookSeatData = BookSeatRequest

type bookSeatQuery struct {
	data BookSeatData
}

func (q bookSeatQuery) QueryName() string {
	return BookSeatQuery
}

func (q bookSeatQuery) Payload() BookSeatData {
	return q.data
}

func NewBookSeatQuery(data BookSeatData) domain.Query[BookSeatData] {
	return bookSeatQuery{data: data}
}

type SearchVehiclesData struct {
	Source      string
	Destination string
}

type searchVehiclesQuery struct {
	data SearchVehiclesData
}

func (q searchVehiclesQuery) QueryName() string {
	return SearchVehiclesQuery
}

func (q searchVehiclesQuery) Payload() SearchVehiclesData {
	return q.data
}

func NewSearchVehiclesQuery(data SearchVehiclesData) domain.Query[SearchVehiclesData] {
	return searchVehiclesQuery{data: data}
}

type FetchSeatsData struct {
	VehicleID string
}

type fetchSeatsQuery struct {
	data FetchSeatsData
}

func (q fetchSeatsQuery) QueryName() string {
	return FetchSeatsQuery
}

func (q fetchSeatsQuery) Payload() FetchSeatsData {
	return q.data
}

func NewFetchSeatsQuery(data FetchSeatsData) domain.Query[FetchSeatsData] {
	return fetchSeatsQuery{data: data}
}

type ListBookingsData struct {
	UserID string
}

type listBookingsQuery struct {
	data ListBookingsData
}

func (q listBookingsQuery) QueryName() string {
	return ListBookingsQuery
}

func (q listBookingsQuery) Payload() ListBookingsData {
	return q.data
}

func NewListBookingsQuery(data ListBookingsData) domain.Query[ListBookingsData] {
	return listBookingsQuery{data: data}
}

// AuditData is empty; the audit always covers both documents.
type AuditData struct{}

type auditQuery struct{}

func (q auditQuery) QueryName() string {
	return AuditQuery
}

func (q auditQuery) Payload() AuditData {
	return AuditData{}
}

func NewAuditQuery() domain.Query[AuditData] {
	return auditQuery{}
}
