package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
	"github.com/mateusmacedo/go-seatbooking/pkg/infrastructure"
)

func TestBookSeatScenarioOnTwoByTwoGrid(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	_, err := f.book(0, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatGrid{{1, 0}, {0, 0}}, f.grid(t))

	_, err = f.book(0, 0, alice)
	require.ErrorIs(t, err, domain.ErrSeatUnavailable)
	assert.Equal(t, domain.SeatGrid{{1, 0}, {0, 0}}, f.grid(t))

	_, err = f.book(1, 1, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatGrid{{1, 0}, {0, 1}}, f.grid(t))
}

func TestBookSeatTwiceLeavesGridUnchanged(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")
	bob := f.signUp(t, "bob", "pw2")

	_, err := f.book(1, 0, alice)
	require.NoError(t, err)
	after := f.grid(t)

	_, err = f.book(1, 0, bob)
	require.ErrorIs(t, err, domain.ErrSeatUnavailable)
	assert.Equal(t, after, f.grid(t))

	stored := f.storedUser(t, bob.ID)
	assert.Empty(t, stored.Tickets)
}

func TestBookSeatIssuesTicketToActingUser(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	before := len(f.storedUser(t, alice.ID).Tickets)
	ticket, err := f.book(0, 1, alice)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, ticket.UserID)
	assert.Equal(t, "2026-10-18", ticket.IssuedOn)
	assert.Equal(t, "A", ticket.Source)
	assert.Equal(t, "C", ticket.Destination)
	assert.Equal(t, 0, ticket.Row)
	assert.Equal(t, 1, ticket.Col)
	assert.Equal(t, domain.SeatGrid{{0, 1}, {0, 0}}, ticket.Vehicle.Seats)
	assert.Equal(t, "A", ticket.Vehicle.Source)
	assert.Equal(t, "C", ticket.Vehicle.Destination)

	stored := f.storedUser(t, alice.ID)
	require.Len(t, stored.Tickets, before+1)
	assert.Equal(t, ticket.ID, stored.Tickets[len(stored.Tickets)-1].ID)

	vehicles, err := f.vehicleStore.Load(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatGrid{{0, 1}, {0, 0}}, vehicles[0].Seats)
}

func TestBookSeatUsesCallerTicketID(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	ticket, err := f.engine.BookSeat(f.ctx, BookSeatRequest{
		VehicleID: "bus-1", Row: 0, Col: 0, UserID: alice.ID, Source: "A", Destination: "B", TicketID: "t-fixed",
	})
	require.NoError(t, err)
	assert.Equal(t, "t-fixed", ticket.ID)

	_, err = f.engine.BookSeat(f.ctx, BookSeatRequest{
		VehicleID: "bus-1", Row: 1, Col: 1, UserID: alice.ID, Source: "A", Destination: "B", TicketID: "t-fixed",
	})
	require.Error(t, err)
	assert.Equal(t, domain.SeatGrid{{1, 0}, {0, 0}}, f.grid(t))
}

func TestBookSeatRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	tests := []struct {
		name string
		req  BookSeatRequest
		want error
	}{
		{"negative row", BookSeatRequest{VehicleID: "bus-1", Row: -1, Col: 0, UserID: alice.ID}, domain.ErrInvalidSeatIndex},
		{"row past end", BookSeatRequest{VehicleID: "bus-1", Row: 2, Col: 0, UserID: alice.ID}, domain.ErrInvalidSeatIndex},
		{"col past end", BookSeatRequest{VehicleID: "bus-1", Row: 0, Col: 2, UserID: alice.ID}, domain.ErrInvalidSeatIndex},
		{"unknown vehicle", BookSeatRequest{VehicleID: "bus-9", Row: 0, Col: 0, UserID: alice.ID}, domain.ErrNotFound},
		{"unknown user", BookSeatRequest{VehicleID: "bus-1", Row: 0, Col: 0, UserID: "ghost"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.BookSeat(f.ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, domain.SeatGrid{{0, 0}, {0, 0}}, f.grid(t))
		})
	}
}

func TestBookSeatHonoursCancelledContext(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, err := f.engine.BookSeat(ctx, BookSeatRequest{VehicleID: "bus-1", UserID: alice.ID})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.SeatGrid{{0, 0}, {0, 0}}, f.grid(t))
}

func TestBookSeatReportsPartialBookingWhenTicketIsNotPersisted(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	f.userStore.failSaves.Store(true)
	_, err := f.book(0, 0, alice)
	require.ErrorIs(t, err, domain.ErrPartialBooking)
	require.ErrorIs(t, err, errSaveRejected)

	vehicles, err := f.vehicleStore.Load(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatGrid{{1, 0}, {0, 0}}, vehicles[0].Seats)
	assert.Empty(t, f.storedUser(t, alice.ID).Tickets)

	report, err := f.engine.Audit(f.ctx)
	require.NoError(t, err)
	require.Len(t, report.UnticketedSeats, 1)
	assert.Equal(t, SeatDiscrepancy{VehicleID: "bus-1", BookedSeats: 1, Tickets: 0}, report.UnticketedSeats[0])
}

func TestBookSeatVehiclePersistFailureIsNotPartial(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	f.vehicleStore.failSaves.Store(true)
	_, err := f.book(0, 0, alice)
	require.ErrorIs(t, err, errSaveRejected)
	assert.NotErrorIs(t, err, domain.ErrPartialBooking)
	assert.Empty(t, f.storedUser(t, alice.ID).Tickets)
}

func TestConcurrentBookingsOfOneSeatHaveOneWinner(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})

	const callers = 16
	users := make([]domain.User, callers)
	for i := range users {
		users[i] = f.signUp(t, "rider", "pw")
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		unavailable int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u domain.User) {
			defer wg.Done()
			_, err := f.book(1, 1, u)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrSeatUnavailable):
				unavailable++
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, unavailable)

	report, err := f.engine.Audit(f.ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestCancelBookingKeepsSeatBooked(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")
	ticket, err := f.book(0, 0, alice)
	require.NoError(t, err)

	cancelled, err := f.engine.CancelBooking(f.ctx, ticket.ID, Credentials{Name: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.True(t, cancelled)

	assert.Empty(t, f.storedUser(t, alice.ID).Tickets)
	assert.Equal(t, domain.SeatGrid{{1, 0}, {0, 0}}, f.grid(t))
	assert.False(t, f.engine.ReleasesSeatOnCancel())

	report, err := f.engine.Audit(f.ctx)
	require.NoError(t, err)
	require.Len(t, report.UnticketedSeats, 1)
	assert.Equal(t, 1, report.UnticketedSeats[0].Unticketed())
}

func TestCancelBookingReleasesSeatWhenEnabled(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()}, WithReleaseSeatOnCancel(true))
	alice := f.signUp(t, "alice", "pw1")
	ticket, err := f.book(0, 0, alice)
	require.NoError(t, err)

	cancelled, err := f.engine.CancelBooking(f.ctx, ticket.ID, Credentials{Name: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, domain.SeatGrid{{0, 0}, {0, 0}}, f.grid(t))

	_, err = f.book(0, 0, alice)
	require.NoError(t, err)

	report, err := f.engine.Audit(f.ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestCancelBookingUnknownTicketLeavesTicketsUnchanged(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")
	_, err := f.book(0, 0, alice)
	require.NoError(t, err)
	_, err = f.book(1, 1, alice)
	require.NoError(t, err)
	before := ticketIDs(f.storedUser(t, alice.ID).Tickets)

	for _, id := range []string{"missing", ""} {
		cancelled, err := f.engine.CancelBooking(f.ctx, id, Credentials{Name: "alice", Password: "pw1"})
		assert.False(t, cancelled)
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, before, ticketIDs(f.storedUser(t, alice.ID).Tickets))
	}
}

func TestCancelBookingRechecksCredentials(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")
	f.signUp(t, "mallory", "pw3")
	ticket, err := f.book(0, 0, alice)
	require.NoError(t, err)

	cancelled, err := f.engine.CancelBooking(f.ctx, ticket.ID, Credentials{Name: "alice", Password: "wrong"})
	assert.False(t, cancelled)
	require.ErrorIs(t, err, domain.ErrAuthorization)

	cancelled, err = f.engine.CancelBooking(f.ctx, ticket.ID, Credentials{Name: "mallory", Password: "pw3"})
	assert.False(t, cancelled)
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Len(t, f.storedUser(t, alice.ID).Tickets, 1)
}

func TestListBookingsReadsStoredTickets(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")
	first, err := f.book(0, 0, alice)
	require.NoError(t, err)
	second, err := f.book(0, 1, alice)
	require.NoError(t, err)

	tickets, err := f.engine.ListBookings(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID+","+second.ID, ticketIDs(tickets))

	_, err = f.engine.ListBookings(f.ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadsDuringBookingKeepIssuedTickets(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	entered, release := f.userStore.holdNextSave()
	booked := make(chan error, 1)
	go func() {
		_, err := f.book(0, 0, alice)
		booked <- err
	}()
	<-entered

	listed := make(chan error, 1)
	go func() {
		_, err := f.engine.ListBookings(f.ctx, alice.ID)
		listed <- err
	}()
	audited := make(chan error, 1)
	go func() {
		_, err := f.engine.Audit(f.ctx)
		audited <- err
	}()

	// Give both reads the chance to run while the ticket save is parked.
	time.Sleep(50 * time.Millisecond)
	release()
	require.NoError(t, <-booked)
	require.NoError(t, <-listed)
	require.NoError(t, <-audited)

	_, err := f.book(1, 1, alice)
	require.NoError(t, err)

	assert.Len(t, f.storedUser(t, alice.ID).Tickets, 2)
	assert.Equal(t, domain.SeatGrid{{1, 0}, {0, 1}}, f.grid(t))

	report, err := f.engine.Audit(f.ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "%+v", report)
}

func TestListBookingsLeavesUnsavedTicketsInMemory(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})
	alice := f.signUp(t, "alice", "pw1")

	f.userStore.failSaves.Store(true)
	_, err := f.book(0, 0, alice)
	require.ErrorIs(t, err, domain.ErrPartialBooking)

	tickets, err := f.engine.ListBookings(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	inMemory, ok := f.users.FindByID(f.ctx, alice.ID)
	require.True(t, ok)
	assert.Len(t, inMemory.Tickets, 1)
}

func TestFetchSeatsReturnsCopy(t *testing.T) {
	f := newFixture(t, []domain.Vehicle{twoByTwo()})

	grid := f.grid(t)
	grid[0][0] = domain.SeatBooked
	assert.Equal(t, domain.SeatGrid{{0, 0}, {0, 0}}, f.grid(t))

	_, err := f.engine.FetchSeats(f.ctx, "bus-9")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

type recordedEvents struct {
	mu    sync.Mutex
	names []string
}

func (r *recordedEvents) Handle(_ context.Context, event pkgDomain.Event[BookingEventData]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, event.EventName()+":"+event.Payload().TicketID)
	return nil
}

func TestEngineNotifiesBookingEvents(t *testing.T) {
	bus := infrastructure.NewSimpleEventBus[pkgDomain.Event[BookingEventData], BookingEventData](testLogger(t))
	events := &recordedEvents{}
	bus.RegisterHandler(TicketBookedEvent, events)
	bus.RegisterHandler(BookingCancelledEvent, events)

	f := newFixture(t, []domain.Vehicle{twoByTwo()}, WithEventBus(bus))
	alice := f.signUp(t, "alice", "pw1")
	ticket, err := f.book(0, 0, alice)
	require.NoError(t, err)
	_, err = f.engine.CancelBooking(f.ctx, ticket.ID, Credentials{Name: "alice", Password: "pw1"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		TicketBookedEvent + ":" + ticket.ID,
		BookingCancelledEvent + ":" + ticket.ID,
	}, events.names)
}

type failingHandler struct{}

func (failingHandler) Handle(context.Context, pkgDomain.Event[BookingEventData]) error {
	return errors.New("handler down")
}

func TestEventFailureDoesNotFailBooking(t *testing.T) {
	var bus BookingEventBus = infrastructure.NewSimpleEventBus[pkgDomain.Event[BookingEventData], BookingEventData](testLogger(t))
	bus.RegisterHandler(TicketBookedEvent, failingHandler{})

	f := newFixture(t, []domain.Vehicle{twoByTwo()}, WithEventBus(bus))
	alice := f.signUp(t, "alice", "pw1")
	_, err := f.book(0, 0, alice)
	require.NoError(t, err)
	assert.Len(t, f.storedUser(t, alice.ID).Tickets, 1)
}

var _ pkgApp.EventHandler[pkgDomain.Event[BookingEventData], BookingEventData] = (*recordedEvents)(nil)
