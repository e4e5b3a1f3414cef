package application

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	"github.com/mateusmacedo/go-seatbooking/internal/booking/infrastructure"
	"github.com/mateusmacedo/go-seatbooking/internal/recordstore"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
	zapAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/zaplogger/adapter"
)

func testLogger(t *testing.T) pkgApp.AppLogger {
	return zapAdapter.NewZapAppLoggerFrom(zaptest.NewLogger(t))
}

// plainHasher prefixes the password so tests avoid bcrypt's cost.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (plainHasher) Verify(password, digest string) bool {
	return digest == "plain:"+password
}

func sequentialIDs(prefix string) pkgDomain.IDGenerator[string] {
	var n int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(atomic.AddInt64(&n, 1), 10)
	}
}

var errSaveRejected = errors.New("save rejected")

// flakyStore delegates to a memory store and fails Save while failSaves is set.
type flakyStore[T any] struct {
	*recordstore.MemoryStore[T]
	failSaves atomic.Bool
	held      atomic.Pointer[heldSave]
}

type heldSave struct {
	entered chan struct{}
	release chan struct{}
}

// holdNextSave parks the next Save until release is called. entered is closed
// once that Save is parked.
func (s *flakyStore[T]) holdNextSave() (entered <-chan struct{}, release func()) {
	h := &heldSave{entered: make(chan struct{}), release: make(chan struct{})}
	s.held.Store(h)
	return h.entered, func() { close(h.release) }
}

func (s *flakyStore[T]) Save(ctx context.Context, records []T) error {
	if h := s.held.Swap(nil); h != nil {
		close(h.entered)
		<-h.release
	}
	if s.failSaves.Load() {
		return errSaveRejected
	}
	return s.MemoryStore.Save(ctx, records)
}

type fixture struct {
	ctx          context.Context
	logger       pkgApp.AppLogger
	userStore    *flakyStore[domain.User]
	vehicleStore *flakyStore[domain.Vehicle]
	users        domain.UserRepository
	vehicles     domain.VehicleRepository
	gate         *Gate
	search       *SearchIndex
	engine       *Engine
	today        time.Time
}

func twoByTwo() domain.Vehicle {
	return domain.Vehicle{
		ID:        "bus-1",
		Number:    "KA-01",
		Seats:     domain.SeatGrid{{0, 0}, {0, 0}},
		StopTimes: map[string]string{"A": "08:00", "B": "09:00", "C": "10:00", "D": "11:00"},
		Stops:     []string{"A", "B", "C", "D"},
	}
}

func newFixture(t *testing.T, vehicles []domain.Vehicle, options ...EngineOption) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		ctx:          ctx,
		logger:       testLogger(t),
		userStore:    &flakyStore[domain.User]{MemoryStore: recordstore.NewMemoryStore[domain.User]()},
		vehicleStore: &flakyStore[domain.Vehicle]{MemoryStore: recordstore.NewMemoryStore[domain.Vehicle]()},
		today:        time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, f.vehicleStore.Save(ctx, vehicles))

	var err error
	f.users, err = infrastructure.NewUserRepository(ctx, f.userStore, f.logger)
	require.NoError(t, err)
	f.vehicles, err = infrastructure.NewVehicleRepository(ctx, f.vehicleStore, f.logger)
	require.NoError(t, err)

	f.gate = NewGate(f.users, plainHasher{}, sequentialIDs("user"), f.logger)
	f.search = NewSearchIndex(f.vehicles, f.logger)
	options = append([]EngineOption{WithClock(func() time.Time { return f.today })}, options...)
	f.engine = NewEngine(f.users, f.vehicles, plainHasher{}, sequentialIDs("ticket"), f.logger, options...)
	return f
}

func (f *fixture) signUp(t *testing.T, name, password string) domain.User {
	t.Helper()
	user, err := f.gate.SignUp(f.ctx, name, password)
	require.NoError(t, err)
	return user
}

func (f *fixture) book(row, col int, user domain.User) (domain.Ticket, error) {
	return f.engine.BookSeat(f.ctx, BookSeatRequest{
		VehicleID:   "bus-1",
		Row:         row,
		Col:         col,
		UserID:      user.ID,
		Source:      "A",
		Destination: "C",
	})
}

func (f *fixture) grid(t *testing.T) domain.SeatGrid {
	t.Helper()
	grid, err := f.engine.FetchSeats(f.ctx, "bus-1")
	require.NoError(t, err)
	return grid
}

func (f *fixture) storedUser(t *testing.T, id string) domain.User {
	t.Helper()
	stored, err := f.userStore.Load(f.ctx)
	require.NoError(t, err)
	for _, u := range stored {
		if u.ID == id {
			return u
		}
	}
	t.Fatalf("user %s not in store", id)
	return domain.User{}
}

func ticketIDs(tickets []domain.Ticket) string {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return strings.Join(ids, ",")
}
