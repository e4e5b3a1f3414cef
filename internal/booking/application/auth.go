package application

import (
	"context"
	"fmt"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

// Credentials identify an acting user by name and plaintext password.
type Credentials struct {
	Name     string
	Password string
}

// authenticate returns the first user, in insertion order, whose name matches
// and whose digest verifies against password.
func authenticate(ctx context.Context, users domain.UserRepository, hasher domain.PasswordHasher, creds Credentials) (domain.User, bool) {
	for _, u := range users.All(ctx) {
		if u.Name == creds.Name && hasher.Verify(creds.Password, u.PasswordHash) {
			return u, true
		}
	}
	return domain.User{}, false
}

// Gate handles sign-up, login and logout against the user repository.
type Gate struct {
	users       domain.UserRepository
	hasher      domain.PasswordHasher
	idGenerator pkgDomain.IDGenerator[string]
	logger      pkgApp.AppLogger
}

func NewGate(users domain.UserRepository, hasher domain.PasswordHasher, idGenerator pkgDomain.IDGenerator[string], logger pkgApp.AppLogger) *Gate {
	return &Gate{
		users:       users,
		hasher:      hasher,
		idGenerator: idGenerator,
		logger:      logger,
	}
}

// SignUp registers a user under a freshly generated id.
func (g *Gate) SignUp(ctx context.Context, name, password string) (domain.User, error) {
	return g.SignUpAs(ctx, g.idGenerator(), name, password)
}

// SignUpAs registers a user under id. Names are not required to be unique.
func (g *Gate) SignUpAs(ctx context.Context, id, name, password string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	digest, err := g.hasher.Hash(password)
	if err != nil {
		pkgApp.LogError(ctx, g.logger, "failed to hash password", err, map[string]interface{}{"name": name})
		return domain.User{}, fmt.Errorf("sign up %s: %w", name, err)
	}

	if existing, taken := g.users.FindByName(ctx, name); taken {
		pkgApp.LogInfo(ctx, g.logger, "name already registered, accepting duplicate", map[string]interface{}{
			"name":             name,
			"existing_user_id": existing.ID,
		})
	}

	user := domain.User{
		ID:           id,
		Name:         name,
		PasswordHash: digest,
		Tickets:      []domain.Ticket{},
	}
	if err := g.users.Append(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("sign up %s: %w", name, err)
	}
	if err := g.users.Persist(ctx); err != nil {
		return domain.User{}, fmt.Errorf("sign up %s: %w", name, err)
	}

	pkgApp.LogInfo(ctx, g.logger, "user signed up", map[string]interface{}{"user_id": user.ID, "name": name})
	return user, nil
}

// Login returns the stored user for valid credentials. Unknown names and wrong
// passwords are indistinguishable to the caller.
func (g *Gate) Login(ctx context.Context, name, password string) (domain.User, bool) {
	user, ok := authenticate(ctx, g.users, g.hasher, Credentials{Name: name, Password: password})
	if !ok {
		pkgApp.LogInfo(ctx, g.logger, "login rejected", map[string]interface{}{"name": name})
		return domain.User{}, false
	}

	pkgApp.LogInfo(ctx, g.logger, "user logged in", map[string]interface{}{"user_id": user.ID})
	return user, true
}

// Session tracks the user acting through a command surface.
type Session struct {
	user   domain.User
	active bool
}

// LoginSession logs in and binds the user to s.
func (g *Gate) LoginSession(ctx context.Context, s *Session, name, password string) bool {
	user, ok := g.Login(ctx, name, password)
	if !ok {
		return false
	}
	s.user = user
	s.active = true
	return true
}

func (g *Gate) Logout(ctx context.Context, s *Session) {
	if s.active {
		pkgApp.LogInfo(ctx, g.logger, "user logged out", map[string]interface{}{"user_id": s.user.ID})
	}
	*s = Session{}
}

func (s *Session) User() (domain.User, bool) {
	return s.user, s.active
}
