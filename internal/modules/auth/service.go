// README: Registration and login; passwords hashed with bcrypt, sessions are JWTs.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campusride/internal/types"
)

var (
	ErrValidation         = errors.New("invalid credentials payload")
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Store interface {
	Create(ctx context.Context, u *User) error
	ByEmail(ctx context.Context, email string) (*User, error)
	Exists(ctx context.Context, email string) (bool, error)
}

type Service struct {
	store  Store
	issuer *TokenIssuer
	now    func() time.Time
}

func NewService(store Store, issuer *TokenIssuer) *Service {
	return &Service{store: store, issuer: issuer, now: time.Now}
}

type RegisterCommand struct {
	Email    string
	Password string
	Name     string
	Gender   types.Gender
	Role     Role
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrValidation
	}
	if len(cmd.Password) < 8 {
		return nil, ErrValidation
	}
	if cmd.Name == "" || !cmd.Gender.Valid() {
		return nil, ErrValidation
	}
	// Admin accounts are provisioned out of band, not self-registered.
	if cmd.Role != RoleRider && cmd.Role != RoleHero {
		return nil, ErrValidation
	}
	taken, err := s.store.Exists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           types.ID(uuid.NewString()),
		Email:        email,
		PasswordHash: string(hash),
		Name:         cmd.Name,
		Gender:       cmd.Gender,
		Role:         cmd.Role,
		CreatedAt:    s.now(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the password and returns a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
