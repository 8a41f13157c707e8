package users

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// RepositoryInterface defines the interface for user persistence
type RepositoryInterface interface {
	Create(user *domain.User) error
	GetByID(id int64) (*domain.User, error)
	GetByUsername(username string) (*domain.User, error)
	List() ([]domain.User, error)
}

// Compile-time check that Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)

// Service handles user account business logic
type Service struct {
	repo            RepositoryInterface
	startingBalance decimal.Decimal
	log             zerolog.Logger
}

// NewService creates a new user service. New accounts are granted
// startingBalance unless an explicit balance is provided at creation.
func NewService(repo RepositoryInterface, startingBalance decimal.Decimal, log zerolog.Logger) *Service {
	return &Service{
		repo:            repo,
		startingBalance: startingBalance,
		log:             log.With().Str("service", "users").Logger(),
	}
}

// Create registers a new user. balance may be nil to use the configured
// starting balance.
func (s *Service) Create(username, email string, balance *decimal.Decimal) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	initial := s.startingBalance
	if balance != nil {
		if balance.IsNegative() {
			return nil, fmt.Errorf("starting balance must not be negative")
		}
		initial = *balance
	}

	user := &domain.User{
		Username: username,
		Email:    strings.TrimSpace(email),
		Balance:  initial,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Str("balance", user.Balance.String()).
		Msg("User registered")

	return user, nil
}

// Get returns a user by id
func (s *Service) Get(id int64) (*domain.User, error) {
	return s.repo.GetByID(id)
}

// List returns all users
func (s *Service) List() ([]domain.User, error) {
	return s.repo.List()
}
