package services

import (
	"context"

	"envelope/internal/core"
	"envelope/internal/storage"

	"github.com/google/uuid"
)

// AccountService owns the account catalog. Balances are maintained by the
// ledger write path; this service never adjusts them directly.
type AccountService struct {
	storage *storage.Repository
}

func NewAccountService(storage *storage.Repository) *AccountService {
	return &AccountService{storage: storage}
}

// CreateAccount validates and stores a new account with a zero balance.
func (s *AccountService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.storage.CreateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// GetAccount fetches one account.
func (s *AccountService) GetAccount(ctx context.Context, planID, id uuid.UUID) (core.Account, error) {
	return s.storage.GetAccount(ctx, planID, id)
}

// ListAccounts returns the plan's accounts ordered by name.
func (s *AccountService) ListAccounts(ctx context.Context, planID uuid.UUID) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, planID)
}

// CloseAccount marks an account as closed. Its entries and balance survive.
func (s *AccountService) CloseAccount(ctx context.Context, planID, id uuid.UUID) error {
	return s.storage.CloseAccount(ctx, planID, id)
}
