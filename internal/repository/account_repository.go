package repository

import (
	"errors"
	"fmt"

	"github.com/eaglebank/payment-instructions/shared/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNegativeBalance = errors.New("balance cannot be negative")
)

// SnapshotAccountRepository holds an owned copy of a request's ledger
// snapshot. It lives for a single instruction and is discarded afterwards.
// When ids repeat, the first account with that id wins.
type SnapshotAccountRepository struct {
	accounts []models.Account
	index    map[string]int
}

func NewSnapshotAccountRepository(accounts []models.Account) *SnapshotAccountRepository {
	owned := make([]models.Account, len(accounts))
	copy(owned, accounts)

	index := make(map[string]int, len(owned))
	for i, acc := range owned {
		if _, seen := index[acc.ID]; !seen {
			index[acc.ID] = i
		}
	}
	return &SnapshotAccountRepository{accounts: owned, index: index}
}

func (r *SnapshotAccountRepository) Get(id string) (models.Account, bool) {
	i, ok := r.index[id]
	if !ok {
		return models.Account{}, false
	}
	return r.accounts[i], true
}

func (r *SnapshotAccountRepository) UpdateBalance(id string, balance int64) error {
	if balance < 0 {
		return fmt.Errorf("account %s: %w", id, ErrNegativeBalance)
	}
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, ErrAccountNotFound)
	}
	r.accounts[i].Balance = balance
	return nil
}

// Accounts returns the current state in input order.
func (r *SnapshotAccountRepository) Accounts() []models.Account {
	out := make([]models.Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}
