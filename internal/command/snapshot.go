package command

import (
	"strings"

	"github.com/eaglebank/payment-instructions/shared/models"
)

// buildSnapshot reports the participating accounts in the order they were
// supplied. BalanceBefore comes from the caller's list, Balance from the
// store, so both are equal unless the transfer executed.
func buildSnapshot(original []models.Account, p *models.ParsedInstruction, store AccountStore) []models.AccountSnapshot {
	out := make([]models.AccountSnapshot, 0, 2)
	seen := make(map[string]bool, 2)
	for _, acc := range original {
		if acc.ID != p.DebitAccount && acc.ID != p.CreditAccount {
			continue
		}
		balance := acc.Balance
		// repeated ids were never touched by the store
		if !seen[acc.ID] {
			if current, ok := store.Get(acc.ID); ok {
				balance = current.Balance
			}
			seen[acc.ID] = true
		}
		out = append(out, models.AccountSnapshot{
			ID:            acc.ID,
			Balance:       balance,
			BalanceBefore: acc.Balance,
			Currency:      strings.ToUpper(acc.Currency),
		})
	}
	return out
}

// failedSnapshot is empty unless both named accounts resolve.
func failedSnapshot(original []models.Account, p *models.ParsedInstruction, store AccountStore) []models.AccountSnapshot {
	if _, ok := store.Get(p.DebitAccount); !ok {
		return []models.AccountSnapshot{}
	}
	if _, ok := store.Get(p.CreditAccount); !ok {
		return []models.AccountSnapshot{}
	}
	return buildSnapshot(original, p, store)
}
