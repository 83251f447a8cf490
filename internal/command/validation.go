package command

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/eaglebank/payment-instructions/internal/instruction"
	"github.com/eaglebank/payment-instructions/shared/models"
	"github.com/eaglebank/payment-instructions/shared/utils"
)

// AccountStore is the ledger capability the chain mutates. The in-memory
// snapshot repository is the only implementation today.
type AccountStore interface {
	Get(id string) (models.Account, bool)
	UpdateBalance(id string, balance int64) error
}

// chain applies the business checks in their fixed order and executes the
// transfer when every check passes.
type chain struct {
	supported     map[string]struct{}
	supportedList []string
	now           func() time.Time
}

func newChain(supported []string, now func() time.Time) *chain {
	c := &chain{
		supported:     make(map[string]struct{}, len(supported)),
		supportedList: make([]string, 0, len(supported)),
		now:           now,
	}
	for _, code := range supported {
		code = strings.ToUpper(strings.TrimSpace(code))
		if _, dup := c.supported[code]; code == "" || dup {
			continue
		}
		c.supported[code] = struct{}{}
		c.supportedList = append(c.supportedList, code)
	}
	return c
}

// run evaluates p against store. original is the caller's account list and is
// only read, to order the snapshot and report balances before the transfer.
func (c *chain) run(p *models.ParsedInstruction, original []models.Account, store AccountStore) (*models.Outcome, error) {
	fail := func(code models.StatusCode, reason string) *models.Outcome {
		return models.NewOutcome(p, models.StatusFailed, code, reason, failedSnapshot(original, p, store))
	}

	if !utils.ValidAccountID(p.DebitAccount) || !utils.ValidAccountID(p.CreditAccount) {
		return fail(models.CodeInvalidAccountID, models.MsgInvalidAccountID), nil
	}
	if p.DebitAccount == p.CreditAccount {
		return fail(models.CodeSameAccount, models.MsgSameAccount), nil
	}
	if _, ok := c.supported[p.Currency]; !ok {
		return fail(models.CodeUnsupportedCurrency, models.UnsupportedCurrencyReason(c.supportedList)), nil
	}

	debit, debitFound := store.Get(p.DebitAccount)
	credit, creditFound := store.Get(p.CreditAccount)
	if !debitFound || !creditFound {
		return fail(models.CodeAccountNotFound, models.MsgAccountNotFound), nil
	}
	if !strings.EqualFold(debit.Currency, credit.Currency) {
		return fail(models.CodeCurrencyMismatch, models.MsgAccountCurrency), nil
	}
	if !strings.EqualFold(p.Currency, debit.Currency) {
		return fail(models.CodeCurrencyMismatch, models.MsgInstructionCurrency), nil
	}
	if debit.Balance < p.Amount {
		return fail(models.CodeInsufficientFunds, fmt.Sprintf("%s: has %d %s, needs %d %s",
			models.MsgInsufficientFunds, debit.Balance, strings.ToUpper(debit.Currency), p.Amount, p.Currency)), nil
	}

	if p.ExecuteBy != "" && p.ExecuteBy > instruction.Today(c.now()) {
		return models.NewOutcome(p, models.StatusPending, models.CodePending, models.MsgTransactionPending,
			buildSnapshot(original, p, store)), nil
	}

	if err := transfer(store, debit, credit, p.Amount); err != nil {
		return nil, err
	}
	return models.NewOutcome(p, models.StatusSuccessful, models.CodeSuccessful, models.MsgTransactionSuccessful,
		buildSnapshot(original, p, store)), nil
}

// transfer moves amount from debit to credit. Funds were checked by the caller.
func transfer(store AccountStore, debit, credit models.Account, amount int64) error {
	if credit.Balance > math.MaxInt64-amount {
		return fmt.Errorf("credit balance of %s would overflow", credit.ID)
	}
	if err := store.UpdateBalance(debit.ID, debit.Balance-amount); err != nil {
		return fmt.Errorf("failed to debit %s: %w", debit.ID, err)
	}
	if err := store.UpdateBalance(credit.ID, credit.Balance+amount); err != nil {
		return fmt.Errorf("failed to credit %s: %w", credit.ID, err)
	}
	return nil
}
