package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eaglebank/payment-instructions/shared/cqrs"
	"github.com/eaglebank/payment-instructions/shared/events"
	"github.com/eaglebank/payment-instructions/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- test doubles ----

type mockWriter struct {
	created []*models.PaymentInstruction
	err     error
}

func (m *mockWriter) Create(_ context.Context, pi *models.PaymentInstruction) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, pi)
	return nil
}

type mockViewCache struct {
	views []*models.PaymentInstructionView
}

func (m *mockViewCache) CacheInstructionView(_ context.Context, view *models.PaymentInstructionView) {
	m.views = append(m.views, view)
}

type mockPublisher struct {
	types []string
	data  []any
	err   error
}

func (m *mockPublisher) Publish(_ context.Context, eventType string, data any) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.types = append(m.types, eventType)
	m.data = append(m.data, data)
	return "1-0", nil
}

type panickingStore struct{}

func (panickingStore) Get(string) (models.Account, bool)  { panic("store exploded") }
func (panickingStore) UpdateBalance(string, int64) error { return nil }

// ---- helpers ----

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestService(opts Options) *PaymentCommandService {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewPaymentCommandService(opts)
}

func scenarioAccounts() []models.Account {
	return []models.Account{
		{ID: "a", Balance: 230, Currency: "USD"},
		{ID: "b", Balance: 300, Currency: "USD"},
	}
}

func process(t *testing.T, svc *PaymentCommandService, accounts []models.Account, instruction string) *models.Outcome {
	t.Helper()
	pi, err := svc.ProcessInstruction(context.Background(), cqrs.ProcessInstructionCommand{
		Accounts:    accounts,
		Instruction: instruction,
	})
	require.NoError(t, err)
	require.NotNil(t, pi)
	return &pi.Outcome
}

func unchanged(accounts ...models.Account) []models.AccountSnapshot {
	out := make([]models.AccountSnapshot, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, models.AccountSnapshot{ID: a.ID, Balance: a.Balance, BalanceBefore: a.Balance, Currency: a.Currency})
	}
	return out
}

// ---- scenarios ----

func TestProcessInstructionExecutesDebit(t *testing.T) {
	svc := newTestService(Options{})
	accounts := scenarioAccounts()

	o := process(t, svc, accounts, "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")

	assert.Equal(t, models.CodeSuccessful, o.StatusCode)
	assert.Equal(t, models.StatusSuccessful, o.Status)
	assert.Equal(t, models.MsgTransactionSuccessful, o.StatusReason)
	assert.Equal(t, []models.AccountSnapshot{
		{ID: "a", Balance: 200, BalanceBefore: 230, Currency: "USD"},
		{ID: "b", Balance: 330, BalanceBefore: 300, Currency: "USD"},
	}, o.Accounts)
	require.NotNil(t, o.Type)
	assert.Equal(t, models.TransferDebit, *o.Type)
	assert.Equal(t, int64(30), *o.Amount)
	assert.Nil(t, o.ExecuteBy)

	assert.Equal(t, scenarioAccounts(), accounts, "caller accounts must not be mutated")
}

func TestProcessInstructionConservesTotal(t *testing.T) {
	svc := newTestService(Options{})
	for _, amount := range []string{"1", "29", "230"} {
		o := process(t, svc, scenarioAccounts(), "DEBIT "+amount+" USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")
		require.Equal(t, models.CodeSuccessful, o.StatusCode)
		var before, after int64
		for _, s := range o.Accounts {
			before += s.BalanceBefore
			after += s.Balance
		}
		assert.Equal(t, before, after)
	}
}

func TestProcessInstructionCreditFormKeepsInputOrder(t *testing.T) {
	svc := newTestService(Options{})
	accounts := []models.Account{
		{ID: "x", Balance: 5, Currency: "NGN"},
		{ID: "payee", Balance: 0, Currency: "ngn"},
		{ID: "payer", Balance: 1000, Currency: "NGN"},
	}

	o := process(t, svc, accounts, "CREDIT 250 NGN TO ACCOUNT payee FOR DEBIT FROM ACCOUNT payer")

	assert.Equal(t, models.CodeSuccessful, o.StatusCode)
	assert.Equal(t, "payer", *o.DebitAccount)
	assert.Equal(t, "payee", *o.CreditAccount)
	assert.Equal(t, []models.AccountSnapshot{
		{ID: "payee", Balance: 250, BalanceBefore: 0, Currency: "NGN"},
		{ID: "payer", Balance: 750, BalanceBefore: 1000, Currency: "NGN"},
	}, o.Accounts)
}

func TestProcessInstructionInsufficientFunds(t *testing.T) {
	svc := newTestService(Options{})

	o := process(t, svc, scenarioAccounts(), "DEBIT 5000 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")

	assert.Equal(t, models.CodeInsufficientFunds, o.StatusCode)
	assert.Equal(t, models.StatusFailed, o.Status)
	assert.Equal(t, unchanged(scenarioAccounts()...), o.Accounts)
}

func TestProcessInstructionUnsupportedCurrency(t *testing.T) {
	svc := newTestService(Options{})

	o := process(t, svc, scenarioAccounts(), "DEBIT 30 EUR FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")

	assert.Equal(t, models.CodeUnsupportedCurrency, o.StatusCode)
	assert.Equal(t, "Unsupported currency. Only NGN, USD, GBP, GHS are supported", o.StatusReason)
	assert.Equal(t, "EUR", *o.Currency)
	assert.Equal(t, unchanged(scenarioAccounts()...), o.Accounts)
}

func TestProcessInstructionSupportedCurrenciesAreInjected(t *testing.T) {
	svc := newTestService(Options{SupportedCurrencies: []string{"eur", " EUR ", ""}})
	accounts := []models.Account{
		{ID: "a", Balance: 100, Currency: "EUR"},
		{ID: "b", Balance: 0, Currency: "EUR"},
	}

	o := process(t, svc, accounts, "DEBIT 30 EUR FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")
	assert.Equal(t, models.CodeSuccessful, o.StatusCode)

	o = process(t, svc, scenarioAccounts(), "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")
	assert.Equal(t, models.CodeUnsupportedCurrency, o.StatusCode)
	assert.Equal(t, "Unsupported currency. Only EUR are supported", o.StatusReason)
}

func TestProcessInstructionSameAccount(t *testing.T) {
	svc := newTestService(Options{})

	o := process(t, svc, scenarioAccounts(), "DEBIT 10 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT a")

	assert.Equal(t, models.CodeSameAccount, o.StatusCode)
	assert.Equal(t, []models.AccountSnapshot{{ID: "a", Balance: 230, BalanceBefore: 230, Currency: "USD"}}, o.Accounts)
}

func TestProcessInstructionFutureDateIsPending(t *testing.T) {
	svc := newTestService(Options{})

	o := process(t, svc, scenarioAccounts(), "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b ON 2099-01-01")

	assert.Equal(t, models.CodePending, o.StatusCode)
	assert.Equal(t, models.StatusPending, o.Status)
	require.NotNil(t, o.ExecuteBy)
	assert.Equal(t, "2099-01-01", *o.ExecuteBy)
	assert.Equal(t, unchanged(scenarioAccounts()...), o.Accounts)
}

func TestProcessInstructionTodayOrPastDateExecutes(t *testing.T) {
	svc := newTestService(Options{})
	for _, date := range []string{"2026-10-16", "2020-01-01"} {
		o := process(t, svc, scenarioAccounts(), "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b ON "+date)
		assert.Equal(t, models.CodeSuccessful, o.StatusCode, date)
		assert.Equal(t, date, *o.ExecuteBy)
	}
}

func TestProcessInstructionNegativeAmount(t *testing.T) {
	svc := newTestService(Options{})

	o := process(t, svc, scenarioAccounts(), "DEBIT -5 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")

	assert.Equal(t, models.CodeInvalidAmount, o.StatusCode)
	assert.Equal(t, models.StatusFailed, o.Status)
	assert.Nil(t, o.Type)
	assert.Nil(t, o.Amount)
	assert.Nil(t, o.DebitAccount)
	assert.Empty(t, o.Accounts)
	assert.NotNil(t, o.Accounts)
}

func TestProcessInstructionChainOrder(t *testing.T) {
	tests := []struct {
		name        string
		accounts    []models.Account
		instruction string
		code        models.StatusCode
		snapshot    bool
	}{
		{
			name:        "invalid account id wins over same account",
			accounts:    scenarioAccounts(),
			instruction: "DEBIT 10 USD FROM ACCOUNT a#1 FOR CREDIT TO ACCOUNT a#1",
			code:        models.CodeInvalidAccountID,
		},
		{
			name:        "same account wins over unsupported currency and existence",
			accounts:    scenarioAccounts(),
			instruction: "DEBIT 10 EUR FROM ACCOUNT zz FOR CREDIT TO ACCOUNT zz",
			code:        models.CodeSameAccount,
		},
		{
			name:        "unsupported currency wins over existence",
			accounts:    scenarioAccounts(),
			instruction: "DEBIT 10 EUR FROM ACCOUNT a FOR CREDIT TO ACCOUNT missing",
			code:        models.CodeUnsupportedCurrency,
		},
		{
			name:        "unknown credit account",
			accounts:    scenarioAccounts(),
			instruction: "DEBIT 10 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT missing",
			code:        models.CodeAccountNotFound,
		},
		{
			name:        "account ids match exactly",
			accounts:    scenarioAccounts(),
			instruction: "DEBIT 10 USD FROM ACCOUNT A FOR CREDIT TO ACCOUNT b",
			code:        models.CodeAccountNotFound,
		},
		{
			name:        "accounts in different currencies",
			accounts:    []models.Account{{ID: "a", Balance: 100, Currency: "USD"}, {ID: "b", Balance: 0, Currency: "GBP"}},
			instruction: "DEBIT 10 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b",
			code:        models.CodeCurrencyMismatch,
			snapshot:    true,
		},
		{
			name:        "instruction currency differs from accounts",
			accounts:    []models.Account{{ID: "a", Balance: 100, Currency: "gbp"}, {ID: "b", Balance: 0, Currency: "GBP"}},
			instruction: "DEBIT 10 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b",
			code:        models.CodeCurrencyMismatch,
			snapshot:    true,
		},
		{
			name:        "currency mismatch wins over insufficient funds",
			accounts:    []models.Account{{ID: "a", Balance: 1, Currency: "USD"}, {ID: "b", Balance: 0, Currency: "GHS"}},
			instruction: "DEBIT 10 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b",
			code:        models.CodeCurrencyMismatch,
			snapshot:    true,
		},
		{
			name:        "insufficient funds wins over scheduling",
			accounts:    scenarioAccounts(),
			instruction: "DEBIT 1000 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b ON 2099-01-01",
			code:        models.CodeInsufficientFunds,
			snapshot:    true,
		},
		{
			name:        "parse failure wins over everything",
			accounts:    scenarioAccounts(),
			instruction: "DEBIT 10 EUR FROM ACCOUNT a FOR CREDIT TO ACCOUNT a ON tomorrow",
			code:        models.CodeInvalidDate,
		},
	}
	svc := newTestService(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := process(t, svc, tt.accounts, tt.instruction)
			assert.Equal(t, tt.code, o.StatusCode, o.StatusReason)
			assert.Equal(t, models.StatusFailed, o.Status)
			if tt.snapshot {
				assert.Len(t, o.Accounts, 2)
				for _, s := range o.Accounts {
					assert.Equal(t, s.BalanceBefore, s.Balance)
				}
			} else {
				assert.Empty(t, o.Accounts)
			}
		})
	}
}

func TestProcessInstructionUppercasesSnapshotCurrency(t *testing.T) {
	svc := newTestService(Options{})
	accounts := []models.Account{
		{ID: "a", Balance: 50, Currency: "ghs"},
		{ID: "b", Balance: 50, Currency: "Ghs"},
	}

	o := process(t, svc, accounts, "DEBIT 50 ghs FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")

	require.Equal(t, models.CodeSuccessful, o.StatusCode)
	for _, s := range o.Accounts {
		assert.Equal(t, "GHS", s.Currency)
	}
	assert.Equal(t, int64(0), o.Accounts[0].Balance)
}

func TestProcessInstructionInvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		cmd  cqrs.ProcessInstructionCommand
	}{
		{"no accounts", cqrs.ProcessInstructionCommand{Instruction: "DEBIT 1 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b"}},
		{"blank instruction", cqrs.ProcessInstructionCommand{Accounts: scenarioAccounts(), Instruction: " \n "}},
		{"account without id", cqrs.ProcessInstructionCommand{Accounts: []models.Account{{Balance: 1, Currency: "USD"}}, Instruction: "x"}},
		{"account without currency", cqrs.ProcessInstructionCommand{Accounts: []models.Account{{ID: "a", Balance: 1}}, Instruction: "x"}},
		{"negative balance", cqrs.ProcessInstructionCommand{Accounts: []models.Account{{ID: "a", Balance: -1, Currency: "USD"}}, Instruction: "x"}},
	}
	writer := &mockWriter{}
	svc := newTestService(Options{Writer: writer})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi, err := svc.ProcessInstruction(context.Background(), tt.cmd)
			assert.Nil(t, pi)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
	assert.Empty(t, writer.created)
}

func TestProcessInstructionRecoversFromPanic(t *testing.T) {
	svc := newTestService(Options{
		NewAccountStore: func([]models.Account) AccountStore { return panickingStore{} },
	})

	pi, err := svc.ProcessInstruction(context.Background(), cqrs.ProcessInstructionCommand{
		Accounts:    scenarioAccounts(),
		Instruction: "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b",
	})

	assert.Nil(t, pi)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestProcessInstructionJournalsAndPublishes(t *testing.T) {
	writer := &mockWriter{}
	cache := &mockViewCache{}
	publisher := &mockPublisher{}
	svc := newTestService(Options{Writer: writer, ViewCache: cache, Publisher: publisher})

	pi, err := svc.ProcessInstruction(context.Background(), cqrs.ProcessInstructionCommand{
		Accounts:    scenarioAccounts(),
		Instruction: "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b ON 2099-01-01",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^pin-[A-Za-z0-9]{12}$`, pi.ID)
	assert.Equal(t, fixedNow, pi.CreatedAt)
	require.Len(t, writer.created, 1)
	assert.Same(t, pi, writer.created[0])
	require.Len(t, cache.views, 1)
	assert.Equal(t, pi.ID, cache.views[0].ID)

	require.Equal(t, []string{events.PaymentInstructionProcessed}, publisher.types)
	ev, ok := publisher.data[0].(events.PaymentInstructionProcessedEvent)
	require.True(t, ok)
	assert.Equal(t, events.PaymentInstructionProcessedEvent{
		InstructionID: pi.ID,
		Type:          "DEBIT",
		Amount:        30,
		Currency:      "USD",
		DebitAccount:  "a",
		CreditAccount: "b",
		ExecuteBy:     "2099-01-01",
		Status:        "pending",
		StatusCode:    "AP02",
	}, ev)
}

func TestProcessInstructionCollaboratorFailuresKeepOutcome(t *testing.T) {
	writer := &mockWriter{err: errors.New("db down")}
	cache := &mockViewCache{}
	publisher := &mockPublisher{err: errors.New("redis down")}
	svc := newTestService(Options{Writer: writer, ViewCache: cache, Publisher: publisher})

	o := process(t, svc, scenarioAccounts(), "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b")

	assert.Equal(t, models.CodeSuccessful, o.StatusCode)
	assert.Empty(t, cache.views, "cache is only warmed after a successful journal write")
}
