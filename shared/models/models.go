package models

import "time"

// Account is one entry of the caller-supplied ledger snapshot. Balance is in
// the smallest currency unit.
type Account struct {
	ID       string `json:"id"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

type TransferType string

const (
	TransferDebit  TransferType = "DEBIT"
	TransferCredit TransferType = "CREDIT"
)

// ParsedInstruction is the structured form of an instruction sentence.
// ExecuteBy is empty when the sentence carries no ON clause.
type ParsedInstruction struct {
	Type          TransferType
	Amount        int64
	Currency      string
	DebitAccount  string
	CreditAccount string
	ExecuteBy     string
}

// AccountSnapshot reports a participating account before and after the
// instruction was applied.
type AccountSnapshot struct {
	ID            string `json:"id"`
	Balance       int64  `json:"balance"`
	BalanceBefore int64  `json:"balance_before"`
	Currency      string `json:"currency"`
}

// Outcome is the single result shape returned for every processed
// instruction. Instruction fields are null when the sentence could not be
// parsed.
type Outcome struct {
	Type          *TransferType     `json:"type"`
	Amount        *int64            `json:"amount"`
	Currency      *string           `json:"currency"`
	DebitAccount  *string           `json:"debit_account"`
	CreditAccount *string           `json:"credit_account"`
	ExecuteBy     *string           `json:"execute_by"`
	Status        Status            `json:"status"`
	StatusReason  string            `json:"status_reason"`
	StatusCode    StatusCode        `json:"status_code"`
	Accounts      []AccountSnapshot `json:"accounts"`
}

// NewOutcome builds an outcome for an instruction that parsed successfully.
func NewOutcome(p *ParsedInstruction, status Status, code StatusCode, reason string, accounts []AccountSnapshot) *Outcome {
	if accounts == nil {
		accounts = []AccountSnapshot{}
	}
	o := &Outcome{
		Type:          &p.Type,
		Amount:        &p.Amount,
		Currency:      &p.Currency,
		DebitAccount:  &p.DebitAccount,
		CreditAccount: &p.CreditAccount,
		Status:        status,
		StatusReason:  reason,
		StatusCode:    code,
		Accounts:      accounts,
	}
	if p.ExecuteBy != "" {
		executeBy := p.ExecuteBy
		o.ExecuteBy = &executeBy
	}
	return o
}

// NewFailedOutcome builds an outcome for an instruction rejected before any
// instruction field could be trusted.
func NewFailedOutcome(code StatusCode, reason string) *Outcome {
	return &Outcome{
		Status:       StatusFailed,
		StatusReason: reason,
		StatusCode:   code,
		Accounts:     []AccountSnapshot{},
	}
}

// FallbackOutcome is returned when processing fails for reasons unrelated to
// the instruction itself.
func FallbackOutcome() *Outcome {
	return NewFailedOutcome(CodeMalformedInstruction, MsgInternalError)
}

// PaymentInstruction is the journal write model of a processed instruction.
type PaymentInstruction struct {
	ID          string
	Instruction string
	Outcome     Outcome
	CreatedAt   time.Time
}
