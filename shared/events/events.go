package events

import "time"

// Event types
const (
	PaymentInstructionProcessed = "payment.instruction.processed"
)

// Stream names
const (
	PaymentEventsStream = "payment.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// PaymentInstructionProcessedEvent summarises an outcome. Instruction fields
// are empty when the sentence could not be parsed.
type PaymentInstructionProcessedEvent struct {
	InstructionID string `json:"instructionId,omitempty"`
	Type          string `json:"type,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	DebitAccount  string `json:"debitAccount,omitempty"`
	CreditAccount string `json:"creditAccount,omitempty"`
	ExecuteBy     string `json:"executeBy,omitempty"`
	Status        string `json:"status"`
	StatusCode    string `json:"statusCode"`
}
