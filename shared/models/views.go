package models

import "time"

// PaymentInstructionView is the read projection of a journaled instruction.
type PaymentInstructionView struct {
	ID          string    `json:"id"`
	Instruction string    `json:"instruction"`
	Outcome     Outcome   `json:"outcome"`
	CreatedAt   time.Time `json:"createdTimestamp"`
}
