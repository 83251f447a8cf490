package cqrs

import "github.com/eaglebank/payment-instructions/shared/models"

// ProcessInstructionCommand carries one instruction sentence together with
// the ledger snapshot it applies to.
type ProcessInstructionCommand struct {
	Accounts    []models.Account
	Instruction string
}
