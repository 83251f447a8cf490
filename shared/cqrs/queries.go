package cqrs

// GetInstructionQuery fetches a single journaled instruction outcome.
type GetInstructionQuery struct {
	InstructionID string
}
