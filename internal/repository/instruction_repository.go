package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/eaglebank/payment-instructions/shared/models"
)

// InstructionWriteRepository appends processed instructions to the
// PostgreSQL journal. Rows are never updated.
type InstructionWriteRepository struct {
	db *sql.DB
}

func NewInstructionWriteRepository(db *sql.DB) *InstructionWriteRepository {
	return &InstructionWriteRepository{db: db}
}

func (r *InstructionWriteRepository) Create(ctx context.Context, pi *models.PaymentInstruction) error {
	outcome, err := json.Marshal(pi.Outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}

	query := `
		INSERT INTO payment_instructions (id, instruction, status, status_code, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		pi.ID, pi.Instruction, string(pi.Outcome.Status), string(pi.Outcome.StatusCode),
		outcome, pi.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment instruction: %w", err)
	}
	return nil
}
