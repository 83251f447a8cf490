package query

import (
	"context"

	"github.com/eaglebank/payment-instructions/internal/repository"
	"github.com/eaglebank/payment-instructions/shared/cqrs"
	"github.com/eaglebank/payment-instructions/shared/models"
	"github.com/eaglebank/payment-instructions/shared/utils"
)

type InstructionQueryService struct {
	readRepo *repository.InstructionReadRepository
}

func NewInstructionQueryService(readRepo *repository.InstructionReadRepository) *InstructionQueryService {
	return &InstructionQueryService{readRepo: readRepo}
}

// GetInstruction fetches a journaled outcome. Ids that could never have been
// issued are reported as not found without touching the stores.
func (s *InstructionQueryService) GetInstruction(ctx context.Context, q cqrs.GetInstructionQuery) (*models.PaymentInstructionView, error) {
	if !utils.ValidateInstructionID(q.InstructionID) {
		return nil, repository.ErrInstructionNotFound
	}
	return s.readRepo.GetByID(ctx, q.InstructionID)
}
