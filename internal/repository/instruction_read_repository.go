package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eaglebank/payment-instructions/shared/models"
	sharedredis "github.com/eaglebank/payment-instructions/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const instructionViewKeyPrefix = "payment-instruction:view:"

var ErrInstructionNotFound = errors.New("instruction not found")

// InstructionReadRepository serves journaled outcomes. Redis is consulted
// first when configured, PostgreSQL is the fallback and source of truth.
type InstructionReadRepository struct {
	db     *sql.DB
	cache  *sharedredis.ViewCache[models.PaymentInstructionView]
	logger *zap.Logger
}

// NewInstructionReadRepository accepts a nil redisClient, in which case
// every read goes to PostgreSQL.
func NewInstructionReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *InstructionReadRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &InstructionReadRepository{db: db, logger: logger}
	if redisClient != nil {
		r.cache = sharedredis.NewViewCache[models.PaymentInstructionView](redisClient, instructionViewKeyPrefix, 0)
	}
	return r
}

func (r *InstructionReadRepository) GetByID(ctx context.Context, id string) (*models.PaymentInstructionView, error) {
	if r.cache != nil {
		view, err := r.cache.Get(ctx, id)
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, sharedredis.ErrCacheMiss) {
			r.logger.Warn("instruction cache read failed", zap.String("id", id), zap.Error(err))
		}
	}

	if r.db == nil {
		return nil, ErrInstructionNotFound
	}

	query := `
		SELECT id, instruction, outcome, created_at
		FROM payment_instructions
		WHERE id = $1
	`
	var view models.PaymentInstructionView
	var outcome []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&view.ID, &view.Instruction, &outcome, &view.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInstructionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment instruction: %w", err)
	}
	if err := json.Unmarshal(outcome, &view.Outcome); err != nil {
		return nil, fmt.Errorf("failed to decode outcome of %s: %w", id, err)
	}

	r.CacheInstructionView(ctx, &view)
	return &view, nil
}

// CacheInstructionView stores the read model. Cache failures are logged, not
// returned.
func (r *InstructionReadRepository) CacheInstructionView(ctx context.Context, view *models.PaymentInstructionView) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, view.ID, view); err != nil {
		r.logger.Warn("instruction cache write failed", zap.String("id", view.ID), zap.Error(err))
	}
}
