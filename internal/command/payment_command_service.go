package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eaglebank/payment-instructions/internal/instruction"
	"github.com/eaglebank/payment-instructions/internal/repository"
	"github.com/eaglebank/payment-instructions/shared/cqrs"
	"github.com/eaglebank/payment-instructions/shared/events"
	"github.com/eaglebank/payment-instructions/shared/models"
	"github.com/eaglebank/payment-instructions/shared/utils"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPayload reports a request that does not carry a usable
	// ledger snapshot or instruction.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInternal reports a failure unrelated to the instruction itself.
	ErrInternal = errors.New("internal error")
)

// DefaultSupportedCurrencies is used when no currency set is configured.
var DefaultSupportedCurrencies = []string{"NGN", "USD", "GBP", "GHS"}

// InstructionWriter journals processed instructions.
type InstructionWriter interface {
	Create(ctx context.Context, pi *models.PaymentInstruction) error
}

// InstructionViewCacher keeps the read model warm after a journal write.
type InstructionViewCacher interface {
	CacheInstructionView(ctx context.Context, view *models.PaymentInstructionView)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) (string, error)
}

// Options configures a PaymentCommandService. Every collaborator is
// optional; without a writer nothing is journaled and without a publisher no
// events are emitted.
type Options struct {
	SupportedCurrencies []string
	Now                 func() time.Time
	Writer              InstructionWriter
	ViewCache           InstructionViewCacher
	Publisher           EventPublisher
	Logger              *zap.Logger
	NewAccountStore     func([]models.Account) AccountStore
}

// PaymentCommandService parses instructions, runs them through the validation
// chain against an owned copy of the supplied accounts and reports the outcome.
// It keeps no state between calls.
type PaymentCommandService struct {
	chain     *chain
	now       func() time.Time
	writer    InstructionWriter
	viewCache InstructionViewCacher
	publisher EventPublisher
	logger    *zap.Logger
	newStore  func([]models.Account) AccountStore
}

func NewPaymentCommandService(opts Options) *PaymentCommandService {
	if len(opts.SupportedCurrencies) == 0 {
		opts.SupportedCurrencies = DefaultSupportedCurrencies
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewAccountStore == nil {
		opts.NewAccountStore = func(accounts []models.Account) AccountStore {
			return repository.NewSnapshotAccountRepository(accounts)
		}
	}
	return &PaymentCommandService{
		chain:     newChain(opts.SupportedCurrencies, opts.Now),
		now:       opts.Now,
		writer:    opts.Writer,
		viewCache: opts.ViewCache,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		newStore:  opts.NewAccountStore,
	}
}

// ProcessInstruction evaluates one instruction. Parse and business failures
// are reported through the returned outcome; an error means the payload was
// unusable (ErrInvalidPayload) or processing broke down (ErrInternal).
func (s *PaymentCommandService) ProcessInstruction(ctx context.Context, cmd cqrs.ProcessInstructionCommand) (pi *models.PaymentInstruction, err error) {
	if err := validatePayload(cmd); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while processing instruction", zap.Any("panic", r), zap.Stack("stack"))
			pi, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	outcome, err := s.evaluate(cmd)
	if err != nil {
		s.logger.Error("instruction processing failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	pi = &models.PaymentInstruction{
		ID:          utils.GenerateID("pin"),
		Instruction: cmd.Instruction,
		Outcome:     *outcome,
		CreatedAt:   s.now().UTC(),
	}
	s.logger.Info("instruction processed",
		zap.String("id", pi.ID),
		zap.String("status", string(outcome.Status)),
		zap.String("status_code", string(outcome.StatusCode)),
	)

	s.journal(ctx, pi)
	s.publish(ctx, pi)
	return pi, nil
}

func (s *PaymentCommandService) evaluate(cmd cqrs.ProcessInstructionCommand) (*models.Outcome, error) {
	original := make([]models.Account, len(cmd.Accounts))
	copy(original, cmd.Accounts)

	parsed, err := instruction.Parse(cmd.Instruction)
	if err != nil {
		var statusErr *models.StatusError
		if errors.As(err, &statusErr) {
			return models.NewFailedOutcome(statusErr.Code, statusErr.Reason), nil
		}
		return nil, err
	}

	return s.chain.run(parsed, original, s.newStore(original))
}

func validatePayload(cmd cqrs.ProcessInstructionCommand) error {
	if len(cmd.Accounts) == 0 {
		return fmt.Errorf("%w: accounts must be a non-empty list", ErrInvalidPayload)
	}
	if strings.TrimSpace(cmd.Instruction) == "" {
		return fmt.Errorf("%w: instruction cannot be empty", ErrInvalidPayload)
	}
	for i, acc := range cmd.Accounts {
		switch {
		case acc.ID == "":
			return fmt.Errorf("%w: account at index %d is missing id", ErrInvalidPayload, i)
		case strings.TrimSpace(acc.Currency) == "":
			return fmt.Errorf("%w: account at index %d is missing currency", ErrInvalidPayload, i)
		case acc.Balance < 0:
			return fmt.Errorf("%w: account at index %d has a negative balance", ErrInvalidPayload, i)
		}
	}
	return nil
}

// journal writes the instruction and warms the read cache. Failures are
// logged and never affect the outcome already computed.
func (s *PaymentCommandService) journal(ctx context.Context, pi *models.PaymentInstruction) {
	if s.writer == nil {
		return
	}
	if err := s.writer.Create(ctx, pi); err != nil {
		s.logger.Warn("failed to journal instruction", zap.String("id", pi.ID), zap.Error(err))
		return
	}
	if s.viewCache != nil {
		s.viewCache.CacheInstructionView(ctx, instructionToView(pi))
	}
}

func (s *PaymentCommandService) publish(ctx context.Context, pi *models.PaymentInstruction) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, events.PaymentInstructionProcessed, processedEvent(pi)); err != nil {
		s.logger.Warn("failed to publish payment.instruction.processed event", zap.String("id", pi.ID), zap.Error(err))
	}
}

func processedEvent(pi *models.PaymentInstruction) events.PaymentInstructionProcessedEvent {
	o := pi.Outcome
	ev := events.PaymentInstructionProcessedEvent{
		InstructionID: pi.ID,
		Status:        string(o.Status),
		StatusCode:    string(o.StatusCode),
	}
	if o.Type != nil {
		ev.Type = string(*o.Type)
	}
	if o.Amount != nil {
		ev.Amount = *o.Amount
	}
	if o.Currency != nil {
		ev.Currency = *o.Currency
	}
	if o.DebitAccount != nil {
		ev.DebitAccount = *o.DebitAccount
	}
	if o.CreditAccount != nil {
		ev.CreditAccount = *o.CreditAccount
	}
	if o.ExecuteBy != nil {
		ev.ExecuteBy = *o.ExecuteBy
	}
	return ev
}

// instructionToView converts the journal write model to the read view model.
func instructionToView(pi *models.PaymentInstruction) *models.PaymentInstructionView {
	return &models.PaymentInstructionView{
		ID:          pi.ID,
		Instruction: pi.Instruction,
		Outcome:     pi.Outcome,
		CreatedAt:   pi.CreatedAt,
	}
}
