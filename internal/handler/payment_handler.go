package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eaglebank/payment-instructions/internal/repository"
	"github.com/eaglebank/payment-instructions/shared/cqrs"
	"github.com/eaglebank/payment-instructions/shared/middleware"
	"github.com/eaglebank/payment-instructions/shared/models"
	"github.com/gin-gonic/gin"
)

// InstructionIDHeader carries the journal id of a processed instruction.
const InstructionIDHeader = "X-Instruction-ID"

// PaymentCommander defines the write-side operations used by PaymentHandler.
type PaymentCommander interface {
	ProcessInstruction(context.Context, cqrs.ProcessInstructionCommand) (*models.PaymentInstruction, error)
}

// InstructionQuerier defines the read-side operations used by PaymentHandler.
type InstructionQuerier interface {
	GetInstruction(context.Context, cqrs.GetInstructionQuery) (*models.PaymentInstructionView, error)
}

// PaymentHandler handles payment instruction HTTP requests.
type PaymentHandler struct {
	commands PaymentCommander
	queries  InstructionQuerier
}

type AccountRequest struct {
	ID       string `json:"id" validate:"required,notblank"`
	Balance  *int64 `json:"balance" validate:"required,gte=0"`
	Currency string `json:"currency" validate:"required,notblank"`
}

type ProcessInstructionRequest struct {
	Accounts    []AccountRequest `json:"accounts" validate:"required,min=1,dive"`
	Instruction string           `json:"instruction" validate:"required,notblank"`
}

// NewPaymentHandler builds the handler. queries may be nil when no journal is
// configured; processed instructions are then not addressable by id.
func NewPaymentHandler(commands PaymentCommander, queries InstructionQuerier) *PaymentHandler {
	return &PaymentHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts the payment instruction endpoints on r.
func (h *PaymentHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/payment-instructions")
	group.POST("", middleware.RequireJSON(), h.ProcessInstruction)
	if h.queries != nil {
		group.GET("/:instructionId", h.GetInstruction)
	}
}

func (h *PaymentHandler) ProcessInstruction(c *gin.Context) {
	var req ProcessInstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	pi, err := h.commands.ProcessInstruction(c.Request.Context(), req.ToCommand())
	if err != nil {
		_ = c.Error(err)
		outcome := models.FallbackOutcome()
		c.Set(middleware.StatusCodeKey, string(outcome.StatusCode))
		c.JSON(http.StatusBadRequest, outcome)
		return
	}

	if h.queries != nil {
		c.Header(InstructionIDHeader, pi.ID)
	}
	c.Set(middleware.StatusCodeKey, string(pi.Outcome.StatusCode))

	status := http.StatusBadRequest
	if pi.Outcome.StatusCode.Accepted() {
		status = http.StatusOK
	}
	c.JSON(status, pi.Outcome)
}

func (h *PaymentHandler) GetInstruction(c *gin.Context) {
	view, err := h.queries.GetInstruction(c.Request.Context(), cqrs.GetInstructionQuery{
		InstructionID: c.Param("instructionId"),
	})
	if err != nil {
		if errors.Is(err, repository.ErrInstructionNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Payment instruction not found")
			return
		}
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch payment instruction")
		return
	}

	c.JSON(http.StatusOK, view)
}

// ToCommand trims account fields and converts the request to a command.
func (r ProcessInstructionRequest) ToCommand() cqrs.ProcessInstructionCommand {
	accounts := make([]models.Account, len(r.Accounts))
	for i, acc := range r.Accounts {
		accounts[i] = models.Account{
			ID:       strings.TrimSpace(acc.ID),
			Balance:  *acc.Balance,
			Currency: strings.TrimSpace(acc.Currency),
		}
	}
	return cqrs.ProcessInstructionCommand{
		Accounts:    accounts,
		Instruction: r.Instruction,
	}
}
