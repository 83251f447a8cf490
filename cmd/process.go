package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/eaglebank/payment-instructions/internal/command"
	"github.com/eaglebank/payment-instructions/internal/handler"
	"github.com/eaglebank/payment-instructions/shared/middleware"
	"github.com/eaglebank/payment-instructions/shared/models"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newProcessCmd(a *app) *cobra.Command {
	var file string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one payment instruction request locally",
		Long: `Process one payment instruction request without starting the service.

The request has the same JSON shape as the body of POST /payment-instructions.
Nothing is journaled or published. The exit status is 1 unless the
instruction was executed or scheduled.`,
		Example: `  # Process a request file
  payment-instructions process --file request.json

  # Read the request from stdin and print the raw outcome
  cat request.json | payment-instructions process --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open request: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runProcess(cmd, a, in, asJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "request JSON file (defaults to stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")

	return cmd
}

func runProcess(cmd *cobra.Command, a *app, in io.Reader, asJSON bool) error {
	var req handler.ProcessInstructionRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		fields := make([]string, 0, len(validationErrors))
		for _, ve := range validationErrors {
			fields = append(fields, ve.Field+": "+ve.Message)
		}
		return fmt.Errorf("invalid request data: %s", strings.Join(fields, "; "))
	}

	svc := command.NewPaymentCommandService(command.Options{
		SupportedCurrencies: a.cfg.Currencies.Supported,
		Logger:              a.logger,
	})
	pi, err := svc.ProcessInstruction(cmd.Context(), req.ToCommand())
	outcome := models.FallbackOutcome()
	if err == nil {
		outcome = &pi.Outcome
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
	} else {
		renderOutcome(outcome)
	}

	if !outcome.StatusCode.Accepted() {
		return errRejected
	}
	return nil
}

func renderOutcome(o *models.Outcome) {
	pterm.DefaultSection.Println("Instruction")
	infoData := pterm.TableData{
		{"Type", deref(o.Type)},
		{"Amount", derefInt(o.Amount)},
		{"Currency", deref(o.Currency)},
		{"Debit account", deref(o.DebitAccount)},
		{"Credit account", deref(o.CreditAccount)},
		{"Execute by", deref(o.ExecuteBy)},
	}
	pterm.DefaultTable.WithData(infoData).Render()

	if len(o.Accounts) > 0 {
		pterm.DefaultSection.Println("Accounts")
		tableData := pterm.TableData{{"ID", "Balance before", "Balance", "Currency"}}
		for _, acc := range o.Accounts {
			tableData = append(tableData, []string{
				acc.ID,
				strconv.FormatInt(acc.BalanceBefore, 10),
				strconv.FormatInt(acc.Balance, 10),
				acc.Currency,
			})
		}
		pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	}

	msg := fmt.Sprintf("%s (%s): %s", o.StatusCode, o.Status, o.StatusReason)
	switch o.Status {
	case models.StatusSuccessful:
		pterm.Success.Println(msg)
	case models.StatusPending:
		pterm.Info.Println(msg)
	default:
		pterm.Error.Println(msg)
	}
}

func deref[T ~string](v *T) string {
	if v == nil {
		return "-"
	}
	return string(*v)
}

func derefInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}
