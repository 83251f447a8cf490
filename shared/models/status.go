package models

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusFailed     Status = "failed"
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
)

// StatusCode identifies the precise outcome of an instruction.
type StatusCode string

const (
	CodeMissingKeyword       StatusCode = "SY01"
	CodeInvalidKeywordOrder  StatusCode = "SY02"
	CodeMalformedInstruction StatusCode = "SY03"
	CodeInvalidAmount        StatusCode = "AM01"
	CodeInvalidDate          StatusCode = "DT01"
	CodeInsufficientFunds    StatusCode = "AC01"
	CodeSameAccount          StatusCode = "AC02"
	CodeAccountNotFound      StatusCode = "AC03"
	CodeInvalidAccountID     StatusCode = "AC04"
	CodeCurrencyMismatch     StatusCode = "CU01"
	CodeUnsupportedCurrency  StatusCode = "CU02"
	CodeSuccessful           StatusCode = "AP00"
	CodePending              StatusCode = "AP02"
)

// Accepted reports whether the code belongs to an executed or scheduled instruction.
func (c StatusCode) Accepted() bool {
	return c == CodeSuccessful || c == CodePending
}

const (
	MsgMalformedInstruction   = "Malformed instruction: unable to parse keywords"
	MsgMissingAccountID       = "Malformed instruction: missing account identifier"
	MsgMissingKeyword         = "Missing required keyword"
	MsgInvalidKeywordOrder    = "Invalid keyword order"
	MsgInvalidAmount          = "Amount must be a positive integer"
	MsgInvalidDate            = "Invalid date format. Expected YYYY-MM-DD"
	MsgInvalidAccountID       = "Invalid account ID format"
	MsgSameAccount            = "Debit and credit accounts cannot be the same"
	MsgAccountNotFound        = "Account not found"
	MsgAccountCurrency        = "Account currency mismatch"
	MsgInstructionCurrency    = "Transaction currency does not match account currency"
	MsgInsufficientFunds      = "Insufficient funds in debit account"
	MsgTransactionPending     = "Transaction scheduled for future execution"
	MsgTransactionSuccessful  = "Transaction executed successfully"
	MsgInternalError          = "Internal server error"
	msgUnsupportedCurrencyFmt = "Unsupported currency. Only %s are supported"
)

// StatusError carries a business or syntax status code through an error
// return. It is converted back into an Outcome at the validation chain.
type StatusError struct {
	Code   StatusCode
	Reason string
}

// UnsupportedCurrencyReason lists the accepted currencies in the CU02 reason.
func UnsupportedCurrencyReason(supported []string) string {
	return fmt.Sprintf(msgUnsupportedCurrencyFmt, strings.Join(supported, ", "))
}

func NewStatusError(code StatusCode, reason string) *StatusError {
	return &StatusError{Code: code, Reason: reason}
}

func (e *StatusError) Error() string {
	return string(e.Code) + ": " + e.Reason
}
