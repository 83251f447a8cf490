// Package instruction turns payment instruction sentences into structured
// transfers. Two sentence forms are recognised:
//
//	DEBIT  <amount> <currency> FROM ACCOUNT <id> FOR CREDIT TO ACCOUNT <id> [ON <date>]
//	CREDIT <amount> <currency> TO ACCOUNT <id> FOR DEBIT FROM ACCOUNT <id> [ON <date>]
//
// Keywords match case-insensitively; account ids keep their case.
package instruction

import (
	"strconv"
	"strings"

	"github.com/eaglebank/payment-instructions/shared/models"
)

const (
	minTokens     = 8
	minFormTokens = 10
	// amount and currency precede the first clause
	firstClauseFrom = 3
)

// form describes the keyword layout of one sentence type.
type form struct {
	kind models.TransferType
	// first clause: <lead> ACCOUNT <id>
	lead string
	// second clause: FOR <counter> <dir> ACCOUNT <id>
	counter string
	dir     string
}

var (
	debitForm  = form{kind: models.TransferDebit, lead: "FROM", counter: "CREDIT", dir: "TO"}
	creditForm = form{kind: models.TransferCredit, lead: "TO", counter: "DEBIT", dir: "FROM"}
)

// Parse tokenizes raw and matches it against the DEBIT and CREDIT sentence
// forms. Every failure is a *models.StatusError.
func Parse(raw string) (*models.ParsedInstruction, error) {
	tokens := Tokenize(raw)
	if len(tokens) < minTokens {
		return nil, models.NewStatusError(models.CodeMalformedInstruction, models.MsgMalformedInstruction)
	}

	switch strings.ToUpper(tokens[0]) {
	case string(models.TransferDebit):
		return parseForm(tokens, debitForm)
	case string(models.TransferCredit):
		return parseForm(tokens, creditForm)
	default:
		return nil, models.NewStatusError(models.CodeMissingKeyword, models.MsgMissingKeyword+": DEBIT or CREDIT")
	}
}

func parseForm(tokens []string, f form) (*models.ParsedInstruction, error) {
	if len(tokens) < minFormTokens {
		return nil, models.NewStatusError(models.CodeMalformedInstruction, models.MsgMalformedInstruction)
	}

	amount, err := parseAmount(tokens[1])
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(tokens[2])

	// <lead> ACCOUNT <first>
	leadIdx := findKeyword(tokens, f.lead, firstClauseFrom)
	if leadIdx < 0 {
		return nil, missingKeyword(f.lead)
	}
	if err := expectKeywords(tokens, leadIdx, "ACCOUNT"); err != nil {
		return nil, err
	}
	first, err := accountAt(tokens, leadIdx+2)
	if err != nil {
		return nil, err
	}

	// FOR <counter> <dir> ACCOUNT <second>
	forIdx := findKeyword(tokens, "FOR", leadIdx+3)
	if forIdx < 0 {
		return nil, missingKeyword("FOR")
	}
	if err := expectKeywords(tokens, forIdx, f.counter, f.dir, "ACCOUNT"); err != nil {
		return nil, err
	}
	second, err := accountAt(tokens, forIdx+4)
	if err != nil {
		return nil, err
	}

	executeBy, err := parseSchedule(tokens, forIdx+5)
	if err != nil {
		return nil, err
	}

	p := &models.ParsedInstruction{
		Type:      f.kind,
		Amount:    amount,
		Currency:  currency,
		ExecuteBy: executeBy,
	}
	if f.kind == models.TransferDebit {
		p.DebitAccount, p.CreditAccount = first, second
	} else {
		p.CreditAccount, p.DebitAccount = first, second
	}
	return p, nil
}

// parseAmount accepts base-10 integers greater than zero. Tokens containing
// '.' or '-' are rejected outright; a leading '+' is tolerated.
func parseAmount(tok string) (int64, error) {
	if strings.ContainsAny(tok, ".-") {
		return 0, invalidAmount()
	}
	amount, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || amount <= 0 {
		return 0, invalidAmount()
	}
	return amount, nil
}

// expectKeywords checks that keywords occupy the slots directly after anchor.
func expectKeywords(tokens []string, anchor int, keywords ...string) error {
	for i, kw := range keywords {
		slot := anchor + 1 + i
		if slot >= len(tokens) {
			return missingKeyword(kw)
		}
		if strings.EqualFold(tokens[slot], kw) {
			continue
		}
		if findKeyword(tokens, kw, slot+1) >= 0 {
			return models.NewStatusError(models.CodeInvalidKeywordOrder,
				models.MsgInvalidKeywordOrder+": expected "+kw+" after "+strings.ToUpper(tokens[slot-1]))
		}
		return missingKeyword(kw)
	}
	return nil
}

func accountAt(tokens []string, idx int) (string, error) {
	if idx >= len(tokens) {
		return "", models.NewStatusError(models.CodeMalformedInstruction, models.MsgMissingAccountID)
	}
	return tokens[idx], nil
}

// parseSchedule looks for an optional ON <date> clause at or after from.
func parseSchedule(tokens []string, from int) (string, error) {
	onIdx := findKeyword(tokens, "ON", from)
	if onIdx < 0 {
		return "", nil
	}
	if onIdx+1 >= len(tokens) || !ValidDate(tokens[onIdx+1]) {
		return "", models.NewStatusError(models.CodeInvalidDate, models.MsgInvalidDate)
	}
	return tokens[onIdx+1], nil
}

func findKeyword(tokens []string, keyword string, from int) int {
	for i := from; i < len(tokens); i++ {
		if strings.EqualFold(tokens[i], keyword) {
			return i
		}
	}
	return -1
}

func missingKeyword(kw string) error {
	return models.NewStatusError(models.CodeMissingKeyword, models.MsgMissingKeyword+": "+kw)
}

func invalidAmount() error {
	return models.NewStatusError(models.CodeInvalidAmount, models.MsgInvalidAmount)
}
