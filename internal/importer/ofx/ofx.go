// Package ofx turns bank and credit card statements in OFX format into
// records. Credits become Income, debits become Expense with the sign dropped.
package ofx

import (
	"errors"
	"fmt"
	"io"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ErrNoTransactions is returned when a statement parses but lists nothing.
var ErrNoTransactions = errors.New("statement contains no transactions")

// Options controls how transactions are mapped.
type Options struct {
	// Category is assigned to every imported record. Empty means Other.
	Category core.Category
	// SkipZero drops transactions with a zero amount.
	SkipZero bool
}

// Parse reads an OFX response and returns one record per transaction, bank
// statements first, in statement order.
func Parse(r io.Reader, opts Options) ([]core.Record, error) {
	category := opts.Category
	if category == "" {
		category = core.Other
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCategory, category)
	}

	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("parse ofx: %w", err)
	}

	var lists []*ofxgo.TransactionList
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}

	var out []core.Record
	for _, list := range lists {
		for _, tx := range list.Transactions {
			rec, err := toRecord(tx, category)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: %w", tx.FiTID, err)
			}
			if opts.SkipZero && rec.Amount.IsZero() {
				continue
			}
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoTransactions
	}
	return out, nil
}

func toRecord(tx ofxgo.Transaction, category core.Category) (core.Record, error) {
	amount, err := decimal.NewFromString(tx.TrnAmt.Rat.FloatString(2))
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
	}

	typ := core.Income
	if amount.IsNegative() {
		typ = core.Expense
		amount = amount.Neg()
	}

	posted := tx.DtPosted.Time
	if posted.IsZero() {
		return core.Record{}, fmt.Errorf("%w: missing posting date", core.ErrInvalidDate)
	}

	return core.Record{
		Date:     core.NewDate(posted.Year(), int(posted.Month()), posted.Day()),
		Category: category,
		Type:     typ,
		Amount:   amount,
	}, nil
}
