package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ExpenseTypeReceipt ExpenseType = "RECEIPT"
	ExpenseTypeInvoice ExpenseType = "INVOICE"
	ExpenseTypeGrant   ExpenseType = "GRANT"
)

const (
	StatusPending    ExpenseStatus = "PENDING"
	StatusApproved   ExpenseStatus = "APPROVED"
	StatusRejected   ExpenseStatus = "REJECTED"
	StatusProcessing ExpenseStatus = "PROCESSING"
	StatusPaid       ExpenseStatus = "PAID"

	// StatusReadyToPay is a filter sentinel, never stored on an expense.
	// Resolving it requires balance and tax-form checks on top of APPROVED.
	StatusReadyToPay ExpenseStatus = "READY_TO_PAY"
)

const (
	PayoutBankAccount PayoutMethodType = "BANK_ACCOUNT"
	PayoutPaypal      PayoutMethodType = "PAYPAL"
	PayoutOther       PayoutMethodType = "OTHER"
)

type (
	ExpenseType      string
	ExpenseStatus    string
	PayoutMethodType string

	// AccountRef identifies an account by slug or decimal id,
	// resolved through a ledger.AccountResolver.
	AccountRef string

	Account struct {
		ID               int64
		Slug             string
		Name             string
		HostCollectiveID *int64
	}

	PayoutMethod struct {
		ID   int64
		Type PayoutMethodType
	}

	Expense struct {
		ID                 int64
		Type               ExpenseType
		Status             ExpenseStatus
		Description        string
		Amount             Money
		CreatedAt          time.Time
		FromCollectiveID   int64
		CollectiveID       int64
		CreatedByAccountID int64
		PayoutMethodID     *int64
		Tags               []string
	}

	// ExpensePair is one row of the grouped existence query used by the
	// ready-to-pay resolver: a distinct submitter/recipient pair together
	// with the expense type that produced it.
	ExpensePair struct {
		FromCollectiveID int64
		CollectiveID     int64
		Type             ExpenseType
	}
)

var (
	ErrInvalidStatus       = errors.New("invalid expense status")
	ErrInvalidType         = errors.New("invalid expense type")
	ErrInvalidPayoutMethod = errors.New("invalid payout method type")
	ErrEmptyDescription    = errors.New("empty description")
)

func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseTypeReceipt, ExpenseTypeInvoice, ExpenseTypeGrant:
		return true
	default:
		return false
	}
}

func (s ExpenseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusProcessing, StatusPaid, StatusReadyToPay:
		return true
	default:
		return false
	}
}

func (p PayoutMethodType) Valid() bool {
	switch p {
	case PayoutBankAccount, PayoutPaypal, PayoutOther:
		return true
	default:
		return false
	}
}

// ParseExpenseStatus normalizes and validates a status string.
func ParseExpenseStatus(s string) (ExpenseStatus, error) {
	status := ExpenseStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// ParseExpenseType normalizes and validates a type string.
func ParseExpenseType(s string) (ExpenseType, error) {
	typ := ExpenseType(strings.ToUpper(strings.TrimSpace(s)))
	if !typ.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return typ, nil
}

// ParsePayoutMethodType normalizes and validates a payout method type string.
func ParsePayoutMethodType(s string) (PayoutMethodType, error) {
	pt := PayoutMethodType(strings.ToUpper(strings.TrimSpace(s)))
	if !pt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPayoutMethod, s)
	}
	return pt, nil
}

func (e Expense) Validate() error {
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if !e.Status.Valid() || e.Status == StatusReadyToPay {
		return ErrInvalidStatus
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// HasTag reports whether the expense carries the given tag.
func (e Expense) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
