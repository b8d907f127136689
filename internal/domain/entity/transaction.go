package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNegativeAmount    = errors.New("amount must be positive")
	ErrMissingBuyer      = errors.New("buyer name is required")
	ErrInvalidStatus     = errors.New("invalid transaction status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrVerifierRequired  = errors.New("verified_by is required")
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusPaid      TransactionStatus = "paid"
	StatusVerified  TransactionStatus = "verified"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

const PaymentMethodQRIS = "qris"

var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:  {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:     {StatusVerified, StatusFailed},
	StatusVerified: {StatusCompleted},
}

func ParseStatus(s string) (TransactionStatus, error) {
	status := TransactionStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusPaid, StatusVerified, StatusCompleted, StatusFailed, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s TransactionStatus) CanTransitionTo(to TransactionStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Transaction struct {
	id            uuid.UUID
	domainID      uuid.UUID
	code          string
	amount        int64
	status        TransactionStatus
	paymentMethod string
	buyer         Buyer
	qrisData      string
	verifiedBy    string
	verifiedAt    *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

func NewTransaction(domainID uuid.UUID, amount int64, buyer Buyer) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrNegativeAmount
	}
	if strings.TrimSpace(buyer.Name) == "" {
		return nil, ErrMissingBuyer
	}

	id := uuid.New()
	now := time.Now()
	return &Transaction{
		id:            id,
		domainID:      domainID,
		code:          transactionCode(id, now),
		amount:        amount,
		status:        StatusPending,
		paymentMethod: PaymentMethodQRIS,
		buyer:         buyer,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func ReconstructTransaction(
	id, domainID uuid.UUID,
	code string,
	amount int64,
	status TransactionStatus,
	paymentMethod string,
	buyer Buyer,
	qrisData string,
	verifiedBy string,
	verifiedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:            id,
		domainID:      domainID,
		code:          code,
		amount:        amount,
		status:        status,
		paymentMethod: paymentMethod,
		buyer:         buyer,
		qrisData:      qrisData,
		verifiedBy:    verifiedBy,
		verifiedAt:    verifiedAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// transactionCode renders TRX-YYYYMMDD-XXXXXXXX from the creation date and id.
func transactionCode(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("TRX-%s-%s", at.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

func (t *Transaction) AttachQRIS(payload string) {
	t.qrisData = payload
}

func (t *Transaction) ChangeStatus(to TransactionStatus, by string, at time.Time) error {
	if !t.status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.status, to)
	}
	if to == StatusVerified {
		if strings.TrimSpace(by) == "" {
			return ErrVerifierRequired
		}
		t.verifiedBy = by
		t.verifiedAt = &at
	}
	t.status = to
	t.updatedAt = at
	return nil
}

func (t *Transaction) ID() uuid.UUID {
	return t.id
}

func (t *Transaction) DomainID() uuid.UUID {
	return t.domainID
}

func (t *Transaction) Code() string {
	return t.code
}

func (t *Transaction) Amount() int64 {
	return t.amount
}

func (t *Transaction) Status() TransactionStatus {
	return t.status
}

func (t *Transaction) PaymentMethod() string {
	return t.paymentMethod
}

func (t *Transaction) Buyer() Buyer {
	return t.buyer
}

func (t *Transaction) QRISData() string {
	return t.qrisData
}

func (t *Transaction) VerifiedBy() string {
	return t.verifiedBy
}

func (t *Transaction) VerifiedAt() *time.Time {
	return t.verifiedAt
}

func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}
