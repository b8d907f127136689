package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord binds a client supplied key to the transaction it created.
type IdempotencyRecord struct {
	key           string
	transactionID uuid.UUID
	createdAt     time.Time
}

func NewIdempotencyRecord(key string, transactionID uuid.UUID) *IdempotencyRecord {
	return &IdempotencyRecord{
		key:           key,
		transactionID: transactionID,
		createdAt:     time.Now(),
	}
}

func ReconstructIdempotencyRecord(key string, transactionID uuid.UUID, createdAt time.Time) *IdempotencyRecord {
	return &IdempotencyRecord{
		key:           key,
		transactionID: transactionID,
		createdAt:     createdAt,
	}
}

func (r *IdempotencyRecord) Key() string {
	return r.key
}

func (r *IdempotencyRecord) TransactionID() uuid.UUID {
	return r.transactionID
}

func (r *IdempotencyRecord) CreatedAt() time.Time {
	return r.createdAt
}
