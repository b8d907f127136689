package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type UnitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &UnitOfWork{pool: u.pool, tx: tx}, nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(ctx)
}

func (u *UnitOfWork) Transactions() repository.TransactionRepository {
	if u.tx != nil {
		return &TransactionRepo{q: u.tx}
	}
	return &TransactionRepo{q: u.pool}
}

func (u *UnitOfWork) Idempotency() repository.IdempotencyRepository {
	if u.tx != nil {
		return &IdempotencyRepo{q: u.tx, tx: u.tx}
	}
	return &IdempotencyRepo{q: u.pool}
}

type TransactionRepo struct {
	q querier
}

const (
	transactionColumns = `id, domain_id, transaction_code, amount, status, payment_method,
	buyer_info, qris_data, verified_by, verified_at, created_at, updated_at`
	selectTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	uniqueViolation     = "23505"
	transactionCodeUniq = "transactions_transaction_code_key"

	defaultListLimit = 50
)

func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO transactions (id, domain_id, transaction_code, amount, status, payment_method,
		 buyer_info, qris_data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID(), t.DomainID(), t.Code(), t.Amount(), string(t.Status()), t.PaymentMethod(),
		t.Buyer(), t.QRISData(), t.CreatedAt(), t.UpdatedAt(),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == transactionCodeUniq {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateCode, t.Code())
	}
	return err
}

func (r *TransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.find(ctx, selectTransaction, id)
}

func (r *TransactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.find(ctx, selectTransaction+` FOR UPDATE`, id)
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, t *entity.Transaction) error {
	var verifiedBy *string
	if v := t.VerifiedBy(); v != "" {
		verifiedBy = &v
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE transactions SET status = $1, verified_by = $2, verified_at = $3, updated_at = $4
		 WHERE id = $5`,
		string(t.Status()), verifiedBy, t.VerifiedAt(), t.UpdatedAt(), t.ID(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID(), repository.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepo) List(ctx context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.q.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		string(filter.Status), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TransactionRepo) Stats(ctx context.Context) (*repository.TransactionStats, error) {
	var stats repository.TransactionStats
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount) FILTER (WHERE status = $1), 0)::BIGINT,
		        COUNT(*) FILTER (WHERE status = $2)
		 FROM transactions`,
		string(entity.StatusCompleted), string(entity.StatusPending),
	).Scan(&stats.Revenue, &stats.PendingCount)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *TransactionRepo) find(ctx context.Context, query string, id uuid.UUID) (*entity.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, repository.ErrNotFound)
	}
	return t, err
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var (
		id            uuid.UUID
		domainID      uuid.UUID
		code          string
		amount        int64
		status        string
		paymentMethod string
		buyer         entity.Buyer
		qrisData      string
		verifiedBy    *string
		verifiedAt    *time.Time
		createdAt     time.Time
		updatedAt     time.Time
	)
	err := row.Scan(
		&id, &domainID, &code, &amount, &status, &paymentMethod,
		&buyer, &qrisData, &verifiedBy, &verifiedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var by string
	if verifiedBy != nil {
		by = *verifiedBy
	}
	return entity.ReconstructTransaction(
		id, domainID, code, amount, entity.TransactionStatus(status), paymentMethod,
		buyer, qrisData, by, verifiedAt, createdAt, updatedAt,
	), nil
}

type IdempotencyRepo struct {
	q  querier
	tx pgx.Tx
}

func (r *IdempotencyRepo) Find(ctx context.Context, key string) (*entity.IdempotencyRecord, error) {
	var (
		txID      uuid.UUID
		createdAt time.Time
	)
	err := r.q.QueryRow(ctx,
		`SELECT transaction_id, created_at FROM idempotency_keys WHERE key = $1`,
		key,
	).Scan(&txID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity.ReconstructIdempotencyRecord(key, txID, createdAt), nil
}

func (r *IdempotencyRepo) Save(ctx context.Context, record *entity.IdempotencyRecord) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO idempotency_keys (key, transaction_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		record.Key(), record.TransactionID(), record.CreatedAt(),
	)
	return err
}

// Lock takes a transaction scoped advisory lock on the key.
func (r *IdempotencyRepo) Lock(ctx context.Context, key string) error {
	if r.tx == nil {
		return errors.New("idempotency lock requires a transaction")
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(h.Sum64()))
	return err
}
