package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("quote not found")
	ErrDuplicateNumber = errors.New("duplicate quote number")
)

const uniqueViolation = "23505"

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	Create(ctx context.Context, q Quote, items []Item) (Quote, error)
	List(ctx context.Context, f ListFilter) ([]Quote, int, error)
	Get(ctx context.Context, id string) (Quote, error)
	UpsertLead(ctx context.Context, l Lead) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const quoteColumns = `id, quote_number, client_name, client_email, client_phone, client_company,
	start_date::text, end_date::text, duration_days, status, pricing, notes, deposit_required, created_at`

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.ClientName, &q.ClientEmail, &q.ClientPhone, &q.ClientCompany,
		&q.StartDate, &q.EndDate, &q.DurationDays, &q.Status, &q.Pricing, &q.Notes, &q.DepositRequired, &q.CreatedAt,
	)
	return q, err
}

// Create inserts the quote and its items in one transaction. A clash on
// quote_number is reported as ErrDuplicateNumber so the caller can retry.
func (r *PostgresRepository) Create(ctx context.Context, q Quote, items []Item) (Quote, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Quote{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanQuote(tx.QueryRow(ctx, `
		INSERT INTO quotes (quote_number, client_name, client_email, client_phone, client_company,
			start_date, end_date, duration_days, status, pricing, notes, deposit_required)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8, $9, $10, $11, $12)
		RETURNING `+quoteColumns,
		q.QuoteNumber, q.ClientName, q.ClientEmail, q.ClientPhone, q.ClientCompany,
		q.StartDate, q.EndDate, q.DurationDays, q.Status, q.Pricing, q.Notes, q.DepositRequired,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Quote{}, ErrDuplicateNumber
		}
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}

	for _, it := range items {
		var stored StoredItem
		err := tx.QueryRow(ctx, `
			INSERT INTO quote_items (quote_id, equipment_id, sku, name, quantity, daily_rate, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, quote_id, equipment_id, sku, name, quantity, daily_rate, total_price
		`, created.ID, it.EquipmentID, it.SKU, it.Name, it.Quantity, it.DailyRate, it.Total).Scan(
			&stored.ID, &stored.QuoteID, &stored.EquipmentID, &stored.SKU, &stored.Name,
			&stored.Quantity, &stored.DailyRate, &stored.TotalPrice,
		)
		if err != nil {
			return Quote{}, fmt.Errorf("insert quote item %s: %w", it.EquipmentID, err)
		}
		created.Items = append(created.Items, stored)
	}

	if err := tx.Commit(ctx); err != nil {
		return Quote{}, err
	}
	return created, nil
}

// List returns quotes newest first along with the total matching count.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Quote, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM quotes WHERE ($1::text = '' OR status = $1)`, f.Status,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE ($1::text = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, f.Status, f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]Quote, 0, f.Limit)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, fmt.Errorf("get quote %s: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, equipment_id, sku, name, quantity, daily_rate, total_price
		FROM quote_items
		WHERE quote_id = $1
	`, q.ID)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote items: %w", err)
	}
	defer rows.Close()

	q.Items = make([]StoredItem, 0)
	for rows.Next() {
		var it StoredItem
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.EquipmentID, &it.SKU, &it.Name, &it.Quantity, &it.DailyRate, &it.TotalPrice); err != nil {
			return Quote{}, fmt.Errorf("scan quote item: %w", err)
		}
		q.Items = append(q.Items, it)
	}
	return q, rows.Err()
}

// UpsertLead records the requester as a CRM lead keyed by email. Blank phone
// or company values keep whatever is already stored.
func (r *PostgresRepository) UpsertLead(ctx context.Context, l Lead) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (name, email, phone, company, status, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), leads.phone),
			company = COALESCE(NULLIF(EXCLUDED.company, ''), leads.company),
			status = EXCLUDED.status,
			updated_at = now()
	`, l.Name, l.Email, l.Phone, l.Company, leadStatusQuoteRequested, leadSourceWebsite)
	if err != nil {
		return fmt.Errorf("upsert lead %s: %w", l.Email, err)
	}
	return nil
}
