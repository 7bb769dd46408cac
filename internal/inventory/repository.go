package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

const defaultCondition = "New"

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	List(ctx context.Context) ([]Item, error)
	Upsert(ctx context.Context, in UpsertInput) (Item, bool, error)
	Update(ctx context.Context, id string, in UpdateInput) (Item, error)
	ActiveByCatalogIDs(ctx context.Context, catalogIDs []string) ([]Item, error)
	CommitPull(ctx context.Context, lines []Line) (PullResult, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const itemColumns = `i.id, i.catalog_id, i.quantity_owned, i.quantity_available, i.storage_location,
	i.serial_numbers, i.purchase_price, i.condition, i.is_active, i.created_at, i.updated_at`

func scanItem(row pgx.Row, extra ...any) (Item, error) {
	var it Item
	dest := []any{
		&it.ID, &it.CatalogID, &it.QuantityOwned, &it.QuantityAvailable, &it.StorageLocation,
		&it.SerialNumbers, &it.PurchasePrice, &it.Condition, &it.IsActive, &it.CreatedAt, &it.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Item{}, err
	}
	if it.SerialNumbers == nil {
		it.SerialNumbers = []string{}
	}
	return it, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`, c.id, c.sku, c.name, c.category, c.daily_rate
		FROM in_house_inventory i
		JOIN equipment_catalog c ON c.id = i.catalog_id
		WHERE i.is_active = true
		ORDER BY i.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var eq Equipment
		it, err := scanItem(rows, &eq.ID, &eq.SKU, &eq.Name, &eq.Category, &eq.DailyRate)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		it.Equipment = &eq
		items = append(items, it)
	}
	return items, rows.Err()
}

// Upsert stores stock for a catalog item. An existing row is overwritten and
// its available quantity reset to the owned quantity. The boolean reports
// whether a new row was created.
func (r *PostgresRepository) Upsert(ctx context.Context, in UpsertInput) (Item, bool, error) {
	if in.CatalogID == "" || in.QuantityOwned < 0 {
		return Item{}, false, ErrInvalidInput
	}
	serials := in.SerialNumbers
	if serials == nil {
		serials = []string{}
	}

	var existingID string
	err := r.pool.QueryRow(ctx, `SELECT id FROM in_house_inventory WHERE catalog_id=$1`, in.CatalogID).Scan(&existingID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		it, err := scanItem(r.pool.QueryRow(ctx, `
			INSERT INTO in_house_inventory AS i
				(catalog_id, quantity_owned, quantity_available, storage_location, serial_numbers, purchase_price, condition)
			VALUES ($1, $2, $2, $3, $4, $5, $6)
			RETURNING `+itemColumns,
			in.CatalogID, in.QuantityOwned, in.StorageLocation, serials, in.PurchasePrice, defaultCondition))
		if err != nil {
			return Item{}, false, fmt.Errorf("insert inventory: %w", err)
		}
		return it, true, nil
	case err != nil:
		return Item{}, false, fmt.Errorf("select inventory: %w", err)
	}

	it, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE in_house_inventory AS i
		SET quantity_owned=$2, quantity_available=$2, storage_location=$3, serial_numbers=$4,
			purchase_price=$5, updated_at=now()
		WHERE i.id=$1
		RETURNING `+itemColumns,
		existingID, in.QuantityOwned, in.StorageLocation, serials, in.PurchasePrice))
	if err != nil {
		return Item{}, false, fmt.Errorf("update inventory: %w", err)
	}
	return it, false, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, in UpdateInput) (Item, error) {
	if (in.QuantityOwned != nil && *in.QuantityOwned < 0) || (in.QuantityAvailable != nil && *in.QuantityAvailable < 0) {
		return Item{}, ErrInvalidInput
	}
	if in.QuantityOwned != nil && in.QuantityAvailable != nil && *in.QuantityAvailable > *in.QuantityOwned {
		return Item{}, ErrInvalidInput
	}

	it, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE in_house_inventory AS i
		SET quantity_owned     = COALESCE($2, i.quantity_owned),
			quantity_available = COALESCE($3, i.quantity_available),
			storage_location   = COALESCE($4, i.storage_location),
			condition          = COALESCE($5, i.condition),
			updated_at         = now()
		WHERE i.id::text=$1
			AND COALESCE($3, i.quantity_available) <= COALESCE($2, i.quantity_owned)
		RETURNING `+itemColumns,
		id, in.QuantityOwned, in.QuantityAvailable, in.StorageLocation, in.Condition))
	if err == nil {
		return it, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("update inventory %s: %w", id, err)
	}

	// No row matched: either the id is unknown or the result would put
	// available above owned.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM in_house_inventory WHERE id::text=$1)`, id).Scan(&exists); err != nil {
		return Item{}, fmt.Errorf("update inventory %s: %w", id, err)
	}
	if exists {
		return Item{}, fmt.Errorf("%w: quantityAvailable exceeds quantityOwned", ErrInvalidInput)
	}
	return Item{}, ErrNotFound
}

// ActiveByCatalogIDs loads the active rows for the given catalog ids in one query.
func (r *PostgresRepository) ActiveByCatalogIDs(ctx context.Context, catalogIDs []string) ([]Item, error) {
	if len(catalogIDs) == 0 {
		return []Item{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM in_house_inventory i
		WHERE i.catalog_id::text = ANY($1::text[]) AND i.is_active = true
	`, catalogIDs)
	if err != nil {
		return nil, fmt.Errorf("select inventory snapshot: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0, len(catalogIDs))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory snapshot: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CommitPull decrements availability for a pull list:
// - lines for the same catalog id are summed first
// - locks each inventory row (SELECT ... FOR UPDATE)
// - if any line is short, we rollback and return the short lines (no mutation)
// - else we decrement every line and commit
func (r *PostgresRepository) CommitPull(ctx context.Context, lines []Line) (PullResult, error) {
	res := PullResult{}
	lines = mergeLines(lines)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type locked struct {
		catalogID string
		requested int
	}
	lockedRows := make([]locked, 0, len(lines))

	for _, line := range lines {
		var available int
		err := tx.QueryRow(ctx, `
			SELECT quantity_available
			FROM in_house_inventory
			WHERE catalog_id::text=$1 AND is_active = true
			FOR UPDATE
		`, line.CatalogID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				available = 0
			} else {
				return res, err
			}
		}

		lockedRows = append(lockedRows, locked{catalogID: line.CatalogID, requested: line.Quantity})
		if available < line.Quantity {
			res.Short = append(res.Short, ShortLine{
				CatalogID: line.CatalogID,
				Requested: line.Quantity,
				Available: available,
			})
		}
	}

	if len(res.Short) > 0 {
		return res, nil
	}

	for _, row := range lockedRows {
		_, err := tx.Exec(ctx, `
			UPDATE in_house_inventory
			SET quantity_available = quantity_available - $2, updated_at=now()
			WHERE catalog_id::text=$1
		`, row.catalogID, row.requested)
		if err != nil {
			return res, err
		}
		res.Pulled = append(res.Pulled, Line{CatalogID: row.catalogID, Quantity: row.requested})
	}

	if err := tx.Commit(ctx); err != nil {
		return PullResult{}, err
	}
	return res, nil
}

// mergeLines sums quantities per catalog id, keeping first-seen order.
func mergeLines(lines []Line) []Line {
	index := make(map[string]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, ln := range lines {
		if i, ok := index[ln.CatalogID]; ok {
			out[i].Quantity += ln.Quantity
			continue
		}
		index[ln.CatalogID] = len(out)
		out = append(out, ln)
	}
	return out
}
