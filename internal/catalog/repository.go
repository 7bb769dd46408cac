package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// CategoryCache keeps the category listing out of the database between requests.
type CategoryCache interface {
	Categories(ctx context.Context) ([]Category, bool)
	StoreCategories(ctx context.Context, categories []Category)
}

type Repository interface {
	List(ctx context.Context, f Filter) (Page, error)
	Categories(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id string) (Equipment, error)
}

type PostgresRepository struct {
	pool  DBPool
	cache CategoryCache
}

func NewPostgresRepository(pool DBPool, cache CategoryCache) *PostgresRepository {
	return &PostgresRepository{pool: pool, cache: cache}
}

const filterClause = `
	WHERE c.is_active = true
		AND ($1::text = '' OR c.category = $1)
		AND ($2::text = '' OR c.name ILIKE $2 ESCAPE '\' OR c.sku ILIKE $2 ESCAPE '\')`

// List returns one page of active equipment ordered by name. The availability
// filter is applied to the fetched page, so the pagination block describes the
// unfiltered result set.
func (r *PostgresRepository) List(ctx context.Context, f Filter) (Page, error) {
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	search := likePattern(f.Search)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM equipment_catalog c`+filterClause, f.Category, search).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count equipment: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.sku, c.name, c.category, c.description, c.daily_rate, c.weekly_rate, c.is_active, c.created_at,
			i.id, i.quantity_owned, i.quantity_available, i.storage_location, i.serial_numbers, i.condition
		FROM equipment_catalog c
		LEFT JOIN in_house_inventory i ON i.catalog_id = c.id`+filterClause+`
		ORDER BY c.name
		LIMIT $3 OFFSET $4
	`, f.Category, search, limit, offset(page, limit))
	if err != nil {
		return Page{}, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	data := make([]Equipment, 0, limit)
	for rows.Next() {
		var eq Equipment
		var stock nullableStock
		if err := rows.Scan(
			&eq.ID, &eq.SKU, &eq.Name, &eq.Category, &eq.Description, &eq.DailyRate, &eq.WeeklyRate, &eq.IsActive, &eq.CreatedAt,
			&stock.ID, &stock.QuantityOwned, &stock.QuantityAvailable, &stock.StorageLocation, &stock.SerialNumbers, &stock.Condition,
		); err != nil {
			return Page{}, fmt.Errorf("scan equipment: %w", err)
		}
		eq.InHouse = stock.value()
		eq.Availability = availabilityOf(eq.InHouse)

		if f.Availability != "" && eq.Availability != f.Availability {
			continue
		}
		data = append(data, eq)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("list equipment: %w", err)
	}

	return Page{Data: data, Pagination: NewPagination(page, limit, total)}, nil
}

func (r *PostgresRepository) Categories(ctx context.Context) ([]Category, error) {
	if r.cache != nil {
		if cats, ok := r.cache.Categories(ctx); ok {
			return cats, nil
		}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, display_order
		FROM equipment_categories
		WHERE is_active = true
		ORDER BY display_order
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.StoreCategories(ctx, cats)
	}
	return cats, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Equipment, error) {
	var eq Equipment
	var stock nullableStock
	var partnerName *string
	var partnerDiscount *float64

	err := r.pool.QueryRow(ctx, `
		SELECT c.id, c.sku, c.name, c.category, c.description, c.daily_rate, c.weekly_rate, c.is_active, c.created_at,
			i.id, i.quantity_owned, i.quantity_available, i.storage_location, i.serial_numbers, i.condition,
			p.name, p.discount_rate
		FROM equipment_catalog c
		LEFT JOIN in_house_inventory i ON i.catalog_id = c.id
		LEFT JOIN rental_partners p ON p.id = c.partner_id
		WHERE c.id::text = $1
	`, id).Scan(
		&eq.ID, &eq.SKU, &eq.Name, &eq.Category, &eq.Description, &eq.DailyRate, &eq.WeeklyRate, &eq.IsActive, &eq.CreatedAt,
		&stock.ID, &stock.QuantityOwned, &stock.QuantityAvailable, &stock.StorageLocation, &stock.SerialNumbers, &stock.Condition,
		&partnerName, &partnerDiscount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Equipment{}, ErrNotFound
		}
		return Equipment{}, fmt.Errorf("get equipment %s: %w", id, err)
	}

	eq.InHouse = stock.value()
	eq.Availability = availabilityOf(eq.InHouse)
	if partnerName != nil {
		eq.Partner = &Partner{Name: *partnerName}
		if partnerDiscount != nil {
			eq.Partner.DiscountRate = *partnerDiscount
		}
	}
	return eq, nil
}

// DeleteAll removes every catalog row and returns how many are left.
func (r *PostgresRepository) DeleteAll(ctx context.Context) (int, error) {
	if _, err := r.pool.Exec(ctx, `DELETE FROM equipment_catalog`); err != nil {
		return 0, fmt.Errorf("delete equipment: %w", err)
	}
	var remaining int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM equipment_catalog`).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("count equipment: %w", err)
	}
	return remaining, nil
}

// nullableStock receives the LEFT JOINed inventory columns.
type nullableStock struct {
	ID                *string
	QuantityOwned     *int
	QuantityAvailable *int
	StorageLocation   *string
	SerialNumbers     []string
	Condition         *string
}

func (n nullableStock) value() *InHouseStock {
	if n.ID == nil {
		return nil
	}
	s := &InHouseStock{ID: *n.ID, SerialNumbers: n.SerialNumbers}
	if n.QuantityOwned != nil {
		s.QuantityOwned = *n.QuantityOwned
	}
	if n.QuantityAvailable != nil {
		s.QuantityAvailable = *n.QuantityAvailable
	}
	if n.StorageLocation != nil {
		s.StorageLocation = *n.StorageLocation
	}
	if n.Condition != nil {
		s.Condition = *n.Condition
	}
	if s.SerialNumbers == nil {
		s.SerialNumbers = []string{}
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns user search text into a substring ILIKE pattern.
func likePattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(search) + "%"
}
