package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// schema is the DDL applied once on startup. Prices are stored as TEXT in
// decimal string form so no float rounding ever touches money.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    price       TEXT NOT NULL,
    weight      TEXT NOT NULL DEFAULT '',
    image_url   TEXT NOT NULL DEFAULT '',
    active      INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_active ON products(active);
`

// Store is the SQLite implementation of Catalog, plus the write operations
// the admin surface needs.
type Store struct {
	db *sql.DB
}

// NewStore applies the catalog schema on the shared database handle.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts or replaces a product. A zero ID gets a fresh UUID.
func (s *Store) Save(ctx context.Context, p *Product) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, now)
	}
	const q = `
		INSERT INTO products (id, name, price, weight, image_url, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			weight = excluded.weight,
			image_url = excluded.image_url,
			active = excluded.active,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Price.String(), p.Weight, p.ImageURL,
		boolToInt(p.Active), now, now,
	)
	if err != nil {
		return fmt.Errorf("catalog: save product %q: %w", p.ID, err)
	}
	return nil
}

// FindActiveByIDs implements Catalog. Duplicate ids in the input collapse to
// one row in the result map.
func (s *Store) FindActiveByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	out := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	// De-duplicate so the IN clause stays small on repeated cart entries.
	seen := make(map[string]struct{}, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		args = append(args, id)
	}

	q := fmt.Sprintf(`
		SELECT id, name, price, weight, image_url, active, created_at, updated_at
		FROM   products
		WHERE  active = 1 AND id IN (%s)`,
		placeholders(len(args)))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: batch lookup: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// FindByID implements Catalog.
func (s *Store) FindByID(ctx context.Context, id string) (Product, error) {
	const q = `
		SELECT id, name, price, weight, image_url, active, created_at, updated_at
		FROM   products
		WHERE  id = ?`

	row := s.db.QueryRowContext(ctx, q, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: get product %q: %w", id, err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (Product, error) {
	var p Product
	var price, createdAt, updatedAt string
	var active int
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Weight, &p.ImageURL, &active, &createdAt, &updatedAt); err != nil {
		return Product{}, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return Product{}, fmt.Errorf("catalog: bad price %q for %q: %w", price, p.ID, err)
	}
	p.Active = active != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
