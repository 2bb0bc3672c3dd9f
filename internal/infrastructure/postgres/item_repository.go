package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id::text, text, college, quantity, amount, requested_date, supplier, item_type, image, barcode, created_at, updated_at`

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un nuevo ítem con un UUID generado aquí.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO items (id, text, college, quantity, amount, requested_date, supplier, item_type, image, barcode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		id, item.Text, string(item.College), item.Quantity, item.Amount, item.RequestedDate,
		item.Supplier, string(item.ItemType), item.Image, item.Barcode, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return "", classify("insert item", err)
	}
	item.ID = id
	return id, nil
}

// GetByID obtiene un ítem por ID; nil, nil si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	item, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get item", err)
	}
	return item, nil
}

// Update reemplaza los campos editables; barcode y created_at no cambian.
func (r *ItemRepo) Update(ctx context.Context, id string, f entity.ItemFields, updatedAt time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	query := `
		UPDATE items SET text = $2, college = $3, quantity = $4, amount = $5, requested_date = $6,
			supplier = $7, item_type = $8, image = $9, updated_at = $10
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		id, f.Text, string(f.College), f.Quantity, f.Amount, f.RequestedDate,
		f.Supplier, string(f.ItemType), f.Image, updatedAt,
	)
	if err != nil {
		return classify("update item", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateQuantity escribe la cantidad solo si la almacenada sigue siendo expected.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, expected, quantity int, updatedAt time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE items SET quantity = $3, updated_at = $4 WHERE id = $1 AND quantity = $2`,
		id, expected, quantity, updatedAt,
	)
	if err != nil {
		return classify("update item quantity", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

// Delete elimina por ID; un ID ausente no es error.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return classify("delete item", err)
	}
	return nil
}

// DeleteIfQuantity borra solo si la cantidad almacenada es expected.
func (r *ItemRepo) DeleteIfQuantity(ctx context.Context, id string, expected int) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1 AND quantity = $2`, id, expected)
	if err != nil {
		return classify("delete item", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

// ListAll todos los ítems en orden de creación.
func (r *ItemRepo) ListAll(ctx context.Context) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at, id`)
	if err != nil {
		return nil, classify("list items", err)
	}
	defer rows.Close()
	list := make([]*entity.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classify("scan item", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list items", err)
	}
	return list, nil
}

// missOrStale distingue, tras una escritura condicionada sin filas afectadas, si el registro
// desapareció o si su cantidad cambió.
func (r *ItemRepo) missOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id).Scan(&exists); err != nil {
		return classify("check item", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrStaleWrite
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	var college, itemType string
	err := row.Scan(&it.ID, &it.Text, &college, &it.Quantity, &it.Amount, &it.RequestedDate,
		&it.Supplier, &itemType, &it.Image, &it.Barcode, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.College = entity.College(college)
	it.ItemType = entity.ItemType(itemType)
	it.RequestedDate = it.RequestedDate.UTC()
	return &it, nil
}
