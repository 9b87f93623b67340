package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/polkiloo/paycore/internal/domain/model"
)

func (r *productRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	result := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := r.storage.builder.
		Select("id", "name", "brand", "sku", "price").
		From("products").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.SKU, &p.Price); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
