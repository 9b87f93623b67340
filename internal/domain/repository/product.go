package repository

import (
	"context"

	"github.com/polkiloo/paycore/internal/domain/model"
)

// ProductRepository gives read-only access to the catalog.
type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)
}
