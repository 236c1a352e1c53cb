package middlewares

import (
	"context"

	"github.com/twhracing/distributor_backend/models"
)

func GetProduct(ctx context.Context, id int) (*models.Product, error) {
	loaders, err := For(ctx)
	if err != nil {
		return nil, err
	}
	return loaders.productLoader.Load(ctx, id)()
}

// GetProducts resolves several products in one batch. Missing products come back nil.
func GetProducts(ctx context.Context, ids []int) ([]*models.Product, []error) {
	loaders, err := For(ctx)
	if err != nil {
		return nil, []error{err}
	}
	return loaders.productLoader.LoadMany(ctx, ids)()
}
