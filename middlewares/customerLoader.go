package middlewares

import (
	"context"

	"github.com/twhracing/distributor_backend/models"
)

func GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	loaders, err := For(ctx)
	if err != nil {
		return nil, err
	}
	return loaders.customerLoader.Load(ctx, id)()
}

func GetCustomers(ctx context.Context, ids []int) ([]*models.Customer, []error) {
	loaders, err := For(ctx)
	if err != nil {
		return nil, []error{err}
	}
	return loaders.customerLoader.LoadMany(ctx, ids)()
}
