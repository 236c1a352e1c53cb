package middlewares

import (
	"context"

	"github.com/twhracing/distributor_backend/models"
)

func GetSalesPerson(ctx context.Context, id int) (*models.SalesPerson, error) {
	loaders, err := For(ctx)
	if err != nil {
		return nil, err
	}
	return loaders.salesPersonLoader.Load(ctx, id)()
}

func GetSalesPersons(ctx context.Context, ids []int) ([]*models.SalesPerson, []error) {
	loaders, err := For(ctx)
	if err != nil {
		return nil, []error{err}
	}
	return loaders.salesPersonLoader.LoadMany(ctx, ids)()
}
