package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/twhracing/distributor_backend/models"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

var errNoLoaders = errors.New("dataloaders are not attached to the request context")

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	customerLoader    *dataloader.Loader[int, *models.Customer]
	salesPersonLoader *dataloader.Loader[int, *models.SalesPerson]
	productLoader     *dataloader.Loader[int, *models.Product]
}

// fetchFunc reads the rows for a batch of ids; missing ids are simply absent.
type fetchFunc[T models.Identifier] func(ctx context.Context, ids []int) ([]T, error)

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(store models.Store) *Loaders {
	return newLoaders(
		store.Customers().GetMany,
		store.SalesPersons().GetMany,
		store.Products().GetMany,
	)
}

func newLoaders(customers fetchFunc[*models.Customer], salesPersons fetchFunc[*models.SalesPerson], products fetchFunc[*models.Product]) *Loaders {
	return &Loaders{
		customerLoader:    dataloader.NewBatchedLoader(batchReader(customers), dataloader.WithWait[int, *models.Customer](time.Millisecond)),
		salesPersonLoader: dataloader.NewBatchedLoader(batchReader(salesPersons), dataloader.WithWait[int, *models.SalesPerson](time.Millisecond)),
		productLoader:     dataloader.NewBatchedLoader(batchReader(products), dataloader.WithWait[int, *models.Product](time.Millisecond)),
	}
}

// LoaderMiddleware attaches fresh per-request loaders backed by the store
// storeFn returns. The store is resolved per request because the database
// connects after the server starts.
func LoaderMiddleware(storeFn func() models.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeFn()
		if store == nil {
			c.Next()
			return
		}
		ctx := WithLoaders(c.Request.Context(), NewLoaders(store))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) (*Loaders, error) {
	loaders, ok := ctx.Value(loadersKey).(*Loaders)
	if !ok || loaders == nil {
		return nil, errNoLoaders
	}
	return loaders, nil
}

func batchReader[T models.Identifier](fetch fetchFunc[T]) dataloader.BatchFunc[int, T] {
	return func(ctx context.Context, ids []int) []*dataloader.Result[T] {
		results, err := fetch(ctx, ids)
		if err != nil {
			return handleError[T](len(ids), err)
		}
		return generateLoaderResults(results, ids)
	}
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateLoaderResults orders rows by the requested ids. An id with no row
// resolves to the zero value rather than an error.
func generateLoaderResults[T models.Identifier](results []T, ids []int) []*dataloader.Result[T] {
	resultMap := make(map[int]T, len(results))
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[T], 0, len(ids))
	for _, id := range ids {
		loaderResults = append(loaderResults, &dataloader.Result[T]{Data: resultMap[id]})
	}
	return loaderResults
}
