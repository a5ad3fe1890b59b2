package employee

import "context"

type StoreAPI interface {
	List(ctx context.Context) ([]Employee, error)
	Get(ctx context.Context, id string) (*Employee, error)
	FindByNumber(ctx context.Context, employeeNo string) (*Employee, error)
	Create(ctx context.Context, emp Employee) (*Employee, error)
	Update(ctx context.Context, id string, emp Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
}

var _ StoreAPI = (*Store)(nil)
