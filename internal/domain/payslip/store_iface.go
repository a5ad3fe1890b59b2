package payslip

import "context"

type StoreAPI interface {
	RecordStore
	List(ctx context.Context, filter ListFilter) ([]PayrollRecord, error)
	Get(ctx context.Context, id string) (*PayrollRecord, error)
	ListBatches(ctx context.Context, limit int) ([]BatchRun, error)
	GetBatch(ctx context.Context, id string) (*BatchRun, error)
}

var _ StoreAPI = (*Store)(nil)
