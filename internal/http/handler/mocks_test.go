package handler_test

import (
	"context"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

type mockWorkspaceService struct {
	provisionFn func(ctx context.Context, req service.ProvisionRequest) (*model.Workspace, error)
	getFn       func(ctx context.Context, slug string) (*model.Workspace, error)
	listFn      func(ctx context.Context, limit int) ([]model.Workspace, error)
}

func (m *mockWorkspaceService) Provision(ctx context.Context, req service.ProvisionRequest) (*model.Workspace, error) {
	if m.provisionFn != nil {
		return m.provisionFn(ctx, req)
	}
	return &model.Workspace{ID: req.WorkspaceID, Slug: req.Slug}, nil
}

func (m *mockWorkspaceService) Get(ctx context.Context, slug string) (*model.Workspace, error) {
	if m.getFn != nil {
		return m.getFn(ctx, slug)
	}
	return nil, &service.NotFoundError{Resource: "workspace", Name: slug}
}

func (m *mockWorkspaceService) List(ctx context.Context, limit int) ([]model.Workspace, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

type mockDatasetService struct {
	createTableFn func(ctx context.Context, req service.CreateTableRequest) (*model.Dataset, error)
	ingestFn      func(ctx context.Context, namespace, table string, rows []model.Row) (int64, error)
	queryFn       func(ctx context.Context, namespace, table string, req service.QueryRequest) (*model.QueryResult, error)
	listFn        func(ctx context.Context, namespace string) ([]model.Dataset, error)
	deleteFn      func(ctx context.Context, namespace, table string) error
	importFn      func(ctx context.Context, req service.ImportRequest) (*service.ImportResult, error)
	listImportsFn func(ctx context.Context, namespace string, limit int) ([]model.ImportRun, error)
}

func (m *mockDatasetService) CreateTable(ctx context.Context, req service.CreateTableRequest) (*model.Dataset, error) {
	if m.createTableFn != nil {
		return m.createTableFn(ctx, req)
	}
	return nil, nil
}

func (m *mockDatasetService) Ingest(ctx context.Context, namespace, table string, rows []model.Row) (int64, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, namespace, table, rows)
	}
	return int64(len(rows)), nil
}

func (m *mockDatasetService) Query(ctx context.Context, namespace, table string, req service.QueryRequest) (*model.QueryResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, namespace, table, req)
	}
	return &model.QueryResult{Rows: []model.Row{}}, nil
}

func (m *mockDatasetService) List(ctx context.Context, namespace string) ([]model.Dataset, error) {
	if m.listFn != nil {
		return m.listFn(ctx, namespace)
	}
	return []model.Dataset{}, nil
}

func (m *mockDatasetService) Delete(ctx context.Context, namespace, table string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, namespace, table)
	}
	return nil
}

func (m *mockDatasetService) Import(ctx context.Context, req service.ImportRequest) (*service.ImportResult, error) {
	if m.importFn != nil {
		return m.importFn(ctx, req)
	}
	return &service.ImportResult{RowCount: int64(len(req.Rows))}, nil
}

func (m *mockDatasetService) ListImports(ctx context.Context, namespace string, limit int) ([]model.ImportRun, error) {
	if m.listImportsFn != nil {
		return m.listImportsFn(ctx, namespace, limit)
	}
	return []model.ImportRun{}, nil
}

type mockInsightService struct {
	summaryFn  func(ctx context.Context, namespace, table string) (*model.DatasetSummary, error)
	insightsFn func(ctx context.Context, namespace, table, question string) (*model.InsightReport, error)
}

func (m *mockInsightService) Summary(ctx context.Context, namespace, table string) (*model.DatasetSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, namespace, table)
	}
	return &model.DatasetSummary{TableName: table}, nil
}

func (m *mockInsightService) Insights(ctx context.Context, namespace, table, question string) (*model.InsightReport, error) {
	if m.insightsFn != nil {
		return m.insightsFn(ctx, namespace, table, question)
	}
	return nil, service.ErrInsightsDisabled
}
