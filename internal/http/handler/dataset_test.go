package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/ddl"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/middleware"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

var _ = Describe("DatasetHandler", func() {
	var (
		r   *gin.Engine
		svc *mockDatasetService
	)

	insertBody := map[string]any{
		"datasetId":   "ds-1",
		"datasetName": "Sales Jan",
		"columns": []map[string]string{
			{"name": "amount", "dataType": "currency"},
			{"name": "date", "dataType": "date"},
		},
		"rows": []map[string]any{
			{"amount": 10.5, "date": "2024-01-02"},
			{"amount": "20", "date": "2024-01-03"},
		},
	}

	BeforeEach(func() {
		svc = &mockDatasetService{}
		r = newRouter(&mockWorkspaceService{}, svc, &mockInsightService{}, middleware.RateLimitConfig{})
	})

	Describe("POST /:slug/data", func() {
		It("imports rows and reports the count", func() {
			svc.importFn = func(_ context.Context, req service.ImportRequest) (*service.ImportResult, error) {
				Expect(req.WorkspaceSlug).To(Equal("acme"))
				Expect(req.DatasetName).To(Equal("Sales Jan"))
				Expect(req.Columns).To(Equal([]service.ColumnSpec{
					{Name: "amount", DataType: "currency"},
					{Name: "date", DataType: "date"},
				}))
				Expect(req.Rows).To(HaveLen(2))
				return &service.ImportResult{DatasetID: "ds-1", TableName: "sales_jan", RowCount: 2, ImportRunID: 77}, nil
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/data", insertBody)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["success"]).To(BeTrue())
			Expect(resp["rowCount"]).To(BeNumerically("==", 2))
			Expect(resp["tableName"]).To(Equal("sales_jan"))
			Expect(resp["importRunId"]).To(Equal("77"))
		})

		It("returns 422 with the committed count on partial ingestion", func() {
			svc.importFn = func(context.Context, service.ImportRequest) (*service.ImportResult, error) {
				return &service.ImportResult{RowCount: 1000}, &service.IngestionBatchError{Batch: 2, Inserted: 1000, Err: errors.New("timeout")}
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/data", insertBody)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
			resp := decode(w)
			Expect(resp["success"]).To(BeFalse())
			Expect(resp["rowCount"]).To(BeNumerically("==", 1000))
		})

		DescribeTable("maps service errors",
			func(err error, status int) {
				svc.importFn = func(context.Context, service.ImportRequest) (*service.ImportResult, error) {
					return nil, err
				}

				w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/data", insertBody)

				Expect(w.Code).To(Equal(status))
			},
			Entry("invalid argument", &service.InvalidArgumentError{Field: "columns", Reason: "required"}, http.StatusBadRequest),
			Entry("import in progress", &service.IngestionInProgressError{Namespace: "ws_acme", Table: "sales_jan"}, http.StatusConflict),
			Entry("table conflict", &service.ConflictError{Resource: "dataset", Name: "sales_jan"}, http.StatusConflict),
			Entry("namespace not provisioned", &service.TableCreationError{Namespace: "ws_acme", Table: "sales_jan", Err: store.ErrNamespaceNotFound}, http.StatusNotFound),
			Entry("table creation failure", &service.TableCreationError{Namespace: "ws_acme", Table: "sales_jan", Err: errors.New("denied")}, http.StatusInternalServerError),
		)

		It("keeps integers beyond float64 precision intact", func() {
			var got any
			svc.importFn = func(_ context.Context, req service.ImportRequest) (*service.ImportResult, error) {
				got = req.Rows[0]["id"]
				return &service.ImportResult{RowCount: 1}, nil
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/data", map[string]any{
				"datasetName": "Accounts",
				"columns":     []map[string]string{{"name": "id", "dataType": "integer"}},
				"rows":        json.RawMessage(`[{"id": 9007199254740993}]`),
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got).To(Equal(json.Number("9007199254740993")))
			Expect(ddl.Coerce(model.DataTypeInteger, got)).To(Equal(int64(9007199254740993)))
		})

		It("returns 400 when the dataset name is missing", func() {
			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/data", map[string]any{"columns": []any{}})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		Context("with rate limiting", func() {
			BeforeEach(func() {
				r = newRouter(&mockWorkspaceService{}, svc, &mockInsightService{}, middleware.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
			})

			It("returns 429 once a workspace exhausts its burst", func() {
				first := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/data", insertBody)
				second := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/data", insertBody)
				other := doJSON(r, http.MethodPost, "/api/v1/workspaces/globex/data", insertBody)

				Expect(first.Code).To(Equal(http.StatusOK))
				Expect(second.Code).To(Equal(http.StatusTooManyRequests))
				Expect(second.Header().Get("Retry-After")).NotTo(BeEmpty())
				Expect(other.Code).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("POST /:slug/datasets/:name/query", func() {
		It("passes paging, ordering and filters to the service", func() {
			svc.queryFn = func(_ context.Context, ns, table string, req service.QueryRequest) (*model.QueryResult, error) {
				Expect(ns).To(Equal("ws_acme"))
				Expect(table).To(Equal("sales_jan"))
				Expect(*req.Limit).To(Equal(100))
				Expect(*req.Offset).To(Equal(200))
				Expect(req.OrderBy).To(Equal("amount"))
				Expect(req.OrderDir).To(Equal("desc"))
				Expect(req.Filters).To(Equal([]model.Filter{
					{Column: "amount", Op: model.FilterGte, Value: json.Number("10")},
					{Column: "region", Op: model.FilterEq, Value: "west"},
					{Column: "status", Op: model.FilterIn, Value: []any{"won", "lost"}},
				}))
				return &model.QueryResult{Rows: []model.Row{{"amount": 12}}, TotalCount: 250}, nil
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/datasets/Sales%20Jan/query", map[string]any{
				"limit":    100,
				"offset":   200,
				"orderBy":  "amount",
				"orderDir": "desc",
				"filters": map[string]any{
					"region": "west",
					"amount": map[string]any{"op": "gte", "value": 10},
					"status": []string{"won", "lost"},
				},
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["rows"]).To(HaveLen(1))
			Expect(resp["count"]).To(BeNumerically("==", 250))
		})

		It("keeps large integer filter values exact", func() {
			var got []model.Filter
			svc.queryFn = func(_ context.Context, _, _ string, req service.QueryRequest) (*model.QueryResult, error) {
				got = req.Filters
				return &model.QueryResult{Rows: []model.Row{}}, nil
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/datasets/accounts/query", map[string]any{
				"filters": json.RawMessage(`{"id": 9007199254740993, "ref": {"op": "in", "value": [9007199254740995]}}`),
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got).To(Equal([]model.Filter{
				{Column: "id", Op: model.FilterEq, Value: json.Number("9007199254740993")},
				{Column: "ref", Op: model.FilterIn, Value: []any{json.Number("9007199254740995")}},
			}))
		})

		It("accepts an empty body", func() {
			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/datasets/sales_jan/query", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["rows"]).To(BeEmpty())
			Expect(resp["count"]).To(BeNumerically("==", 0))
		})

		It("returns 400 for a filter without an operator", func() {
			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/datasets/sales_jan/query", map[string]any{
				"filters": map[string]any{"amount": map[string]any{"value": 1}},
			})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when the service rejects the page", func() {
			svc.queryFn = func(context.Context, string, string, service.QueryRequest) (*model.QueryResult, error) {
				return nil, &service.InvalidArgumentError{Field: "offset", Reason: "must not be negative"}
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/acme/datasets/sales_jan/query", map[string]any{"offset": -1})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["error"]).To(ContainSubstring("offset"))
		})

		It("returns 400 when the slug has no usable characters", func() {
			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/%21%21/datasets/sales/query", nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /:slug/datasets", func() {
		It("lists datasets by table name", func() {
			created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
			svc.listFn = func(_ context.Context, ns string) ([]model.Dataset, error) {
				Expect(ns).To(Equal("ws_acme_corp"))
				return []model.Dataset{{ID: "ds-1", TableName: "sales_jan", DisplayName: "Sales Jan", RowCount: 3, CreatedAt: created}}, nil
			}

			w := doJSON(r, http.MethodGet, "/api/v1/workspaces/Acme%20Corp/datasets", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			datasets := decode(w)["datasets"].([]any)
			Expect(datasets).To(HaveLen(1))
			first := datasets[0].(map[string]any)
			Expect(first["name"]).To(Equal("sales_jan"))
			Expect(first["rowCount"]).To(BeNumerically("==", 3))
			Expect(first["createdAt"]).To(Equal("2024-01-02T03:04:05Z"))
		})

		It("returns an empty array rather than null", func() {
			w := doJSON(r, http.MethodGet, "/api/v1/workspaces/acme/datasets", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"datasets":[]`))
		})
	})

	Describe("DELETE /:slug/datasets/:name", func() {
		It("returns success", func() {
			svc.deleteFn = func(_ context.Context, ns, table string) error {
				Expect(ns).To(Equal("ws_acme"))
				Expect(table).To(Equal("sales_jan"))
				return nil
			}

			w := doJSON(r, http.MethodDelete, "/api/v1/workspaces/acme/datasets/sales_jan", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["success"]).To(BeTrue())
		})

		It("reports the failing stage", func() {
			svc.deleteFn = func(context.Context, string, string) error {
				return &service.DeletionError{Stage: service.DeletionStageDropTable, Table: "sales_jan", Err: errors.New("locked")}
			}

			w := doJSON(r, http.MethodDelete, "/api/v1/workspaces/acme/datasets/sales_jan", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			resp := decode(w)
			Expect(resp["success"]).To(BeFalse())
			Expect(resp["stage"]).To(Equal("drop_table"))
		})
	})

	Describe("GET /:slug/imports", func() {
		It("passes the limit through", func() {
			svc.listImportsFn = func(_ context.Context, ns string, limit int) ([]model.ImportRun, error) {
				Expect(limit).To(Equal(5))
				return []model.ImportRun{{ID: 1, Namespace: ns, Status: model.ImportRunStatusSucceeded}}, nil
			}

			w := doJSON(r, http.MethodGet, "/api/v1/workspaces/acme/imports?limit=5", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(strings.Count(w.Body.String(), `"status":"succeeded"`)).To(Equal(1))
		})

		It("returns 400 for a non-numeric limit", func() {
			w := doJSON(r, http.MethodGet, "/api/v1/workspaces/acme/imports?limit=all", nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
