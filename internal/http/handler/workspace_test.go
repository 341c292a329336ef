package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/handler"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/middleware"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/router"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

// newRouter mounts the workspace routes over the given service mocks.
func newRouter(ws *mockWorkspaceService, ds *mockDatasetService, in *mockInsightService, rl middleware.RateLimitConfig) *gin.Engine {
	r := gin.New()
	router.WorkspaceRouter(
		r.Group("/api/v1/workspaces"),
		handler.NewWorkspaceHandler(ws),
		handler.NewDatasetHandler(ds),
		handler.NewInsightHandler(in),
		rl,
	)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp
}

var _ = Describe("WorkspaceHandler", func() {
	var (
		r   *gin.Engine
		svc *mockWorkspaceService
	)

	BeforeEach(func() {
		svc = &mockWorkspaceService{}
		r = newRouter(svc, &mockDatasetService{}, &mockInsightService{}, middleware.RateLimitConfig{})
	})

	Describe("POST /schema", func() {
		It("returns the schema name on success", func() {
			svc.provisionFn = func(_ context.Context, req service.ProvisionRequest) (*model.Workspace, error) {
				Expect(req.WorkspaceID).To(Equal("w-1"))
				Expect(req.Slug).To(Equal("Acme Corp!"))
				Expect(req.Name).To(Equal("Acme Corp"))
				return &model.Workspace{ID: "w-1", Namespace: "ws_acme_corp"}, nil
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/schema", map[string]string{
				"workspaceId":   "w-1",
				"workspaceSlug": "Acme Corp!",
				"workspaceName": "Acme Corp",
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["success"]).To(BeTrue())
			Expect(resp["schemaName"]).To(Equal("ws_acme_corp"))
		})

		It("returns 400 when required fields are missing", func() {
			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/schema", map[string]string{"workspaceId": "w-1"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["success"]).To(BeFalse())
		})

		DescribeTable("maps service errors",
			func(err error, status int) {
				svc.provisionFn = func(context.Context, service.ProvisionRequest) (*model.Workspace, error) {
					return nil, err
				}

				w := doJSON(r, http.MethodPost, "/api/v1/workspaces/schema", map[string]string{
					"workspaceId":   "w-1",
					"workspaceSlug": "acme",
				})

				Expect(w.Code).To(Equal(status))
				resp := decode(w)
				Expect(resp["success"]).To(BeFalse())
				Expect(resp["error"]).NotTo(BeEmpty())
			},
			Entry("invalid name", &service.InvalidNameError{Field: "workspaceSlug", Raw: "!!"}, http.StatusBadRequest),
			Entry("conflict", &service.ConflictError{Resource: "workspace namespace", Name: "ws_acme"}, http.StatusConflict),
			Entry("provisioning failure", &service.ProvisionError{Namespace: "ws_acme", Err: errors.New("denied")}, http.StatusInternalServerError),
		)

		It("does not leak internal error details", func() {
			svc.provisionFn = func(context.Context, service.ProvisionRequest) (*model.Workspace, error) {
				return nil, &service.ProvisionError{Namespace: "ws_acme", Err: errors.New("password authentication failed")}
			}

			w := doJSON(r, http.MethodPost, "/api/v1/workspaces/schema", map[string]string{
				"workspaceId":   "w-1",
				"workspaceSlug": "acme",
			})

			Expect(w.Body.String()).NotTo(ContainSubstring("password"))
		})
	})

	Describe("GET /:slug", func() {
		It("returns the registry entry", func() {
			svc.getFn = func(_ context.Context, slug string) (*model.Workspace, error) {
				return &model.Workspace{ID: "w-1", Slug: slug, Namespace: "ws_acme", Status: model.WorkspaceStatusActive}, nil
			}

			w := doJSON(r, http.MethodGet, "/api/v1/workspaces/acme", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["namespace"]).To(Equal("ws_acme"))
			Expect(resp["status"]).To(Equal("active"))
		})

		It("returns 404 for unknown workspaces", func() {
			w := doJSON(r, http.MethodGet, "/api/v1/workspaces/ghost", nil)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /", func() {
		It("lists the registry", func() {
			svc.listFn = func(_ context.Context, limit int) ([]model.Workspace, error) {
				Expect(limit).To(Equal(10))
				return []model.Workspace{
					{ID: "w-1", Namespace: "ws_acme", Status: model.WorkspaceStatusActive},
					{ID: "w-2", Namespace: "ws_gone", Status: model.WorkspaceStatusInactive},
				}, nil
			}

			w := doJSON(r, http.MethodGet, "/api/v1/workspaces?limit=10", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			workspaces := decode(w)["workspaces"].([]any)
			Expect(workspaces).To(HaveLen(2))
			Expect(workspaces[1].(map[string]any)["status"]).To(Equal("inactive"))
		})

		It("returns an empty array rather than null", func() {
			w := doJSON(r, http.MethodGet, "/api/v1/workspaces", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"workspaces":[]`))
		})
	})
})
