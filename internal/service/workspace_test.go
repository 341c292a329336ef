package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

var _ = Describe("WorkspaceService", func() {
	var (
		svc            service.WorkspaceService
		workspaceStore *mockWorkspaceStore
		namespaceStore *mockNamespaceStore
		ctx            context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		workspaceStore = &mockWorkspaceStore{}
		namespaceStore = &mockNamespaceStore{}
		svc = service.NewWorkspaceService(workspaceStore, namespaceStore, 0)
	})

	Describe("Provision", func() {
		It("should derive the namespace from the slug", func() {
			ws, err := svc.Provision(ctx, service.ProvisionRequest{
				WorkspaceID: "w-1",
				Slug:        "Acme Corp!",
				Name:        "Acme Corp",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(ws.Namespace).To(Equal("ws_acme_corp"))
			Expect(ws.Status).To(Equal(model.WorkspaceStatusActive))
			Expect(namespaceStore.provisioned).To(ConsistOf("ws_acme_corp"))
		})

		It("should fall back to the slug when no name is given", func() {
			ws, err := svc.Provision(ctx, service.ProvisionRequest{WorkspaceID: "w-1", Slug: "acme"})

			Expect(err).NotTo(HaveOccurred())
			Expect(ws.Name).To(Equal("acme"))
		})

		It("should be idempotent for the same workspace", func() {
			registry := map[string]*model.Workspace{}
			workspaceStore.getByNamespaceFn = func(_ context.Context, ns string) (*model.Workspace, error) {
				if ws, ok := registry[ns]; ok {
					return ws, nil
				}
				return nil, store.ErrNotFound
			}
			workspaceStore.getByIDFn = func(_ context.Context, id string) (*model.Workspace, error) {
				for _, ws := range registry {
					if ws.ID == id {
						return ws, nil
					}
				}
				return nil, store.ErrNotFound
			}
			workspaceStore.upsertFn = func(_ context.Context, ws *model.Workspace) (*model.Workspace, error) {
				registry[ws.Namespace] = ws
				return ws, nil
			}

			req := service.ProvisionRequest{WorkspaceID: "w-1", Slug: "acme", Name: "Acme"}
			first, err := svc.Provision(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Provision(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Namespace).To(Equal(first.Namespace))
			Expect(registry).To(HaveLen(1))
			Expect(namespaceStore.provisionCalls).To(Equal(2))
		})

		Context("when the request is invalid", func() {
			DescribeTable("should reject before touching storage",
				func(req service.ProvisionRequest, target any) {
					_, err := svc.Provision(ctx, req)

					Expect(err).To(HaveOccurred())
					Expect(errors.As(err, target)).To(BeTrue())
					Expect(namespaceStore.provisionCalls).To(BeZero())
					Expect(workspaceStore.upsertCalls).To(BeZero())
				},
				Entry("missing workspace id", service.ProvisionRequest{Slug: "acme"}, new(*service.InvalidArgumentError)),
				Entry("missing slug", service.ProvisionRequest{WorkspaceID: "w-1"}, new(*service.InvalidArgumentError)),
				Entry("slug without usable characters", service.ProvisionRequest{WorkspaceID: "w-1", Slug: "!!!"}, new(*service.InvalidNameError)),
			)
		})

		Context("when another workspace already owns the namespace", func() {
			It("should return a conflict", func() {
				workspaceStore.getByNamespaceFn = func(_ context.Context, ns string) (*model.Workspace, error) {
					return &model.Workspace{ID: "w-other", Namespace: ns}, nil
				}

				_, err := svc.Provision(ctx, service.ProvisionRequest{WorkspaceID: "w-1", Slug: "ACME"})

				var conflict *service.ConflictError
				Expect(errors.As(err, &conflict)).To(BeTrue())
				Expect(conflict.Name).To(Equal("ws_acme"))
				Expect(namespaceStore.provisionCalls).To(BeZero())
			})
		})

		Context("when the workspace was provisioned under another slug", func() {
			It("should refuse to move the namespace", func() {
				workspaceStore.getByIDFn = func(_ context.Context, id string) (*model.Workspace, error) {
					return &model.Workspace{ID: id, Namespace: "ws_old"}, nil
				}

				_, err := svc.Provision(ctx, service.ProvisionRequest{WorkspaceID: "w-1", Slug: "new"})

				var conflict *service.ConflictError
				Expect(errors.As(err, &conflict)).To(BeTrue())
			})
		})

		Context("when namespace creation fails", func() {
			It("should return a ProvisionError", func() {
				cause := errors.New("permission denied")
				namespaceStore.provisionFn = func(_ context.Context, _ string) error { return cause }

				_, err := svc.Provision(ctx, service.ProvisionRequest{WorkspaceID: "w-1", Slug: "acme"})

				var provErr *service.ProvisionError
				Expect(errors.As(err, &provErr)).To(BeTrue())
				Expect(provErr.Namespace).To(Equal("ws_acme"))
				Expect(err).To(MatchError(cause))
				Expect(workspaceStore.upsertCalls).To(BeZero())
			})
		})

		Context("when the registry write fails", func() {
			It("should still report success", func() {
				workspaceStore.upsertFn = func(_ context.Context, _ *model.Workspace) (*model.Workspace, error) {
					return nil, errors.New("registry down")
				}

				ws, err := svc.Provision(ctx, service.ProvisionRequest{WorkspaceID: "w-1", Slug: "acme"})

				Expect(err).NotTo(HaveOccurred())
				Expect(ws.Namespace).To(Equal("ws_acme"))
				Expect(ws.CreatedAt).NotTo(BeZero())
			})
		})
	})

	Describe("Get", func() {
		It("should look the workspace up by namespace", func() {
			workspaceStore.getByNamespaceFn = func(_ context.Context, ns string) (*model.Workspace, error) {
				Expect(ns).To(Equal("ws_acme"))
				return &model.Workspace{ID: "w-1", Namespace: ns}, nil
			}

			ws, err := svc.Get(ctx, "Acme")

			Expect(err).NotTo(HaveOccurred())
			Expect(ws.ID).To(Equal("w-1"))
		})

		It("should return NotFoundError for unknown workspaces", func() {
			_, err := svc.Get(ctx, "ghost")

			var notFound *service.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("should report a workspace whose namespace is gone as inactive", func() {
			workspaceStore.getByNamespaceFn = func(_ context.Context, ns string) (*model.Workspace, error) {
				return &model.Workspace{ID: "w-1", Namespace: ns, Status: model.WorkspaceStatusActive}, nil
			}

			ws, err := svc.Get(ctx, "acme")

			Expect(err).NotTo(HaveOccurred())
			Expect(ws.Status).To(Equal(model.WorkspaceStatusInactive))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			namespaceStore.provisioned = []string{"ws_acme"}
			workspaceStore.listFn = func(_ context.Context, _ int) ([]model.Workspace, error) {
				return []model.Workspace{
					{ID: "w-1", Namespace: "ws_acme", Status: model.WorkspaceStatusActive},
					{ID: "w-2", Namespace: "ws_dropped", Status: model.WorkspaceStatusActive},
				}, nil
			}
		})

		It("should reconcile status against the namespaces", func() {
			list, err := svc.List(ctx, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].Status).To(Equal(model.WorkspaceStatusActive))
			Expect(list[1].Status).To(Equal(model.WorkspaceStatusInactive))
		})

		It("should keep the recorded status when the check fails", func() {
			namespaceStore.existsFn = func(context.Context, string) (bool, error) {
				return false, errors.New("catalog unavailable")
			}

			list, err := svc.List(ctx, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(list[1].Status).To(Equal(model.WorkspaceStatusActive))
		})

		DescribeTable("should normalize the limit",
			func(requested, expected int) {
				var got int
				workspaceStore.listFn = func(_ context.Context, limit int) ([]model.Workspace, error) {
					got = limit
					return nil, nil
				}

				_, err := svc.List(ctx, requested)

				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(expected))
			},
			Entry("default", 0, 100),
			Entry("within range", 25, 25),
			Entry("capped", 5000, 1000),
		)

		It("should reject a negative limit", func() {
			_, err := svc.List(ctx, -1)

			var invalid *service.InvalidArgumentError
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})
})
