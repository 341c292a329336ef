package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pinn-product-builder/pinnbai-sub001/common/ident"
	"github.com/pinn-product-builder/pinnbai-sub001/common/logger"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

type ProvisionRequest struct {
	WorkspaceID string
	Slug        string
	Name        string
}

type WorkspaceService interface {
	// Provision creates the workspace namespace and records it in the
	// registry. It is idempotent per workspace ID.
	Provision(ctx context.Context, req ProvisionRequest) (*model.Workspace, error)
	Get(ctx context.Context, slug string) (*model.Workspace, error)
	// List returns registry entries. Entries whose namespace is gone are
	// reported inactive.
	List(ctx context.Context, limit int) ([]model.Workspace, error)
}

const (
	defaultWorkspaceListLimit = 100
	maxWorkspaceListLimit     = 1000
)

type workspaceService struct {
	workspaces store.WorkspaceStore
	namespaces store.NamespaceStore
	timeout    time.Duration
}

func NewWorkspaceService(workspaces store.WorkspaceStore, namespaces store.NamespaceStore, timeout time.Duration) WorkspaceService {
	return &workspaceService{
		workspaces: workspaces,
		namespaces: namespaces,
		timeout:    timeout,
	}
}

func (s *workspaceService) Provision(ctx context.Context, req ProvisionRequest) (*model.Workspace, error) {
	workspaceID := strings.TrimSpace(req.WorkspaceID)
	if workspaceID == "" {
		return nil, &InvalidArgumentError{Field: "workspaceId", Reason: "is required"}
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, &InvalidArgumentError{Field: "workspaceSlug", Reason: "is required"}
	}
	namespace, err := ident.Namespace(req.Slug)
	if err != nil {
		return nil, &InvalidNameError{Field: "workspaceSlug", Raw: req.Slug}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.Slug
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceSlug: logger.Ptr(req.Slug),
		Namespace:     logger.Ptr(namespace),
		Component:     "pinn.service.workspace",
	})
	sc := logger.StartSpan(ctx, "workspace.provision", attribute.String("namespace", namespace))
	defer sc.End()
	ctx = sc.Context()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.checkRegistry(ctx, workspaceID, namespace); err != nil {
		return nil, err
	}

	if err := s.namespaces.Provision(ctx, namespace); err != nil {
		sc.RecordError(err)
		return nil, &ProvisionError{Namespace: namespace, Err: err}
	}

	ws := &model.Workspace{
		ID:        workspaceID,
		Name:      name,
		Slug:      req.Slug,
		Namespace: namespace,
		Status:    model.WorkspaceStatusActive,
	}

	// The namespace is authoritative; the registry is an index.
	saved, err := s.workspaces.Upsert(ctx, ws)
	if err != nil {
		slog.ErrorContext(ctx, "workspace registry upsert failed; namespace is provisioned",
			"workspace_id", workspaceID,
			"error", err)
		now := time.Now()
		ws.CreatedAt, ws.UpdatedAt = now, now
		return ws, nil
	}

	slog.InfoContext(ctx, "workspace provisioned", "workspace_id", workspaceID)
	return saved, nil
}

// checkRegistry rejects slugs whose namespace belongs to another workspace
// and slug changes that would move an existing workspace to a new namespace.
// Registry read failures are logged and ignored.
func (s *workspaceService) checkRegistry(ctx context.Context, workspaceID, namespace string) error {
	owner, err := s.workspaces.GetByNamespace(ctx, namespace)
	switch {
	case err == nil && owner.ID != workspaceID:
		return &ConflictError{
			Resource: "workspace namespace",
			Name:     namespace,
			Reason:   "already provisioned for another workspace",
		}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		slog.WarnContext(ctx, "workspace registry lookup failed", "error", err)
		return nil
	}

	existing, err := s.workspaces.GetByID(ctx, workspaceID)
	switch {
	case err == nil && existing.Namespace != namespace:
		return &ConflictError{
			Resource: "workspace",
			Name:     workspaceID,
			Reason:   "already provisioned as " + existing.Namespace + "; a namespace never changes",
		}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		slog.WarnContext(ctx, "workspace registry lookup failed", "error", err)
	}
	return nil
}

func (s *workspaceService) Get(ctx context.Context, slug string) (*model.Workspace, error) {
	namespace, err := ident.Namespace(slug)
	if err != nil {
		return nil, &InvalidNameError{Field: "workspaceSlug", Raw: slug}
	}

	ws, err := s.workspaces.GetByNamespace(ctx, namespace)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "workspace", Name: slug}
		}
		return nil, err
	}
	s.reconcileStatus(ctx, ws)
	return ws, nil
}

func (s *workspaceService) List(ctx context.Context, limit int) ([]model.Workspace, error) {
	switch {
	case limit < 0:
		return nil, &InvalidArgumentError{Field: "limit", Reason: "must not be negative"}
	case limit == 0:
		limit = defaultWorkspaceListLimit
	case limit > maxWorkspaceListLimit:
		limit = maxWorkspaceListLimit
	}

	workspaces, err := s.workspaces.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		s.reconcileStatus(ctx, &workspaces[i])
	}
	return workspaces, nil
}

// reconcileStatus marks ws inactive when its namespace no longer exists.
func (s *workspaceService) reconcileStatus(ctx context.Context, ws *model.Workspace) {
	exists, err := s.namespaces.Exists(ctx, ws.Namespace)
	if err != nil {
		slog.WarnContext(ctx, "namespace existence check failed",
			"namespace", ws.Namespace,
			"error", err)
		return
	}
	if !exists {
		ws.Status = model.WorkspaceStatusInactive
	}
}
