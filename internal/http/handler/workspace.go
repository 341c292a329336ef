package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/dto"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

type WorkspaceHandler struct {
	workspaces service.WorkspaceService
}

func NewWorkspaceHandler(workspaces service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces}
}

// CreateSchema provisions the namespace for a workspace. Repeating the call
// for the same workspace succeeds.
func (h *WorkspaceHandler) CreateSchema(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateWorkspaceSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: workspaceId and workspaceSlug are required")
		return
	}

	ws, err := h.workspaces.Provision(ctx, service.ProvisionRequest{
		WorkspaceID: req.WorkspaceID,
		Slug:        req.WorkspaceSlug,
		Name:        req.WorkspaceName,
	})
	if err != nil {
		writeError(c, err, "failed to create workspace schema")
		return
	}

	slog.InfoContext(ctx, "workspace schema ready via API",
		"workspace_id", ws.ID,
		"namespace", ws.Namespace)

	c.JSON(http.StatusOK, dto.CreateWorkspaceSchemaResponse{
		Success:    true,
		SchemaName: ws.Namespace,
	})
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	ws, err := h.workspaces.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err, "failed to get workspace")
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) List(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	workspaces, err := h.workspaces.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err, "failed to list workspaces")
		return
	}

	resp := dto.ListWorkspacesResponse{Workspaces: make([]*dto.WorkspaceResponse, 0, len(workspaces))}
	for i := range workspaces {
		resp.Workspaces = append(resp.Workspaces, dto.ToWorkspaceResponse(&workspaces[i]))
	}
	c.JSON(http.StatusOK, resp)
}
