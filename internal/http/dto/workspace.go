package dto

import (
	"time"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

type CreateWorkspaceSchemaRequest struct {
	WorkspaceID   string `json:"workspaceId" binding:"required"`
	WorkspaceSlug string `json:"workspaceSlug" binding:"required"`
	WorkspaceName string `json:"workspaceName"`
}

type CreateWorkspaceSchemaResponse struct {
	Success    bool   `json:"success"`
	SchemaName string `json:"schemaName"`
}

type WorkspaceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Namespace string    `json:"namespace"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToWorkspaceResponse(ws *model.Workspace) *WorkspaceResponse {
	return &WorkspaceResponse{
		ID:        ws.ID,
		Name:      ws.Name,
		Slug:      ws.Slug,
		Namespace: ws.Namespace,
		Status:    string(ws.Status),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}

type ListWorkspacesResponse struct {
	Workspaces []*WorkspaceResponse `json:"workspaces"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	RowCount *int64 `json:"rowCount,omitempty"`
	Stage    string `json:"stage,omitempty"`
}
