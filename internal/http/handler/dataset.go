package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/dto"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

type DatasetHandler struct {
	datasets service.DatasetService
}

func NewDatasetHandler(datasets service.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasets: datasets}
}

// Insert creates the dataset table when needed and ingests the rows. A
// partially applied import answers 422 with the committed row count.
func (h *DatasetHandler) Insert(c *gin.Context) {
	var req dto.InsertWorkspaceDataRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, "invalid request: datasetName and columns are required")
		return
	}

	res, err := h.datasets.Import(c.Request.Context(), req.ToImportRequest(c.Param("slug")))
	if err != nil {
		writeError(c, err, "failed to insert workspace data")
		return
	}

	c.JSON(http.StatusOK, dto.InsertWorkspaceDataResponse{
		Success:     true,
		RowCount:    res.RowCount,
		DatasetID:   res.DatasetID,
		TableName:   res.TableName,
		ImportRunID: res.ImportRunID,
	})
}

func (h *DatasetHandler) Query(c *gin.Context) {
	namespace, table, ok := target(c)
	if !ok {
		return
	}

	var req dto.QueryWorkspaceDataRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	q, err := req.ToQueryRequest()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.datasets.Query(c.Request.Context(), namespace, table, q)
	if err != nil {
		writeError(c, err, "failed to query workspace data")
		return
	}

	c.JSON(http.StatusOK, dto.QueryWorkspaceDataResponse{Rows: res.Rows, Count: res.TotalCount})
}

func (h *DatasetHandler) List(c *gin.Context) {
	namespace, ok := workspaceNamespace(c)
	if !ok {
		return
	}

	datasets, err := h.datasets.List(c.Request.Context(), namespace)
	if err != nil {
		writeError(c, err, "failed to list workspace datasets")
		return
	}

	c.JSON(http.StatusOK, dto.ToListWorkspaceDatasetsResponse(datasets))
}

func (h *DatasetHandler) Delete(c *gin.Context) {
	namespace, table, ok := target(c)
	if !ok {
		return
	}

	if err := h.datasets.Delete(c.Request.Context(), namespace, table); err != nil {
		writeError(c, err, "failed to delete workspace dataset")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *DatasetHandler) ListImports(c *gin.Context) {
	namespace, ok := workspaceNamespace(c)
	if !ok {
		return
	}

	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	runs, err := h.datasets.ListImports(c.Request.Context(), namespace, limit)
	if err != nil {
		writeError(c, err, "failed to list imports")
		return
	}

	c.JSON(http.StatusOK, dto.ImportRunsResponse{Imports: runs})
}
