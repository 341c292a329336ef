package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/pinn-product-builder/pinnbai-sub001/common/ident"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/dto"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

// statusFor maps service errors onto HTTP status codes. Unknown errors are
// internal.
func statusFor(err error) int {
	var (
		batchErr    *service.IngestionBatchError
		argErr      *service.InvalidArgumentError
		nameErr     *service.InvalidNameError
		notFound    *service.NotFoundError
		conflict    *service.ConflictError
		inProgress  *service.IngestionInProgressError
		creationErr *service.TableCreationError
	)

	switch {
	case errors.As(err, &batchErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &argErr), errors.As(err, &nameErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &creationErr) && errors.Is(err, store.ErrNamespaceNotFound):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &inProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsightsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {success: false, error}. Internal errors are
// logged and replaced by msg so storage details never reach the client.
func writeError(c *gin.Context, err error, msg string) {
	ctx := c.Request.Context()
	status := statusFor(err)
	resp := dto.ErrorResponse{Success: false, Error: err.Error()}

	var batchErr *service.IngestionBatchError
	if errors.As(err, &batchErr) {
		resp.RowCount = &batchErr.Inserted
	}
	var delErr *service.DeletionError
	if errors.As(err, &delErr) {
		resp.Stage = string(delErr.Stage)
	}

	switch {
	case status >= http.StatusInternalServerError:
		slog.ErrorContext(ctx, msg, "error", err)
		if status == http.StatusInternalServerError {
			resp.Error = msg
		}
	case status == http.StatusNotFound:
		slog.DebugContext(ctx, msg, "error", err)
	default:
		slog.WarnContext(ctx, msg, "error", err)
	}

	_ = c.Error(err)
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: msg})
}

// target resolves the :slug and :name path parameters into a namespace and
// a table identifier, writing a 400 when either sanitizes to nothing.
func target(c *gin.Context) (namespace, table string, ok bool) {
	namespace, ok = workspaceNamespace(c)
	if !ok {
		return "", "", false
	}
	name := c.Param("name")
	table, err := ident.Identifier(name)
	if err != nil {
		writeError(c, &service.InvalidNameError{Field: "datasetName", Raw: name}, "invalid dataset name")
		return "", "", false
	}
	return namespace, table, true
}

func workspaceNamespace(c *gin.Context) (string, bool) {
	slug := c.Param("slug")
	namespace, err := ident.Namespace(slug)
	if err != nil {
		writeError(c, &service.InvalidNameError{Field: "workspaceSlug", Raw: slug}, "invalid workspace slug")
		return "", false
	}
	return namespace, true
}

// queryLimit reads the optional ?limit parameter. Zero means the service
// default.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "limit must be an integer")
		return 0, false
	}
	return n, true
}

// bindJSON is ShouldBindJSON with numbers decoded as json.Number, so integers
// beyond 2^53 reach coercion intact.
func bindJSON(c *gin.Context, obj any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}
