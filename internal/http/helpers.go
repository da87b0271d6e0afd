package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/services"
)

// maxUploadSize caps multipart file uploads.
const maxUploadSize = 32 << 20

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns 0 when no user is authenticated.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "validation"})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, log *logger.Logger, err error, op string) {
	log.Error("Internal error", "op", op, "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps a service error onto a status code. Store and
// upstream failures are logged; their cause is never sent to the client.
func respondServiceError(c *gin.Context, log *logger.Logger, err error, op string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: apperr.Message(err), Code: "not_found"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: apperr.Message(err), Code: "conflict"})
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: apperr.Message(err), Code: "validation"})
	case errors.Is(err, apperr.ErrUnavailable):
		log.Warn("Dependency unavailable", "op", op, "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: apperr.Message(err), Code: "unavailable"})
	default:
		respondInternalError(c, log, err, op)
	}
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// respondListOrNoContent sends 204 for an empty slice and 200 otherwise.
func respondListOrNoContent(c *gin.Context, list any) {
	v := reflect.ValueOf(list)
	if !v.IsValid() || (v.Kind() == reflect.Slice && v.Len() == 0) {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseQueryID extracts and validates an unsigned integer ID from query parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseQueryID(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		respondBadRequest(c, paramName+" is required")
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// formID reads an ID from a form field, falling back to the query string.
func formID(c *gin.Context, names ...string) (uint, bool) {
	for _, name := range names {
		raw := c.PostForm(name)
		if raw == "" {
			raw = c.Query(name)
		}
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid "+name)
			return 0, false
		}
		return uint(id), true
	}
	respondBadRequest(c, names[0]+" is required")
	return 0, false
}

// formTags collects tags sent as repeated fields or as a comma separated list.
// The second result is false when the field was absent.
func formTags(c *gin.Context) ([]string, bool) {
	values, present := c.GetPostFormArray("tags")
	if !present {
		return nil, false
	}
	var tags []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				tags = append(tags, p)
			}
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, true
}

// openUpload returns the named multipart file, or nil when it was not sent.
// The caller closes the returned reader.
func openUpload(c *gin.Context, field string) (*services.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return uploadFromHeader(fh)
}

func uploadFromHeader(fh *multipart.FileHeader) (*services.Upload, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	}, f, nil
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
}

// actorID returns the user an action is performed for: the explicit form or
// query value when present, otherwise the authenticated user.
func actorID(c *gin.Context, names ...string) (uint, bool) {
	for _, name := range names {
		if c.PostForm(name) != "" || c.Query(name) != "" {
			return formID(c, name)
		}
	}
	if id := GetUserID(c); id != 0 {
		return id, true
	}
	respondBadRequest(c, names[0]+" is required")
	return 0, false
}
