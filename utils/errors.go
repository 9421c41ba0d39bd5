package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-assistant-platform/services"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// MapServiceError translates pipeline errors into HTTP responses. Every
// handler funnels failures through here so status codes stay uniform.
func MapServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoDocumentsIndexed):
		RespondWithError(c, http.StatusNotFound, "no_documents_indexed",
			"No documents have been indexed yet. Upload a document first.", nil)
	case errors.Is(err, services.ErrIndexNotFound):
		RespondWithError(c, http.StatusNotFound, "index_not_found",
			"The document index does not exist.", nil)
	case errors.Is(err, services.ErrUnsupportedFormat):
		RespondWithBadRequest(c, "Unsupported document format.", nil)
	case errors.Is(err, services.ErrEmptyDocument):
		RespondWithBadRequest(c, "Document contains no extractable text.", nil)
	case errors.Is(err, services.ErrOversizedUpload):
		RespondWithError(c, http.StatusRequestEntityTooLarge, "upload_too_large",
			"Uploaded file exceeds the maximum allowed size.", nil)
	case errors.Is(err, services.ErrIndexAlreadyExists):
		RespondWithError(c, http.StatusConflict, "index_already_exists",
			"The document index already contains data.", nil)
	case errors.Is(err, services.ErrTimeout):
		RespondWithError(c, http.StatusGatewayTimeout, "upstream_timeout",
			"The AI provider did not respond in time.", nil)
	case errors.Is(err, services.ErrGenerationProvider):
		RespondWithError(c, http.StatusBadGateway, "provider_error",
			"The AI provider failed to handle the request.", nil)
	default:
		RespondWithInternalError(c, "An unexpected error occurred.", nil)
	}
}
