package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-assistant-platform/internal/app"
	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/internal/telemetry"
	"rag-assistant-platform/models"
	"rag-assistant-platform/services"
	"rag-assistant-platform/utils"
)

// SetupQueryRoutes registers the question answering endpoint.
func SetupQueryRoutes(router *gin.Engine, session *app.Session, metrics *telemetry.Metrics) {
	router.POST("/query", HandleQuery(session, metrics))
}

// HandleQuery runs retrieval-augmented answering over the indexed
// documents and returns the answer together with its sources.
func HandleQuery(session *app.Session, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		answer, err := session.Chain.Ask(c.Request.Context(), req.Question, req.Language, req.TenantID)
		if err != nil {
			logger.Error("query failed", "error", err, "request_id", c.GetString("request_id"))
			if kind := generationErrorKind(err); kind != "" {
				metrics.RecordGenerationError(kind)
			}
			utils.MapServiceError(c, err)
			return
		}

		language := req.Language
		if language == "" {
			language = services.LanguageAuto
		}
		metrics.RecordQuery(language, answer.Text != services.NoRelevantInformation)

		c.JSON(http.StatusOK, models.QueryResponse{
			Answer:  answer.Text,
			Sources: answer.Sources,
		})
	}
}

// generationErrorKind classifies provider failures for metrics; other
// errors return "" and are not counted as generation errors.
func generationErrorKind(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "timeout"
	case errors.Is(err, services.ErrGenerationProvider):
		return "provider"
	}
	return ""
}
