package routes

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rag-assistant-platform/internal/app"
	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/internal/queue"
	"rag-assistant-platform/internal/telemetry"
	"rag-assistant-platform/models"
	"rag-assistant-platform/services"
	"rag-assistant-platform/utils"
)

// SetupUploadRoutes registers document ingestion endpoints.
func SetupUploadRoutes(router *gin.Engine, session *app.Session, metrics *telemetry.Metrics) {
	router.POST("/upload", HandleUpload(session, metrics))
	router.DELETE("/documents", HandleClearDocuments(session))
}

// HandleUpload accepts a multipart document upload. Small files are
// processed synchronously; larger ones are queued and answered with 202.
func HandleUpload(session *app.Session, metrics *telemetry.Metrics) gin.HandlerFunc {
	cfg := session.Cfg

	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithBadRequest(c, "Invalid multipart form", gin.H{"error": err.Error()})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}
		defer file.Close()

		if header.Size == 0 {
			utils.MapServiceError(c, services.ErrEmptyDocument)
			return
		}
		if header.Size > cfg.MaxFileSize {
			utils.MapServiceError(c, services.ErrOversizedUpload)
			return
		}

		sourceName := filepath.Base(header.Filename)
		if !services.SupportedFormat(sourceName) {
			utils.MapServiceError(c, services.ErrUnsupportedFormat)
			return
		}

		tenantID := strings.TrimSpace(c.PostForm("tenant_id"))

		if err := os.MkdirAll(cfg.FileStorageDir, 0755); err != nil {
			utils.RespondWithInternalError(c, "Failed to create upload directory", nil)
			return
		}

		// uuid prefix avoids collisions between same-named uploads
		storedPath := filepath.Join(cfg.FileStorageDir,
			fmt.Sprintf("%s_%s", uuid.NewString(), sourceName))

		dst, err := os.OpenFile(storedPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to save upload", nil)
			return
		}
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			os.Remove(storedPath)
			utils.RespondWithInternalError(c, "Failed to save upload", nil)
			return
		}
		dst.Close()

		// Large uploads go through the task queue.
		if header.Size > cfg.SyncProcessingLimit {
			task, err := queue.NewIngestTask(storedPath, sourceName, tenantID)
			if err != nil {
				os.Remove(storedPath)
				utils.RespondWithInternalError(c, "Failed to create ingestion task", nil)
				return
			}
			info, err := session.AsynqClient.Enqueue(task)
			if err != nil {
				os.Remove(storedPath)
				utils.RespondWithInternalError(c, "Failed to enqueue ingestion task", nil)
				return
			}

			logger.Info("upload queued", "source", sourceName, "task_id", info.ID, "size", header.Size)
			c.JSON(http.StatusAccepted, models.UploadResponse{
				Message: "Document queued for processing",
				TaskID:  info.ID,
			})
			return
		}

		chunks, err := session.Ingest.IngestFile(c.Request.Context(), storedPath, sourceName, tenantID)
		os.Remove(storedPath)
		if err != nil {
			utils.MapServiceError(c, err)
			return
		}

		metrics.RecordIngest(strings.ToLower(filepath.Ext(sourceName)), int64(chunks))

		c.JSON(http.StatusOK, models.UploadResponse{
			Message: "Document processed successfully",
			Chunks:  chunks,
		})
	}
}

// HandleClearDocuments removes every indexed chunk for a tenant.
func HandleClearDocuments(session *app.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.Query("tenant_id"))

		deleted, err := session.Ingest.Clear(c.Request.Context(), tenantID)
		if err != nil {
			utils.MapServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Documents cleared",
			"deleted": deleted,
		})
	}
}
