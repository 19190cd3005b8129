package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
	"github.com/vipul43/portfolio-sync-worker/internal/watcher"
)

type SyncJobService interface {
	EnqueueSync(ctx context.Context, userID, organizationID, integrationConfigID string) (models.SyncJob, error)
	GetJobStatus(jobID string) (models.SyncJob, bool)
	ListJobsForUser(userID string) []models.SyncJob
}

type SyncJobHandler struct {
	service SyncJobService
	logger  *logrus.Logger
}

func NewSyncJobHandler(service SyncJobService, logger *logrus.Logger) *SyncJobHandler {
	return &SyncJobHandler{service: service, logger: logger}
}

func (h *SyncJobHandler) StartSync(c *gin.Context) {
	userID := c.GetString(contextUserID)
	organizationID := c.GetString(contextOrganizationID)

	job, err := h.service.EnqueueSync(c.Request.Context(), userID, organizationID, c.Param("configId"))
	switch {
	case errors.Is(err, watcher.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, watcher.ErrWatcherStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync worker is shutting down"})
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to enqueue sync job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue sync job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (h *SyncJobHandler) GetJob(c *gin.Context) {
	job, ok := h.service.GetJobStatus(c.Param("jobId"))
	// jobs of other users are reported as missing
	if !ok || job.UserID != c.GetString(contextUserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *SyncJobHandler) ListJobs(c *gin.Context) {
	userID := c.GetString(contextUserID)
	if q := c.Query("user_id"); q != "" && q != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot list jobs of another user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": h.service.ListJobsForUser(userID)})
}
