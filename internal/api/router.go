package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func NewRouter(service SyncJobService, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := NewSyncJobHandler(service, logger)
	v1 := r.Group("/api/v1", IdentityMiddleware())
	{
		v1.POST("/integrations/:configId/sync", handler.StartSync)
		v1.GET("/sync-jobs/:jobId", handler.GetJob)
		v1.GET("/sync-jobs", handler.ListJobs)
	}
	return r
}
