// Package httpapi exposes the capture and sync surface to local UI
// collaborators over HTTP. It runs on localhost only; there is no auth
// layer, remote exposure is the deployment's problem to prevent.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inqbatorchris/fieldsync/internal/common"
	"github.com/inqbatorchris/fieldsync/internal/logging"
	"github.com/inqbatorchris/fieldsync/internal/models"
	"github.com/inqbatorchris/fieldsync/internal/services"
)

// SyncTrigger schedules a queue drain. *syncer.Engine satisfies it.
type SyncTrigger interface {
	TriggerSync(ctx context.Context)
}

// OnlineReporter reports settled connectivity. *connectivity.Monitor
// satisfies it.
type OnlineReporter interface {
	Online() bool
}

type server struct {
	svc     *services.CaptureService
	trigger SyncTrigger
	online  OnlineReporter
	log     logging.Logger

	// drains started over HTTP must not die with the request
	baseCtx context.Context
}

// NewRouter builds the gin router over the capture service and sync engine.
// baseCtx bounds background work started by handlers; pass the process
// lifetime context.
func NewRouter(baseCtx context.Context, svc *services.CaptureService, trigger SyncTrigger, online OnlineReporter, log logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &server{svc: svc, trigger: trigger, online: online, log: log, baseCtx: baseCtx}

	api := r.Group("/api")
	api.GET("/entities/unsynced", s.listUnsynced)
	api.GET("/entities/:id/status", s.entityStatus)
	api.GET("/photos/:id", s.photo)
	api.POST("/sync", s.triggerSync)
	api.GET("/queue/failed", s.failedEntries)
	api.POST("/queue/:sequence/retry", s.retryEntry)
	api.GET("/health", s.health)

	return r
}

func (s *server) listUnsynced(c *gin.Context) {
	list, err := s.svc.ListUnsynced(c.Request.Context(), c.Query("type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if list == nil {
		list = []*models.FieldEntity{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) entityStatus(c *gin.Context) {
	status, err := s.svc.GetSyncStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *server) photo(c *gin.Context) {
	p, err := s.svc.GetPhoto(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, p.MimeType, p.Content)
}

func (s *server) triggerSync(c *gin.Context) {
	s.trigger.TriggerSync(s.baseCtx)
	c.JSON(http.StatusAccepted, gin.H{"status": "sync scheduled"})
}

func (s *server) failedEntries(c *gin.Context) {
	list, err := s.svc.ListFailedEntries(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if list == nil {
		list = []*models.QueueEntry{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) retryEntry(c *gin.Context) {
	seq, err := strconv.ParseInt(c.Param("sequence"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sequence must be an integer"})
		return
	}
	if err := s.svc.RetryEntry(c.Request.Context(), seq); err != nil {
		s.fail(c, err)
		return
	}
	s.trigger.TriggerSync(s.baseCtx)
	c.JSON(http.StatusAccepted, gin.H{"status": "retry scheduled"})
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "online": s.online.Online()})
}

func (s *server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Error(c.Request.Context(), "request failed",
			"path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
