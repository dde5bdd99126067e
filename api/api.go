package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/speakerline/events"
	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/observability"
	"github.com/skillsenselab/speakerline/session"
	"github.com/skillsenselab/speakerline/version"
)

// API wires the session orchestrator and event hub into HTTP routes.
type API struct {
	orch     *session.Orchestrator
	hub      *events.Hub
	checkers []observability.HealthChecker
	service  string
	log      *logger.Logger
}

// New creates the API facade. checkers report component health on /healthz
// and may be empty.
func New(orch *session.Orchestrator, hub *events.Hub, service string, checkers []observability.HealthChecker, log *logger.Logger) *API {
	return &API{
		orch:     orch,
		hub:      hub,
		checkers: checkers,
		service:  service,
		log:      log.WithComponent("api"),
	}
}

// Register mounts all routes on the engine.
func (a *API) Register(r *gin.Engine) {
	r.GET("/healthz", a.handleHealth)
	r.GET("/info", a.handleInfo)

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", a.handleCreateSession)
		v1.DELETE("/sessions/:id", a.handleEndSession)
		v1.POST("/sessions/:id/audio", a.handlePushAudio)
		v1.GET("/sessions/:id/audio", a.handleAudioSocket)
		v1.GET("/sessions/:id/events", a.handleEvents)
		v1.GET("/sessions/:id/timeline", a.handleTimeline)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	sh := observability.NewServiceHealth(a.service, version.GetShortVersion())
	for _, hc := range a.checkers {
		sh.AddComponent(hc.CheckHealth(c.Request.Context()))
	}

	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

func (a *API) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   a.service,
		"version":   version.GetVersionInfo(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
