package api

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/speakerline/audio"
	apperrors "github.com/skillsenselab/speakerline/errors"
	"github.com/skillsenselab/speakerline/events"
	"github.com/skillsenselab/speakerline/server"
)

// createSessionRequest is the body of POST /v1/sessions.
type createSessionRequest struct {
	SampleRate int `json:"sample_rate" binding:"omitempty,min=8000,max=48000"`
}

type sessionResponse struct {
	SessionID  string `json:"session_id"`
	SampleRate int    `json:"sample_rate"`
}

func (a *API) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			server.RespondWithError(c, apperrors.Validation(err.Error()))
			return
		}
	}

	s, err := a.orch.StartSession(c.Request.Context(), req.SampleRate)
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("sample_rate", err.Error()))
		return
	}

	server.RespondCreated(c, sessionResponse{
		SessionID:  s.ID(),
		SampleRate: s.SampleRate(),
	})
}

func (a *API) handleEndSession(c *gin.Context) {
	id := c.Param("id")
	if err := a.orch.EndSession(c.Request.Context(), id); err != nil {
		server.RespondWithError(c, apperrors.NotFound("session", id))
		return
	}
	server.RespondNoContent(c)
}

// handlePushAudio appends one chunk of s16le mono PCM from the request body.
// It is the non-WebSocket ingest path for clients that POST audio in pieces.
func (a *API) handlePushAudio(c *gin.Context) {
	id := c.Param("id")
	s, ok := a.orch.Stream(id)
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("session", id))
		return
	}

	pcm, err := io.ReadAll(c.Request.Body)
	if err != nil {
		server.RespondWithError(c, apperrors.Validation("failed to read audio body"))
		return
	}
	if len(pcm) == 0 || len(pcm)%audio.BytesPerSample != 0 {
		server.RespondWithError(c, apperrors.InvalidInput("body", "audio must be non-empty s16le PCM"))
		return
	}

	s.PushAudio(pcm)
	server.RespondAccepted(c, gin.H{"received_bytes": len(pcm)})
}

// handleEvents serves the live sentence feed for a session over SSE.
func (a *API) handleEvents(c *gin.Context) {
	id := c.Param("id")
	if _, ok := a.orch.Stream(id); !ok {
		server.RespondWithError(c, apperrors.NotFound("session", id))
		return
	}
	events.ServeSSE(a.hub, a.log, c.Writer, c.Request, id)
}

type timelineSpan struct {
	StartMS    int64   `json:"start_ms"`
	EndMS      int64   `json:"end_ms"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type timelineResponse struct {
	Spans          []timelineSpan `json:"spans"`
	Switches       int            `json:"switches"`
	PatchesApplied int            `json:"patches_applied"`
}

// handleTimeline returns the stabilized speaker spans for a time window,
// in stream milliseconds. Missing bounds default to the retained window.
func (a *API) handleTimeline(c *gin.Context) {
	id := c.Param("id")
	s, ok := a.orch.Stream(id)
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("session", id))
		return
	}

	stats := s.TimelineStats()
	r := stats.Retained
	rate := s.SampleRate()

	var bounds struct {
		StartMS *int64 `form:"start_ms" binding:"omitempty,min=0"`
		EndMS   *int64 `form:"end_ms" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindQuery(&bounds); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}
	if bounds.StartMS != nil {
		r.Start = audio.MSToSamples(*bounds.StartMS, rate)
	}
	if bounds.EndMS != nil {
		r.End = audio.MSToSamples(*bounds.EndMS, rate)
	}
	if r.End < r.Start {
		server.RespondWithError(c, apperrors.InvalidInput("end_ms", "must not precede start_ms"))
		return
	}

	resp := timelineResponse{
		Spans:          make([]timelineSpan, 0),
		Switches:       stats.Switches,
		PatchesApplied: stats.PatchesApplied,
	}
	for _, span := range s.Timeline(r) {
		resp.Spans = append(resp.Spans, timelineSpan{
			StartMS:    audio.SamplesToMS(span.Range.Start, rate),
			EndMS:      audio.SamplesToMS(span.Range.End, rate),
			Label:      span.Label.String(),
			Confidence: span.Confidence,
		})
	}
	server.RespondOK(c, resp)
}
