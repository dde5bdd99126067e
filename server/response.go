package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/speakerline/errors"
)

// DataResponse is the success envelope every handler returns. Data
// holds the payload; Meta is present only on paginated responses.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries pagination metadata.
type Meta struct {
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"pageSize,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`
}

func respond(c *gin.Context, status int, data any, meta *Meta) {
	c.JSON(status, DataResponse{Data: data, Meta: meta})
}

// RespondWithError maps err onto a status and body. An AppError in the
// chain decides both; anything else is a generic 500 so internal
// details never reach clients.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}

// RespondOK sends a 200 wrapping data.
func RespondOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, data, nil)
}

// RespondOKWithMeta sends a 200 with data and pagination metadata.
func RespondOKWithMeta(c *gin.Context, data any, meta *Meta) {
	respond(c, http.StatusOK, data, meta)
}

// RespondCreated sends a 201 wrapping data. Used by session creation.
func RespondCreated(c *gin.Context, data any) {
	respond(c, http.StatusCreated, data, nil)
}

// RespondAccepted sends a 202 wrapping data. Audio pushes are accepted
// before the pipeline has processed them.
func RespondAccepted(c *gin.Context, data any) {
	respond(c, http.StatusAccepted, data, nil)
}

// RespondNoContent sends a bare 204.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
