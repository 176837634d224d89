package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/cloud"
	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/repository"
	"github.com/iliyamo/cloudlab/internal/service"
)

// sessionTimeout covers the cloud API call plus the status update.
const sessionTimeout = 60 * time.Second

// SessionHandler launches and stops lab sessions.
type SessionHandler struct {
	Sessions *service.SessionService
}

// NewSessionHandler returns a handler driving lab sessions through s.
func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Sessions: s}
}

type sessionReq struct {
	AssignmentID string `json:"assignment_id"`
}

// LaunchLab starts the session of the assignment named in the body.
func (h *SessionHandler) LaunchLab(c echo.Context) error {
	return h.change(c, "Lab launched", h.Sessions.Launch)
}

// StopLab stops the running session of the assignment named in the body.
func (h *SessionHandler) StopLab(c echo.Context) error {
	return h.change(c, "Lab stopped", h.Sessions.Stop)
}

type sessionOp func(ctx context.Context, id string, who service.Caller) (model.Assignment, error)

func (h *SessionHandler) change(c echo.Context, message string, op sessionOp) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	id := strings.TrimSpace(req.AssignmentID)
	if id == "" {
		return fail(c, http.StatusBadRequest, "assignment_id is required", "missing_assignment")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), sessionTimeout)
	defer cancel()

	a, err := op(ctx, id, service.Caller{UserID: middleware.UserID(c), Admin: middleware.Role(c) == model.RoleAdmin})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "assignment not found", "assignment_not_found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "assignment belongs to another user", "forbidden")
	case errors.Is(err, repository.ErrInvalidTransition):
		return fail(c, http.StatusConflict, "lab session cannot change from its current status", "invalid_status")
	case errors.Is(err, cloud.ErrUnsupported):
		return fail(c, http.StatusNotImplemented, "sessions are not supported for this provider", "unsupported_provider")
	case errors.Is(err, cloud.ErrNoImage):
		return fail(c, http.StatusServiceUnavailable, "no machine image configured for this lab", "no_image")
	case err != nil:
		return serverError(c, "change lab session", err)
	}
	return respond(c, http.StatusOK, message, "data", a)
}
