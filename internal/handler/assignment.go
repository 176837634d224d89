package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/queue"
	"github.com/iliyamo/cloudlab/internal/repository"
	"github.com/iliyamo/cloudlab/internal/service"
)

// AssignmentHandler assigns labs to users and lists assignments.
type AssignmentHandler struct {
	Assignments *repository.AssignmentRepo
	Events      service.EventPublisher
}

// NewAssignmentHandler wires the assignment endpoints to their repository.
func NewAssignmentHandler(a *repository.AssignmentRepo, ev service.EventPublisher) *AssignmentHandler {
	return &AssignmentHandler{Assignments: a, Events: ev}
}

type assignLabReq struct {
	Lab []struct {
		LabID string `json:"lab_id"`
	} `json:"lab"`
	Duration      *model.FlexString `json:"duration"`
	UserID        *string           `json:"userId"`
	AssignAdminID *string           `json:"assign_admin_id"`
}

// AssignLab creates a pending assignment for the first lab in the request.
// A missing userId or a non-positive duration is rejected by the database
// and reported as 404.
func (h *AssignmentHandler) AssignLab(c echo.Context) error {
	var req assignLabReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	if len(req.Lab) == 0 {
		return fail(c, http.StatusBadRequest, "lab must list at least one lab", "missing_lab")
	}
	duration, ok := wholeNumber(req.Duration)
	if !ok {
		return fail(c, http.StatusBadRequest, "duration must be a whole number of days", "invalid_duration")
	}
	admin := trimmed(req.AssignAdminID)
	if admin == nil {
		id := middleware.UserID(c)
		admin = &id
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	a, err := h.Assignments.Assign(ctx, repository.NewAssignment{
		LabID:    req.Lab[0].LabID,
		UserID:   trimmed(req.UserID),
		AdminID:  admin,
		Duration: duration,
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "Lab already assigned to this user", "already_assigned")
	case errors.Is(err, repository.ErrInvalidReference):
		return fail(c, http.StatusNotFound, "lab, user or duration is invalid", "assignment_rejected")
	case err != nil:
		return serverError(c, "assign lab", err)
	}

	ev := queue.NewLabEvent(queue.LabAssigned, a.ID, a.LabID, a.UserID, a.Status)
	ev.ActorID = a.AssignedAdminID
	service.Notify(h.Events, ev)
	return respond(c, http.StatusCreated, "Lab assigned", "data", a)
}

type labsOnIDReq struct {
	UserID string `json:"userId"`
}

// GetLabOnID lists every assignment of a user. Users may only read their
// own; admins may read anyone's.
func (h *AssignmentHandler) GetLabOnID(c echo.Context) error {
	var req labsOnIDReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	caller := middleware.UserID(c)
	if req.UserID == "" {
		req.UserID = caller
	}
	if req.UserID != caller && middleware.Role(c) != model.RoleAdmin {
		return fail(c, http.StatusForbidden, "cannot read another user's labs", "forbidden")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	list, err := h.Assignments.ListByUser(ctx, req.UserID)
	if err != nil {
		return serverError(c, "list assignments", err)
	}
	return respond(c, http.StatusOK, "Assigned labs fetched", "data", list)
}
