package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/repository"
)

// UserAdminHandler serves the admin user management and dashboard endpoints.
type UserAdminHandler struct {
	Users *repository.UserRepo
	Stats *repository.StatsRepo
}

// NewUserAdminHandler returns the handler for user administration.
func NewUserAdminHandler(u *repository.UserRepo, s *repository.StatsRepo) *UserAdminHandler {
	return &UserAdminHandler{Users: u, Stats: s}
}

// ListUsers returns every user without password hashes.
func (h *UserAdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return serverError(c, "list users", err)
	}
	return respond(c, http.StatusOK, "Users fetched", "data", users)
}

type updateRoleReq struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// UpdateUserRole sets a user's role to user or admin.
func (h *UserAdminHandler) UpdateUserRole(c echo.Context) error {
	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if req.UserID == "" || !model.ValidRole(role) {
		return fail(c, http.StatusBadRequest, "userId and a role of user or admin are required", "invalid_role")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.UpdateRole(ctx, req.UserID, role)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "user not found", "user_not_found")
	}
	if err != nil {
		return serverError(c, "update role", err)
	}
	return respond(c, http.StatusOK, "Role updated", "data", u)
}

type updateOrgReq struct {
	UserID           string  `json:"userId"`
	Organization     *string `json:"organization"`
	OrganizationType *string `json:"organization_type"`
}

// UpdateUserOrganization changes a user's organization fields.
func (h *UserAdminHandler) UpdateUserOrganization(c echo.Context) error {
	var req updateOrgReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	if req.UserID == "" {
		return fail(c, http.StatusBadRequest, "userId is required", "missing_user")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.UpdateOrganization(ctx, req.UserID, trimmed(req.Organization), trimmed(req.OrganizationType))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "user not found", "user_not_found")
	}
	if err != nil {
		return serverError(c, "update organization", err)
	}
	return respond(c, http.StatusOK, "Organization updated", "data", u)
}

// GetStats returns dashboard counters read from one snapshot.
func (h *UserAdminHandler) GetStats(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	st, err := h.Stats.Snapshot(ctx)
	if err != nil {
		return serverError(c, "read stats", err)
	}
	return respond(c, http.StatusOK, "Stats fetched", "data", st)
}
