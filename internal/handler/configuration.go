package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/repository"
)

// ConfigurationHandler records admin configurations of labs.
type ConfigurationHandler struct {
	Configs *repository.ConfigurationRepo
}

// NewConfigurationHandler returns a handler for saved lab configurations.
func NewConfigurationHandler(r *repository.ConfigurationRepo) *ConfigurationHandler {
	return &ConfigurationHandler{Configs: r}
}

type updateConfigReq struct {
	LabID         *string         `json:"lab_id"`
	AdminID       *string         `json:"admin_id"`
	ConfigDetails json.RawMessage `json:"config_details"`
}

// UpdateConfigOfLabs appends a configuration row. Repeated calls with the
// same lab and admin create separate rows.
func (h *ConfigurationHandler) UpdateConfigOfLabs(c echo.Context) error {
	var req updateConfigReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	admin := trimmed(req.AdminID)
	if admin == nil {
		id := middleware.UserID(c)
		admin = &id
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	cfg, err := h.Configs.Create(ctx, trimmed(req.LabID), admin, req.ConfigDetails)
	if errors.Is(err, repository.ErrInvalidReference) {
		return fail(c, http.StatusNotFound, "lab, admin or configuration is invalid", "configuration_rejected")
	}
	if err != nil {
		return serverError(c, "create configuration", err)
	}
	return respond(c, http.StatusCreated, "Configuration saved", "data", cfg)
}
