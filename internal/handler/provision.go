package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/logger"
	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/provisioner"
)

// ProvisionHandler runs the provisioning script.
type ProvisionHandler struct {
	Runner *provisioner.Runner
}

// NewProvisionHandler returns a handler that runs provisioning through r.
func NewProvisionHandler(r *provisioner.Runner) *ProvisionHandler {
	return &ProvisionHandler{Runner: r}
}

type provisionReq struct {
	CloudPlatform string `json:"cloudPlatform"`
}

// Python runs the script for the requested platform and returns its stdout.
func (h *ProvisionHandler) Python(c echo.Context) error {
	var req provisionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	platform := strings.ToLower(strings.TrimSpace(req.CloudPlatform))

	out, err := h.Runner.Run(c.Request().Context(), platform)
	var exitErr *provisioner.ExitError
	switch {
	case errors.Is(err, provisioner.ErrUnknownPlatform):
		return fail(c, http.StatusBadRequest, "cloudPlatform must be aws or azure", "unsupported_cloud")
	case errors.Is(err, provisioner.ErrTimeout):
		logger.Warningf("provision: %s script timed out (request %s)", platform, middleware.RequestID(c))
		return fail(c, http.StatusGatewayTimeout, "provisioning timed out", "timeout")
	case errors.As(err, &exitErr):
		logger.Errorw("provisioning script failed",
			"request_id", middleware.RequestID(c), "platform", platform,
			"exit_code", exitErr.Code, "stderr", exitErr.Stderr)
		return fail(c, http.StatusInternalServerError, "provisioning failed", "provision_failed")
	case err != nil:
		return serverError(c, "run provisioning script", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Provisioning finished for " + platform,
		"result":  out,
	})
}
