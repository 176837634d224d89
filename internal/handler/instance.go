package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/repository"
)

// InstanceHandler looks up instance types in the provider catalogues.
type InstanceHandler struct {
	Instances *repository.InstanceRepo
}

// NewInstanceHandler returns a handler over the instance pricing catalogues.
func NewInstanceHandler(r *repository.InstanceRepo) *InstanceHandler {
	return &InstanceHandler{Instances: r}
}

type instancesReq struct {
	Cloud   string           `json:"cloud"`
	CPU     model.FlexString `json:"cpu"`
	RAM     model.FlexString `json:"ram"`
	Storage model.FlexString `json:"storage"`
}

func (h *InstanceHandler) catalog(cloud string) (repository.InstanceCatalog, bool) {
	p, err := model.ParseProvider(cloud)
	if err != nil {
		return nil, false
	}
	cat, err := h.Instances.For(p)
	return cat, err == nil
}

// GetInstances returns the instance types matching cpu and ram. Both are
// compared as text, so 2 and "2" match the same rows.
func (h *InstanceHandler) GetInstances(c echo.Context) error {
	var req instancesReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	cat, ok := h.catalog(req.Cloud)
	if !ok {
		return fail(c, http.StatusBadRequest, "unsupported cloud provider", "unsupported_cloud")
	}
	cpu, ram := strings.TrimSpace(req.CPU.String()), strings.TrimSpace(req.RAM.String())
	if cpu == "" || ram == "" {
		return fail(c, http.StatusBadRequest, "cpu and ram are required", "missing_shape")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	rows, err := cat.Match(ctx, cpu, ram)
	if err != nil {
		return serverError(c, "match instances", err)
	}
	if len(rows) == 0 {
		return fail(c, http.StatusNotFound, "No instances match the requested shape", "no_instances")
	}
	return respond(c, http.StatusOK, "Instances fetched", "result", rows)
}

type instanceDetailsReq struct {
	Provider string           `json:"provider"`
	Instance string           `json:"instance"`
	CPU      model.FlexString `json:"cpu"`
	RAM      model.FlexString `json:"ram"`
}

// GetInstanceDetails returns the pricing row of one named instance type.
func (h *InstanceHandler) GetInstanceDetails(c echo.Context) error {
	var req instanceDetailsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	cat, ok := h.catalog(req.Provider)
	if !ok {
		return fail(c, http.StatusBadRequest, "unsupported cloud provider", "unsupported_cloud")
	}
	name := strings.TrimSpace(req.Instance)
	if name == "" {
		return fail(c, http.StatusBadRequest, "instance is required", "missing_instance")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	it, err := cat.Find(ctx, name, strings.TrimSpace(req.CPU.String()), strings.TrimSpace(req.RAM.String()))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Instance not found", "instance_not_found")
	}
	if err != nil {
		return serverError(c, "find instance", err)
	}
	return respond(c, http.StatusOK, "Instance details fetched", "data", it)
}
