package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/repository"
)

// CatalogueHandler serves the lab catalogue.
type CatalogueHandler struct {
	Labs *repository.LabRepo
}

// NewCatalogueHandler returns a handler over the lab catalogue.
func NewCatalogueHandler(labs *repository.LabRepo) *CatalogueHandler {
	return &CatalogueHandler{Labs: labs}
}

type labDetails struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Duration    *model.FlexString `json:"duration"`
}

type labSizing struct {
	OS      *model.FlexString `json:"os"`
	CPU     *model.FlexString `json:"cpu"`
	RAM     *model.FlexString `json:"ram"`
	Storage *model.FlexString `json:"storage"`
}

type createLabReq struct {
	Data *struct {
		Type     *string           `json:"type"`
		Details  labDetails        `json:"details"`
		Platform *string           `json:"platform"`
		Provider *string           `json:"provider"`
		Config   labSizing         `json:"config"`
		Instance *model.FlexString `json:"instance"`
	} `json:"data"`
	User struct {
		ID *string `json:"id"`
	} `json:"user"`
}

// CreateLab inserts a catalogue entry. The creator is user.id from the body,
// falling back to the caller.
func (h *CatalogueHandler) CreateLab(c echo.Context) error {
	var req createLabReq
	if err := c.Bind(&req); err != nil || req.Data == nil {
		return fail(c, http.StatusBadRequest, "request body must contain data", "invalid_body")
	}
	d := req.Data
	duration, ok := wholeNumber(d.Details.Duration)
	if !ok {
		return fail(c, http.StatusBadRequest, "duration must be a whole number of days", "invalid_duration")
	}
	creator := trimmed(req.User.ID)
	if creator == nil {
		id := middleware.UserID(c)
		creator = &id
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	lab, err := h.Labs.Create(ctx, model.NewLab{
		Type:        trimmed(d.Type),
		Platform:    trimmed(d.Platform),
		Provider:    trimmed(d.Provider),
		OS:          text(d.Config.OS),
		CPU:         text(d.Config.CPU),
		RAM:         text(d.Config.RAM),
		Storage:     text(d.Config.Storage),
		Instance:    text(d.Instance),
		Title:       d.Details.Title,
		Description: d.Details.Description,
		Duration:    duration,
		CreatedBy:   creator,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return fail(c, http.StatusMethodNotAllowed, "lab could not be created", "lab_rejected")
		}
		return serverError(c, "create lab", err)
	}
	return respond(c, http.StatusCreated, "Lab created", "output", lab)
}

// GetCatalogues lists every lab.
func (h *CatalogueHandler) GetCatalogues(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	labs, err := h.Labs.List(ctx)
	if err != nil {
		return serverError(c, "list labs", err)
	}
	return respond(c, http.StatusOK, "Catalogues fetched", "data", labs)
}

type labsConfiguredReq struct {
	AdminID string `json:"admin_id"`
}

// GetLabsConfigured lists the labs an admin has configured at least once.
func (h *CatalogueHandler) GetLabsConfigured(c echo.Context) error {
	var req labsConfiguredReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	if req.AdminID == "" {
		req.AdminID = middleware.UserID(c)
	}
	if _, err := uuid.Parse(req.AdminID); err != nil {
		return fail(c, http.StatusBadRequest, "admin_id must be a valid id", "invalid_admin_id")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	labs, err := h.Labs.ListConfiguredBy(ctx, req.AdminID)
	if err != nil {
		return serverError(c, "list configured labs", err)
	}
	return respond(c, http.StatusOK, "Configured labs fetched", "data", labs)
}
