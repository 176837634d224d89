package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/config"
	"github.com/iliyamo/cloudlab/internal/logger"
	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/repository"
	"github.com/iliyamo/cloudlab/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

// NewAuthHandler returns an AuthHandler using cfg for token lifetimes.
func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	Organization     *string `json:"organization"`
	OrganizationType *string `json:"organization_type"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"`
}

type refreshPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	Token   string      `json:"token"`
	Expires time.Time   `json:"expires"`
	Refresh refreshPart `json:"refresh"`
	User    model.User  `json:"user"`
}

// Signup creates a user with the default role.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "name, email and password are required", "missing_fields")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fail(c, http.StatusBadRequest, "email is not valid", "invalid_email")
	}
	if err := utils.CheckPasswordPolicy(req.Password); err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), "weak_password")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.Create(ctx, repository.NewUser{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		Organization:     trimmed(req.Organization),
		OrganizationType: trimmed(req.OrganizationType),
	}, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return fail(c, http.StatusConflict, "email already exists", "email_exists")
	}
	if err != nil {
		return serverError(c, "create user", err)
	}
	return respond(c, http.StatusCreated, "User registered", "data", u)
}

// Login verifies credentials, records activity and issues a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required", "missing_fields")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "invalid credentials", "invalid_credentials")
	}
	if err != nil {
		return serverError(c, "load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials", "invalid_credentials")
	}

	resp, err := h.issue(ctx, u)
	if err != nil {
		return serverError(c, "issue tokens", err)
	}
	if err := h.Users.TouchLastActive(ctx, u.ID); err != nil {
		logger.Warningf("login: update last_active for %s: %v", u.ID, err)
	} else {
		now := time.Now().UTC()
		resp.User.LastActive = &now
	}
	return respond(c, http.StatusOK, "Login successful", "data", resp)
}

// issue signs an access token and stores a fresh refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (loginResp, error) {
	resp, err := h.mint(u)
	if err != nil {
		return loginResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(resp.Refresh.Token), resp.Refresh.Expires); err != nil {
		return loginResp{}, err
	}
	return resp, nil
}

// mint signs a token pair for u without storing the refresh token.
func (h *AuthHandler) mint(u model.User) (loginResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return loginResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return loginResp{}, err
	}
	return loginResp{
		Token:   access.Token,
		Expires: access.Exp,
		Refresh: refreshPart{Token: refresh.Raw, Expires: refresh.Exp},
		User:    u,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token is revoked in the same transaction that stores its replacement, so a
// failed refresh leaves it usable. The role comes from the database, so role
// changes take effect at the next refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token is required", "missing_refresh_token")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	var resp loginResp
	err := h.Tokens.Rotate(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken)),
		func(u model.User) (repository.Replacement, error) {
			var err error
			if resp, err = h.mint(u); err != nil {
				return repository.Replacement{}, err
			}
			return repository.Replacement{Hash: utils.HashRefreshRaw(resp.Refresh.Token), Expires: resp.Refresh.Expires}, nil
		})
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "invalid refresh token", "invalid_refresh_token")
	}
	if err != nil {
		return serverError(c, "rotate refresh token", err)
	}
	return respond(c, http.StatusOK, "Token refreshed", "data", resp)
}

// Logout revokes the given refresh token, or every token of the caller when
// all is set.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body", "invalid_body")
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if !req.All && raw == "" {
		return fail(c, http.StatusBadRequest, "refresh_token is required", "missing_refresh_token")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	var err error
	if req.All {
		err = h.Tokens.RevokeAllForUser(ctx, middleware.UserID(c))
	} else {
		err = h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	}
	if err != nil {
		return serverError(c, "revoke refresh token", err)
	}
	return respond(c, http.StatusOK, "Logged out", "data", nil)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "user not found", "user_not_found")
	}
	if err != nil {
		return serverError(c, "load user", err)
	}
	return respond(c, http.StatusOK, "User fetched", "data", u)
}
