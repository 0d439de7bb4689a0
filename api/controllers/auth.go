package controllers

import (
	"net/http"

	"github.com/retaildesk/retaildesk-backend/api/middleware"
	"github.com/retaildesk/retaildesk-backend/api/responses"
	"github.com/retaildesk/retaildesk-backend/api/validators"
	"github.com/retaildesk/retaildesk-backend/internal/auth"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
)

// AuthController serves login, registration and the password reset flow.
type AuthController struct {
	svc  auth.Service
	logg *logger.Logger
}

func NewAuthController(svc auth.Service, logg *logger.Logger) *AuthController {
	return &AuthController{svc: svc, logg: logg}
}

func (a *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.LoginRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}

	resp, err := a.svc.Login(ctx, req)
	if err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

func (a *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.RegisterRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}

	resp, err := a.svc.Register(ctx, req)
	if err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, resp)
}

func (a *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.ForgotPasswordRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}

	resp, err := a.svc.ForgotPassword(ctx, req)
	if err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

func (a *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.ResetPasswordRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}

	if err := a.svc.ResetPassword(ctx, req); err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]string{"message": "password updated"})
}

// Me returns the authenticated account's profile.
func (a *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID <= 0 {
		responses.WriteError(ctx, a.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return
	}

	profile, err := a.svc.Profile(ctx, userID)
	if err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}
	responses.WriteSuccess(w, profile)
}
