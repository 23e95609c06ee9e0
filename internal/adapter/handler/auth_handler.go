package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lp2808/retail-pos/internal/auth"
	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/core/service"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}
	if req.Email == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "missing required fields", nil)
		return
	}

	role := domain.RoleBasic
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), map[string]string{"role": "unknown"})
			return
		}
		role = parsed
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), map[string]string{"password": "too short"})
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, codeConflict, err.Error(), nil)
		default:
			h.writeServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role.String(),
	})
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, codeBadRequest, err.Error(), nil)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (h *HTTPHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			writeError(w, http.StatusUnauthorized, codeBadRequest, err.Error(), nil)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func toTokenResponse(pair *service.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
