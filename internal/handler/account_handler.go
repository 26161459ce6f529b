package handler

import (
	"encoding/json"
	"net/http"

	"go-product-api/internal/middleware"
	"go-product-api/internal/model"
	"go-product-api/internal/service"
	"go-product-api/pkg/apierror"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, "User created successfully.", user)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	signed, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{Success: true, Token: signed})
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "Authorization Token not found", "", http.StatusUnauthorized))
		return
	}

	if err := h.service.Logout(r.Context(), principal); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, "User logged out successfully", nil)
}

func (h *AccountHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "Authorization Token not found", "", http.StatusUnauthorized))
		return
	}

	user, err := h.service.CurrentUser(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, "", user)
}
