package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"questHuntAPI/internal/access"
	"questHuntAPI/middleware"
)

type AccessHandler struct {
	accessService *access.Service
}

func NewAccessHandler(accessService *access.Service) *AccessHandler {
	return &AccessHandler{
		accessService: accessService,
	}
}

type roleRequest struct {
	Role string `json:"role"`
	ID   string `json:"id"`
}

func (h *AccessHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, h.accessService.GrantRole, "Role granted")
}

func (h *AccessHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, h.accessService.RevokeRole, "Role revoked")
}

func (h *AccessHandler) setRole(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, access.Role, string) error, message string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := apply(ctx, callerID, access.Role(req.Role), req.ID); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *AccessHandler) CheckRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	role := r.URL.Query().Get("role")
	id := r.URL.Query().Get("id")
	if id == "" {
		id = callerID
	}

	has, err := h.accessService.CheckRole(ctx, access.Role(role), id)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"hasRole": has})
}
