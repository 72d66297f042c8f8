package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/types/hunt"
	"questHuntAPI/middleware"
	"questHuntAPI/services"
)

type HuntHandler struct {
	huntService *services.HuntService
}

func NewHuntHandler(huntService *services.HuntService) *HuntHandler {
	return &HuntHandler{
		huntService: huntService,
	}
}

func (h *HuntHandler) CreateHunt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req hunt.CreateHuntRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.huntService.CreateHunt(ctx, callerID, req.Name, req.StartTime, req.EndTime)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HuntHandler) UpdateHunt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	huntID, err := pathID(r, "huntID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req hunt.UpdateHuntRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.huntService.UpdateHunt(ctx, callerID, huntID, req.Name, req.EndTime)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HuntHandler) SetHuntActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	huntID, err := pathID(r, "huntID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req hunt.SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.huntService.SetHuntActive(ctx, callerID, huntID, req.Active); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"id": huntID, "active": req.Active})
}

func (h *HuntHandler) GetHunt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	huntID, err := pathID(r, "huntID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := h.huntService.GetHunt(ctx, huntID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *HuntHandler) GetAdminHunts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	admin := r.URL.Query().Get("admin")
	if admin == "" {
		callerID, ok := middleware.GetCallerID(ctx)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'admin' is required")
			return
		}
		admin = callerID
	}

	ids, err := h.huntService.GetAdminHunts(ctx, admin)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"admin": admin, "huntIds": ids})
}

// ---- shared handler plumbing ----

func pathID(r *http.Request, name string) (uint64, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, fmt.Errorf("path parameter %s is required", name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("path parameter %s must be a number", name)
	}
	return id, nil
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithFault maps a service error onto the HTTP status its fault kind
// dictates.
func respondWithFault(w http.ResponseWriter, err error) {
	respondWithError(w, fault.HTTPStatus(err), err.Error())
}
