package handlers

import (
	"context"
	"net/http"
	"time"

	"questHuntAPI/middleware"
	"questHuntAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
}

func NewStreakHandler(streakService *services.StreakService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
	}
}

// GetUserStreak reports the live streak count, which reads as zero once more
// than a day has passed since the last solve.
func (h *StreakHandler) GetUserStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = callerID
	}

	count, err := h.streakService.GetUserStreak(ctx, userID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]uint64{"streak": count})
}

func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = callerID
	}

	s, err := h.streakService.GetStreak(ctx, userID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, s)
}
