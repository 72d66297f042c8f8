package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"questHuntAPI/internal/types/leaderboard"
	"questHuntAPI/middleware"
	"questHuntAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	board, err := h.leaderboardService.GetLeaderboard(ctx)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		callerID, ok := middleware.GetCallerID(ctx)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'userId' is required")
			return
		}
		userID = callerID
	}

	stats, err := h.leaderboardService.GetUserStats(ctx, userID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *LeaderboardHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		UserID      string `json:"userId"`
		HuntID      uint64 `json:"huntId"`
		ChallengeID uint64 `json:"challengeId"`
		Points      uint64 `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.leaderboardService.AddPoints(ctx, callerID, req.UserID, req.HuntID, req.ChallengeID, req.Points); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Points added"})
}

func (h *LeaderboardHandler) SetMaxSize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req leaderboard.SetMaxSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.leaderboardService.SetMaxSize(ctx, callerID, req.MaxSize); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"maxSize": req.MaxSize})
}
