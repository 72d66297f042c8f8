package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"questHuntAPI/internal/types/reward"
	"questHuntAPI/middleware"
	"questHuntAPI/services"
)

type RewardHandler struct {
	rewardService *services.RewardService
}

func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

func (h *RewardHandler) MintReward(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req reward.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.rewardService.MintReward(ctx, callerID, req.UserID, req.HuntID, req.ChallengeID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, t)
}

func (h *RewardHandler) UpgradeReward(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	tokenID, err := pathID(r, "tokenID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.rewardService.UpgradeReward(ctx, callerID, tokenID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, t)
}

func (h *RewardHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tokenID, err := pathID(r, "tokenID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.rewardService.GetToken(ctx, tokenID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	canUpgrade := t.CanUpgrade()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"token":      t,
		"canUpgrade": canUpgrade,
	})
}

func (h *RewardHandler) GetUserTokens(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	tokens, err := h.rewardService.GetUserTokens(ctx, callerID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tokens)
}
