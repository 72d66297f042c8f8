package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"questHuntAPI/internal/notification"
	"questHuntAPI/middleware"
	"questHuntAPI/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type IntegrationHandler struct {
	integrationService *services.IntegrationService
	dispatcher         *services.EventDispatcher
	feedHub            *services.FeedHub
}

func NewIntegrationHandler(integrationService *services.IntegrationService, dispatcher *services.EventDispatcher, feedHub *services.FeedHub) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationService,
		dispatcher:         dispatcher,
		feedHub:            feedHub,
	}
}

func (h *IntegrationHandler) BatchMintRewards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		Users        []string `json:"users"`
		HuntIDs      []uint64 `json:"huntIds"`
		ChallengeIDs []uint64 `json:"challengeIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tokens, err := h.integrationService.BatchMintRewards(ctx, callerID, req.Users, req.HuntIDs, req.ChallengeIDs)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, tokens)
}

func (h *IntegrationHandler) BatchUpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		Users  []string `json:"users"`
		Points []uint64 `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.integrationService.BatchUpdateProgress(ctx, callerID, req.Users, req.Points); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Progress updated"})
}

func (h *IntegrationHandler) BatchVerifySolutions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers        []string `json:"answers"`
		ExpectedHashes []string `json:"expectedHashes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.integrationService.BatchVerifySolutions(req.Answers, req.ExpectedHashes)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *IntegrationHandler) GetSystemEvents(w http.ResponseWriter, r *http.Request) {
	events := h.integrationService.RecentSystemEvents(feedLimit(r))
	respondWithJSON(w, http.StatusOK, events)
}

func (h *IntegrationHandler) GetActivityFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	player := r.URL.Query().Get("userId")
	if player == "" {
		player = callerID
	}

	events := h.integrationService.PlayerActivityFeed(player, feedLimit(r))
	respondWithJSON(w, http.StatusOK, events)
}

// HandleFeedSocket upgrades the connection and hands it to the feed hub. The
// pumps own the connection after this returns.
func (h *IntegrationHandler) HandleFeedSocket(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetCallerID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Could not upgrade connection: %v", err)
		return
	}

	h.feedHub.Register(conn, callerID)
}

func (h *IntegrationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, ok := middleware.GetCallerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Token is required")
		return
	}

	if err := h.dispatcher.RegisterDevice(ctx, callerID, req.Token, req.Platform); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered"})
}

func feedLimit(r *http.Request) int {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}
