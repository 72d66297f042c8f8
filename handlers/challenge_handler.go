package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"questHuntAPI/internal/types/challenge"
	"questHuntAPI/internal/verifier"
	"questHuntAPI/middleware"
	"questHuntAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) AddChallenge(w http.ResponseWriter, r *http.Request) {
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

	var req challenge.AddChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.challengeService.AddChallenge(ctx, callerID, huntID, &req)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	// never echo the answer hash back to authoring clients
	created.AnswerHash = ""
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ChallengeHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
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
	challengeID, err := pathID(r, "challengeID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req challenge.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.challengeService.SubmitAnswer(ctx, callerID, huntID, challengeID, req.Answer)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
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
	challengeID, err := pathID(r, "challengeID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req challenge.SubmitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.challengeService.SubmitProof(ctx, callerID, huntID, challengeID, verifier.Proof{Data: req.Proof})
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) SetVerificationKey(w http.ResponseWriter, r *http.Request) {
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
	challengeID, err := pathID(r, "challengeID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var vk verifier.VerificationKey
	if err := json.NewDecoder(r.Body).Decode(&vk); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.challengeService.SetVerificationKey(ctx, callerID, huntID, challengeID, vk); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Verification key stored"})
}

func (h *ChallengeHandler) AssignPuzzle(w http.ResponseWriter, r *http.Request) {
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

	var req challenge.AssignPuzzleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.challengeService.AssignPuzzle(ctx, callerID, req.UserID, huntID, req.ChallengeID); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Puzzle assigned"})
}

func (h *ChallengeHandler) SetChallengeActive(w http.ResponseWriter, r *http.Request) {
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
	challengeID, err := pathID(r, "challengeID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.challengeService.SetChallengeActive(ctx, callerID, huntID, challengeID, req.Active); err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"id": challengeID, "active": req.Active})
}

// GetChallengeByIndex serves the bounds-checked positional lookup.
func (h *ChallengeHandler) GetChallengeByIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	huntID, err := pathID(r, "huntID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := pathID(r, "index")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.challengeService.GetChallengeByIndex(ctx, huntID, index)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	c.AnswerHash = ""
	respondWithJSON(w, http.StatusOK, c)
}

func (h *ChallengeHandler) GetCompletedChallenges(w http.ResponseWriter, r *http.Request) {
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

	ids, err := h.challengeService.GetCompletedChallenges(ctx, callerID, huntID)
	if err != nil {
		respondWithFault(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"huntId":       huntID,
		"completedIds": ids,
	})
}
