package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/efootball-tournament/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
	logger             *slog.Logger
}

func NewParticipantHandler(participantService services.ParticipantService, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{participantService: participantService, logger: logger}
}

func (h *ParticipantHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	participants, err := h.participantService.ListActive(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ParticipantHandler) ListRanked(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", services.DefaultRankingLimit)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participants, err := h.participantService.ListRanked(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Register отвечает 201 при создании и 200, если участник уже был.
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participant, created, err := h.participantService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	if err := writeJSON(w, status, jsonResponse{"participant": participant, "created": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ParticipantHandler) Eliminate(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participant, err := h.participantService.Eliminate(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
