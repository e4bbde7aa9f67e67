package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/efootball-tournament/services"
)

type RoundHandler struct {
	roundService   services.RoundService
	bracketService services.BracketService
	logger         *slog.Logger
}

func NewRoundHandler(roundService services.RoundService, bracketService services.BracketService, logger *slog.Logger) *RoundHandler {
	return &RoundHandler{roundService: roundService, bracketService: bracketService, logger: logger}
}

type createRoundRequest struct {
	Name         string     `json:"name"`
	RoundNumber  int        `json:"round_number"`
	TotalMatches int        `json:"total_matches"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.roundService.ListRounds(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := h.roundService.GetRound(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) CreateRound(w http.ResponseWriter, r *http.Request) {
	var input createRoundRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.bracketService.CreateRound(r.Context(), services.CreateRoundParams{
		RoundNumber:  input.RoundNumber,
		Name:         input.Name,
		TotalMatches: input.TotalMatches,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) UpdateRound(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateRoundInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.UpdateRound(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.roundService.DeleteRound(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoundHandler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.bracketService.AdvanceRound(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TryAdvanceRound отвечает 204, если раунд пуст или ещё не завершён.
func (h *RoundHandler) TryAdvanceRound(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auto, err := queryBool(r, "auto")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.TryAdvanceRound(r.Context(), id, auto != nil && *auto)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
