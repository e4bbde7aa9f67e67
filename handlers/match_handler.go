package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/efootball-tournament/middleware"
	"github.com/Dosada05/efootball-tournament/services"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchService      services.MatchService
	suggestionService services.SuggestionService
	events            services.EventPublisher
	logger            *slog.Logger
}

func NewMatchHandler(
	matchService services.MatchService,
	suggestionService services.SuggestionService,
	events services.EventPublisher,
	logger *slog.Logger,
) *MatchHandler {
	return &MatchHandler{
		matchService:      matchService,
		suggestionService: suggestionService,
		events:            events,
		logger:            logger,
	}
}

// publish отдаёт событие диспетчеру; nil означает, что перехода не было.
func (h *MatchHandler) publish(event services.Event) {
	if event == nil || h.events == nil {
		return
	}
	h.events.Publish(event)
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	roundID, err := queryUUID(r, "round_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	published, err := queryBool(r, "published")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), services.MatchListFilter{
		Status:    r.URL.Query().Get("status"),
		RoundID:   roundID,
		Published: published,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SuggestedMatches(w http.ResponseWriter, r *http.Request) {
	roundID, err := queryUUID(r, "round_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if roundID == nil {
		badRequestResponse(w, r, errors.New("round_id query parameter is required"))
		return
	}

	pairs, err := h.suggestionService.Suggest(r.Context(), *roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"round_id": roundID, "pairs": pairs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.UpdateMatch(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.matchService.DeleteMatch(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MatchHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var actorID *uuid.UUID
	if userID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		actorID = &userID
	}

	match, event, err := h.matchService.StartMatch(r.Context(), id, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.publish(event)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.GoalInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, record, event, err := h.matchService.RecordGoal(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.publish(event)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match, "event": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) EndMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.MatchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, event, err := h.matchService.EndMatch(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.publish(event)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) PublishMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.PublishMatchInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.PublishMatch(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
