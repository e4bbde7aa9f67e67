package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/efootball-tournament/services"
)

// Pinger - то, что умеет проверить соединение с базой (*sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

type TournamentHandler struct {
	tournamentService services.TournamentService
	db                Pinger
	logger            *slog.Logger
}

func NewTournamentHandler(tournamentService services.TournamentService, db Pinger, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService, db: db, logger: logger}
}

func (h *TournamentHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	info, err := h.tournamentService.GetInfo(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, info, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "Health check: database unreachable", slog.Any("error", err))
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	if err := writeJSON(w, code, jsonResponse{"status": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
