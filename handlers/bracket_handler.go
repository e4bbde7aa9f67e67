package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/efootball-tournament/services"
)

type BracketHandler struct {
	bracketService services.BracketService
	exportService  services.ExportService
	loc            *time.Location
	now            func() time.Time
	logger         *slog.Logger
}

func NewBracketHandler(bracketService services.BracketService, exportService services.ExportService, loc *time.Location, logger *slog.Logger) *BracketHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BracketHandler{
		bracketService: bracketService,
		exportService:  exportService,
		loc:            loc,
		now:            time.Now,
		logger:         logger,
	}
}

type seedRequest struct {
	// TournamentStartDate в формате YYYY-MM-DD, по умолчанию сегодня.
	TournamentStartDate string `json:"tournament_start_date"`
}

func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	view, err := h.bracketService.GetBracket(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) SeedRound1(w http.ResponseWriter, r *http.Request) {
	var input seedRequest
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	startDate := h.now().In(h.loc)
	if raw := strings.TrimSpace(input.TournamentStartDate); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, h.loc)
		if err != nil {
			badRequestResponse(w, r, fmt.Errorf("tournament_start_date must be YYYY-MM-DD, got %q", raw))
			return
		}
		startDate = parsed
	}

	result, err := h.bracketService.SeedRound1(r.Context(), startDate)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ExportBracket(w http.ResponseWriter, r *http.Request) {
	result, err := h.exportService.ExportBracket(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
