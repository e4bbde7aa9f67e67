package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/efootball-tournament/storage"
	"github.com/gosimple/slug"
)

const (
	bracketSnapshotKey = "bracket/latest.json"
	archiveTimeLayout  = "20060102T150405Z"
	fallbackArchiveDir = "tournament"
)

type ExportResult struct {
	Key        string `json:"key"`
	URL        string `json:"url"`
	ArchiveKey string `json:"archive_key"`
	ArchiveURL string `json:"archive_url"`
}

type ExportService interface {
	// ExportBracket uploads the current bracket as JSON: the stable latest.json and a timestamped archive copy.
	// Returns ErrExportDisabled without a store.
	ExportBracket(ctx context.Context) (*ExportResult, error)
}

type exportService struct {
	bracket    BracketService
	tournament TournamentService
	store      storage.ObjectStore
	now        func() time.Time
	logger     *slog.Logger
}

// NewExportService accepts a nil store; export is then disabled.
func NewExportService(bracket BracketService, tournament TournamentService, store storage.ObjectStore, logger *slog.Logger) ExportService {
	return &exportService{
		bracket:    bracket,
		tournament: tournament,
		store:      store,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *exportService) ExportBracket(ctx context.Context) (*ExportResult, error) {
	if s.store == nil {
		return nil, ErrExportDisabled
	}

	view, err := s.bracket.GetBracket(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket snapshot: %w", err)
	}

	latest, err := s.store.Upload(ctx, bracketSnapshotKey, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	archive, err := s.store.Upload(ctx, s.archiveKey(ctx), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Bracket snapshot exported",
		slog.String("key", latest.Key),
		slog.String("archive_key", archive.Key),
		slog.Int("rounds", len(view.Rounds)),
		slog.Int("bytes", len(body)))
	return &ExportResult{
		Key:        latest.Key,
		URL:        latest.Location,
		ArchiveKey: archive.Key,
		ArchiveURL: archive.Location,
	}, nil
}

// archiveKey: bracket/archive/<slug названия турнира>/<UTC время>.json
func (s *exportService) archiveKey(ctx context.Context) string {
	dir := fallbackArchiveDir
	if s.tournament != nil {
		info, err := s.tournament.GetInfo(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to read tournament name for archive key", slog.Any("error", err))
		} else if name := slug.Make(info.Name); name != "" {
			dir = name
		}
	}
	return fmt.Sprintf("bracket/archive/%s/%s.json", dir, s.now().UTC().Format(archiveTimeLayout))
}
