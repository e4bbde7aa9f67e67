package services

import (
	"errors"

	"github.com/Dosada05/efootball-tournament/repositories"
)

// Семейства ошибок. Конкретные ошибки ниже оборачивают одно из них,
// поэтому errors.Is работает на обоих уровнях.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrStateConflict    = errors.New("operation not allowed in current state")

	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
)

var (
	ErrRoundNotFound       = newError(ErrNotFound, "round not found")
	ErrMatchNotFound       = newError(ErrNotFound, "match not found")
	ErrParticipantNotFound = newError(ErrNotFound, "participant not found")

	ErrRoundNameRequired   = newError(ErrValidationFailed, "round name is required")
	ErrRoundNumberInvalid  = newError(ErrValidationFailed, "round number must be positive")
	ErrRoundStatusInvalid  = newError(ErrValidationFailed, "invalid round status")
	ErrEmptyUpdate         = newError(ErrValidationFailed, "no fields to update")
	ErrSameParticipant     = newError(ErrValidationFailed, "home and away participants must differ")
	ErrInvalidParticipant  = newError(ErrValidationFailed, "participant does not exist")
	ErrInvalidEventType    = newError(ErrValidationFailed, "event_type must be goal_home or goal_away")
	ErrGoalsRequired       = newError(ErrValidationFailed, "home_goals and away_goals are required")
	ErrInvalidGoals        = newError(ErrValidationFailed, "goals must be non-negative")
	ErrInvalidStat         = newError(ErrValidationFailed, "pass accuracy and possession must be between 0 and 100")
	ErrParticipantRequired = newError(ErrValidationFailed, "user_id and full_name are required")

	ErrInsufficientParticipants = newError(ErrStateConflict, "at least 2 eligible participants are required")
	ErrRoundIncomplete          = newError(ErrStateConflict, "round still has matches that are not completed")
	ErrRoundEmpty               = newError(ErrStateConflict, "round has no matches")
	ErrReleaseBlocked           = newError(ErrStateConflict, "previous round must be completed before this round can be released")
	ErrRoundHasMatches          = newError(ErrStateConflict, "round cannot be deleted while it has matches")
	ErrRoundCompleted           = newError(ErrStateConflict, "round is completed")
	ErrMatchCompleted           = newError(ErrStateConflict, "match is already completed")
	ErrMatchNotOngoing          = newError(ErrStateConflict, "match is not ongoing")
	ErrMatchInUse               = newError(ErrStateConflict, "match has recorded events and cannot be deleted")

	ErrExportDisabled = errors.New("bracket export storage is not configured")
)

type serviceError struct {
	msg  string
	kind error
}

func newError(kind error, msg string) error {
	return &serviceError{msg: msg, kind: kind}
}

func (e *serviceError) Error() string { return e.msg }

func (e *serviceError) Unwrap() error { return e.kind }

// mapRepositoryError переводит ошибки репозиториев в ошибки сервисов.
// Неизвестные ошибки возвращаются как есть (сбой хранилища).
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrRoundNotFound):
		return ErrRoundNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrParticipantNotFound
	case errors.Is(err, repositories.ErrRoundHasMatches):
		return ErrRoundHasMatches
	case errors.Is(err, repositories.ErrRoundStatusInvalid):
		return ErrRoundStatusInvalid
	case errors.Is(err, repositories.ErrMatchCompleted):
		return ErrMatchCompleted
	case errors.Is(err, repositories.ErrMatchNotOngoing):
		return ErrMatchNotOngoing
	case errors.Is(err, repositories.ErrMatchInUse):
		return ErrMatchInUse
	case errors.Is(err, repositories.ErrMatchSameParticipant):
		return ErrSameParticipant
	case errors.Is(err, repositories.ErrMatchParticipantInvalid):
		return ErrInvalidParticipant
	case errors.Is(err, repositories.ErrMatchRoundInvalid):
		return ErrRoundNotFound
	}
	return err
}
