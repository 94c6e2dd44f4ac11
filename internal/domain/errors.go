package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every sentinel below wraps exactly one of these so callers
// can classify failures with errors.Is.
var (
	// ErrNotFound covers identifiers that do not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument covers malformed input; no partial mutation is applied.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState covers operations that are not legal in the current
	// phase or status, as opposed to bad input.
	ErrInvalidState = errors.New("invalid state")
)

var (
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
	// ErrPlayerNotFound is returned when a player id is absent from the session.
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)
	// ErrQuestionNotFound indicates the question source has no question for
	// the requested category and difficulty.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)

	// ErrNotYourTurn is returned when a player other than the turn player
	// tries to select the category or difficulty.
	ErrNotYourTurn = fmt.Errorf("%w: not your turn", ErrInvalidArgument)
	// ErrCategoryNotAvailable is returned for a category outside the
	// session's candidate set.
	ErrCategoryNotAvailable = fmt.Errorf("%w: category not available", ErrInvalidArgument)
	// ErrInvalidDifficulty is returned for a difficulty outside [1,3].
	ErrInvalidDifficulty = fmt.Errorf("%w: difficulty out of range", ErrInvalidArgument)

	// ErrSessionFull is returned when joining would exceed max players.
	ErrSessionFull = fmt.Errorf("%w: session is full", ErrInvalidState)
	// ErrGameAlreadyStarted is returned when joining a session that left the lobby.
	ErrGameAlreadyStarted = fmt.Errorf("%w: game already started", ErrInvalidState)
	// ErrNotEnoughPlayers is returned when starting with fewer than two players.
	ErrNotEnoughPlayers = fmt.Errorf("%w: at least 2 players required", ErrInvalidState)
	// ErrPlayersNotReady is returned when starting before everyone is ready.
	ErrPlayersNotReady = fmt.Errorf("%w: all players must be ready", ErrInvalidState)
	// ErrTooManyPlayers is returned when the roster exceeds max players at start.
	ErrTooManyPlayers = fmt.Errorf("%w: too many players", ErrInvalidState)
	// ErrWrongPhase is returned for a phase-bound operation issued in another phase.
	ErrWrongPhase = fmt.Errorf("%w: operation not allowed in current phase", ErrInvalidState)
	// ErrNoQuestionAvailable is returned when no question exists for the
	// selected category and difficulty.
	ErrNoQuestionAvailable = fmt.Errorf("%w: no question available", ErrInvalidState)
)
