package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HAN2S/Houps/internal/domain"
)

// SessionStore abstracts the durable keyed session record (Redis in
// production, in-memory for tests). Put refreshes the sliding expiry on
// every write; expiry of abandoned sessions is entirely the store's business.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (domain.GameSession, error)
	Put(ctx context.Context, sessionID string, session domain.GameSession) error
	Delete(ctx context.Context, sessionID string) error
}

// QuestionSource supplies language-resolved questions and categories.
type QuestionSource interface {
	RandomQuestion(ctx context.Context, categoryID int64, difficulty int, lang string) (domain.Question, error)
	Categories(ctx context.Context, lang string) ([]domain.Category, error)
}

// Notifier publishes the session state to whoever observes that session id.
// Delivery is fire-and-forget: implementations log failures and never
// surface them to the mutating operation.
type Notifier interface {
	Publish(sessionID string, session domain.GameSession)
}

// GameService is the session state machine. Every mutating operation runs
// under the session's lock as load -> validate -> mutate -> persist ->
// publish; persistence and the broadcast are observable effects of every
// successful mutation.
type GameService struct {
	store     SessionStore
	questions QuestionSource
	notifier  Notifier
	locks     *sessionLocks
	rnd       *lockedRand
	now       func() time.Time
}

func NewGameService(store SessionStore, questions QuestionSource, notifier Notifier) *GameService {
	return newGameService(store, questions, notifier,
		rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// NewGameServiceWithClock is test-only for deterministic shuffles and timestamps.
func NewGameServiceWithClock(store SessionStore, questions QuestionSource, notifier Notifier, rnd *rand.Rand, now func() time.Time) *GameService {
	return newGameService(store, questions, notifier, rnd, now)
}

func newGameService(store SessionStore, questions QuestionSource, notifier Notifier, rnd *rand.Rand, now func() time.Time) *GameService {
	return &GameService{
		store:     store,
		questions: questions,
		notifier:  notifier,
		locks:     newSessionLocks(),
		rnd:       &lockedRand{r: rnd},
		now:       now,
	}
}

// CreateSession opens a new room with the caller as host. When no category
// ids are chosen the whole catalog becomes the candidate set.
func (s *GameService) CreateSession(ctx context.Context, username, avatarURL string, settings domain.GameSettings, chosenCategoryIDs []int64) (domain.GameSession, error) {
	if username == "" {
		return domain.GameSession{}, fmt.Errorf("%w: username is required", domain.ErrInvalidArgument)
	}
	if settings.MaxPlayers < 2 {
		return domain.GameSession{}, fmt.Errorf("%w: max players must be at least 2", domain.ErrInvalidArgument)
	}
	if settings.TotalRounds < 1 {
		return domain.GameSession{}, fmt.Errorf("%w: total rounds must be at least 1", domain.ErrInvalidArgument)
	}
	if settings.Language == "" {
		settings.Language = "en"
	}
	if settings.TimePerQuestion <= 0 {
		settings.TimePerQuestion = 30
	}

	if len(chosenCategoryIDs) == 0 {
		categories, err := s.questions.Categories(ctx, settings.Language)
		if err != nil {
			return domain.GameSession{}, fmt.Errorf("load categories: %w", err)
		}
		for _, c := range categories {
			chosenCategoryIDs = append(chosenCategoryIDs, c.ID)
		}
	}

	session := domain.GameSession{
		ID:                uuid.NewString(),
		Players:           []domain.Player{newHostPlayer(username, avatarURL)},
		ChosenCategoryIDs: chosenCategoryIDs,
		Status:            domain.StatusWaitingForPlayers,
		Settings:          settings,
		CurrentRound:      1,
		CurrentPhase:      domain.PhaseLobby,
	}
	if err := s.save(ctx, &session); err != nil {
		return domain.GameSession{}, err
	}
	log.Printf("session %s created by %s", session.ID, username)
	return session, nil
}

// AddPlayer appends a player to a waiting session, preserving arrival order.
func (s *GameService) AddPlayer(ctx context.Context, sessionID, username, avatarURL string) (domain.Player, error) {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Player{}, err
	}
	if session.Status != domain.StatusWaitingForPlayers {
		return domain.Player{}, domain.ErrGameAlreadyStarted
	}
	if len(session.Players) >= session.Settings.MaxPlayers {
		return domain.Player{}, domain.ErrSessionFull
	}

	player := newPlayer(username, avatarURL)
	session.Players = append(session.Players, player)
	if err := s.save(ctx, &session); err != nil {
		return domain.Player{}, err
	}
	log.Printf("player %s joined session %s (%d/%d)", username, sessionID, len(session.Players), session.Settings.MaxPlayers)
	return player, nil
}

// RemovePlayer drops a player from the session; unknown ids are a no-op.
// Phase and status are left untouched, which means a mid-game leave can
// shift turn rotation for subsequent rounds. The last player leaving
// deletes the session outright.
func (s *GameService) RemovePlayer(ctx context.Context, sessionID, playerID string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Players = removePlayer(session.Players, playerID)
	if len(session.Players) == 0 {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			return err
		}
		s.locks.forget(sessionID)
		log.Printf("session %s deleted: last player left", sessionID)
		return nil
	}
	return s.save(ctx, &session)
}

// ToggleReady flips the player's ready flag.
func (s *GameService) ToggleReady(ctx context.Context, sessionID, playerID string) (domain.GameSession, error) {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}
	i := findPlayer(session.Players, playerID)
	if i < 0 {
		return domain.GameSession{}, domain.ErrPlayerNotFound
	}
	session.Players[i].Ready = !session.Players[i].Ready
	if err := s.save(ctx, &session); err != nil {
		return domain.GameSession{}, err
	}
	return session, nil
}

// Start moves a waiting session into the first round. The host is marked
// ready automatically; that side effect survives even when the start
// attempt itself fails. No question is requested here; question selection
// waits for the round's category and difficulty picks.
func (s *GameService) Start(ctx context.Context, sessionID string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	for i := range session.Players {
		if session.Players[i].Host && !session.Players[i].Ready {
			log.Printf("marking host %s ready in session %s", session.Players[i].Username, sessionID)
			session.Players[i].Ready = true
			if err := s.save(ctx, &session); err != nil {
				return err
			}
		}
	}

	switch {
	case session.Status != domain.StatusWaitingForPlayers:
		return fmt.Errorf("%w: game can only start from the lobby", domain.ErrInvalidState)
	case len(session.Players) < 2:
		return domain.ErrNotEnoughPlayers
	case len(session.Players) > session.Settings.MaxPlayers:
		return domain.ErrTooManyPlayers
	case !allReady(session.Players):
		return domain.ErrPlayersNotReady
	}

	start := s.now()
	session.Status = domain.StatusInProgress
	session.StartTime = &start
	session.CurrentRound = 1
	session.CurrentPhase = domain.PhaseCategorySelection
	session.CurrentQuestion = nil
	session.SelectedCategory = nil
	session.SelectedDifficulty = nil
	session.FinalOptions = nil
	if err := s.save(ctx, &session); err != nil {
		return err
	}
	log.Printf("session %s started with %d players", sessionID, len(session.Players))
	return nil
}

// SelectCategory records the turn player's category pick for the round.
func (s *GameService) SelectCategory(ctx context.Context, sessionID, playerID string, categoryID int64) (domain.GameSession, error) {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}
	if session.CurrentPhase != domain.PhaseCategorySelection {
		return domain.GameSession{}, domain.ErrWrongPhase
	}
	if tp := turnPlayer(&session); tp == nil || tp.ID != playerID {
		return domain.GameSession{}, domain.ErrNotYourTurn
	}
	if !containsID(session.ChosenCategoryIDs, categoryID) {
		return domain.GameSession{}, domain.ErrCategoryNotAvailable
	}

	session.SelectedCategory = &categoryID
	session.CurrentPhase = domain.PhaseDifficultySelection
	if err := s.save(ctx, &session); err != nil {
		return domain.GameSession{}, err
	}
	log.Printf("session %s round %d: category %d selected", sessionID, session.CurrentRound, categoryID)
	return session, nil
}

// SelectDifficulty records the turn player's difficulty pick, fetches the
// round's question and opens decoy collection.
func (s *GameService) SelectDifficulty(ctx context.Context, sessionID, playerID string, difficulty int) (domain.GameSession, error) {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}
	if session.CurrentPhase != domain.PhaseDifficultySelection || session.SelectedCategory == nil {
		return domain.GameSession{}, domain.ErrWrongPhase
	}
	if tp := turnPlayer(&session); tp == nil || tp.ID != playerID {
		return domain.GameSession{}, domain.ErrNotYourTurn
	}
	if difficulty < domain.MinDifficulty || difficulty > domain.MaxDifficulty {
		return domain.GameSession{}, domain.ErrInvalidDifficulty
	}

	question, err := s.questions.RandomQuestion(ctx, *session.SelectedCategory, difficulty, session.Settings.Language)
	if err != nil {
		if isNotFound(err) {
			return domain.GameSession{}, domain.ErrNoQuestionAvailable
		}
		return domain.GameSession{}, fmt.Errorf("load question: %w", err)
	}

	session.SelectedDifficulty = &difficulty
	session.CurrentQuestion = &question
	session.FinalOptions = nil
	resetPlayersForRound(&session)
	session.CurrentPhase = domain.PhaseCollectingWrongAnswers
	if err := s.save(ctx, &session); err != nil {
		return domain.GameSession{}, err
	}
	log.Printf("session %s round %d: difficulty %d, question %d loaded", sessionID, session.CurrentRound, difficulty, question.ID)
	return session, nil
}

// SubmitWrongAnswer records a player's decoy. Outside the collection phase,
// or for unknown players, it is a logged no-op. When the last player
// submits, the session advances to MCQ answering.
func (s *GameService) SubmitWrongAnswer(ctx context.Context, sessionID, playerID, answer string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.CurrentPhase != domain.PhaseCollectingWrongAnswers {
		log.Printf("ignoring decoy from %s in session %s: phase is %s", playerID, sessionID, session.CurrentPhase)
		return nil
	}
	i := findPlayer(session.Players, playerID)
	if i < 0 {
		log.Printf("ignoring decoy in session %s: unknown player %s", sessionID, playerID)
		return nil
	}

	session.Players[i].WrongAnswerSubmitted = answer
	session.Players[i].HasAnswered = true
	if allAnswered(session.Players) {
		s.advanceToMCQ(&session)
	}
	return s.save(ctx, &session)
}

// SubmitFinalAnswer records a player's multiple-choice pick. Outside the
// MCQ phase, or for unknown players, it is a logged no-op. When the last
// player answers, the round is scored and revealed.
func (s *GameService) SubmitFinalAnswer(ctx context.Context, sessionID, playerID, answer string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.CurrentPhase != domain.PhaseMCQAnswering {
		log.Printf("ignoring final answer from %s in session %s: phase is %s", playerID, sessionID, session.CurrentPhase)
		return nil
	}
	i := findPlayer(session.Players, playerID)
	if i < 0 {
		log.Printf("ignoring final answer in session %s: unknown player %s", sessionID, playerID)
		return nil
	}

	session.Players[i].CurrentAnswer = answer
	session.Players[i].HasAnswered = true
	if allAnswered(session.Players) {
		s.finishAnswering(&session)
	}
	return s.save(ctx, &session)
}

// HandleDecoyTimeout forces the decoy-collection phase to close for
// whichever players have not answered. Idempotent: once the phase has
// advanced, further calls change nothing.
func (s *GameService) HandleDecoyTimeout(ctx context.Context, sessionID string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.CurrentPhase != domain.PhaseCollectingWrongAnswers {
		return nil
	}
	log.Printf("session %s: decoy collection timed out", sessionID)
	s.advanceToMCQ(&session)
	return s.save(ctx, &session)
}

// HandleAnswerTimeout forces the MCQ phase to close and the round to be
// scored with the answers recorded so far. Idempotent.
func (s *GameService) HandleAnswerTimeout(ctx context.Context, sessionID string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.CurrentPhase != domain.PhaseMCQAnswering {
		return nil
	}
	log.Printf("session %s: answer window timed out", sessionID)
	s.finishAnswering(&session)
	return s.save(ctx, &session)
}

// AdvanceRound rotates into the next round, or finishes the game when the
// final round's scores have been displayed.
func (s *GameService) AdvanceRound(ctx context.Context, sessionID string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != domain.StatusInProgress {
		return fmt.Errorf("%w: game is not in progress", domain.ErrInvalidState)
	}

	if session.CurrentRound < session.Settings.TotalRounds {
		session.CurrentRound++
		session.SelectedCategory = nil
		session.SelectedDifficulty = nil
		session.CurrentQuestion = nil
		session.FinalOptions = nil
		resetPlayersForRound(&session)
		session.CurrentPhase = domain.PhaseCategorySelection
		log.Printf("session %s advanced to round %d", sessionID, session.CurrentRound)
	} else {
		end := s.now()
		session.Status = domain.StatusFinished
		session.EndTime = &end
		session.CurrentQuestion = nil
		session.FinalOptions = nil
		resetPlayersForRound(&session)
		log.Printf("session %s finished after %d rounds", sessionID, session.CurrentRound)
	}
	return s.save(ctx, &session)
}

// Reset returns the session to the lobby for a rematch: scores are zeroed,
// every player (host included) is marked not ready, and all round state is
// cleared.
func (s *GameService) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	session.Status = domain.StatusWaitingForPlayers
	session.CurrentPhase = domain.PhaseLobby
	session.CurrentRound = 1
	session.CurrentQuestion = nil
	session.SelectedCategory = nil
	session.SelectedDifficulty = nil
	session.FinalOptions = nil
	session.StartTime = nil
	session.EndTime = nil
	for i := range session.Players {
		session.Players[i].Score = 0
		session.Players[i].Ready = false
		session.Players[i].ResetForRound()
	}
	log.Printf("session %s reset to lobby", sessionID)
	return s.save(ctx, &session)
}

// Session returns the current session snapshot.
func (s *GameService) Session(ctx context.Context, sessionID string) (domain.GameSession, error) {
	return s.store.Get(ctx, sessionID)
}

// Leaderboard returns players sorted by descending score. Ties keep the
// original join order (stable sort).
func (s *GameService) Leaderboard(ctx context.Context, sessionID string) ([]domain.Player, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return leaderboard(session.Players), nil
}

// FindPlayer resolves a player within a session.
func (s *GameService) FindPlayer(ctx context.Context, sessionID, playerID string) (domain.Player, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Player{}, err
	}
	i := findPlayer(session.Players, playerID)
	if i < 0 {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return session.Players[i], nil
}

// Categories lists the catalog for room setup, in the given language.
func (s *GameService) Categories(ctx context.Context, lang string) ([]domain.Category, error) {
	return s.questions.Categories(ctx, lang)
}

// advanceToMCQ closes decoy collection: the option list is materialized and
// has-answered flags reset while the recorded decoys are kept for scoring.
func (s *GameService) advanceToMCQ(session *domain.GameSession) {
	if session.CurrentQuestion != nil {
		session.FinalOptions = buildFinalOptions(session.CurrentQuestion, session.Players, s.rnd)
	}
	clearAnsweredFlags(session)
	session.CurrentPhase = domain.PhaseMCQAnswering
}

// finishAnswering closes the MCQ phase: scores are applied once, then the
// session moves to the reveal.
func (s *GameService) finishAnswering(session *domain.GameSession) {
	applyScores(session)
	clearAnsweredFlags(session)
	session.CurrentPhase = domain.PhaseScoreDisplay
}

// save persists the session and broadcasts the new state. The broadcast is
// best-effort; the notifier logs its own failures.
func (s *GameService) save(ctx context.Context, session *domain.GameSession) error {
	if err := s.store.Put(ctx, session.ID, *session); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	s.notifier.Publish(session.ID, *session)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// lockedRand guards the shared rand.Rand; operations on different sessions
// can shuffle concurrently.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
