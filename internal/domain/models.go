package domain

import "time"

// GameStatus is the lifecycle state of a session.
type GameStatus string

const (
	StatusWaitingForPlayers GameStatus = "WAITING_FOR_PLAYERS"
	StatusInProgress        GameStatus = "IN_PROGRESS"
	StatusFinished          GameStatus = "FINISHED"
)

// GamePhase is the sub-state of the current round. Phases advance in the
// order listed; PhaseLobby is re-entered only through an explicit reset.
type GamePhase string

const (
	PhaseLobby                  GamePhase = "LOBBY"
	PhaseCategorySelection      GamePhase = "CATEGORY_SELECTION"
	PhaseDifficultySelection    GamePhase = "DIFFICULTY_SELECTION"
	PhaseCollectingWrongAnswers GamePhase = "COLLECTING_WRONG_ANSWERS"
	PhaseMCQAnswering           GamePhase = "MCQ_ANSWERING"
	PhaseScoreDisplay           GamePhase = "SCORE_DISPLAY"
)

// Difficulty bounds; the tier doubles as the point value for a correct answer.
const (
	MinDifficulty = 1
	MaxDifficulty = 3
)

// Player is a participant in a game session. Order inside
// GameSession.Players is meaningful: it drives turn rotation.
type Player struct {
	ID                   string `json:"id"`
	Username             string `json:"username"`
	AvatarURL            string `json:"avatarUrl,omitempty"`
	Host                 bool   `json:"host"`
	Score                int    `json:"score"`
	Ready                bool   `json:"ready"`
	HasAnswered          bool   `json:"hasAnswered"`
	CurrentAnswer        string `json:"currentAnswer,omitempty"`
	WrongAnswerSubmitted string `json:"wrongAnswerSubmitted,omitempty"`
}

// ResetForRound clears the per-round transient state.
func (p *Player) ResetForRound() {
	p.HasAnswered = false
	p.CurrentAnswer = ""
	p.WrongAnswerSubmitted = ""
}

// AddScore increments the player's score; scores never decrease within a game.
func (p *Player) AddScore(points int) {
	p.Score += points
}

// GameSettings is the room configuration fixed at session creation.
type GameSettings struct {
	MaxPlayers      int    `json:"maxPlayers"`
	TotalRounds     int    `json:"totalRounds"`
	TimePerQuestion int    `json:"timePerQuestion"` // seconds
	Language        string `json:"language"`
}

// GameSession is the full session value persisted per session id.
type GameSession struct {
	ID                 string       `json:"id"`
	Players            []Player     `json:"players"`
	ChosenCategoryIDs  []int64      `json:"chosenCategoryIds"`
	CurrentQuestion    *Question    `json:"currentQuestion,omitempty"`
	Status             GameStatus   `json:"status"`
	StartTime          *time.Time   `json:"startTime,omitempty"`
	EndTime            *time.Time   `json:"endTime,omitempty"`
	Settings           GameSettings `json:"settings"`
	CurrentRound       int          `json:"currentRound"`
	CurrentPhase       GamePhase    `json:"currentPhase"`
	FinalOptions       []string     `json:"finalOptions,omitempty"`
	SelectedCategory   *int64       `json:"selectedCategory,omitempty"`
	SelectedDifficulty *int         `json:"selectedDifficulty,omitempty"`
}

// Question is the language-resolved working copy handed over by the
// question source. Text fields are already in the session's display
// language, so correctness is exact equality on CorrectAnswer.
type Question struct {
	ID              int64    `json:"id"`
	CategoryID      int64    `json:"categoryId"`
	Text            string   `json:"text"`
	CorrectAnswer   string   `json:"correctAnswer"`
	TrapAnswer      string   `json:"trapAnswer,omitempty"`
	FallbackOptions []string `json:"fallbackOptions,omitempty"`
	Difficulty      int      `json:"difficulty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
}

// IsCorrect reports whether answer matches the resolved correct answer.
func (q Question) IsCorrect(answer string) bool {
	return answer != "" && answer == q.CorrectAnswer
}

// Category identifies a question category with its localized display name.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
