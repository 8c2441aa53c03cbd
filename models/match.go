package models

import "time"

// MatchResult is the terminal result tag of a match.
type MatchResult string

const (
	ResultWhiteWins    MatchResult = "white_wins"
	ResultBlackWins    MatchResult = "black_wins"
	ResultDraw         MatchResult = "draw"
	ResultBye          MatchResult = "bye"
	ResultForfeitWhite MatchResult = "forfeit_white" // white loses by forfeit
	ResultForfeitBlack MatchResult = "forfeit_black" // black loses by forfeit
	ResultNotPlayed    MatchResult = "not_played"
)

// SourceTagSwissSystem marks matches generated by the pairing engine.
const SourceTagSwissSystem = "swiss_system"

// Match belongs to a round. BlackID is nil for a bye. Scores are canonical
// points as stored, never derived from the result tag.
type Match struct {
	ID         int         `json:"id" db:"id"`
	RoundID    int         `json:"round_id" db:"round_id"`
	BoardNo    int         `json:"board_no" db:"board_no"`
	WhiteID    int         `json:"white_id" db:"white_id"`
	BlackID    *int        `json:"black_id,omitempty" db:"black_id"`
	Result     MatchResult `json:"result" db:"result"`
	ScoreWhite float64     `json:"score_white" db:"score_white"`
	ScoreBlack float64     `json:"score_black" db:"score_black"`
	SourceTag  string      `json:"source_tag" db:"source_tag"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`

	// Populated by queries joining rounds; not a column of matches.
	RoundNumber int `json:"round_number" db:"-"`
}

// MatchDraft is a pairing row handed to the repository for batch insert.
type MatchDraft struct {
	BoardNo    int         `json:"board_no"`
	WhiteID    int         `json:"white_id"`
	BlackID    *int        `json:"black_id,omitempty"`
	Result     MatchResult `json:"result"`
	ScoreWhite float64     `json:"score_white"`
	ScoreBlack float64     `json:"score_black"`
	SourceTag  string      `json:"source_tag"`
}

// IsBye reports whether the match is a bye assignment.
func (m *Match) IsBye() bool {
	return m.BlackID == nil
}

// IsTerminal reports whether the match carries a final result.
func (m *Match) IsTerminal() bool {
	return m.Result != ResultNotPlayed
}
