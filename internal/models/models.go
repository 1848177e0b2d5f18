package models

import (
	"encoding/json"
	"strconv"
)

type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Team struct {
	Title   string `json:"title"`
	Player1 Player `json:"player1"`
	Player2 Player `json:"player2"`
	Score   int    `json:"score"`
}

// HasPlayer reports whether id belongs to one of the team's two players.
func (t Team) HasPlayer(id int) bool {
	return t.Player1.ID == id || t.Player2.ID == id
}

// Assignment is the player chosen for one side of a hole, or none.
// It is stored as the player id, with 0 meaning unassigned.
type Assignment struct {
	playerID int
	set      bool
}

func Assigned(playerID int) Assignment {
	if playerID == 0 {
		return Assignment{}
	}
	return Assignment{playerID: playerID, set: true}
}

func Unassigned() Assignment { return Assignment{} }

func (a Assignment) PlayerID() (int, bool) { return a.playerID, a.set }

func (a Assignment) IsSet() bool { return a.set }

func (a Assignment) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(a.playerID)), nil
}

func (a *Assignment) UnmarshalJSON(data []byte) error {
	var id *int
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	if id == nil {
		*a = Unassigned()
		return nil
	}
	*a = Assigned(*id)
	return nil
}

type Hole struct {
	Number      int        `json:"number"`
	Team1Player Assignment `json:"team1_player"`
	Team2Player Assignment `json:"team2_player"`
}

type Match struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Team1 Team   `json:"team1"`
	Team2 Team   `json:"team2"`
	Holes []Hole `json:"holes"`
}

// MatchPatch carries the fields of a partial update. Nil fields are left
// untouched. There is no id field; a record's id never changes.
type MatchPatch struct {
	Title *string `json:"title,omitempty"`
	Team1 *Team   `json:"team1,omitempty"`
	Team2 *Team   `json:"team2,omitempty"`
	Holes []Hole  `json:"holes,omitempty"`
}

// Apply returns m with the patch merged over it.
func (p MatchPatch) Apply(m Match) Match {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Team1 != nil {
		m.Team1 = *p.Team1
	}
	if p.Team2 != nil {
		m.Team2 = *p.Team2
	}
	if p.Holes != nil {
		m.Holes = copyHoles(p.Holes)
	}
	return m
}

// Clone returns a copy of m that shares no slices with it.
func (m Match) Clone() Match {
	if m.Holes != nil {
		m.Holes = copyHoles(m.Holes)
	}
	return m
}

// copyHoles keeps an empty slice empty rather than nil so it stays [] in JSON.
func copyHoles(holes []Hole) []Hole {
	out := make([]Hole, len(holes))
	copy(out, holes)
	return out
}

// Side names one of the two teams of a match.
type Side string

const (
	Team1 Side = "team1"
	Team2 Side = "team2"
)

func (s Side) Valid() bool { return s == Team1 || s == Team2 }

// Team returns the team on side s.
func (m Match) Team(s Side) Team {
	if s == Team2 {
		return m.Team2
	}
	return m.Team1
}

// Assignment returns the assignment for side s.
func (h Hole) Assignment(s Side) Assignment {
	if s == Team2 {
		return h.Team2Player
	}
	return h.Team1Player
}

// Summary is the list view of a match.
type Summary struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Matchup string `json:"matchup"`
}
