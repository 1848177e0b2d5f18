// Package scorecard holds the rules behind the match screens: building a new
// match, editing its title and teams, assigning players to holes and
// recording scores.
package scorecard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/danijoha94/vintertour/internal/models"
)

// HoleCount is the number of holes in a new match.
const HoleCount = 18

// TitleSeparator joins the course name and the creation date in a title.
const TitleSeparator = " – "

var (
	ErrHoleNotFound  = errors.New("hole not found")
	ErrUnknownPlayer = errors.New("player does not belong to team")
	ErrInvalidSide   = errors.New("team must be team1 or team2")
	ErrMissingField  = errors.New("all fields are required")
)

// Matches "– dd.mm.yy" at the end of a title. The "â€“" alternative is how an
// en-dash reads back when its UTF-8 bytes were decoded as Windows-1252.
var titleDate = regexp.MustCompile(`\s*(?:–|â€“)\s*(\d{2}\.\d{2}\.\d{2})$`)

// TeamForm is the team part of the create and edit forms.
type TeamForm struct {
	Title   string `json:"title"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

// MatchForm is what the create and edit screens submit.
type MatchForm struct {
	Course string   `json:"course"`
	Team1  TeamForm `json:"team1"`
	Team2  TeamForm `json:"team2"`
}

func (f MatchForm) validate() error {
	fields := []struct{ name, value string }{
		{"course", f.Course},
		{"team1.title", f.Team1.Title},
		{"team1.player1", f.Team1.Player1},
		{"team1.player2", f.Team1.Player2},
		{"team2.title", f.Team2.Title},
		{"team2.player1", f.Team2.Player1},
		{"team2.player2", f.Team2.Player2},
	}
	var missing []string
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// FormatDate renders t as dd.mm.yy.
func FormatDate(t time.Time) string {
	return t.Format("02.01.06")
}

// Title joins a course name and a dd.mm.yy date.
func Title(course, date string) string {
	if date == "" {
		return course
	}
	return course + TitleSeparator + date
}

// SplitTitle separates a title into course name and dd.mm.yy date. Titles
// without a date suffix come back whole with an empty date.
func SplitTitle(title string) (course, date string) {
	m := titleDate.FindStringSubmatchIndex(title)
	if m == nil {
		return title, ""
	}
	return strings.TrimSpace(title[:m[0]]), title[m[2]:m[3]]
}

// NewMatch builds the record the create screen stores: the course name
// stamped with now, players numbered 1 to 4, zero scores and 18 open holes.
func NewMatch(form MatchForm, now time.Time) (models.Match, error) {
	if err := form.validate(); err != nil {
		return models.Match{}, err
	}
	return models.Match{
		Title: Title(strings.TrimSpace(form.Course), FormatDate(now)),
		Team1: team(form.Team1, 1),
		Team2: team(form.Team2, 3),
		Holes: NewHoles(),
	}, nil
}

// NewHoles returns holes 1..18 with nobody assigned.
func NewHoles() []models.Hole {
	holes := make([]models.Hole, HoleCount)
	for i := range holes {
		holes[i] = models.Hole{Number: i + 1}
	}
	return holes
}

func team(f TeamForm, firstID int) models.Team {
	return models.Team{
		Title:   strings.TrimSpace(f.Title),
		Player1: models.Player{ID: firstID, Name: strings.TrimSpace(f.Player1)},
		Player2: models.Player{ID: firstID + 1, Name: strings.TrimSpace(f.Player2)},
	}
}

// EditForm fills a MatchForm from a stored match, as the edit screen does
// when it opens.
func EditForm(m models.Match) MatchForm {
	course, _ := SplitTitle(m.Title)
	return MatchForm{
		Course: course,
		Team1:  TeamForm{Title: m.Team1.Title, Player1: m.Team1.Player1.Name, Player2: m.Team1.Player2.Name},
		Team2:  TeamForm{Title: m.Team2.Title, Player1: m.Team2.Player1.Name, Player2: m.Team2.Player2.Name},
	}
}

// EditPatch turns a submitted edit form into the update for existing. The
// original date suffix is kept, player ids and scores are carried over and
// holes are left alone.
func EditPatch(existing models.Match, form MatchForm) (models.MatchPatch, error) {
	if err := form.validate(); err != nil {
		return models.MatchPatch{}, err
	}
	_, date := SplitTitle(existing.Title)
	title := Title(strings.TrimSpace(form.Course), date)

	team1 := editTeam(existing.Team1, form.Team1)
	team2 := editTeam(existing.Team2, form.Team2)
	return models.MatchPatch{Title: &title, Team1: &team1, Team2: &team2}, nil
}

func editTeam(existing models.Team, f TeamForm) models.Team {
	existing.Title = strings.TrimSpace(f.Title)
	existing.Player1.Name = strings.TrimSpace(f.Player1)
	existing.Player2.Name = strings.TrimSpace(f.Player2)
	return existing
}

// Assign returns m's holes with playerID chosen for side on the given hole.
func Assign(m models.Match, holeNumber int, side models.Side, playerID int) ([]models.Hole, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if !m.Team(side).HasPlayer(playerID) {
		return nil, fmt.Errorf("%w: player %d, %s", ErrUnknownPlayer, playerID, side)
	}
	return setAssignment(m, holeNumber, side, models.Assigned(playerID))
}

// Unassign returns m's holes with side cleared on the given hole.
func Unassign(m models.Match, holeNumber int, side models.Side) ([]models.Hole, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	return setAssignment(m, holeNumber, side, models.Unassigned())
}

func setAssignment(m models.Match, holeNumber int, side models.Side, a models.Assignment) ([]models.Hole, error) {
	holes := append([]models.Hole(nil), m.Holes...)
	found := false
	for i := range holes {
		if holes[i].Number != holeNumber {
			continue
		}
		found = true
		if side == models.Team1 {
			holes[i].Team1Player = a
		} else {
			holes[i].Team2Player = a
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrHoleNotFound, holeNumber)
	}
	return holes, nil
}

// SetScore returns both teams of m with side's score replaced. Score edits
// always write both teams.
func SetScore(m models.Match, side models.Side, score int) (team1, team2 models.Team, err error) {
	if !side.Valid() {
		return models.Team{}, models.Team{}, ErrInvalidSide
	}
	team1, team2 = m.Team1, m.Team2
	if side == models.Team1 {
		team1.Score = score
	} else {
		team2.Score = score
	}
	return team1, team2, nil
}

// PlayerName is the name of the player assigned to side, or "" when the
// slot is empty or the id matches neither player.
func PlayerName(m models.Match, side models.Side, a models.Assignment) string {
	id, ok := a.PlayerID()
	if !ok {
		return ""
	}
	t := m.Team(side)
	switch id {
	case t.Player1.ID:
		return t.Player1.Name
	case t.Player2.ID:
		return t.Player2.Name
	}
	return ""
}

// PlayerCount is how many holes a player has been assigned.
type PlayerCount struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Holes    int    `json:"holes"`
}

// Counts tallies the assigned holes per player, team1's players first.
func Counts(m models.Match) []PlayerCount {
	count := func(side models.Side, p models.Player) PlayerCount {
		n := 0
		for _, h := range m.Holes {
			if id, ok := h.Assignment(side).PlayerID(); ok && id == p.ID {
				n++
			}
		}
		return PlayerCount{PlayerID: p.ID, Name: p.Name, Holes: n}
	}
	return []PlayerCount{
		count(models.Team1, m.Team1.Player1),
		count(models.Team1, m.Team1.Player2),
		count(models.Team2, m.Team2.Player1),
		count(models.Team2, m.Team2.Player2),
	}
}

// Complete reports whether every hole has a player for both teams.
func Complete(m models.Match) bool {
	for _, h := range m.Holes {
		if !h.Team1Player.IsSet() || !h.Team2Player.IsSet() {
			return false
		}
	}
	return true
}

// Summaries derives the list screen rows.
func Summaries(matches []models.Match) []models.Summary {
	out := make([]models.Summary, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.Summary{
			ID:      m.ID,
			Title:   m.Title,
			Matchup: m.Team1.Title + " vs " + m.Team2.Title,
		})
	}
	return out
}
