package scorecard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/danijoha94/vintertour/internal/models"
)

// ErrIncomplete is returned when a card is sent before every hole has a
// player for both teams.
var ErrIncomplete = errors.New("not every hole has a player for both teams")

// IncompleteMessage is shown to the user in place of ErrIncomplete.
const IncompleteMessage = "Alle hull må ha en valgt spiller for begge lag før du kan sende inn."

const (
	ruleWidth = 50
	nameWidth = 20
)

// Subject is the mail subject for m.
func Subject(m models.Match) string {
	return fmt.Sprintf("%s, %s vs %s", m.Title, m.Team1.Title, m.Team2.Title)
}

// Body is the plain-text summary: result lines followed by one row per hole
// with the assigned player names in fixed-width columns.
func Body(m models.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kamp: %s\n", m.Title)
	fmt.Fprintf(&b, "%s vs %s\n\n", m.Team1.Title, m.Team2.Title)
	b.WriteString("Resultat:\n")
	fmt.Fprintf(&b, "%s: %d\n", m.Team1.Title, m.Team1.Score)
	fmt.Fprintf(&b, "%s: %d\n\n", m.Team2.Title, m.Team2.Score)
	fmt.Fprintf(&b, "Hull | %s | %s\n", m.Team1.Title, m.Team2.Title)
	b.WriteString(strings.Repeat("─", ruleWidth))
	b.WriteString("\n")

	for _, h := range m.Holes {
		name1 := PlayerName(m, models.Team1, h.Team1Player)
		name2 := PlayerName(m, models.Team2, h.Team2Player)
		fmt.Fprintf(&b, "%2d   | %s | %s\n", h.Number, padRight(name1, nameWidth), name2)
	}
	return b.String()
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// MailtoLink builds the mailto: link for sending m's summary to recipient.
// It fails with ErrIncomplete while any hole is missing a player.
func MailtoLink(m models.Match, recipient string) (string, error) {
	if !Complete(m) {
		return "", ErrIncomplete
	}
	return "mailto:" + recipient +
		"?subject=" + encodeComponent(Subject(m)) +
		"&body=" + encodeComponent(Body(m)), nil
}

// encodeComponent percent-encodes s for a mailto header value. Spaces become
// %20; mail clients do not read "+" as a space.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
