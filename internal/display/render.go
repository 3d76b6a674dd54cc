package display

import (
	"cmp"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/lox/riichibook/internal/game"
)

// Styles for the log table.
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Win    lipgloss.Style
	Loss   lipgloss.Style
	Border lipgloss.Style
	Title  lipgloss.Style
}

// NewStyles builds the styles on r, so colour follows r's profile.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1),
		Cell: r.NewStyle().Padding(0, 1),
		Win: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Padding(0, 1),
		Loss: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1),
		Border: r.NewStyle().Foreground(lipgloss.Color("#626262")),
		Title: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
	}
}

// PlainRenderer writes without any colour or attributes.
func PlainRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.Ascii)
	return r
}

// Table renders the game log as a bordered table.
func Table(g *game.Game, styles Styles) string {
	entries := g.Log()
	headers := []string{"#", "Hand", "Sticks", "Result"}
	for _, id := range g.Seats() {
		headers = append(headers, g.PlayerName(id))
	}

	rows := Rows(entries)
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := []string{strconv.Itoa(r.Index), r.Signature, strconv.Itoa(r.StartingSticks), r.Summary}
		for j := range r.Points {
			line = append(line, r.Cell(j))
		}
		cells = append(cells, line)
	}

	const firstSeatCol = 4
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if col >= firstSeatCol && row >= 0 && row < len(rows) {
				switch d := rows[row].Deltas[col-firstSeatCol]; {
				case d > 0:
					return styles.Win
				case d < 0:
					return styles.Loss
				}
			}
			return styles.Cell
		})
	return t.Render()
}

// Standings lists players by rank then points; ties share a rank.
func Standings(g *game.Game) string {
	type standing struct {
		rank   int
		name   string
		points int
	}
	var list []standing
	for _, id := range g.Seats() {
		rank := g.PlayerRank(id)
		list = append(list, standing{rank, g.PlayerName(id), g.PlayerPoints(id)})
	}
	slices.SortStableFunc(list, func(a, b standing) int {
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(b.points, a.points)
	})
	var b strings.Builder
	for _, s := range list {
		rank := "-"
		if s.rank > 0 {
			rank = strconv.Itoa(s.rank)
		}
		fmt.Fprintf(&b, "%s. %s %d\n", rank, s.name, s.points)
	}
	return b.String()
}

// Export writes the uncoloured log, final standings included, to w.
func Export(w io.Writer, g *game.Game) error {
	styles := NewStyles(PlainRenderer(w))
	rs := g.Ruleset()
	header := fmt.Sprintf("Ruleset %s, %d players, state %s", rs.Name, rs.NumPlayers, g.State())
	if g.IsUploaded() {
		header += ", uploaded as " + g.UploadID()
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n\n%s", styles.Title.Render(header), Table(g, styles), Standings(g))
	return err
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ExportFilename suggests riichi_YYYYMMDD_<names>.txt for a game played on
// day, names in starting wind order.
func ExportFilename(g *game.Game, day time.Time) string {
	parts := []string{"riichi", day.Format("20060102")}
	for _, id := range g.Seats() {
		name := unsafeName.ReplaceAllString(g.PlayerName(id), "-")
		if name == "" || name == "-" {
			name = id.String()
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, "_") + ".txt"
}
