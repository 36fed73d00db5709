// Package console renders premium views for a terminal.
package console

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
)

var (
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	invertedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

// Printer writes a banner and a ranked table per view.
type Printer struct {
	Out   io.Writer
	Color bool
}

func (p *Printer) Print(v application.View, outcome application.RefreshOutcome) error {
	_, err := io.WriteString(p.Out, p.Render(v, outcome))
	return err
}

// Render returns the full frame: banner, optional error line, table.
func (p *Printer) Render(v application.View, outcome application.RefreshOutcome) string {
	var b strings.Builder
	b.WriteString(p.banner(v))
	b.WriteString("\n")
	if outcome.Failing() {
		b.WriteString(p.paint(color.FgRed, "refresh failed, showing previous snapshot: "+outcome.LastError))
		b.WriteString("\n")
	}
	if len(v.Rows) == 0 {
		b.WriteString("no common assets\n")
		return b.String()
	}
	b.WriteString(Table(v))
	b.WriteString("\n")
	return b.String()
}

func (p *Printer) banner(v application.View) string {
	rate := "rate " + humanize.FormatFloat("#,###.##", v.Rate.Value)
	if v.Rate.IsFallback {
		rate = p.paint(color.FgYellow, rate+" (fallback, live rate unavailable)")
	} else {
		rate = p.paint(color.FgGreen, rate)
	}
	parts := []string{
		p.paint(color.Bold, "Kimchi premium"),
		rate,
		fmt.Sprintf("%d/%d assets", len(v.Rows), v.Total),
	}
	if !v.FetchedAt.IsZero() {
		parts = append(parts, v.FetchedAt.Local().Format(time.TimeOnly))
	}
	if !v.Health.StatusAvailable {
		parts = append(parts, p.paint(color.FgYellow, "wallet status unavailable"))
	}
	return strings.Join(parts, "  |  ")
}

func (p *Printer) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if p.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// Table renders the rows of v.
func Table(v application.View) string {
	rows := make([][]string, 0, len(v.Rows))
	bands := make([]application.Band, 0, len(v.Rows))
	for _, r := range v.Rows {
		rows = append(rows, []string{
			strconv.Itoa(r.Rank),
			r.Symbol,
			r.Name,
			FormatPrice(r.DomesticPrice, v.Currency),
			FormatPrice(r.ForeignPrice, v.Currency),
			FormatPrice(r.Gap, v.Currency),
			FormatSpread(r.SpreadPercent),
			restriction(r.Restriction),
		})
		bands = append(bands, r.Band)
	}
	cur := string(v.Currency)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Symbol", "Name", "Domestic ("+cur+")", "Foreign ("+cur+")", "Gap", "Premium", "Wallet").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(bands) {
				switch bands[row] {
				case application.BandHigh:
					return highStyle.Inherit(cellStyle)
				case application.BandInverted:
					return invertedStyle.Inherit(cellStyle)
				}
			}
			return cellStyle
		})
	return t.String()
}

// FormatPrice rounds to 0 dp for KRW and 4 dp for USD, with thousands separators.
func FormatPrice(v float64, c application.Currency) string {
	if c == application.CurrencyForeign {
		return humanize.FormatFloat("#,###.####", v)
	}
	return humanize.Comma(int64(math.Round(v)))
}

func FormatSpread(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func restriction(n domain.RestrictionNote) string {
	if !n.Restricted() {
		return "-"
	}
	return n.Label()
}
