// Package cli implements the platectl subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dukerupert/platescore/internal/food"
	"github.com/dukerupert/platescore/internal/model"
	"github.com/dukerupert/platescore/internal/scoring"
	"github.com/dukerupert/platescore/internal/store"
)

// Context is passed to every command's Run method. Service and Store are
// constructed on first use so commands that need neither the catalog nor the
// database do not pay for them.
type Context struct {
	Out     io.Writer
	In      io.Reader
	JSON    bool
	Service func() (*food.Service, error)
	Store   func() (*store.TrackingStore, error)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	ratingStyles = map[string]lipgloss.Style{
		scoring.RatingExcellent: lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
		scoring.RatingGood:      lipgloss.NewStyle().Foreground(lipgloss.Color("112")),
		scoring.RatingModerate:  lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		scoring.RatingPoor:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		scoring.RatingUnhealthy: lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
	}
)

func scoreBadge(score int, rating string) string {
	style, ok := ratingStyles[rating]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(fmt.Sprintf("%3d %-9s", score, rating))
}

func (c *Context) printJSON(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Context) printProducts(products []model.FoodProduct) error {
	if c.JSON {
		return c.printJSON(products)
	}
	if len(products) == 0 {
		fmt.Fprintln(c.Out, "No products found")
		return nil
	}
	for _, p := range products {
		c.printProductLine(p)
	}
	return nil
}

func (c *Context) printProductLine(p model.FoodProduct) {
	var details []string
	if b := p.BrandName(); b != "" {
		details = append(details, b)
	}
	if p.Category != "" {
		details = append(details, p.Category)
	}
	if p.Barcode != nil {
		details = append(details, *p.Barcode)
	}
	fmt.Fprintf(c.Out, "%s  %s  %s\n", scoreBadge(p.HealthScore, p.HealthRating), p.ProductName, dimStyle.Render(strings.Join(details, " · ")))
}
