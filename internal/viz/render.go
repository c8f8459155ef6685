// Package viz renders solver and trajectory output for the terminal.
// It is presentation glue only; nothing here feeds back into the core.
package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/rubytessa/shrubification-model/internal/canopy"
	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/montecarlo"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	feasibleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	infeasibleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
)

// RenderEquilibrium formats a solved canopy table, tallest species
// first, with the light profile down the canopy.
func RenderEquilibrium(table *canopy.Table) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("canopy equilibrium"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("%3s %8s %8s %10s %12s %12s",
		"id", "height", "u", "density", "light_above", "light_below")))
	b.WriteString("\n")

	for _, l := range table.Layers {
		line := fmt.Sprintf("%3d %8.3f %8.4f %10.4f %12.6f %12.6f",
			l.SpeciesID, l.Height, l.U, l.Density, l.LightAbove, l.LightBelow)
		if l.Feasible {
			b.WriteString(feasibleStyle.Render(line))
		} else {
			b.WriteString(infeasibleStyle.Render(line + "  (absent)"))
		}
		b.WriteString("\n")
	}

	if len(table.Warnings) > 0 {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("%d bracket warning(s)", len(table.Warnings))))
		b.WriteString("\n")
	}

	return b.String()
}

// PlotTrajectory draws per-species density over time as an ASCII
// graph, one series per species.
func PlotTrajectory(result *dynamics.Result, height int) string {
	if len(result.States) == 0 {
		return ""
	}
	species := len(result.States[0])

	series := make([][]float64, species)
	for s := 0; s < species; s++ {
		series[s] = make([]float64, len(result.States))
		for i := range result.States {
			series[s][i] = result.States[i][s]
		}
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(80),
		asciigraph.Caption("ramet density over time (tallest species first)"),
	)
}

// PlotBins draws the binned mean density along the trait axis. Empty
// bins are skipped: an empty bin is a sampling gap, and plotting it as
// zero would fabricate an absence.
func PlotBins(bins []montecarlo.BinStat, height int) string {
	data := make([]float64, 0, len(bins))
	for _, b := range bins {
		if b.Count == 0 || math.IsNaN(b.MeanDensity) {
			continue
		}
		data = append(data, b.MeanDensity)
	}
	if len(data) == 0 {
		return subtleStyle.Render("no occupied bins")
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(80),
		asciigraph.Caption("mean equilibrium density per occupied trait bin"),
	)
}
