package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
)

// Output formats.
const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"

	boxWidth = 64
)

// boxBorderColor returns the Lip Gloss color used for result box borders.
func boxBorderColor() lipgloss.Color { return lipgloss.Color("240") }

// boxTitleColor returns the Lip Gloss color used for result box titles.
func boxTitleColor() lipgloss.Color { return lipgloss.Color("39") }

// carbonLevelColor maps a carbon level to its display color.
func carbonLevelColor(level carbon.CarbonLevel) lipgloss.Color {
	switch level {
	case carbon.CarbonLow:
		return lipgloss.Color("42")
	case carbon.CarbonHigh:
		return lipgloss.Color("196")
	default:
		return lipgloss.Color("214")
	}
}

// resolveOutput turns "auto" into table on a terminal and JSON otherwise.
func resolveOutput(w io.Writer, format string) (string, error) {
	switch format {
	case outputAuto, "":
		if isWriterTerminal(w) {
			return outputTable, nil
		}
		return outputJSON, nil
	case outputTable, outputJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}

// isWriterTerminal reports whether w is a terminal.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return isFdTerminal(f.Fd())
	}
	return false
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderCalculation(w io.Writer, format string, resp engine.Response[*engine.Data]) error {
	if format == outputJSON {
		return writeJSON(w, resp)
	}
	if !resp.OK() {
		_, err := fmt.Fprintf(w, "Error %d: %s\n%s\n", resp.Code, resp.Message, resp.Error)
		return err
	}
	if isWriterTerminal(w) {
		return renderStyledCalculation(w, resp.Data)
	}
	return renderPlainCalculation(w, resp.Data)
}

// calculationLines returns the label/value rows shared by both renderings.
func calculationLines(d *engine.Data) [][2]string {
	fp := d.CarbonFootprint
	rows := [][2]string{
		{"Footprint", carbon.FormatKg(fp.Value)},
		{"Baseline", fmt.Sprintf("%s (%s to %s)", carbon.FormatKg(fp.Baseline),
			carbon.FormatFloat(fp.Interval.Lower, 2), carbon.FormatFloat(fp.Interval.Upper, 2))},
		{"Reduction", carbon.FormatKg(fp.Reduction)},
		{"Tier", string(d.CalculationLevel)},
		{"Region", d.Region},
		{"Ingredients", carbon.FormatKg(fp.Breakdown.Ingredients)},
		{"Energy", carbon.FormatKg(fp.Breakdown.Energy)},
		{"Packaging", carbon.FormatKg(fp.Breakdown.Packaging)},
		{"Transport", carbon.FormatKg(fp.Breakdown.Transport)},
	}
	if eq, ok, err := carbon.Equivalencies(fp.Value); err == nil && ok {
		rows = append(rows, [2]string{"Equivalent", eq.DisplayText})
	}
	return rows
}

func renderPlainCalculation(w io.Writer, d *engine.Data) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Carbon level: %s\n", strings.ToUpper(string(d.CarbonLevel)))
	for _, row := range calculationLines(d) {
		fmt.Fprintf(&b, "%-12s %s\n", row[0]+":", row[1])
	}
	writeWarnings(&b, d)
	_, err := io.WriteString(w, b.String())
	return err
}

// renderStyledCalculation writes a bordered result box for TTY output.
func renderStyledCalculation(w io.Writer, d *engine.Data) error {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(boxTitleColor())
	levelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(carbonLevelColor(d.CarbonLevel))
	labelStyle := lipgloss.NewStyle().Bold(true).Width(13)
	borderStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(boxBorderColor()).
		Padding(0, 1).
		Width(boxWidth)

	var content strings.Builder
	content.WriteString(titleStyle.Render("MENU ITEM FOOTPRINT"))
	content.WriteString("  ")
	content.WriteString(levelStyle.Render(strings.ToUpper(string(d.CarbonLevel))))
	content.WriteString("\n\n")
	for _, row := range calculationLines(d) {
		content.WriteString(labelStyle.Render(row[0]))
		content.WriteString(row[1])
		content.WriteString("\n")
	}
	writeWarnings(&content, d)

	_, err := fmt.Fprintln(w, borderStyle.Render(strings.TrimRight(content.String(), "\n")))
	return err
}

func writeWarnings(b *strings.Builder, d *engine.Data) {
	if d.OptimizationFlag.NeedsOptimization {
		fmt.Fprintf(b, "\n! %s\n", d.OptimizationFlag.WarningMessage)
	}
	if len(d.Warnings) == 0 {
		return
	}
	b.WriteString("\nWarnings:\n")
	for _, warning := range d.Warnings {
		fmt.Fprintf(b, "  - %s\n", warning)
	}
}

func renderBatchSummary(w io.Writer, format string, resp engine.Response[*carbon.BatchSummary]) error {
	if format == outputJSON {
		return writeJSON(w, resp)
	}
	if !resp.OK() {
		_, err := fmt.Fprintf(w, "Error %d: %s\n%s\n", resp.Code, resp.Message, resp.Error)
		return err
	}
	s := resp.Data
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d items, %d succeeded, %d failed\n", s.RunID, s.Total, s.Success, s.Failed)
	for _, r := range s.Results {
		status := "ok"
		switch {
		case !r.Success:
			status = "FAILED"
		case r.Changed:
			status = "changed"
		}
		fmt.Fprintf(&b, "  %-24s %-8s %s\n", r.MenuItemID, status, r.Message)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderFactors(w io.Writer, format string, resp engine.Response[[]factor.LookupRecord]) error {
	if format == outputJSON {
		return writeJSON(w, resp)
	}
	if !resp.OK() {
		_, err := fmt.Fprintf(w, "Error %d: %s\n%s\n", resp.Code, resp.Message, resp.Error)
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-20s %10s %-12s %s\n", "INPUT", "FACTOR", "VALUE", "MATCH", "SOURCE")
	for _, r := range resp.Data {
		value := "-"
		if r.Value != nil {
			value = carbon.FormatFloat(*r.Value, 4)
		}
		source := r.Source
		if !r.Success {
			source = r.Error
		}
		fmt.Fprintf(&b, "%-20s %-20s %10s %-12s %s\n", r.Input, r.FactorID, value, r.MatchLevel, source)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
