// Package style centralizes lit's terminal output so every command
// renders status, file changes, and progress the same way.
package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.Color("#50FA7B")
	warningColor = lipgloss.Color("#F1FA8C")
	errorColor   = lipgloss.Color("#FF5555")
	hintColor    = lipgloss.Color("#6272A4")
	cyanColor    = lipgloss.Color("#8BE9FD")
	yellowColor  = lipgloss.Color("#F1FA8C")
	greenColor   = lipgloss.Color("#50FA7B")
	redColor     = lipgloss.Color("#FF5555")

	boldStyle    = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(hintColor)
	cyanStyle    = lipgloss.NewStyle().Foreground(cyanColor)
	yellowStyle  = lipgloss.NewStyle().Foreground(yellowColor)
	greenStyle   = lipgloss.NewStyle().Foreground(greenColor)
	redStyle     = lipgloss.NewStyle().Foreground(redColor)
)

// Header renders "=== Title ===".
func Header(title string) string {
	return fmt.Sprintf("=== %s ===", boldStyle.Render(title))
}

// ProjectHeader renders "lit: name vversion".
func ProjectHeader(name, version string) string {
	return fmt.Sprintf("%s: %s %s",
		cyanStyle.Bold(true).Render("lit"),
		boldStyle.Render(name),
		hintStyle.Render("v"+version))
}

// Success renders a green checkmark ahead of msg.
func Success(msg string) string {
	return fmt.Sprintf("%s %s", successStyle.Render("✓"), msg)
}

// Warning renders a yellow warning glyph ahead of msg.
func Warning(msg string) string {
	return fmt.Sprintf("%s %s", warningStyle.Render("⚠"), msg)
}

// Error renders a red cross ahead of msg.
func Error(msg string) string {
	return fmt.Sprintf("%s %s", errorStyle.Render("✗"), msg)
}

// Hint renders msg dimmed, for secondary/explanatory text.
func Hint(msg string) string {
	return hintStyle.Render(msg)
}

// FileNew renders a path as a newly produced file.
func FileNew(path string) string {
	return fmt.Sprintf("  %s %s", greenStyle.Bold(true).Render("+"), greenStyle.Render(path))
}

// FileModified renders a path as a changed file.
func FileModified(path string) string {
	return fmt.Sprintf("  %s %s", yellowStyle.Bold(true).Render("~"), yellowStyle.Render(path))
}

// FileDeleted renders a path as a removed file.
func FileDeleted(path string) string {
	return fmt.Sprintf("  %s %s", redStyle.Bold(true).Render("-"), redStyle.Render(path))
}

// Progress renders "(current/total)", dimmed.
func Progress(current, total int) string {
	return hintStyle.Render(fmt.Sprintf("(%d/%d)", current, total))
}

// Generating renders one prompt's in-flight generation line.
func Generating(promptPath string, current, total int) string {
	return fmt.Sprintf("  %s %s %s",
		cyanStyle.Render("Generating"),
		boldStyle.Render(promptPath),
		Progress(current, total))
}

// Cached renders a cache-hit line for promptPath.
func Cached(promptPath string) string {
	return fmt.Sprintf("  %s %s %s", successStyle.Render("✓"), promptPath, hintStyle.Render("(cached)"))
}

// Skipped renders a skipped-prompt line.
func Skipped(promptPath string) string {
	return fmt.Sprintf("  %s %s %s", hintStyle.Render("—"), hintStyle.Render(promptPath), hintStyle.Render("(skipped)"))
}

// GenResult renders one prompt's generation outcome: file count, token
// counts, and wall time.
func GenResult(files int, tokensIn, tokensOut, durationMs uint64) string {
	return fmt.Sprintf("    %s %s %s, %s",
		successStyle.Render("✓"),
		boldStyle.Render(fmt.Sprintf("%d file(s)", files)),
		hintStyle.Render(fmt.Sprintf("%d in / %d out tokens", tokensIn, tokensOut)),
		hintStyle.Render(fmt.Sprintf("%.1fs", float64(durationMs)/1000.0)))
}

// SummaryLine renders an aligned "key: value" row.
func SummaryLine(key, value string) string {
	return fmt.Sprintf("  %-20s %s", hintStyle.Render(key+":"), value)
}

// Cost renders a dollar amount.
func Cost(amount string) string {
	return yellowStyle.Render(amount)
}

// CommitHash renders a (short) commit hash.
func CommitHash(hash string) string {
	return yellowStyle.Render(hash)
}

// Datetime renders a timestamp string dimmed.
func Datetime(dt string) string {
	return hintStyle.Render(dt)
}

// Section renders a bold section label, e.g. "New prompts:".
func Section(label string) string {
	return boldStyle.Render(label)
}

// RegenHeader renders the `lit regenerate` summary line.
func RegenHeader(regenCount, totalCount int) string {
	return fmt.Sprintf("%s %s prompt(s) to generate %s",
		cyanStyle.Bold(true).Render("lit regenerate:"),
		boldStyle.Render(fmt.Sprintf("%d", regenCount)),
		hintStyle.Render(fmt.Sprintf("(of %d total)", totalCount)))
}

// PatchApplied renders a clean-merge confirmation for filePath.
func PatchApplied(filePath string) string {
	return fmt.Sprintf("    %s Applied manual patch to %s", successStyle.Render("✓"), boldStyle.Render(filePath))
}

// PatchConflict renders a conflict warning for filePath.
func PatchConflict(filePath string) string {
	return fmt.Sprintf("    %s Conflict in %s %s",
		warningStyle.Render("⚠"),
		boldStyle.Render(filePath),
		hintStyle.Render("(manual patch vs new generation)"))
}

// Rule renders a horizontal rule of width chars, dimmed.
func Rule(width int) string {
	return hintStyle.Render(strings.Repeat("-", width))
}
