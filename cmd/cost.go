package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/record"
	"github.com/clintonboys/lit/internal/style"
)

var (
	costLast      bool
	costBreakdown bool
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show generation cost across recorded runs",
	RunE:  runCost,
}

func init() {
	costCmd.Flags().BoolVar(&costLast, "last", false, "show only the most recent generation run")
	costCmd.Flags().BoolVar(&costBreakdown, "breakdown", false, "show a per-prompt or per-run breakdown")
	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	generationsDir := filepath.Join(root, ".lit", "generations")
	records, warnings, err := record.List(generationsDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range warnings {
		fmt.Fprintln(out, style.Warning(w))
	}

	if len(records) == 0 {
		fmt.Fprintln(out, style.Hint("No generation records found."))
		fmt.Fprintln(out, style.Hint("Hint: run `lit regenerate` first."))
		return nil
	}

	if costLast {
		printRecordSummary(out, records[len(records)-1], costBreakdown)
	} else {
		printAggregate(out, records, costBreakdown)
	}
	return nil
}

func printRecordSummary(out io.Writer, rec *record.Record, breakdown bool) {
	fmt.Fprintln(out, style.Header("Last Generation"))
	fmt.Fprintln(out, style.SummaryLine("Time", style.Datetime(rec.Timestamp)))
	fmt.Fprintln(out, style.SummaryLine("Model", rec.ModelID))
	fmt.Fprintln(out, style.SummaryLine("Prompts", fmt.Sprintf("%d total (%d generated, %d cached, %d skipped)", rec.Summary.PromptCount+rec.Summary.Skipped, rec.Summary.PromptCount-rec.Summary.CacheHits, rec.Summary.CacheHits, rec.Summary.Skipped)))
	fmt.Fprintln(out, style.SummaryLine("Tokens", fmt.Sprintf("%s in / %s out", record.FormatTokens(rec.Summary.TokensIn), record.FormatTokens(rec.Summary.TokensOut))))
	fmt.Fprintln(out, style.SummaryLine("Cost", style.Cost(record.FormatCost(rec.Summary.CostUSD))))

	if !breakdown {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+style.Section("Per-prompt breakdown:"))
	prompts := append([]record.PromptRecord(nil), rec.Prompts...)
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].CostUSD > prompts[j].CostUSD })
	for _, p := range prompts {
		status := "generated"
		if p.FromCache {
			status = "cached"
		}
		fmt.Fprintf(out, "    %s (%s) - %s in / %s out - %s\n",
			p.Path, status, record.FormatTokens(p.TokensIn), record.FormatTokens(p.TokensOut), style.Cost(record.FormatCost(p.CostUSD)))
	}
}

func printAggregate(out io.Writer, records []*record.Record, breakdown bool) {
	var totalCost float64
	var tokensIn, tokensOut uint64
	var hits, misses, skipped int
	for _, r := range records {
		totalCost += r.Summary.CostUSD
		tokensIn += r.Summary.TokensIn
		tokensOut += r.Summary.TokensOut
		hits += r.Summary.CacheHits
		misses += r.Summary.PromptCount - r.Summary.CacheHits
		skipped += r.Summary.Skipped
	}

	fmt.Fprintln(out, style.Header(fmt.Sprintf("Cost Summary (%d generation(s))", len(records))))
	fmt.Fprintln(out, style.SummaryLine("Total cost", style.Cost(record.FormatCost(totalCost))))
	fmt.Fprintln(out, style.SummaryLine("Total tokens", fmt.Sprintf("%s in / %s out", record.FormatTokens(tokensIn), record.FormatTokens(tokensOut))))
	fmt.Fprintln(out, style.SummaryLine("Cache", fmt.Sprintf("%d hit(s), %d miss(es), %d skipped", hits, misses, skipped)))
	fmt.Fprintln(out, style.SummaryLine("First run", style.Datetime(records[0].Timestamp)))
	fmt.Fprintln(out, style.SummaryLine("Latest run", style.Datetime(records[len(records)-1].Timestamp)))

	if !breakdown {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+style.Section("Per-generation breakdown:"))
	for i, r := range records {
		fmt.Fprintf(out, "    %d. %s - %d total (%d generated, %d cached, %d skipped) - %s in / %s out - %s\n",
			i+1, r.Timestamp, r.Summary.PromptCount+r.Summary.Skipped, r.Summary.PromptCount-r.Summary.CacheHits, r.Summary.CacheHits, r.Summary.Skipped,
			record.FormatTokens(r.Summary.TokensIn), record.FormatTokens(r.Summary.TokensOut), style.Cost(record.FormatCost(r.Summary.CostUSD)))
	}
}
