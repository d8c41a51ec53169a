package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/kyokomi/emoji"
	"github.com/pkg/errors"
)

// Format selects the rendering of a run report
type Format string

const (
	FormatJSON     Format = "JSON"
	FormatMarkdown Format = "Markdown"
)

// Render serializes the report in the requested format
func Render(report *types.Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(report, "", "  ")
	case FormatMarkdown:
		return renderMarkdown(report), nil
	}
	return nil, errors.Errorf("format '%s' not supported for report rendering", format)
}

func renderMarkdown(report *types.Report) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chaos Run Report: %s\n\n", report.ExperimentName)
	fmt.Fprintf(&b, "- **Run ID**: %s\n", report.RunID)
	fmt.Fprintf(&b, "- **Outcome**: %s\n", report.Outcome)
	fmt.Fprintf(&b, "- **Started**: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Ended**: %s\n", report.EndedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Duration**: %s\n\n", report.EndedAt.Sub(report.StartedAt).Round(0))

	b.WriteString("## SLO Deltas\n\n")
	if len(report.SloDeltas) == 0 {
		b.WriteString("No SLO observations recorded.\n")
		return []byte(b.String())
	}

	b.WriteString("| Metric | Observed Delta |\n|---|---|\n")
	keys := make([]string, 0, len(report.SloDeltas))
	for key := range report.SloDeltas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "| %s | %+.4f |\n", key, report.SloDeltas[key])
	}
	return []byte(b.String())
}

// Summary returns the one-line human verdict for the run
func Summary(report *types.Report) string {
	switch report.Outcome {
	case types.RunStateCompleted:
		return fmt.Sprintf("The %v run has Passed", report.RunID) + emoji.Sprint(" :thumbsup:")
	default:
		return fmt.Sprintf("The %v run has ended with outcome %v", report.RunID, report.Outcome) + emoji.Sprint(" :thumbsdown:")
	}
}
