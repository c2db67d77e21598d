package report

import (
	"fmt"
	"strings"

	"driftwatch/domain/drift"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders scoring outcomes into markdown documents suitable
// for dashboards, tickets or plain files.
type Markdown struct{}

// NewMarkdown creates the renderer
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// RenderRecap produces the cumulative report for one monitoring run
func (m *Markdown) RenderRecap(recap *drift.Recap) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Drift Recap %s\n\n", recap.RunID)
	fmt.Fprintf(&b, "**Health:** %s | **Windows:** %d | **Drift events:** %d (rate %.2f)\n\n",
		recap.Health, recap.Windows, recap.DriftEvents, recap.OverallDriftRate)
	if !recap.Start.IsZero() {
		fmt.Fprintf(&b, "**Range:** %s to %s\n\n", recap.Start, recap.End)
	}

	b.WriteString("## Features\n\n")
	b.WriteString("| Feature | Windows | Drift Rate | Avg | Max | Latest | Trend |\n")
	b.WriteString("|---------|---------|------------|-----|-----|--------|-------|\n")
	for _, f := range recap.Features {
		fmt.Fprintf(&b, "| %s | %d | %.2f | %.4f | %.4f | %.4f | %s |\n",
			f.Feature, f.Periods, f.DriftRate, f.AvgScore, f.MaxScore, f.LatestScore, f.Trend)
	}

	if len(recap.TopConcerns) > 0 {
		b.WriteString("\n## Top Concerns\n\n")
		for i, c := range recap.TopConcerns {
			fmt.Fprintf(&b, "%d. **%s** drifted in %d of %d windows (avg score %.4f)\n",
				i+1, c.Feature, c.DriftPeriods, c.Periods, c.AvgScore)
		}
	}

	return []byte(b.String())
}

// RenderResultSet produces the report for a single drift check
func (m *Markdown) RenderResultSet(set drift.DriftResultSet) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Drift Check %s\n\n", set.RunID)
	fmt.Fprintf(&b, "**Method:** %s | **Threshold:** %.2f | **Scored:** %s\n\n",
		set.Method, set.Threshold, set.ScoredAt)

	scored := set.Scored()
	fmt.Fprintf(&b, "**Drifting:** %d of %d scored features\n\n", set.DriftCount(), len(scored))

	b.WriteString("| Feature | Score | Band | Drift | Samples |\n")
	b.WriteString("|---------|-------|------|-------|--------|\n")
	for _, r := range scored {
		flag := ""
		if r.Drift {
			flag = "yes"
		}
		fmt.Fprintf(&b, "| %s | %.4f | %s | %s | %d |\n", r.Feature, r.Score, r.Band, flag, r.SampleSize)
	}

	if names := set.MissingFeatures(); len(names) > 0 {
		b.WriteString("\n## Not Scored\n\n")
		for _, name := range names {
			fmt.Fprintf(&b, "- **%s**: %s\n", name, set.Results[name].Reason)
		}
	}

	return []byte(b.String())
}

// HTML converts a rendered markdown document into HTML
func (m *Markdown) HTML(doc []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(p.Parse(doc), renderer)
}
