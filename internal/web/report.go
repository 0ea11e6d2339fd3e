// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"fmt"
	"strings"

	"clause-scan/internal/schema"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const reportShell = `<!DOCTYPE html>
<html><head><title>Clause Risk Report</title>
<style>
body { font-family: sans-serif; margin: 2em; max-width: 60em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; text-align: left; }
code { background: #f4f4f4; padding: 0 0.2em; }
</style>
</head><body>
%s
</body></html>`

// RenderHTMLReport renders a scored document as a standalone HTML page.
// The report body is composed as markdown and rendered, so the same
// composition could back a file-based report later.
func RenderHTMLReport(document *schema.Document) []byte {
	md := composeMarkdown(document)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.Render(doc, renderer)

	return []byte(fmt.Sprintf(reportShell, body))
}

func composeMarkdown(document *schema.Document) string {
	var b strings.Builder
	b.WriteString("# Clause Risk Report\n\n")

	b.WriteString("## Summary\n\n")
	summary := document.Summary
	fmt.Fprintf(&b, "| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| warn_rate | %.4f |\n", summary.WarnRate)
	fmt.Fprintf(&b, "| high_rate | %.4f |\n", summary.HighRate)
	fmt.Fprintf(&b, "| ok_rate | %.4f |\n", summary.OKRate)
	fmt.Fprintf(&b, "| ambig_rate | %.4f |\n", summary.AmbigRate)
	fmt.Fprintf(&b, "| HIGH threshold | %.6f |\n", summary.ThresholdsApplied.High)
	fmt.Fprintf(&b, "| WARN threshold | %.6f |\n\n", summary.ThresholdsApplied.Warn)

	b.WriteString("## Clauses\n\n")
	if len(document.Results) == 0 {
		b.WriteString("No clauses scored.\n")
		return b.String()
	}

	b.WriteString("| clause | flag | confidence | adopted rules |\n|---|---|---|---|\n")
	for _, result := range document.Results {
		adopted := strings.Join(result.AdoptedRules, ", ")
		if adopted == "" {
			adopted = "-"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %.4f | %s |\n",
			result.ClauseID, result.RiskFlag, result.Confidence, adopted)
	}
	b.WriteString("\n")

	for _, result := range document.Results {
		if len(result.Reasons) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", result.ClauseID)
		for _, reason := range result.Reasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}
