// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"sort"
	"strings"

	"clause-scan/internal/formatters"
	"clause-scan/internal/schema"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			schema.RiskFlagHigh:  color.New(color.FgRed, color.Bold),
			schema.RiskFlagWarn:  color.New(color.FgYellow),
			schema.RiskFlagAmbig: color.New(color.FgCyan),
			schema.RiskFlagOK:    color.New(color.FgGreen),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(document *schema.Document, options formatters.FormatterOptions) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	var b strings.Builder
	b.WriteString("Clause Risk Report\n")
	b.WriteString("==================\n\n")

	if len(document.Results) == 0 {
		b.WriteString("No clauses scored.\n")
	}
	for _, result := range document.Results {
		flag := result.RiskFlag
		if c, ok := f.colors[flag]; ok {
			flag = c.Sprint(flag)
		}
		fmt.Fprintf(&b, "%-7s %s  confidence=%.4f\n", flag, result.ClauseID, result.Confidence)
		if len(result.AdoptedRules) > 0 {
			fmt.Fprintf(&b, "        adopted: %s\n", strings.Join(result.AdoptedRules, ", "))
		}
		if len(result.SuppressedRules) > 0 {
			fmt.Fprintf(&b, "        suppressed: %s\n", strings.Join(result.SuppressedRules, ", "))
		}
		if options.Verbose {
			for _, score := range result.PerHitScores {
				fmt.Fprintf(&b, "        hit %s (%s): raw=%.4f adjusted=%.4f\n",
					score.RuleID, score.MatchType, score.Raw, score.Adjusted)
				names := make([]string, 0, len(score.PenaltiesApplied))
				for name := range score.PenaltiesApplied {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(&b, "          penalty %s: -%.2f\n", name, score.PenaltiesApplied[name])
				}
			}
			for _, reason := range result.Reasons {
				fmt.Fprintf(&b, "        reason: %s\n", reason)
			}
		}
	}

	summary := document.Summary
	b.WriteString("\nSummary\n-------\n")
	fmt.Fprintf(&b, "warn_rate:  %.4f\n", summary.WarnRate)
	fmt.Fprintf(&b, "high_rate:  %.4f\n", summary.HighRate)
	fmt.Fprintf(&b, "ok_rate:    %.4f\n", summary.OKRate)
	fmt.Fprintf(&b, "ambig_rate: %.4f\n", summary.AmbigRate)
	fmt.Fprintf(&b, "thresholds: HIGH=%.6f WARN=%.6f\n",
		summary.ThresholdsApplied.High, summary.ThresholdsApplied.Warn)

	return b.String(), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
