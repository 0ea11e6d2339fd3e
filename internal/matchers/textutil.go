// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package matchers

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"clause-scan/internal/schema"
)

const defaultSnippetWindow = 80

var (
	numericToken   = regexp.MustCompile(`\d+[\d,.]*`)
	percentToken   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	durationToken  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:개월|달|months?)`)
	currencySuffix = regexp.MustCompile(`만원|억원|KRW|원`)
)

const (
	tenThousandWon = "만원"
	hundredMillWon = "억원"
)

// gatherSnippet extracts a text window around the first and last span. With
// no spans it falls back to the head of the text. Window edges are aligned
// to rune boundaries so a snippet never carries a split multi-byte
// character.
func gatherSnippet(text string, spans []schema.Span, window int) string {
	if window <= 0 {
		window = defaultSnippetWindow
	}
	if len(spans) == 0 {
		if len(text) > window {
			return strings.TrimSpace(text[:alignRuneStart(text, window)])
		}
		return strings.TrimSpace(text)
	}
	start := spans[0].Start - window/2
	if start < 0 {
		start = 0
	}
	end := spans[len(spans)-1].End + window/2
	if end > len(text) {
		end = len(text)
	}
	if start > len(text) {
		start = len(text)
	}
	if end < start {
		end = start
	}
	return strings.TrimSpace(text[alignRuneStart(text, start):alignRuneStart(text, end)])
}

// alignRuneStart backs index up to the nearest rune boundary.
func alignRuneStart(text string, index int) int {
	for index > 0 && index < len(text) && !utf8.RuneStart(text[index]) {
		index--
	}
	return index
}

// inferCurrencyMultiplier maps Korean currency suffixes onto numeric
// multipliers: 만원 scales by ten thousand, 억원 by a hundred million.
func inferCurrencyMultiplier(text string) float64 {
	if text == "" {
		return 1
	}
	match := currencySuffix.FindString(text)
	switch match {
	case tenThousandWon:
		return 10_000
	case hundredMillWon:
		return 100_000_000
	default:
		return 1
	}
}

// extractAmounts returns every numeric amount in the text, scaled by the
// inferred currency multiplier, along with the token spans.
func extractAmounts(text string) ([]float64, []schema.Span) {
	multiplier := inferCurrencyMultiplier(text)
	var values []float64
	var spans []schema.Span
	for _, loc := range numericToken.FindAllStringIndex(text, -1) {
		raw := strings.ReplaceAll(text[loc[0]:loc[1]], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		values = append(values, value*multiplier)
		spans = append(spans, schema.Span{Start: loc[0], End: loc[1]})
	}
	return values, spans
}

// extractPercentages returns percentage tokens as fractions with spans.
func extractPercentages(text string) ([]float64, []schema.Span) {
	var values []float64
	var spans []schema.Span
	matches := percentToken.FindAllStringSubmatchIndex(text, -1)
	for _, m := range matches {
		value, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		values = append(values, value/100)
		spans = append(spans, schema.Span{Start: m[0], End: m[1]})
	}
	return values, spans
}

// extractDurations returns month-unit duration tokens as float month counts.
func extractDurations(text string) []float64 {
	var values []float64
	for _, m := range durationToken.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		values = append(values, value)
	}
	return values
}
