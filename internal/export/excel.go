// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package export writes scored documents to spreadsheet workbooks for
// manual review outside the CLI.
package export

import (
	"fmt"
	"strings"

	"clause-scan/internal/schema"

	"github.com/xuri/excelize/v2"
)

const (
	scoresSheet  = "Scores"
	summarySheet = "Summary"
)

var scoresHeader = []string{
	"clause_id", "risk_flag", "confidence", "adopted_rules",
	"suppressed_rules", "max_priority", "severities", "reasons",
}

// WriteWorkbook writes a scored document as an .xlsx workbook with one
// row per clause on the Scores sheet and the batch statistics on the
// Summary sheet.
func WriteWorkbook(path string, document *schema.Document) error {
	if document == nil {
		return fmt.Errorf("no document to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(scoresSheet)
	if err != nil {
		return fmt.Errorf("creating scores sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	// Drop the default sheet so the workbook opens on Scores.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := writeScores(f, document.Results); err != nil {
		return err
	}
	if err := writeSummary(f, document.Summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeScores(f *excelize.File, results []schema.ClauseScore) error {
	for i, h := range scoresHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(scoresSheet, cell, h); err != nil {
			return err
		}
	}

	for r, result := range results {
		row := []interface{}{
			result.ClauseID,
			result.RiskFlag,
			result.Confidence,
			strings.Join(result.AdoptedRules, ", "),
			strings.Join(result.SuppressedRules, ", "),
			result.Metadata.MaxPriority,
			strings.Join(result.Metadata.Severities, ", "),
			strings.Join(result.Reasons, "; "),
		}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(scoresSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSummary(f *excelize.File, summary schema.Summary) error {
	rows := [][]interface{}{
		{"warn_rate", summary.WarnRate},
		{"high_rate", summary.HighRate},
		{"ok_rate", summary.OKRate},
		{"ambig_rate", summary.AmbigRate},
		{"threshold_high", summary.ThresholdsApplied.High},
		{"threshold_warn", summary.ThresholdsApplied.Warn},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
