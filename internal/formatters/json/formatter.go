// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"clause-scan/internal/formatters"
	"clause-scan/internal/schema"
)

// Formatter implements JSON output formatting. The emitted field names and
// nesting are the compatibility surface consumed by downstream evaluation
// and reporting tools.
type Formatter struct{}

// NewFormatter creates a new JSON formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "json"
}

func (f *Formatter) Description() string {
	return "Structured JSON output for programmatic consumption"
}

func (f *Formatter) FileExtension() string {
	return ".json"
}

func (f *Formatter) Format(document *schema.Document, options formatters.FormatterOptions) (string, error) {
	data, err := Encode(document, options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Encode marshals any payload under the formatter's indentation rules:
// an explicit indent width wins, Pretty selects two spaces, otherwise the
// output is compact.
func Encode(payload any, options formatters.FormatterOptions) ([]byte, error) {
	indent := options.Indent
	if indent == 0 && options.Pretty {
		indent = 2
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if indent > 0 {
		encoder.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("encoding JSON output: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
