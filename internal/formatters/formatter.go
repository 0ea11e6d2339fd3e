// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"sort"
	"strings"

	"clause-scan/internal/schema"
)

// FormatterOptions defines configuration options for formatters
type FormatterOptions struct {
	Pretty  bool // Whether to pretty-print structured output
	Indent  int  // Explicit indentation width (overrides Pretty when > 0)
	NoColor bool // Whether to disable colored output
	Verbose bool // Whether to display per-hit detail
}

// Formatter interface defines methods that all output formatters must implement
type Formatter interface {
	// Format renders the scored document in the formatter's output format
	Format(document *schema.Document, options FormatterOptions) (string, error)

	// Name returns the name of the formatter (e.g., "json", "text")
	Name() string

	// Description returns a brief description of what this formatter outputs
	Description() string

	// FileExtension returns the recommended file extension for this format
	FileExtension() string
}

// Registry holds all registered formatters
type Registry struct {
	formatters map[string]Formatter
}

var defaultRegistry = &Registry{formatters: map[string]Formatter{}}

// Register adds a formatter to the default registry.
func Register(formatter Formatter) {
	defaultRegistry.formatters[formatter.Name()] = formatter
}

// Get returns the named formatter or an error listing the available ones.
func Get(name string) (Formatter, error) {
	formatter, ok := defaultRegistry.formatters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(Available(), ", "))
	}
	return formatter, nil
}

// Available returns the registered formatter names in sorted order.
func Available() []string {
	names := make([]string, 0, len(defaultRegistry.formatters))
	for name := range defaultRegistry.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
