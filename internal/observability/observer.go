// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StandardObserver implements observability for all components
type StandardObserver struct {
	level  ObservabilityLevel
	writer io.Writer
	runID  string

	mu     sync.Mutex
	faults []FaultRecord
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates observability component
func NewStandardObserver(level ObservabilityLevel, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		writer: writer,
		runID:  uuid.NewString(),
	}
}

// RunID returns the identifier attached to every record this observer emits.
func (o *StandardObserver) RunID() string {
	return o.runID
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, subject string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		duration := time.Since(start)

		data := StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			Subject:    subject,
			DurationMs: duration.Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		}

		o.LogOperation(data)
	}
}

// RecordFault records an isolated matcher failure. Faults never abort the
// batch; they are counted and surfaced through the debug stream.
func (o *StandardObserver) RecordFault(component, ruleID, clauseID, message string) {
	o.mu.Lock()
	o.faults = append(o.faults, FaultRecord{
		Component: component,
		RuleID:    ruleID,
		ClauseID:  clauseID,
		Message:   message,
	})
	o.mu.Unlock()

	o.LogOperation(StandardObservabilityData{
		Component: component,
		Operation: "match",
		Subject:   ruleID + "/" + clauseID,
		Success:   false,
		Error:     message,
	})
}

// Faults returns a copy of the recorded fault list.
func (o *StandardObserver) Faults() []FaultRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	faults := make([]FaultRecord, len(o.faults))
	copy(faults, o.faults)
	return faults
}

// LogOperation logs operation data
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o.level == ObservabilityOff {
		return
	}

	data.RequestID = o.runID

	// Only log JSON in debug mode
	if o.level == ObservabilityDebug {
		o.mu.Lock()
		json.NewEncoder(o.writer).Encode(data)
		o.mu.Unlock()
	}
}

// FaultRecord describes one isolated matcher failure.
type FaultRecord struct {
	Component string `json:"component"`
	RuleID    string `json:"rule_id"`
	ClauseID  string `json:"clause_id"`
	Message   string `json:"message"`
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	RequestID  string                 `json:"request_id"`
	Subject    string                 `json:"subject,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
