// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clause-scan/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreBody = `{
	"clauses": [
		{"id": "c1", "text": "A penalty fee applies. The penalty fee is due monthly."},
		{"id": "c2", "text": "Nothing of note here."}
	],
	"ruleset": {
		"rules": {
			"r1": {"severity": "WARN", "matchers": {"lexicon": ["penalty fee"]}}
		}
	},
	"policy": {
		"calibration": {"enable": false}
	}
}`

func doRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	NewServer("0").Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestHandleScore(t *testing.T) {
	recorder := doRequest(t, http.MethodPost, "/api/v1/score", scoreBody)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var document schema.Document
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &document))
	require.Len(t, document.Results, 1)
	assert.Equal(t, "c1", document.Results[0].ClauseID)
	assert.Equal(t, schema.RiskFlagWarn, document.Results[0].RiskFlag)
	assert.InDelta(t, 0.4, document.Results[0].Confidence, 1e-9)
	assert.InDelta(t, 0.10, document.Summary.ThresholdsApplied.Warn, 1e-9)
}

func TestHandleScore_DefaultPolicy(t *testing.T) {
	body := `{
		"clauses": [{"id": "c1", "text": "penalty fee"}],
		"ruleset": {"rules": {"r1": {"matchers": {"lexicon": ["penalty fee"]}}}}
	}`
	recorder := doRequest(t, http.MethodPost, "/api/v1/score", body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var document schema.Document
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &document))
	require.Len(t, document.Results, 1)
	assert.InDelta(t, 0.99, document.Summary.ThresholdsApplied.High, 1e-9)
}

func TestHandleScore_MissingClauses(t *testing.T) {
	body := `{"ruleset": {"rules": {}}}`
	recorder := doRequest(t, http.MethodPost, "/api/v1/score", body)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Contains(t, payload["error"], "missing clauses")
}

func TestHandleScore_MissingRuleset(t *testing.T) {
	body := `{"clauses": [{"id": "c1", "text": "anything"}]}`
	recorder := doRequest(t, http.MethodPost, "/api/v1/score", body)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "missing ruleset")
}

func TestHandleScore_MalformedBody(t *testing.T) {
	recorder := doRequest(t, http.MethodPost, "/api/v1/score", "{not json")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "invalid request body")
}

func TestHandleScore_InvalidRuleset(t *testing.T) {
	body := `{
		"clauses": [{"id": "c1", "text": "anything"}],
		"ruleset": {"rules": {"r1": {"severity": "BOGUS"}}}
	}`
	recorder := doRequest(t, http.MethodPost, "/api/v1/score", body)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "invalid ruleset")
}

func TestHandleReport(t *testing.T) {
	recorder := doRequest(t, http.MethodPost, "/api/v1/report", scoreBody)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/html; charset=utf-8", recorder.Header().Get("Content-Type"))

	page := recorder.Body.String()
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "c1")
	assert.Contains(t, page, "WARN")
}

func TestHandleHealth(t *testing.T) {
	recorder := doRequest(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, "clause-scan-web", payload["service"])
	assert.NotEmpty(t, payload["timestamp"])
}

func TestHandleVersion(t *testing.T) {
	recorder := doRequest(t, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload["version"])
	assert.NotEmpty(t, payload["goVersion"])
}
