package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/payerline/postcall/internal/analyzer"
	"github.com/payerline/postcall/internal/config"
	"github.com/payerline/postcall/internal/record"
	"github.com/payerline/postcall/internal/storage"
)

const proceduresYAML = `procedures:
  "72148":
    name: "MRI Lumbar Spine"
    category: "advanced_imaging"
    requires_prior_auth: true
    approval_criteria:
      primary: "failed conservative treatment"
    turnaround_time:
      routine: "3-5 business days"
default_procedure:
  name: "Unlisted Procedure"
  category: "general"
  requires_prior_auth: true
`

const denialsYAML = `denial_codes: {}
default_denial:
  description: "Unknown denial reason"
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()

	store, err := storage.New(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "procedures.yaml"), []byte(proceduresYAML), 0o644); err != nil {
		t.Fatalf("write procedures: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "denial_codes.yaml"), []byte(denialsYAML), 0o644); err != nil {
		t.Fatalf("write denials: %v", err)
	}
	snap, err := config.LoadSnapshot(dir, discardLogger())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	srv := NewServer(0, store, analyzer.New(snap, discardLogger()), discardLogger())
	return srv, store
}

func saveSample(t *testing.T, store *storage.Store, callID, status string) {
	t.Helper()
	rec := record.Build(callID, nil, map[string]any{
		"authorization_status": status,
		"authorization_number": "AUTH-1",
		"reference_number":     "REF-1",
	}, record.CaseMetadata{PayerName: "Blue Shield", PatientName: "Jane Smith"})
	if _, err := store.Save(rec, false); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestListRecords(t *testing.T) {
	srv, store := testServer(t)
	saveSample(t, store, "call-1", "approved")
	saveSample(t, store, "call-2", "denied")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Count   int              `json:"count"`
		Records []*record.Record `json:"records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body.Count != 2 || len(body.Records) != 2 {
		t.Errorf("count = %d, records = %d", body.Count, len(body.Records))
	}
}

func TestListRecords_StatusFilter(t *testing.T) {
	srv, store := testServer(t)
	saveSample(t, store, "call-1", "approved")
	saveSample(t, store, "call-2", "denied")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?status=denied", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var body struct {
		Count   int              `json:"count"`
		Records []*record.Record `json:"records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body.Count != 1 || body.Records[0].CallID != "call-2" {
		t.Errorf("filter returned %+v", body)
	}
}

func TestRecordStats(t *testing.T) {
	srv, store := testServer(t)
	saveSample(t, store, "call-1", "approved")
	saveSample(t, store, "call-2", "approved")
	saveSample(t, store, "call-3", "pending")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/stats", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats storage.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("total = %d", stats.TotalRecords)
	}
	if stats.ByBucket["approved"] != 2 || stats.ByBucket["pending"] != 1 {
		t.Errorf("buckets = %v", stats.ByBucket)
	}
}

func TestExportRecords(t *testing.T) {
	srv, store := testServer(t)
	saveSample(t, store, "call-1", "approved")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/export", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "call_id,") {
		t.Errorf("missing CSV header: %q", body)
	}
	if !strings.Contains(body, "call-1") {
		t.Error("exported CSV missing record row")
	}
}

func TestAnalyze(t *testing.T) {
	srv, _ := testServer(t)

	payload := `{
		"procedure_code": "72148",
		"diagnosis_code": "M54.5",
		"patient_name": "John Doe",
		"patient_dob": "1975-06-15",
		"clinical_notes": "Failed conservative treatment over 6 weeks.",
		"urgency_level": "routine"
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var analysis analyzer.PriorAuthAnalysis
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if analysis.Request.ProcedureName != "MRI Lumbar Spine" {
		t.Errorf("procedure = %q", analysis.Request.ProcedureName)
	}
	if !analysis.CriteriaMet {
		t.Error("criteria should be met")
	}
}

func TestAnalyze_MissingFields(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"procedure_code":"72148"}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "missing required fields") {
		t.Errorf("body = %s", w.Body.String())
	}
}
