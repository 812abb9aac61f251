package extractor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/payerline/postcall/internal/anthropic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func llmServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
			"stop_reason": "end_turn",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func testExtractor(t *testing.T, responseText string) *Extractor {
	t.Helper()
	server := llmServer(t, responseText)
	llm := anthropic.NewClient("test-key", "test-model", 0)
	llm.SetTestTransport(server.URL)
	return New(llm, discardLogger())
}

func TestExtract_Success(t *testing.T) {
	response := `Here is the extracted information:
{
  "authorization_status": "approved",
  "authorization_number": "AUTH-556677",
  "reference_number": "REF-2024-001",
  "representative_name": "Sarah Johnson",
  "turnaround_days": 5,
  "documentation_required": ["clinical notes", "MRI report"],
  "submission_method": "fax",
  "fax_number": "555-123-4567",
  "notes": null
}`

	ext := testExtractor(t, response)
	entities := ext.Extract(context.Background(), []string{"some", "turns"}, "call-1")

	if entities["authorization_status"] != "approved" {
		t.Errorf("status = %v", entities["authorization_status"])
	}
	if entities["authorization_number"] != "AUTH-556677" {
		t.Errorf("auth number = %v", entities["authorization_number"])
	}
	if entities["turnaround_days"] != float64(5) {
		t.Errorf("turnaround = %v", entities["turnaround_days"])
	}
	if _, present := entities["notes"]; present {
		t.Error("null fields should be dropped")
	}
}

func TestExtract_ShortResponseFallsBack(t *testing.T) {
	ext := testExtractor(t, `{"a": 1}`)

	entities := ext.Extract(context.Background(), []string{
		"Agent: Calling about a prior authorization request.",
		"Rep: This is Jane Doe speaking. It has been approved, authorization number AUTH-556.",
	}, "call-2")

	// Short completions degrade to pattern extraction, which still finds the
	// status and auth number.
	if entities["authorization_status"] != "approved" {
		t.Errorf("fallback status = %v", entities["authorization_status"])
	}
	if entities["authorization_number"] != "AUTH-556" {
		t.Errorf("fallback auth number = %v", entities["authorization_number"])
	}
}

func TestExtract_InvalidJSONFallsBack(t *testing.T) {
	long := "I could not produce structured output for this conversation, sorry about that. "
	ext := testExtractor(t, long+long)

	entities := ext.Extract(context.Background(), []string{"the request was denied"}, "call-3")

	if entities["authorization_status"] != "denied" {
		t.Errorf("fallback status = %v", entities["authorization_status"])
	}
}

func TestExtract_ServerErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model", 0)
	llm.SetTestTransport(server.URL)
	ext := New(llm, discardLogger())

	entities := ext.Extract(context.Background(), []string{"authorization is pending review"}, "call-4")
	if entities == nil {
		t.Fatal("extraction must never return nil")
	}
	if entities["authorization_status"] != "pending" {
		t.Errorf("fallback status = %v", entities["authorization_status"])
	}
}

func TestExtract_NoClientFallsBack(t *testing.T) {
	ext := New(nil, discardLogger())

	entities := ext.Extract(context.Background(), []string{"call was approved"}, "call-5")
	if entities["authorization_status"] != "approved" {
		t.Errorf("fallback status = %v", entities["authorization_status"])
	}
}

func TestParseJSONObject_BraceRepair(t *testing.T) {
	// Truncated response: the closing braces never arrived.
	truncated := `{
  "authorization_status": "pending",
  "reference_number": "REF-77001",
  "representative_name": "Bob Lee",
  "documentation": {"submission_method": "portal"`

	entities, err := parseJSONObject(truncated)
	if err != nil {
		t.Fatalf("repair should have succeeded: %v", err)
	}
	if entities["authorization_status"] != "pending" {
		t.Errorf("status = %v", entities["authorization_status"])
	}
	if entities["reference_number"] != "REF-77001" {
		t.Errorf("reference = %v", entities["reference_number"])
	}
}

func TestParseJSONObject_NoObject(t *testing.T) {
	if _, err := parseJSONObject("no braces here at all"); err == nil {
		t.Fatal("expected error when no object present")
	}
}

func TestParseJSONObject_UnrepairableGarbage(t *testing.T) {
	if _, err := parseJSONObject(`{"key": not even close}`); err == nil {
		t.Fatal("expected error for unrepairable JSON")
	}
}

func TestFallbackExtract(t *testing.T) {
	conversation := `Agent: Hi, I'm calling about a prior authorization.
Rep: My name is Sarah Johnson, happy to help.
Rep: The authorization is approved. Authorization number is AUTH-556677.
Rep: Your reference number is REF-2024-8812.
Rep: You'll have a decision letter within 5 business days.
Rep: You can fax documents to 555-867-5309.`

	entities := FallbackExtract(conversation)

	if entities["authorization_status"] != "approved" {
		t.Errorf("status = %v", entities["authorization_status"])
	}
	if entities["representative_name"] != "Sarah Johnson" {
		t.Errorf("rep = %v", entities["representative_name"])
	}
	if entities["authorization_number"] != "AUTH-556677" {
		t.Errorf("auth number = %v", entities["authorization_number"])
	}
	if entities["reference_number"] != "REF-2024-8812" {
		t.Errorf("reference = %v", entities["reference_number"])
	}
	if entities["turnaround_days"] != 5 {
		t.Errorf("turnaround = %v", entities["turnaround_days"])
	}
	if entities["fax_number"] != "555-867-5309" {
		t.Errorf("fax = %v", entities["fax_number"])
	}
}

func TestFallbackExtract_StatusPriority(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"the request has been approved", "approved"},
		{"unfortunately this was denied", "denied"},
		{"it is still pending review", "pending"},
		{"we need a peer to peer with the medical director", "peer_to_peer_required"},
		{"thank you for calling", "unknown"},
		// Approved outranks pending when both appear.
		{"it was pending but is now approved", "approved"},
	}

	for _, tt := range tests {
		entities := FallbackExtract(tt.text)
		if got := entities["authorization_status"]; got != tt.want {
			t.Errorf("status for %q = %v, want %q", tt.text, got, tt.want)
		}
	}
}

func TestFallbackExtractDenial(t *testing.T) {
	conversation := `Rep: This is Marcus Webb.
Rep: The denial was upheld after review.
Rep: Your tracking number: TRK-44521.
Rep: Reprocessing takes 7-10 business days.`

	entities := FallbackExtractDenial(conversation)

	if entities["resolution_status"] != "upheld" {
		t.Errorf("resolution = %v", entities["resolution_status"])
	}
	if entities["representative_name"] != "Marcus Webb" {
		t.Errorf("rep = %v", entities["representative_name"])
	}
	if entities["reference_number"] != "TRK-44521" {
		t.Errorf("reference = %v", entities["reference_number"])
	}
	if entities["reprocessing_time"] != "7-10 days" {
		t.Errorf("reprocessing = %v", entities["reprocessing_time"])
	}
}

func TestExtractDenial_UsesDenialPrompt(t *testing.T) {
	response := `{
  "resolution_status": "appeal_required",
  "appeal_deadline": "2026-10-15",
  "required_documents": ["medical records", "letter of medical necessity"],
  "representative_name": "Dana Cruz",
  "reference_number": "INQ-20045"
}`

	ext := testExtractor(t, response)
	entities := ext.ExtractDenial(context.Background(), []string{"denial call"}, "call-6")

	if entities["resolution_status"] != "appeal_required" {
		t.Errorf("resolution = %v", entities["resolution_status"])
	}
	if entities["representative_name"] != "Dana Cruz" {
		t.Errorf("rep = %v", entities["representative_name"])
	}
}
