package record

import (
	"testing"
	"time"
)

func testMeta() CaseMetadata {
	return CaseMetadata{
		PayerName:            "Blue Shield",
		PatientName:          "Jane Smith",
		PatientDOB:           "1980-05-12",
		MemberID:             "BS123456789",
		ProviderName:         "Dr. Chen",
		ProviderNPI:          "1234567890",
		CPTCode:              "72148",
		ProcedureDescription: "MRI lumbar spine",
		ICDCode:              "M54.5",
		ProposedDate:         "2026-09-15",
		Urgency:              "routine",
	}
}

func TestBuild_MergesMetadataAndEntities(t *testing.T) {
	entities := map[string]any{
		"authorization_status": "approved",
		"authorization_number": "AUTH-556677",
		"reference_number":     "REF-2024-001",
		"representative_name":  "Sarah Johnson",
		"turnaround_days":      float64(5),
		"expedited_requested":  true,
		"documentation_required": []any{
			"clinical notes",
			"imaging report",
		},
	}

	rec := Build("call-001", []string{"turn one", "turn two"}, entities, testMeta())

	if rec.CallID != "call-001" {
		t.Errorf("call id = %q", rec.CallID)
	}
	if rec.PayerName != "Blue Shield" {
		t.Errorf("payer = %q", rec.PayerName)
	}
	if rec.Patient.Name != "Jane Smith" {
		t.Errorf("patient = %q", rec.Patient.Name)
	}
	if rec.Patient.DateOfBirth.String() != "1980-05-12" {
		t.Errorf("dob = %q", rec.Patient.DateOfBirth)
	}
	if rec.Authorization.Status != StatusApproved {
		t.Errorf("status = %q", rec.Authorization.Status)
	}
	if rec.Authorization.AuthorizationNumber != "AUTH-556677" {
		t.Errorf("auth number = %q", rec.Authorization.AuthorizationNumber)
	}
	if rec.Representative.Name != "Sarah Johnson" {
		t.Errorf("rep = %q", rec.Representative.Name)
	}
	if rec.Timeline.StandardTurnaroundDays != 5 {
		t.Errorf("turnaround = %d", rec.Timeline.StandardTurnaroundDays)
	}
	if !rec.Timeline.ExpeditedRequested {
		t.Error("expedited should be true")
	}
	if len(rec.Documentation.RequiredDocuments) != 2 {
		t.Errorf("docs = %v", rec.Documentation.RequiredDocuments)
	}
	if len(rec.Transcript) != 2 {
		t.Errorf("transcript turns = %d", len(rec.Transcript))
	}
}

func TestBuild_Defaults(t *testing.T) {
	rec := Build("call-002", nil, map[string]any{}, CaseMetadata{})

	if rec.Patient.Name != "Unknown Patient" {
		t.Errorf("patient default = %q", rec.Patient.Name)
	}
	if rec.Provider.Name != "Unknown Provider" {
		t.Errorf("provider default = %q", rec.Provider.Name)
	}
	if rec.Procedure.CPTCode != "UNKNOWN" {
		t.Errorf("cpt default = %q", rec.Procedure.CPTCode)
	}
	if rec.Authorization.Status != StatusUnknown {
		t.Errorf("status default = %q", rec.Authorization.Status)
	}
}

func TestBuild_KeepsRawStatus(t *testing.T) {
	rec := Build("call-003", nil, map[string]any{"authorization_status": "authorized"}, CaseMetadata{})

	if rec.Authorization.Status != StatusUnknown {
		t.Errorf("status = %q, want unknown", rec.Authorization.Status)
	}
	if rec.Authorization.RawStatus != "authorized" {
		t.Errorf("raw status = %q", rec.Authorization.RawStatus)
	}
}

func TestBuild_DerivesExpectedDecisionDate(t *testing.T) {
	rec := Build("call-004", nil, map[string]any{"turnaround_days": float64(7)}, CaseMetadata{})

	want := Today().AddDays(7)
	if !rec.Timeline.ExpectedDecisionDate.Equal(want.Time) {
		t.Errorf("expected decision date = %v, want %v", rec.Timeline.ExpectedDecisionDate, want)
	}
}

func TestBuild_ExplicitDecisionDateWins(t *testing.T) {
	entities := map[string]any{
		"turnaround_days":        float64(7),
		"expected_decision_date": "2026-10-01",
	}
	rec := Build("call-005", nil, entities, CaseMetadata{})

	want := NewDate(2026, time.October, 1)
	if !rec.Timeline.ExpectedDecisionDate.Equal(want.Time) {
		t.Errorf("expected decision date = %v, want %v", rec.Timeline.ExpectedDecisionDate, want)
	}
}

func TestProvisionalOutcome(t *testing.T) {
	tests := []struct {
		name     string
		entities map[string]any
		want     Outcome
	}{
		{
			name: "approved with number",
			entities: map[string]any{
				"authorization_status": "approved",
				"authorization_number": "AUTH-1",
			},
			want: OutcomeSuccess,
		},
		{
			name: "pending with reference",
			entities: map[string]any{
				"authorization_status": "pending",
				"reference_number":     "REF-1",
			},
			want: OutcomePartial,
		},
		{
			name: "number without status",
			entities: map[string]any{
				"reference_number": "REF-2",
			},
			want: OutcomePartial,
		},
		{
			name: "rich extraction without numbers",
			entities: map[string]any{
				"representative_name": "Bob Lee",
				"submission_method":   "fax",
				"fax_number":          "555-123-4567",
				"notes":               "call back tomorrow",
			},
			want: OutcomePartial,
		},
		{
			name:     "nothing extracted",
			entities: map[string]any{},
			want:     OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Build("call-x", nil, tt.entities, CaseMetadata{})
			if rec.CallOutcome != tt.want {
				t.Errorf("outcome = %q, want %q", rec.CallOutcome, tt.want)
			}
		})
	}
}

func TestRecord_Helpers(t *testing.T) {
	rec := Build("call-h", nil, map[string]any{
		"authorization_status": "pending",
		"reference_number":     "REF-9",
	}, testMeta())

	if !rec.RequiresFollowUp() {
		t.Error("pending should require follow up")
	}
	if rec.IsApproved() {
		t.Error("pending is not approved")
	}

	rec.MissingFields = []string{}
	rec.ValidationErrors = []string{}
	if !rec.IsComplete() {
		t.Error("record with reference, known status and no findings should be complete")
	}
}
