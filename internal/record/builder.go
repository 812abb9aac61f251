package record

import "time"

// CaseMetadata is what the caller already knows before the call is placed:
// patient, provider, and procedure identifiers plus the payer being dialed.
// The call exists to obtain payer-side information, so these fields are never
// overridden by extraction.
type CaseMetadata struct {
	PayerName            string
	PatientName          string
	PatientDOB           string
	MemberID             string
	ProviderName         string
	ProviderNPI          string
	ProviderPhone        string
	ProviderFax          string
	CPTCode              string
	ProcedureDescription string
	ICDCode              string
	DiagnosisDescription string
	ProposedDate         string
	Urgency              string
}

// Build merges extracted entities with caller-supplied case metadata into a
// typed record. The outcome set here is provisional; the validator finalizes
// it after the rule engine has run.
func Build(callID string, transcript []string, entities map[string]any, meta CaseMetadata) *Record {
	now := time.Now().UTC()

	rawStatus := strField(entities, "authorization_status")

	rec := &Record{
		CallID:    callID,
		CallDate:  now,
		PayerName: meta.PayerName,
		Patient: Patient{
			Name:        defaultStr(meta.PatientName, "Unknown Patient"),
			DateOfBirth: ParseDate(meta.PatientDOB),
			MemberID:    meta.MemberID,
		},
		Provider: Provider{
			Name:  defaultStr(meta.ProviderName, "Unknown Provider"),
			NPI:   meta.ProviderNPI,
			Phone: meta.ProviderPhone,
			Fax:   meta.ProviderFax,
		},
		Procedure: Procedure{
			CPTCode:        defaultStr(meta.CPTCode, "UNKNOWN"),
			Description:    meta.ProcedureDescription,
			ICDCode:        meta.ICDCode,
			ICDDescription: meta.DiagnosisDescription,
			ProposedDate:   ParseDate(meta.ProposedDate),
			Urgency:        meta.Urgency,
		},
		Authorization: Authorization{
			Status:              ParseStatus(rawStatus),
			RawStatus:           rawStatus,
			ReferenceNumber:     strField(entities, "reference_number"),
			AuthorizationNumber: strField(entities, "authorization_number"),
			ValidFrom:           dateField(entities, "valid_from_date"),
			ValidTo:             dateField(entities, "valid_to_date"),
			ApprovedUnits:       intField(entities, "approved_units"),
			Notes:               strField(entities, "notes"),
		},
		Representative: Representative{
			Name:       strField(entities, "representative_name"),
			ID:         strField(entities, "representative_id"),
			Phone:      strField(entities, "representative_phone"),
			Extension:  strField(entities, "representative_extension"),
			Department: strField(entities, "department"),
		},
		Documentation: Documentation{
			RequiredDocuments:  listField(entities, "documentation_required"),
			SubmissionMethod:   strField(entities, "submission_method"),
			FaxNumber:          strField(entities, "fax_number"),
			PortalURL:          strField(entities, "portal_url"),
			SubmissionDeadline: dateField(entities, "submission_deadline"),
			SpecialForms:       listField(entities, "special_forms"),
		},
		Timeline: Timeline{
			StandardTurnaroundDays: intField(entities, "turnaround_days"),
			ExpeditedRequested:     boolField(entities, "expedited_requested"),
			ExpeditedApproved:      boolField(entities, "expedited_approved"),
			ExpectedDecisionDate:   dateField(entities, "expected_decision_date"),
			FollowUpDate:           dateField(entities, "follow_up_date"),
		},
		Transcript:        transcript,
		ExtractedEntities: entities,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// Derive the expected decision date from the stated turnaround when the
	// payer did not give one outright.
	if rec.Timeline.ExpectedDecisionDate.IsZero() && rec.Timeline.StandardTurnaroundDays > 0 {
		rec.Timeline.ExpectedDecisionDate = Today().AddDays(rec.Timeline.StandardTurnaroundDays)
	}

	rec.CallOutcome = provisionalOutcome(rec, entities)
	return rec
}

// provisionalOutcome is the extraction-time classification. The validator may
// demote it once rule findings are known; there is no promotion path back.
func provisionalOutcome(rec *Record, entities map[string]any) Outcome {
	auth := rec.Authorization
	hasNumber := auth.ReferenceNumber != "" || auth.AuthorizationNumber != ""

	switch {
	case auth.Status == StatusApproved && hasNumber:
		return OutcomeSuccess
	case auth.Status != StatusUnknown && hasNumber:
		return OutcomePartial
	case hasNumber || len(entities) > 3:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func strField(entities map[string]any, key string) string {
	if v, ok := entities[key].(string); ok {
		return v
	}
	return ""
}

func intField(entities map[string]any, key string) int {
	switch v := entities[key].(type) {
	case int:
		return v
	case float64: // encoding/json decodes numbers as float64
		return int(v)
	}
	return 0
}

func boolField(entities map[string]any, key string) bool {
	v, _ := entities[key].(bool)
	return v
}

func listField(entities map[string]any, key string) []string {
	switch v := entities[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func dateField(entities map[string]any, key string) Date {
	return ParseDate(strField(entities, key))
}
