// Package analyzer prepares a call strategy for a prior authorization
// request before the call is placed. All rule content comes from the
// case-configuration snapshot, not from code.
package analyzer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/payerline/postcall/internal/config"
)

// PriorAuthRequest is the case data gathered before a payer call.
type PriorAuthRequest struct {
	ProcedureCode        string `json:"procedure_code"`
	ProcedureName        string `json:"procedure_name,omitempty"`
	DiagnosisCode        string `json:"diagnosis_code"`
	DiagnosisDescription string `json:"diagnosis_description,omitempty"`
	PatientName          string `json:"patient_name"`
	PatientDOB           string `json:"patient_dob"`
	MemberID             string `json:"member_id,omitempty"`
	ProviderName         string `json:"provider_name,omitempty"`
	ProviderNPI          string `json:"provider_npi,omitempty"`
	ProviderTaxID        string `json:"provider_tax_id,omitempty"`
	ClinicalNotes        string `json:"clinical_notes"`
	ServiceDate          string `json:"service_date,omitempty"`
	UrgencyLevel         string `json:"urgency_level,omitempty"` // routine, urgent, stat
	IsRetroactive        bool   `json:"is_retroactive,omitempty"`
	OriginalClaimNumber  string `json:"original_claim_number,omitempty"`
	PayerName            string `json:"payer_name,omitempty"`
	PayerPhone           string `json:"payer_phone,omitempty"`
}

// PriorAuthAnalysis is the full pre-call briefing for one request.
type PriorAuthAnalysis struct {
	Request               PriorAuthRequest        `json:"request"`
	ProcedureCategory     string                  `json:"procedure_category"`
	RequiresPriorAuth     bool                    `json:"requires_prior_auth"`
	TypicalCost           string                  `json:"typical_cost,omitempty"`
	RequiredDocumentation []string                `json:"required_documentation"`
	MissingDocumentation  []string                `json:"missing_documentation"`
	DocumentationComplete bool                    `json:"documentation_complete"`
	ApprovalCriteria      config.ApprovalCriteria `json:"approval_criteria"`
	CriteriaMet           bool                    `json:"criteria_met"`
	QuestionsToAsk        []string                `json:"questions_to_ask"`
	CallStrategySteps     []string                `json:"call_strategy_steps"`
	ContactDepartment     string                  `json:"payer_contact_department"`
	ExpectedTurnaround    string                  `json:"expected_turnaround_time"`
	NeedsEscalation       bool                    `json:"needs_escalation"`
	EscalationReason      string                  `json:"escalation_reason,omitempty"`
	EscalationType        string                  `json:"escalation_type,omitempty"`
	SuccessProbability    float64                 `json:"success_probability"`
}

// Analyzer builds call strategies from the case-configuration snapshot.
type Analyzer struct {
	snap   *config.Snapshot
	logger *slog.Logger
}

func New(snap *config.Snapshot, logger *slog.Logger) *Analyzer {
	return &Analyzer{snap: snap, logger: logger}
}

// AnalyzePriorAuth validates the request and produces the pre-call briefing.
// Missing required fields are the only failure path.
func (a *Analyzer) AnalyzePriorAuth(req PriorAuthRequest) (*PriorAuthAnalysis, error) {
	if missing := missingRequired(req); len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	a.logger.Info("analyzing prior auth request", "procedure_code", req.ProcedureCode)

	cfg := a.snap.Procedure(req.ProcedureCode)
	if req.ProcedureName == "" {
		req.ProcedureName = cfg.Name
		if req.ProcedureName == "" {
			req.ProcedureName = "Procedure " + req.ProcedureCode
		}
	}
	if req.UrgencyLevel == "" {
		req.UrgencyLevel = "routine"
	}

	required, missing := checkDocumentation(req.ClinicalNotes, cfg.Documentation)
	docsComplete := len(missing) == 0
	criteriaMet := checkApprovalCriteria(req.ClinicalNotes, cfg.ApprovalCriteria)
	escalate, reason := checkEscalation(req.ClinicalNotes, cfg.EscalationTriggers)

	analysis := &PriorAuthAnalysis{
		Request:               req,
		ProcedureCategory:     defaultStr(cfg.Category, "general"),
		RequiresPriorAuth:     cfg.RequiresPriorAuth,
		TypicalCost:           cfg.TypicalCost,
		RequiredDocumentation: required,
		MissingDocumentation:  missing,
		DocumentationComplete: docsComplete,
		ApprovalCriteria:      cfg.ApprovalCriteria,
		CriteriaMet:           criteriaMet,
		QuestionsToAsk:        cfg.StandardQuestions,
		CallStrategySteps:     callStrategy(req, cfg),
		ContactDepartment:     contactDepartment(req.UrgencyLevel),
		ExpectedTurnaround:    turnaroundTime(cfg, req.UrgencyLevel),
		NeedsEscalation:       escalate,
		SuccessProbability:    successProbability(docsComplete, criteriaMet, escalate),
	}
	if escalate {
		analysis.EscalationReason = reason
		analysis.EscalationType = escalationType(reason)
	}

	a.logger.Info("prior auth analysis complete",
		"procedure_code", req.ProcedureCode,
		"documentation_complete", docsComplete,
		"criteria_met", criteriaMet,
		"needs_escalation", escalate,
		"success_probability", analysis.SuccessProbability,
	)
	return analysis, nil
}

func missingRequired(req PriorAuthRequest) []string {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	check("procedure_code", req.ProcedureCode)
	check("diagnosis_code", req.DiagnosisCode)
	check("patient_name", req.PatientName)
	check("patient_dob", req.PatientDOB)
	check("clinical_notes", req.ClinicalNotes)
	return missing
}

// checkDocumentation returns the full requirement list and the mandatory
// requirements whose keywords never appear in the clinical notes.
func checkDocumentation(notes string, reqs []config.DocRequirement) (required, missing []string) {
	lower := strings.ToLower(notes)
	for _, req := range reqs {
		required = append(required, req.Description)
		if !req.Mandatory {
			continue
		}
		keywords := req.Keywords
		if len(keywords) == 0 {
			keywords = []string{req.Description}
		}
		found := false
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req.Description)
		}
	}
	return required, missing
}

// checkApprovalCriteria does a keyword-ratio check of the primary criterion
// against the clinical notes. At least half the words must appear. No
// criterion defined counts as met.
func checkApprovalCriteria(notes string, criteria config.ApprovalCriteria) bool {
	if criteria.Primary == "" {
		return true
	}
	words := strings.Fields(strings.ToLower(criteria.Primary))
	lower := strings.ToLower(notes)
	matches := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			matches++
		}
	}
	return float64(matches) >= float64(len(words))*0.5
}

func checkEscalation(notes string, triggers []config.EscalationTrigger) (bool, string) {
	lower := strings.ToLower(notes)
	for _, t := range triggers {
		if t.Keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(t.Keyword)) {
			action := defaultStr(t.Action, "clinical_review")
			return true, fmt.Sprintf("%s detected - requires %s", capitalize(t.Keyword), action)
		}
	}
	return false, ""
}

func escalationType(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "peer"):
		return "peer_to_peer"
	case strings.Contains(lower, "clinical"):
		return "clinical_review"
	default:
		return "general_escalation"
	}
}

func callStrategy(req PriorAuthRequest, cfg config.ProcedureConfig) []string {
	steps := []string{
		"1. Verify speaking with Prior Authorization department",
		"2. Provide provider name, NPI, and tax ID",
		"3. State purpose: Prior authorization request",
		"4. Provide patient demographics (name, DOB, member ID)",
		"5. Verify patient coverage is active",
		fmt.Sprintf("6. State procedure: %s (CPT %s)", defaultStr(cfg.Name, "procedure"), req.ProcedureCode),
		"7. Provide diagnosis code and description",
		"8. Explain medical necessity based on clinical notes",
		"9. Answer standard questions about clinical presentation",
		"10. Confirm required documentation and submission method",
		"11. Request authorization reference number",
		"12. Confirm expected turnaround time",
		"13. Get representative name and direct callback number",
		"14. Thank and end call professionally",
	}
	if req.UrgencyLevel == "urgent" || req.UrgencyLevel == "stat" {
		steps = insertStep(steps, 6, "6a. Request expedited review due to urgency")
	}
	if req.IsRetroactive {
		steps = insertStep(steps, 3, "3a. Note: This is a RETROACTIVE authorization request")
	}
	return steps
}

func insertStep(steps []string, at int, step string) []string {
	out := make([]string, 0, len(steps)+1)
	out = append(out, steps[:at]...)
	out = append(out, step)
	return append(out, steps[at:]...)
}

func successProbability(docsComplete, criteriaMet, escalate bool) float64 {
	prob := 0.5
	if docsComplete {
		prob += 0.2
	}
	if criteriaMet {
		prob += 0.2
	}
	if escalate {
		prob -= 0.2
	}
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return prob
}

func turnaroundTime(cfg config.ProcedureConfig, urgency string) string {
	if t, ok := cfg.TurnaroundTime[urgency]; ok && t != "" {
		return t
	}
	return "3-5 business days"
}

func contactDepartment(urgency string) string {
	switch urgency {
	case "stat":
		return "Urgent Prior Authorization Line"
	case "urgent":
		return "Expedited Prior Authorization"
	default:
		return "Prior Authorization Department"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func defaultStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
