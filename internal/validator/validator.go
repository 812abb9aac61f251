package validator

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/payerline/postcall/internal/record"
)

// requiredFieldsByStatus drives completeness checking. The key is the
// authorization status; the values are record field paths that the status
// makes mandatory.
var requiredFieldsByStatus = map[record.Status][]string{
	record.StatusApproved: {
		"authorization.reference_number",
		"authorization.authorization_number",
		"representative.name",
		"timeline.expected_decision_date",
	},
	record.StatusPending: {
		"authorization.reference_number",
		"documentation.required_documents",
		"documentation.submission_deadline",
		"representative.name",
	},
	record.StatusDenied: {
		"authorization.reference_number",
		"representative.name",
	},
	record.StatusPeerToPeerRequired: {
		"authorization.reference_number",
		"representative.name",
		"representative.phone",
	},
}

var (
	cptCodeRe    = regexp.MustCompile(`^\d{5}$`)
	icdCodeRe    = regexp.MustCompile(`^[A-Z]\d{2}\.?\d{0,2}$`)
	npiRe        = regexp.MustCompile(`^\d{10}$`)
	authNumberRe = regexp.MustCompile(`(?i)^[A-Z0-9-]+$`)
	phoneStripRe = regexp.MustCompile(`[\s\-().]+`)
	phoneRe      = regexp.MustCompile(`^1?\d{10}$`)
)

// Validator is the rule engine: it checks completeness, formats, and business
// constraints, synthesizes next steps, and finalizes the call outcome.
// Validation is idempotent; the derived arrays are cleared and fully
// recomputed on every run.
type Validator struct {
	// Clock supplies "today" for date-relative rules. Overridable in tests.
	Clock func() time.Time

	logger *slog.Logger
}

func New(logger *slog.Logger) *Validator {
	return &Validator{Clock: time.Now, logger: logger}
}

// Validate mutates the record in place and returns it.
func (v *Validator) Validate(rec *record.Record) *record.Record {
	v.logger.Info("validating record", "call_id", rec.CallID, "status", rec.Authorization.Status)

	rec.MissingFields = []string{}
	rec.ValidationErrors = []string{}
	rec.ValidationWarnings = []string{}
	rec.NextSteps = []string{}

	v.checkCompleteness(rec)
	v.checkFormats(rec)
	v.checkBusinessRules(rec)
	v.generateNextSteps(rec)
	v.classifyOutcome(rec)

	v.logger.Info("validation complete",
		"call_id", rec.CallID,
		"errors", len(rec.ValidationErrors),
		"warnings", len(rec.ValidationWarnings),
		"missing", len(rec.MissingFields),
		"outcome", rec.CallOutcome,
	)
	return rec
}

func (v *Validator) checkCompleteness(rec *record.Record) {
	// Leaving a call with neither number means there is nothing to track the
	// request by.
	if rec.Authorization.ReferenceNumber == "" && rec.Authorization.AuthorizationNumber == "" {
		rec.MissingFields = append(rec.MissingFields, "authorization_reference_number")
		rec.ValidationErrors = append(rec.ValidationErrors, "No authorization or reference number obtained from call")
	}

	for _, path := range requiredFieldsByStatus[rec.Authorization.Status] {
		if !fieldPresent(rec, path) {
			name := path[strings.LastIndex(path, ".")+1:]
			rec.MissingFields = append(rec.MissingFields, name)
			rec.ValidationWarnings = append(rec.ValidationWarnings, "Missing required field: "+name)
		}
	}

	if rec.Representative.Name == "" {
		rec.MissingFields = append(rec.MissingFields, "representative_name")
		rec.ValidationWarnings = append(rec.ValidationWarnings, "Insurance representative name not captured")
	}

	if rec.Authorization.Status == record.StatusPending || rec.Authorization.Status == record.StatusAdditionalInfo {
		if len(rec.Documentation.RequiredDocuments) == 0 {
			rec.MissingFields = append(rec.MissingFields, "required_documents")
			rec.ValidationErrors = append(rec.ValidationErrors, "Authorization pending but no documentation requirements captured")
		}
		if rec.Documentation.SubmissionDeadline.IsZero() {
			rec.MissingFields = append(rec.MissingFields, "submission_deadline")
			rec.ValidationErrors = append(rec.ValidationErrors, "No documentation submission deadline captured")
		}
	}
}

// checkFormats emits warnings only: format problems are usually transcription
// noise, not fatal data loss.
func (v *Validator) checkFormats(rec *record.Record) {
	warn := func(format string, args ...any) {
		rec.ValidationWarnings = append(rec.ValidationWarnings, fmt.Sprintf(format, args...))
	}

	if code := rec.Procedure.CPTCode; code != "" && code != "UNKNOWN" && !cptCodeRe.MatchString(code) {
		warn("Invalid CPT code format: %s", code)
	}
	if code := rec.Procedure.ICDCode; code != "" && !icdCodeRe.MatchString(code) {
		warn("Invalid ICD-10 code format: %s", code)
	}
	if npi := rec.Provider.NPI; npi != "" && !npiRe.MatchString(npi) {
		warn("Invalid NPI format: %s", npi)
	}
	if fax := rec.Documentation.FaxNumber; fax != "" && !validPhone(fax) {
		warn("Invalid fax number format: %s", fax)
	}
	if phone := rec.Representative.Phone; phone != "" && !validPhone(phone) {
		warn("Invalid representative phone format: %s", phone)
	}
	if num := rec.Authorization.AuthorizationNumber; num != "" && !authNumberRe.MatchString(num) {
		warn("Unusual authorization number format: %s", num)
	}
}

func (v *Validator) checkBusinessRules(rec *record.Record) {
	today := record.DateOf(v.Clock().UTC())
	auth := rec.Authorization

	if !auth.ValidFrom.IsZero() && !auth.ValidTo.IsZero() {
		validityDays := auth.ValidFrom.DaysUntil(auth.ValidTo)
		switch {
		case validityDays < 0:
			rec.ValidationErrors = append(rec.ValidationErrors, "Authorization end date is before start date")
		case validityDays < 30:
			rec.ValidationWarnings = append(rec.ValidationWarnings, fmt.Sprintf("Short authorization validity period: %d days", validityDays))
		case validityDays > 365:
			rec.ValidationWarnings = append(rec.ValidationWarnings, fmt.Sprintf("Unusually long authorization validity period: %d days", validityDays))
		}
	}

	deadline := rec.Documentation.SubmissionDeadline
	if !deadline.IsZero() && !rec.Procedure.ProposedDate.IsZero() && !deadline.Before(rec.Procedure.ProposedDate.Time) {
		rec.ValidationErrors = append(rec.ValidationErrors, "Documentation deadline is on or after procedure date - may cause delays")
	}

	if !deadline.IsZero() {
		if deadline.Before(today.Time) {
			rec.ValidationErrors = append(rec.ValidationErrors, fmt.Sprintf("Documentation deadline has already passed: %s", deadline))
		} else if today.DaysUntil(deadline) <= 1 {
			rec.ValidationWarnings = append(rec.ValidationWarnings, "Documentation deadline is very soon (within 1 day)")
		}
	}

	if days := rec.Timeline.StandardTurnaroundDays; days != 0 {
		if days < 1 {
			rec.ValidationWarnings = append(rec.ValidationWarnings, "Unusually fast turnaround time")
		} else if days > 30 {
			rec.ValidationWarnings = append(rec.ValidationWarnings, "Very long turnaround time - consider expedited review")
		}
	}

	// An approval without its number is not actionable.
	if auth.Status == record.StatusApproved && auth.AuthorizationNumber == "" {
		rec.ValidationErrors = append(rec.ValidationErrors, "Authorization approved but no authorization number provided")
	}

	if auth.Status == record.StatusDenied && auth.Notes == "" {
		rec.ValidationWarnings = append(rec.ValidationWarnings, "Authorization denied but no denial reason captured")
	}

	// Peer-to-peer is unreachable without a callback number.
	if auth.Status == record.StatusPeerToPeerRequired && rec.Representative.Phone == "" {
		rec.ValidationErrors = append(rec.ValidationErrors, "Peer-to-peer required but no callback number captured")
	}
}

func (v *Validator) generateNextSteps(rec *record.Record) {
	steps := &rec.NextSteps
	add := func(s string) { *steps = append(*steps, s) }

	switch rec.Authorization.Status {
	case record.StatusApproved:
		if rec.Authorization.AuthorizationNumber != "" {
			add("Authorization approved - confirm number: " + rec.Authorization.AuthorizationNumber)
		}
		if !rec.Authorization.ValidTo.IsZero() {
			add("Authorization valid until " + rec.Authorization.ValidTo.String())
		}
		add("Proceed with scheduling procedure")
		add("Update EHR/billing system with authorization number")

	case record.StatusPending, record.StatusAdditionalInfo:
		add("Authorization pending - action required")
		if len(rec.Documentation.RequiredDocuments) > 0 {
			add("Submit required documents: " + strings.Join(rec.Documentation.RequiredDocuments, ", "))
		}
		if !rec.Documentation.SubmissionDeadline.IsZero() {
			add("Submission deadline: " + rec.Documentation.SubmissionDeadline.String())
		}
		if rec.Documentation.SubmissionMethod != "" {
			add("Submit via " + rec.Documentation.SubmissionMethod)
		}
		if rec.Documentation.FaxNumber != "" {
			add("Fax documents to: " + rec.Documentation.FaxNumber)
		}
		if !rec.Timeline.ExpectedDecisionDate.IsZero() {
			add("Expected decision by: " + rec.Timeline.ExpectedDecisionDate.String())
		}
		add("Follow up if no decision received by expected date")

	case record.StatusDenied:
		add("Authorization denied - appeal required")
		add("Review denial reason with provider")
		add("Gather additional documentation for appeal")
		add("Submit formal appeal within insurance timeline")
		if rec.Representative.Name != "" {
			add("Contact representative " + rec.Representative.Name + " for appeal process")
		}

	case record.StatusPeerToPeerRequired:
		add("Peer-to-peer review required")
		add("Schedule peer-to-peer call between provider and payer medical director")
		if rec.Representative.Phone != "" {
			add("Call " + rec.Representative.Phone + " to schedule")
		}
		add("Prepare clinical documentation for review")
	}

	if len(rec.MissingFields) > 0 {
		preview := rec.MissingFields
		if len(preview) > 3 {
			preview = preview[:3]
		}
		add("Incomplete information - missing: " + strings.Join(preview, ", "))
		add("Call back to obtain missing information")
	}
	if n := len(rec.ValidationErrors); n > 0 {
		add(fmt.Sprintf("%d validation errors need attention", n))
	}
}

// classifyOutcome runs last so it reflects every prior finding. Error
// findings always override an optimistic extraction-time classification;
// there is no promotion path back to success.
func (v *Validator) classifyOutcome(rec *record.Record) {
	errs := len(rec.ValidationErrors)
	if rec.CallOutcome == record.OutcomeSuccess && errs > 0 {
		rec.CallOutcome = record.OutcomePartial
	}

	hasNumber := rec.Authorization.ReferenceNumber != "" || rec.Authorization.AuthorizationNumber != ""
	switch {
	case rec.Authorization.Status == record.StatusApproved &&
		rec.Authorization.AuthorizationNumber != "" && errs == 0:
		rec.CallOutcome = record.OutcomeSuccess
	case hasNumber && rec.Authorization.Status != record.StatusUnknown:
		rec.CallOutcome = record.OutcomePartial
	default:
		rec.CallOutcome = record.OutcomeFailed
	}
}

func fieldPresent(rec *record.Record, path string) bool {
	switch path {
	case "authorization.reference_number":
		return rec.Authorization.ReferenceNumber != ""
	case "authorization.authorization_number":
		return rec.Authorization.AuthorizationNumber != ""
	case "representative.name":
		return rec.Representative.Name != ""
	case "representative.phone":
		return rec.Representative.Phone != ""
	case "documentation.required_documents":
		return len(rec.Documentation.RequiredDocuments) > 0
	case "documentation.submission_deadline":
		return !rec.Documentation.SubmissionDeadline.IsZero()
	case "timeline.expected_decision_date":
		return !rec.Timeline.ExpectedDecisionDate.IsZero()
	}
	return false
}

func validPhone(s string) bool {
	return phoneRe.MatchString(phoneStripRe.ReplaceAllString(s, ""))
}
