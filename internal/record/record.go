package record

import "time"

// Patient holds demographics known before the call is placed.
type Patient struct {
	Name        string `json:"name"`
	DateOfBirth Date   `json:"date_of_birth"`
	MemberID    string `json:"member_id,omitempty"`
}

// Provider identifies the requesting healthcare provider.
type Provider struct {
	Name  string `json:"name"`
	NPI   string `json:"npi,omitempty"`
	Phone string `json:"phone,omitempty"`
	Fax   string `json:"fax,omitempty"`
}

// Procedure describes the service the authorization is for.
type Procedure struct {
	CPTCode        string `json:"cpt_code"`
	Description    string `json:"description,omitempty"`
	ICDCode        string `json:"icd_code,omitempty"`
	ICDDescription string `json:"icd_description,omitempty"`
	ProposedDate   Date   `json:"proposed_date"`
	Urgency        string `json:"urgency,omitempty"` // routine, urgent, stat
}

// Authorization holds the payer-side decision details captured on the call.
// RawStatus keeps whatever string the extraction produced so an UNKNOWN
// mapping is still auditable.
type Authorization struct {
	Status              Status `json:"status"`
	RawStatus           string `json:"raw_status,omitempty"`
	ReferenceNumber     string `json:"reference_number,omitempty"`
	AuthorizationNumber string `json:"authorization_number,omitempty"`
	ValidFrom           Date   `json:"valid_from"`
	ValidTo             Date   `json:"valid_to"`
	ApprovedUnits       int    `json:"approved_units,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// Representative identifies the payer-side staff member, often only
// partially.
type Representative struct {
	Name       string `json:"name,omitempty"`
	ID         string `json:"id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Extension  string `json:"extension,omitempty"`
	Department string `json:"department,omitempty"`
}

// Documentation captures what must be submitted, how, and by when.
type Documentation struct {
	RequiredDocuments  []string `json:"required_documents,omitempty"`
	SubmissionMethod   string   `json:"submission_method,omitempty"` // fax, portal, mail, email
	FaxNumber          string   `json:"fax_number,omitempty"`
	PortalURL          string   `json:"portal_url,omitempty"`
	SubmissionDeadline Date     `json:"submission_deadline"`
	SpecialForms       []string `json:"special_forms,omitempty"`
}

// Timeline tracks turnaround expectations.
type Timeline struct {
	StandardTurnaroundDays int  `json:"standard_turnaround_days,omitempty"`
	ExpeditedRequested     bool `json:"expedited_requested"`
	ExpeditedApproved      bool `json:"expedited_approved"`
	ExpectedDecisionDate   Date `json:"expected_decision_date"`
	FollowUpDate           Date `json:"follow_up_date"`
}

// Record is the complete structured result of one payer call. It is built
// once, mutated only by the validator, and persisted per call id.
type Record struct {
	CallID    string    `json:"call_id"`
	CallDate  time.Time `json:"call_date"`
	PayerName string    `json:"payer_name"`

	Patient   Patient   `json:"patient"`
	Provider  Provider  `json:"provider"`
	Procedure Procedure `json:"procedure"`

	Authorization  Authorization  `json:"authorization"`
	Representative Representative `json:"representative"`
	Documentation  Documentation  `json:"documentation"`
	Timeline       Timeline       `json:"timeline"`

	CallOutcome       Outcome        `json:"call_outcome"`
	Transcript        []string       `json:"transcript,omitempty"`
	ExtractedEntities map[string]any `json:"extracted_entities,omitempty"`

	// Derived arrays, authoritative only after validation.
	MissingFields      []string `json:"missing_fields"`
	ValidationErrors   []string `json:"validation_errors"`
	ValidationWarnings []string `json:"validation_warnings"`
	NextSteps          []string `json:"next_steps"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsComplete reports whether every critical field was captured and validation
// found nothing blocking.
func (r *Record) IsComplete() bool {
	return r.Authorization.ReferenceNumber != "" &&
		r.Authorization.Status != StatusUnknown &&
		len(r.MissingFields) == 0 &&
		len(r.ValidationErrors) == 0
}

// IsApproved reports whether the payer approved the authorization.
func (r *Record) IsApproved() bool {
	return r.Authorization.Status == StatusApproved
}

// RequiresFollowUp reports whether the call left the case in a state that
// needs further action before a decision lands.
func (r *Record) RequiresFollowUp() bool {
	switch r.Authorization.Status {
	case StatusPending, StatusPeerToPeerRequired, StatusAdditionalInfo:
		return true
	}
	return false
}
