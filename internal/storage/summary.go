package storage

import (
	"fmt"
	"strings"

	"github.com/payerline/postcall/internal/record"
)

// Summary renders the advisory human-readable summary written alongside the
// canonical file. It is write-only output and is never parsed back.
func Summary(rec *record.Record) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80) + "\n"
	thin := strings.Repeat("-", 80) + "\n"

	section := func(title string) {
		sb.WriteString(thin)
		sb.WriteString(title + "\n")
		sb.WriteString(thin)
	}
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}

	sb.WriteString(rule)
	sb.WriteString("PRIOR AUTHORIZATION CALL SUMMARY\n")
	sb.WriteString(rule)
	sb.WriteString("\n")

	line("Call ID: %s", rec.CallID)
	line("Date: %s", rec.CallDate.Format("2006-01-02 15:04:05"))
	line("Payer: %s", rec.PayerName)
	line("Status: %s", strings.ToUpper(string(rec.Authorization.Status)))
	line("Outcome: %s", strings.ToUpper(string(rec.CallOutcome)))
	sb.WriteString("\n")

	section("PATIENT INFORMATION")
	line("Name: %s", rec.Patient.Name)
	if !rec.Patient.DateOfBirth.IsZero() {
		line("DOB: %s", rec.Patient.DateOfBirth)
	}
	if rec.Patient.MemberID != "" {
		line("Member ID: %s", rec.Patient.MemberID)
	}
	sb.WriteString("\n")

	section("PROVIDER INFORMATION")
	line("Name: %s", rec.Provider.Name)
	if rec.Provider.NPI != "" {
		line("NPI: %s", rec.Provider.NPI)
	}
	sb.WriteString("\n")

	section("PROCEDURE")
	line("CPT Code: %s", rec.Procedure.CPTCode)
	if rec.Procedure.Description != "" {
		line("Description: %s", rec.Procedure.Description)
	}
	if rec.Procedure.ICDCode != "" {
		line("Diagnosis: %s", rec.Procedure.ICDCode)
	}
	sb.WriteString("\n")

	section("AUTHORIZATION DETAILS")
	if rec.Authorization.AuthorizationNumber != "" {
		line("Authorization Number: %s", rec.Authorization.AuthorizationNumber)
	}
	if rec.Authorization.ReferenceNumber != "" {
		line("Reference Number: %s", rec.Authorization.ReferenceNumber)
	}
	if !rec.Authorization.ValidFrom.IsZero() && !rec.Authorization.ValidTo.IsZero() {
		line("Valid: %s to %s", rec.Authorization.ValidFrom, rec.Authorization.ValidTo)
	}
	sb.WriteString("\n")

	if rec.Representative.Name != "" {
		section("REPRESENTATIVE")
		line("Name: %s", rec.Representative.Name)
		if rec.Representative.ID != "" {
			line("ID: %s", rec.Representative.ID)
		}
		if rec.Representative.Phone != "" {
			line("Phone: %s", rec.Representative.Phone)
		}
		sb.WriteString("\n")
	}

	if len(rec.Documentation.RequiredDocuments) > 0 {
		section("DOCUMENTATION REQUIRED")
		for _, doc := range rec.Documentation.RequiredDocuments {
			line("  - %s", doc)
		}
		if rec.Documentation.SubmissionMethod != "" {
			line("Submit via: %s", rec.Documentation.SubmissionMethod)
		}
		if rec.Documentation.FaxNumber != "" {
			line("Fax: %s", rec.Documentation.FaxNumber)
		}
		if !rec.Documentation.SubmissionDeadline.IsZero() {
			line("Deadline: %s", rec.Documentation.SubmissionDeadline)
		}
		sb.WriteString("\n")
	}

	if len(rec.NextSteps) > 0 {
		section("NEXT STEPS")
		for i, step := range rec.NextSteps {
			line("%d. %s", i+1, step)
		}
		sb.WriteString("\n")
	}

	if len(rec.MissingFields) > 0 {
		section("MISSING INFORMATION")
		for _, f := range rec.MissingFields {
			line("  - %s", f)
		}
		sb.WriteString("\n")
	}

	if len(rec.ValidationErrors) > 0 {
		section("VALIDATION ERRORS")
		for _, e := range rec.ValidationErrors {
			line("  - %s", e)
		}
		sb.WriteString("\n")
	}

	if len(rec.ValidationWarnings) > 0 {
		section("WARNINGS")
		for _, w := range rec.ValidationWarnings {
			line("  - %s", w)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rule)
	return sb.String()
}
