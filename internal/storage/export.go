package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// exportColumns is the fixed flat column set for tabular export.
var exportColumns = []string{
	"call_id", "call_date", "payer_name",
	"patient_name", "patient_dob", "member_id",
	"provider_name", "provider_npi",
	"cpt_code", "procedure_description", "icd_code",
	"authorization_status", "authorization_number", "reference_number",
	"representative_name", "call_outcome",
	"missing_fields", "validation_errors",
}

// ExportCSV flattens the given records to CSV. A record that fails to load is
// skipped and logged, never fatal to the batch.
func (s *Store) ExportCSV(w io.Writer, paths []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	exported := 0
	for _, path := range paths {
		rec, err := s.Load(path)
		if err != nil {
			s.logger.Error("failed to load record for export", "path", path, "error", err)
			continue
		}

		row := []string{
			rec.CallID,
			rec.CallDate.Format(time.RFC3339),
			rec.PayerName,
			rec.Patient.Name,
			rec.Patient.DateOfBirth.String(),
			rec.Patient.MemberID,
			rec.Provider.Name,
			rec.Provider.NPI,
			rec.Procedure.CPTCode,
			rec.Procedure.Description,
			rec.Procedure.ICDCode,
			string(rec.Authorization.Status),
			rec.Authorization.AuthorizationNumber,
			rec.Authorization.ReferenceNumber,
			rec.Representative.Name,
			string(rec.CallOutcome),
			strings.Join(rec.MissingFields, "; "),
			strings.Join(rec.ValidationErrors, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", rec.CallID, err)
		}
		exported++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	s.logger.Info("records exported", "count", exported)
	return nil
}
