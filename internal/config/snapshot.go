package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DocRequirement describes one documentation requirement for a procedure.
type DocRequirement struct {
	Description string   `yaml:"description"`
	Mandatory   bool     `yaml:"mandatory"`
	Keywords    []string `yaml:"keywords"`
}

// ApprovalCriteria holds the payer's stated criteria for a procedure.
type ApprovalCriteria struct {
	Primary   string   `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
}

// EscalationTrigger flags clinical-note keywords that require escalation.
type EscalationTrigger struct {
	Keyword string `yaml:"keyword"`
	Action  string `yaml:"action"`
}

// ProcedureConfig is the rule table for one CPT code.
type ProcedureConfig struct {
	Name               string              `yaml:"name"`
	Category           string              `yaml:"category"`
	RequiresPriorAuth  bool                `yaml:"requires_prior_auth"`
	TypicalCost        string              `yaml:"typical_cost"`
	Documentation      []DocRequirement    `yaml:"documentation_requirements"`
	ApprovalCriteria   ApprovalCriteria    `yaml:"approval_criteria"`
	StandardQuestions  []string            `yaml:"standard_questions"`
	EscalationTriggers []EscalationTrigger `yaml:"escalation_triggers"`
	TurnaroundTime     map[string]string   `yaml:"turnaround_time"` // keyed by urgency
}

// DenialConfig is the rule table for one denial code.
type DenialConfig struct {
	Description        string   `yaml:"description"`
	ResolutionPaths    []string `yaml:"resolution_paths"`
	RequiredDocuments  []string `yaml:"required_documents"`
	AppealDeadlineDays int      `yaml:"appeal_deadline_days"`
	SuccessProbability float64  `yaml:"success_probability"`
	RequiresEscalation bool     `yaml:"requires_escalation"`
}

type proceduresFile struct {
	Procedures       map[string]ProcedureConfig `yaml:"procedures"`
	DefaultProcedure ProcedureConfig            `yaml:"default_procedure"`
}

type denialsFile struct {
	DenialCodes   map[string]DenialConfig `yaml:"denial_codes"`
	DefaultDenial DenialConfig            `yaml:"default_denial"`
}

// Snapshot is an immutable view of the case-configuration lookup tables.
// It is loaded once per process and passed by reference; Reload builds a
// fresh snapshot rather than mutating a shared one.
type Snapshot struct {
	dir        string
	procedures map[string]ProcedureConfig
	defaultPro ProcedureConfig
	denials    map[string]DenialConfig
	defaultDen DenialConfig
	logger     *slog.Logger
}

// LoadSnapshot parses procedures.yaml and denial_codes.yaml under dir.
func LoadSnapshot(dir string, logger *slog.Logger) (*Snapshot, error) {
	var pf proceduresFile
	if err := readYAML(filepath.Join(dir, "procedures.yaml"), &pf); err != nil {
		return nil, err
	}
	var df denialsFile
	if err := readYAML(filepath.Join(dir, "denial_codes.yaml"), &df); err != nil {
		return nil, err
	}

	logger.Info("case configuration loaded",
		"dir", dir,
		"procedures", len(pf.Procedures),
		"denial_codes", len(df.DenialCodes),
	)

	return &Snapshot{
		dir:        dir,
		procedures: pf.Procedures,
		defaultPro: pf.DefaultProcedure,
		denials:    df.DenialCodes,
		defaultDen: df.DefaultDenial,
		logger:     logger,
	}, nil
}

// Reload builds a fresh snapshot from the same directory.
func (s *Snapshot) Reload() (*Snapshot, error) {
	return LoadSnapshot(s.dir, s.logger)
}

// Procedure looks up the rule table for a CPT code, falling back to the
// declared default when the code is unlisted.
func (s *Snapshot) Procedure(code string) ProcedureConfig {
	if cfg, ok := s.procedures[code]; ok {
		return cfg
	}
	s.logger.Warn("procedure not in configuration, using default", "cpt_code", code)
	return s.defaultPro
}

// Denial looks up the rule table for a denial code, falling back to the
// declared default.
func (s *Snapshot) Denial(code string) DenialConfig {
	if cfg, ok := s.denials[code]; ok {
		return cfg
	}
	s.logger.Warn("denial code not in configuration, using default", "denial_code", code)
	return s.defaultDen
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
