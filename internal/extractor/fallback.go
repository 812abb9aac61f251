package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// patternRule binds a labeled-text pattern to a target field. Rules are
// evaluated in order and the first match per field wins, so precedence lives
// in the data, not in branching.
type patternRule struct {
	field string
	re    *regexp.Regexp
}

// statusRule maps keyword sets to a status value. Rules are checked in fixed
// priority order so overlapping keyword sets resolve predictably.
type statusRule struct {
	status   string
	keywords []string
}

var priorAuthFieldRules = []patternRule{
	{"representative_name", regexp.MustCompile(`(?i:my name is|this is|i'm) ([A-Z][a-z]+ [A-Z][a-z]+)`)},
	{"representative_name", regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+) (?i:speaking)`)},
	{"reference_number", regexp.MustCompile(`(?i:reference (?:number|id) is) ([A-Za-z0-9-]+)`)},
	{"reference_number", regexp.MustCompile(`(?i:ref(?:erence)?\s*(?:#|number)\s*:?)\s*([A-Za-z0-9-]+)`)},
	{"representative_name", regexp.MustCompile(`(?i:representative)\s+([A-Z][a-z]+ [A-Z][a-z]+)`)},
	{"authorization_number", regexp.MustCompile(`(?i:authorization (?:number|code)(?: is)?\s*:?)\s*([A-Z0-9][A-Z0-9-]*\d[A-Z0-9-]*)`)},
	{"authorization_number", regexp.MustCompile(`(?i:auth (?:number|code|#)\s*:?)\s*([A-Z0-9][A-Z0-9-]*\d[A-Z0-9-]*)`)},
	{"authorization_number", regexp.MustCompile(`(?i:approved).*?\b([A-Z]{2,}-?\d+)`)},
	{"representative_phone", regexp.MustCompile(`(?i:call(?:\s+\w+)?\s+(?:back\s+)?at|callback number is)\s*(1?[-. ]?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4})`)},
	{"fax_number", regexp.MustCompile(`(?i:fax(?:\s+(?:number|them|it|documents))?(?:\s+(?:is|to|over to))?\s*:?)\s*(1?[-. ]?\d{3}[-. ]?\d{3}[-. ]?\d{4})`)},
}

var priorAuthStatusRules = []statusRule{
	{"approved", []string{"authorization approved", "auth approved", "approved"}},
	{"denied", []string{"denied", "not eligible", "expired", "inactive", "denial"}},
	{"pending", []string{"pending", "under review", "need more info", "reviewing"}},
	{"peer_to_peer_required", []string{"peer to peer", "peer-to-peer", "medical director"}},
}

var turnaroundRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:within)\s*(\d+)\s*(?i:business\s*)?(?i:days?)`),
	regexp.MustCompile(`(\d+)\s*(?i:business\s*)?(?i:days?)`),
}

// FallbackExtract is the deterministic pattern-based extraction used when the
// completion path is unavailable or unparseable. It returns whatever subset
// of fields it can find and never fails.
func FallbackExtract(conversation string) map[string]any {
	extracted := make(map[string]any)

	applyFieldRules(extracted, priorAuthFieldRules, conversation)
	extracted["authorization_status"] = matchStatus(priorAuthStatusRules, conversation)

	for _, re := range turnaroundRules {
		if m := re.FindStringSubmatch(conversation); m != nil {
			if days, err := strconv.Atoi(m[1]); err == nil {
				extracted["turnaround_days"] = days
				break
			}
		}
	}

	return extracted
}

var denialFieldRules = []patternRule{
	{"representative_name", regexp.MustCompile(`(?i:my name is|i'm|this is)\s+([A-Z][a-z]+(?: [A-Z][a-z]+)*)`)},
	{"representative_name", regexp.MustCompile(`(?i:speaking with|talking to)\s+([A-Z][a-z]+(?: [A-Z][a-z]+)*)`)},
	{"reference_number", regexp.MustCompile(`(?i:reference|inquiry|tracking)\s*(?i:number|#|num)?\s*:?\s*((?:INQ|REF|TRK)[- ]?[A-Za-z0-9-]+)`)},
	{"reference_number", regexp.MustCompile(`(?i:reference (?:number|id) is)\s*([A-Za-z0-9-]+)`)},
	{"fax_number", regexp.MustCompile(`(?i:fax|submit to)\s*:?\s*(\d{3}[-.]?\d{3}[-.]?\d{4})`)},
}

var denialStatusRules = []statusRule{
	{"overturned", []string{"overturned", "accepted", "approved"}},
	{"upheld", []string{"upheld", "maintained", "denied again"}},
	{"appeal_required", []string{"file an appeal", "appeal"}},
	{"resubmit_required", []string{"resubmit", "re-submit", "resubmission"}},
	{"peer_to_peer_required", []string{"peer to peer", "peer-to-peer", "medical review"}},
}

var reprocessingRule = regexp.MustCompile(`(\d+)(?:-(\d+))?\s*(?i:business\s*)?(?i:days)`)

// FallbackExtractDenial is the denial-management counterpart of
// FallbackExtract.
func FallbackExtractDenial(conversation string) map[string]any {
	extracted := make(map[string]any)

	applyFieldRules(extracted, denialFieldRules, conversation)
	extracted["resolution_status"] = matchStatus(denialStatusRules, conversation)

	if m := reprocessingRule.FindStringSubmatch(conversation); m != nil {
		if m[2] != "" {
			extracted["reprocessing_time"] = m[1] + "-" + m[2] + " days"
		} else {
			extracted["reprocessing_time"] = m[1] + " days"
		}
	}

	return extracted
}

func applyFieldRules(extracted map[string]any, rules []patternRule, text string) {
	for _, rule := range rules {
		if _, done := extracted[rule.field]; done {
			continue
		}
		if m := rule.re.FindStringSubmatch(text); m != nil {
			extracted[rule.field] = strings.TrimSpace(m[1])
		}
	}
}

func matchStatus(rules []statusRule, text string) string {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.status
			}
		}
	}
	return "unknown"
}
