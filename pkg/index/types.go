package index

// RuleRecord is the atomic unit of the knowledge index: one rule or
// principle definition extracted from a source document. Records are
// created once during a build pass and never mutated afterwards.
type RuleRecord struct {
	// QualifiedName is frameworkCode:localName, globally unique.
	QualifiedName string `json:"qualified_name"`
	// LocalName is unique only within its source file and may carry a
	// trailing predicate marker, e.g. "contract-valid?".
	LocalName string `json:"local_name"`
	// DocText is the free-text documentation block, possibly empty.
	DocText string `json:"doc_text,omitempty"`
	// CrossReferences lists referenced principle or rule names in source
	// order. Duplicates are allowed; order is preserved for display only.
	CrossReferences []string `json:"cross_references,omitempty"`
	// IsPrinciple marks Level-1 foundational principles, either tagged
	// explicitly in the source text or implied by a level-1 framework.
	IsPrinciple bool `json:"is_principle"`
	// SourceFile is provenance only, used for display and debugging.
	SourceFile string `json:"source_file,omitempty"`
	// FrameworkCode is the owning framework's short code.
	FrameworkCode string `json:"framework_code"`
}

// Framework is a named collection of RuleRecords sharing jurisdiction and
// domain metadata.
type Framework struct {
	Code    string       `json:"code"`
	Name    string       `json:"name"`
	Level   int          `json:"level"`
	Domains []string     `json:"domains,omitempty"`
	Records []RuleRecord `json:"records"`
}

// Issue is one entry in a validation report.
type Issue struct {
	Check    string `json:"check"`
	Severity string `json:"severity"` // error | warning | info
	Message  string `json:"message"`
}

// Severity values for validation issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// ValidationReport is the structured output consumed by operational tooling.
// Passed is true iff the report contains zero error-severity issues.
type ValidationReport struct {
	Passed bool    `json:"passed"`
	Issues []Issue `json:"issues"`
}

func (r *ValidationReport) add(check, severity, message string) {
	r.Issues = append(r.Issues, Issue{Check: check, Severity: severity, Message: message})
	if severity == SeverityError {
		r.Passed = false
	}
}

// Errors returns only the error-severity issues.
func (r *ValidationReport) Errors() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			out = append(out, is)
		}
	}
	return out
}

// FrameworkStats summarizes one framework for reporting.
type FrameworkStats struct {
	Name        string   `json:"name"`
	Level       int      `json:"level"`
	RecordCount int      `json:"record_count"`
	Domains     []string `json:"domains,omitempty"`
}

// DomainStats summarizes one domain tag.
type DomainStats struct {
	RecordCount    int `json:"record_count"`
	PrincipleCount int `json:"principle_count"`
}

// Stats is the corpus-wide summary exposed by the stats endpoint and
// embedded in snapshots.
type Stats struct {
	TotalFrameworks int                       `json:"total_frameworks"`
	TotalRecords    int                       `json:"total_records"`
	TotalPrinciples int                       `json:"total_principles"`
	Frameworks      map[string]FrameworkStats `json:"frameworks"`
	Domains         map[string]DomainStats    `json:"domains"`
}
