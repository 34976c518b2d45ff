package index

// Index is the derived, multi-key view over a built corpus. It is immutable
// after construction: every accessor is a pure read, so concurrent queries
// need no synchronization.
type Index struct {
	frameworks     []Framework
	frameworkByCode map[string]*Framework

	byQualifiedName map[string]*RuleRecord
	// order preserves first-seen qualified names for stable ranking and
	// centrality tie-breaks.
	order []string

	// byDomain maps a domain tag to qualified names in discovery order.
	byDomain    map[string][]string
	domainOrder []string

	// byCrossRef is the reverse edge index: referenced name -> qualified
	// names of the records that reference it, in discovery order.
	byCrossRef map[string][]string

	// principlesByName maps a principle's local name to its record.
	principlesByName map[string]*RuleRecord
	principleOrder   []string

	stats  Stats
	report ValidationReport
}

// Record returns the record with the given qualified name.
func (ix *Index) Record(qualifiedName string) (*RuleRecord, bool) {
	r, ok := ix.byQualifiedName[qualifiedName]
	return r, ok
}

// Principle returns a Level-1 principle by its local name.
func (ix *Index) Principle(localName string) (*RuleRecord, bool) {
	r, ok := ix.principlesByName[localName]
	return r, ok
}

// Order returns the qualified names in first-seen order. The slice is shared;
// callers must not modify it.
func (ix *Index) Order() []string {
	return ix.order
}

// PrincipleNames returns principle local names in discovery order.
func (ix *Index) PrincipleNames() []string {
	return ix.principleOrder
}

// DomainRecords returns the qualified names tagged with domain, in
// discovery order.
func (ix *Index) DomainRecords(domain string) []string {
	return ix.byDomain[domain]
}

// Domains returns all domain tags in discovery order.
func (ix *Index) Domains() []string {
	return ix.domainOrder
}

// Referrers returns the qualified names of every record whose
// cross-references include name, in reverse-index discovery order.
func (ix *Index) Referrers(name string) []string {
	return ix.byCrossRef[name]
}

// Frameworks returns the frameworks in configuration order.
func (ix *Index) Frameworks() []Framework {
	return ix.frameworks
}

// Framework returns one framework by code.
func (ix *Index) Framework(code string) (*Framework, bool) {
	fw, ok := ix.frameworkByCode[code]
	return fw, ok
}

// Stats returns the corpus-wide summary computed at build time.
func (ix *Index) Stats() Stats {
	return ix.stats
}

// Report returns the validation report produced by the build.
func (ix *Index) Report() ValidationReport {
	return ix.report
}

// ResolveName maps a qualified or bare local name to a record. Qualified
// names win; bare names resolve through the principle index, then by a
// first-seen scan over all records.
func (ix *Index) ResolveName(name string) (*RuleRecord, bool) {
	if r, ok := ix.byQualifiedName[name]; ok {
		return r, true
	}
	if r, ok := ix.principlesByName[name]; ok {
		return r, true
	}
	// Fall back to a local-name match across frameworks; first-seen wins.
	for _, qn := range ix.order {
		if r := ix.byQualifiedName[qn]; r.LocalName == name {
			return r, true
		}
	}
	return nil, false
}
