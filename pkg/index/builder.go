package index

import (
	"fmt"

	commonerrors "github.com/cogpy/chainlex/pkg/common/errors"
)

// Build constructs the four indices over the given frameworks in a single
// pass. The returned report is non-nil even on failure so tooling can see
// what was checked.
//
// Duplicate qualified names and duplicate principle names are build-fatal:
// Build returns an error wrapping ErrDuplicateName and no index is
// produced, so a previously installed index stays in place. Last-write-wins
// is deliberately not an option; it would silently hide a duplicate
// definition.
func Build(frameworks []Framework) (*Index, *ValidationReport, error) {
	ix := &Index{
		frameworks:       frameworks,
		frameworkByCode:  make(map[string]*Framework, len(frameworks)),
		byQualifiedName:  make(map[string]*RuleRecord),
		byDomain:         make(map[string][]string),
		byCrossRef:       make(map[string][]string),
		principlesByName: make(map[string]*RuleRecord),
	}
	report := &ValidationReport{Passed: true}

	var fatal error

	for fi := range frameworks {
		fw := &ix.frameworks[fi]
		ix.frameworkByCode[fw.Code] = fw

		for ri := range fw.Records {
			rec := &fw.Records[ri]
			rec.QualifiedName = fw.Code + ":" + rec.LocalName
			// Level-1 frameworks only contain principles.
			if fw.Level == 1 {
				rec.IsPrinciple = true
			}

			if prev, exists := ix.byQualifiedName[rec.QualifiedName]; exists {
				report.add("duplicates", SeverityError,
					fmt.Sprintf("duplicate qualified name %s (%s vs %s)", rec.QualifiedName, prev.SourceFile, rec.SourceFile))
				if fatal == nil {
					fatal = fmt.Errorf("%w: %s", commonerrors.ErrDuplicateName, rec.QualifiedName)
				}
				// Keep the first-seen entry; continue so the report covers
				// every collision, not just the first.
				continue
			}
			ix.byQualifiedName[rec.QualifiedName] = rec
			ix.order = append(ix.order, rec.QualifiedName)

			for _, domain := range fw.Domains {
				if _, seen := ix.byDomain[domain]; !seen {
					ix.domainOrder = append(ix.domainOrder, domain)
				}
				ix.byDomain[domain] = append(ix.byDomain[domain], rec.QualifiedName)
			}

			for _, ref := range rec.CrossReferences {
				ix.byCrossRef[ref] = append(ix.byCrossRef[ref], rec.QualifiedName)
			}

			if rec.IsPrinciple {
				if prev, exists := ix.principlesByName[rec.LocalName]; exists {
					report.add("duplicates", SeverityError,
						fmt.Sprintf("principle %s defined in both %s and %s", rec.LocalName, prev.FrameworkCode, rec.FrameworkCode))
					if fatal == nil {
						fatal = fmt.Errorf("%w: principle %s", commonerrors.ErrDuplicateName, rec.LocalName)
					}
					continue
				}
				ix.principlesByName[rec.LocalName] = rec
				ix.principleOrder = append(ix.principleOrder, rec.LocalName)
			}
		}
	}

	validateReferences(ix, report)
	ix.stats = computeStats(ix)
	ix.report = *report

	if fatal != nil {
		return nil, report, fatal
	}
	return ix, report, nil
}

// annotationNoise are fragments the cross-reference scanner can pick up from
// the annotation line itself; they are never real targets.
var annotationNoise = map[string]bool{
	"Level": true, "level": true, "l1": true, "l2": true, "1": true, "2": true,
}

// validateReferences flags dangling cross-references. This must run after
// the full node set is indexed; no edge is trusted before then.
func validateReferences(ix *Index, report *ValidationReport) {
	localNames := make(map[string]bool, len(ix.order))
	for _, qn := range ix.order {
		localNames[ix.byQualifiedName[qn].LocalName] = true
	}

	for _, qn := range ix.order {
		rec := ix.byQualifiedName[qn]
		for _, ref := range rec.CrossReferences {
			if annotationNoise[ref] {
				continue
			}
			if localNames[ref] {
				continue
			}
			if _, ok := ix.byQualifiedName[ref]; ok {
				continue
			}
			report.add("cross_references", SeverityWarning,
				fmt.Sprintf("%s references undefined name %q", qn, ref))
		}
	}
}

func computeStats(ix *Index) Stats {
	stats := Stats{
		TotalFrameworks: len(ix.frameworks),
		TotalRecords:    len(ix.order),
		TotalPrinciples: len(ix.principleOrder),
		Frameworks:      make(map[string]FrameworkStats, len(ix.frameworks)),
		Domains:         make(map[string]DomainStats, len(ix.domainOrder)),
	}

	for _, fw := range ix.frameworks {
		stats.Frameworks[fw.Code] = FrameworkStats{
			Name:        fw.Name,
			Level:       fw.Level,
			RecordCount: len(fw.Records),
			Domains:     fw.Domains,
		}
	}

	for _, domain := range ix.domainOrder {
		members := ix.byDomain[domain]
		principles := make(map[string]bool)
		for _, qn := range members {
			for _, ref := range ix.byQualifiedName[qn].CrossReferences {
				if _, ok := ix.principlesByName[ref]; ok {
					principles[ref] = true
				}
			}
		}
		stats.Domains[domain] = DomainStats{
			RecordCount:    len(members),
			PrincipleCount: len(principles),
		}
	}

	return stats
}
