package corpus

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cogpy/chainlex/pkg/index"
)

const (
	// docWindow bounds the lookahead for the documentation string after a
	// definition marker. Beyond this we assume the record is undocumented
	// rather than scanning the remainder of the file.
	docWindow = 500
	// annotationWindow bounds the lookahead for the Cross-reference line
	// and the Level 1 tag.
	annotationWindow = 1000
	// maxNameLength rejects runaway names, usually a sign of corrupted
	// input rather than a real definition.
	maxNameLength = 128
)

var (
	// Definition marker: "(define name" or "(define (name args...)".
	// Local names are lower-case letters, digits and hyphens, with an
	// optional trailing predicate marker.
	defineRe = regexp.MustCompile(`\(define\s+\(?([a-z0-9][a-z0-9-]*\??)`)
	// First quoted documentation block.
	docRe = regexp.MustCompile(`"([^"]*)"`)
	// Cross-reference annotation line.
	crossRefRe = regexp.MustCompile(`Cross-reference:\s*([^\n]+)`)
	// Individual reference names within the annotation fragment.
	refNameRe = regexp.MustCompile(`[A-Za-z0-9-]+`)
)

// ParseFailure records one malformed definition that was skipped. A failure
// never aborts extraction of the rest of the document.
type ParseFailure struct {
	SourceFile string `json:"source_file"`
	Offset     int    `json:"offset"`
	Reason     string `json:"reason"`
}

func (f ParseFailure) Error() string {
	return fmt.Sprintf("%s@%d: %s", f.SourceFile, f.Offset, f.Reason)
}

// Extractor turns one document's text into the ordered sequence of
// RuleRecords it defines.
type Extractor struct{}

// NewExtractor creates a new extractor instance.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractRecords scans content for rule definitions, preserving file order.
// frameworkLevel == 1 forces IsPrinciple on every record; otherwise a record
// is a principle only when "Level 1" appears within its annotation window.
func (e *Extractor) ExtractRecords(sourceFile string, content []byte, frameworkCode string, frameworkLevel int) ([]index.RuleRecord, []ParseFailure) {
	text := string(content)

	var records []index.RuleRecord
	var failures []ParseFailure

	for _, loc := range defineRe.FindAllStringSubmatchIndex(text, -1) {
		rec, err := e.extractOne(text, loc, sourceFile, frameworkCode, frameworkLevel)
		if err != nil {
			failures = append(failures, ParseFailure{
				SourceFile: sourceFile,
				Offset:     loc[0],
				Reason:     err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}

	return records, failures
}

// extractOne builds a single record from one definition match. loc is the
// submatch index pair set from defineRe.
func (e *Extractor) extractOne(text string, loc []int, sourceFile, frameworkCode string, frameworkLevel int) (index.RuleRecord, error) {
	name := text[loc[2]:loc[3]]
	if name == "" || strings.Trim(name, "-") == "" {
		return index.RuleRecord{}, fmt.Errorf("definition without a usable name")
	}
	if len(name) > maxNameLength {
		return index.RuleRecord{}, fmt.Errorf("name exceeds %d characters", maxNameLength)
	}
	end := loc[1]

	rec := index.RuleRecord{
		LocalName:     name,
		SourceFile:    sourceFile,
		FrameworkCode: frameworkCode,
	}

	// Documentation: first quoted string within the bounded window.
	if m := docRe.FindStringSubmatch(window(text, end, docWindow)); m != nil {
		rec.DocText = m[1]
	}

	// Cross-references and the Level 1 tag share the annotation window.
	ann := window(text, end, annotationWindow)
	if m := crossRefRe.FindStringSubmatch(ann); m != nil {
		for _, ref := range refNameRe.FindAllString(m[1], -1) {
			if ref != "" {
				rec.CrossReferences = append(rec.CrossReferences, ref)
			}
		}
	}
	rec.IsPrinciple = frameworkLevel == 1 || strings.Contains(ann, "Level 1")

	return rec, nil
}

// window returns text[start:start+size], clamped to the document end.
func window(text string, start, size int) string {
	if start >= len(text) {
		return ""
	}
	end := start + size
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
