package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadCorpus(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "lv1"), "foundations.scm",
		`(define (pacta-sunt-servanda) "Agreements must be kept." #t)`)
	writeSource(t, filepath.Join(root, "civ"), "b_second.scm",
		`(define (breach-remedy?) "Remedies for breach." #t)`)
	writeSource(t, filepath.Join(root, "civ"), "a_first.scm",
		`(define (contract-valid?)
  "Valid contract test."
  ;; Cross-reference: pacta-sunt-servanda
  #t)`)

	cfg := &Config{Frameworks: []FrameworkConfig{
		{Code: "lv1", Name: "Principles", Level: 1, Path: "lv1"},
		{Code: "civ", Name: "Civil", Level: 2, Path: "civ", Domains: []string{"contract"}},
		{Code: "cri", Name: "Criminal", Level: 2, Path: "cri"},
	}}

	result, err := NewLoader(nil).LoadCorpus(root, cfg)
	if err != nil {
		t.Fatalf("LoadCorpus failed: %v", err)
	}

	// The missing cri directory is skipped, not fatal.
	if len(result.Frameworks) != 2 {
		t.Fatalf("expected 2 frameworks, got %d", len(result.Frameworks))
	}

	civ := result.Frameworks[1]
	if civ.Code != "civ" || len(civ.Records) != 2 {
		t.Fatalf("unexpected civ framework: %+v", civ)
	}
	// Files load in lexical order, so a_first.scm's record comes first.
	if civ.Records[0].LocalName != "contract-valid?" {
		t.Errorf("expected contract-valid? first, got %s", civ.Records[0].LocalName)
	}
	if civ.Records[0].SourceFile != "a_first.scm" {
		t.Errorf("source file not recorded: %s", civ.Records[0].SourceFile)
	}
}

func TestLoadCorpusRejectsInvalidConfig(t *testing.T) {
	_, err := NewLoader(nil).LoadCorpus(t.TempDir(), &Config{})
	if err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frameworks.yaml")
	content := `frameworks:
  - code: lv1
    name: Principles
    level: 1
    path: lv1
  - code: civ
    name: Civil
    level: 2
    path: civ/za
    domains: [contract, delict]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Frameworks) != 2 {
		t.Fatalf("expected 2 frameworks, got %d", len(cfg.Frameworks))
	}
	if cfg.Frameworks[1].Domains[1] != "delict" {
		t.Errorf("domains not parsed: %v", cfg.Frameworks[1].Domains)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"duplicate code", Config{Frameworks: []FrameworkConfig{
			{Code: "civ", Level: 2, Path: "a"},
			{Code: "civ", Level: 2, Path: "b"},
		}}},
		{"bad level", Config{Frameworks: []FrameworkConfig{{Code: "civ", Level: 0, Path: "a"}}}},
		{"missing path", Config{Frameworks: []FrameworkConfig{{Code: "civ", Level: 2}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
