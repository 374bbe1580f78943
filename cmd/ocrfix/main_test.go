package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/ocrfix/pkg/ocrfix/correctionset"
	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func corpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "ch01", ".temp", "p1-lowconf.txt"),
		"vvith (conf: 20.0)\nvvith (conf: 22.0)\n1ady (conf: 30)\n1ady (conf: 31)\n+HE+ (conf: 3)\n+HE+ (conf: 4)\n")
	mustWrite(t, filepath.Join(root, "ch02", ".temp", "p1-lowconf.txt"),
		"vvith (conf: 15.5)\n1ady (conf: 12)\n")
	return root
}

func TestLearnCommand(t *testing.T) {
	root := corpus(t)
	dir := t.TempDir()
	dict := filepath.Join(dir, "words.txt")
	mustWrite(t, dict, "lady\n")
	output := filepath.Join(dir, "corrections.yaml")

	stdout, _, err := execute(t, "learn", root, "--output", output, "--dictionary", dict)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	for _, want := range []string{
		"LOW-CONFIDENCE WORD ANALYSIS REPORT",
		"→ lady",
		"✨ Corrections saved to " + output,
		"   3 corrections generated",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	set, err := correctionset.Load(output)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(set.Corrections); got != 3 || set.Corrections[0].Source != "vvith" {
		t.Errorf("corrections = %+v", set.Corrections)
	}
}

func TestLearnQuietAndEnv(t *testing.T) {
	t.Setenv("OCRFIX_MIN_OCCUR", "4")
	output := filepath.Join(t.TempDir(), "out.json")

	stdout, _, err := execute(t, "learn", corpus(t), "--output", output, "--quiet")
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if strings.Contains(stdout, "ANALYSIS REPORT") {
		t.Error("--quiet should suppress the report")
	}
	if !strings.Contains(stdout, "   0 corrections generated") {
		t.Errorf("env min-occur not honored:\n%s", stdout)
	}
}

func TestLearnConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "ocrfix.yaml")
	output := filepath.Join(dir, "from-config.json")
	mustWrite(t, cfg, "quiet: true\noutput: "+output+"\n")

	stdout, _, err := execute(t, "learn", corpus(t), "--config", cfg)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output from config file not written: %v", err)
	}
	if strings.Contains(stdout, "ANALYSIS REPORT") {
		t.Error("quiet from config file ignored")
	}
}

func TestLearnMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, stderr, err := execute(t, "learn", missing, "--output", filepath.Join(t.TempDir(), "c.json"))
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if !strings.Contains(stderr, "Error: Directory not found: "+missing) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestLearnInvalidSettings(t *testing.T) {
	_, _, err := execute(t, "learn", corpus(t), "--threshold", "0")
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "version", "--log-level", "chatty")
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	corrections := filepath.Join(dir, "c.json")
	set := &correctionset.CorrectionSet{
		Corrections: correctionset.Entries{{Source: "vvith", Target: "with"}, {Source: "+HE+", Target: ""}},
	}
	if err := set.Write(corrections); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dir, "page.md")
	mustWrite(t, input, "Walk vvith me +HE+ now.\n")
	outDir := filepath.Join(dir, "clean")

	stdout, _, err := execute(t, "apply", "--corrections", corrections, "--out-dir", outDir, input)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "page.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Walk with me now.\n" {
		t.Errorf("applied = %q", got)
	}
	if !strings.Contains(stdout, "1 replaced, 1 deleted in 1 files") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestApplyRequiresCorrections(t *testing.T) {
	if _, _, err := execute(t, "apply", "x.md"); err == nil {
		t.Fatal("expected error without --corrections")
	}
}

func TestStatblocksCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ch.md")
	mustWrite(t, input, "**Factol Rhys**\nAC 4; MV 12; hp 45; THAC0 14; XP 3,000.\n")
	out := filepath.Join(dir, "blocks")

	stdout, stderr, err := execute(t, "statblocks", input, out, "--html")
	if err != nil {
		t.Fatalf("statblocks: %v", err)
	}
	if !strings.Contains(stdout, "Extracted: Factol Rhys") || !strings.Contains(stdout, "Extracted 1 stat blocks") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "Extracting stat blocks") {
		t.Errorf("progress should go to stderr: %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(out, "_all_statblocks.html")); err != nil {
		t.Error(err)
	}

	_, _, err = execute(t, "statblocks", filepath.Join(dir, "missing.md"))
	if !errors.Is(err, internalerr.ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	output := filepath.Join(dir, "c.json")
	if _, _, err := execute(t, "learn", corpus(t), "--db", db, "--output", output, "--quiet"); err != nil {
		t.Fatalf("learn: %v", err)
	}
	set, err := correctionset.Load(output)
	if err != nil {
		t.Fatal(err)
	}
	runID := set.Metadata.RunID

	stdout, _, err := execute(t, "history", "--db", db)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, runID) {
		t.Errorf("history missing run %s:\n%s", runID, stdout)
	}

	stdout, _, err = execute(t, "history", "show", runID, "--db", db)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(stdout, "vvith") || !strings.Contains(stdout, "(delete)") {
		t.Errorf("show output:\n%s", stdout)
	}

	stdout, _, err = execute(t, "history", "token", "vvith", "--db", db)
	if err != nil {
		t.Fatalf("history token: %v", err)
	}
	if !strings.Contains(stdout, runID) || !strings.Contains(stdout, "with") {
		t.Errorf("token output:\n%s", stdout)
	}

	if _, _, err := execute(t, "history", "show", "missing", "--db", db); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "ocrfix ") {
		t.Errorf("version = %q", stdout)
	}
}
