package input

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDescription(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "story.txt", "As input, feed a 50-character description")

	got, err := LoadDescription(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "As input, feed a 50-character description" {
		t.Errorf("LoadDescription = %q", got)
	}
}

func TestLoadDescription_Missing(t *testing.T) {
	if _, err := LoadDescription(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadDescription_Blank(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.txt", "   \n\t ")

	if _, err := LoadDescription(path); err == nil {
		t.Error("expected error for blank description")
	}
}

func TestLoadExamples(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "examples.json", `[
		{
			"summary": "Login with valid credentials",
			"steps": [
				{"action": "AS A: user I WANT TO: log in", "input_data": "user/pass", "expected_result": "dashboard shown"}
			]
		}
	]`)

	examples, err := LoadExamples(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(examples) != 1 {
		t.Fatalf("got %d examples, want 1", len(examples))
	}
	if examples[0].Summary != "Login with valid credentials" {
		t.Errorf("Summary = %q", examples[0].Summary)
	}
	if len(examples[0].Steps) != 1 || examples[0].Steps[0].ExpectedResult != "dashboard shown" {
		t.Errorf("Steps = %+v", examples[0].Steps)
	}
}

func TestLoadExamples_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.json", "{not json")

	if _, err := LoadExamples(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadExamples_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.json", "[]")

	if _, err := LoadExamples(path); err == nil {
		t.Error("expected error for empty example set")
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_story.txt", "b")
	writeFile(t, dir, "a_story.txt", "a")
	writeFile(t, dir, "examples.json", "[]")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2 (.txt only)", len(files))
	}
	if files[0].Name != "a_story.txt" || files[1].Name != "b_story.txt" {
		t.Errorf("files not sorted by name: %v, %v", files[0].Name, files[1].Name)
	}
}

func TestScanDir_MissingDir(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if files != nil {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/data/checkout_flow.txt"); got != "checkout_flow" {
		t.Errorf("Stem = %q, want checkout_flow", got)
	}
}
