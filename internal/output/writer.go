// Package output persists accepted artifacts: user-story text files and
// test-case JSON/CSV files. Bilingual payloads are split into _en/_es
// variants, matching the prompt contract.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const spanishMarker = "SPANISH VERSION"

// SaveUserStory writes an accepted user story. When the text contains a
// Spanish section it is split into <stem>_en and <stem>_es files;
// otherwise a single file is written.
func SaveUserStory(story, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output: creating dir: %w", err)
	}

	idx := strings.Index(story, spanishMarker)
	if idx < 0 {
		return writeText(path, story)
	}

	english := strings.TrimSpace(story[:idx])
	spanish := strings.TrimSpace(story[idx:])

	if err := writeText(variant(path, "_en"), english); err != nil {
		return err
	}
	return writeText(variant(path, "_es"), spanish)
}

func writeText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("output: writing %s: %w", path, err)
	}
	return nil
}

// variant inserts a suffix before the extension: story.txt -> story_en.txt.
func variant(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// testCasePayload is the decoded provider response. Test cases are loose
// maps because step keys are positional ("STEP 1", "STEP 2", ...).
type testCasePayload struct {
	english []map[string]any
	spanish []map[string]any
	single  []map[string]any
}

// parsePayload decodes a test-case response, accepting the bilingual
// schema, the legacy {"test_cases": [...]} wrapper, or a bare array.
func parsePayload(response string) (testCasePayload, error) {
	response = strings.TrimSpace(response)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(response), &obj); err == nil {
		p := testCasePayload{}
		if raw, ok := obj["english_test_cases"]; ok {
			if err := json.Unmarshal(raw, &p.english); err != nil {
				return p, fmt.Errorf("output: parsing english test cases: %w", err)
			}
		}
		if raw, ok := obj["spanish_test_cases"]; ok {
			if err := json.Unmarshal(raw, &p.spanish); err != nil {
				return p, fmt.Errorf("output: parsing spanish test cases: %w", err)
			}
		}
		if p.english != nil || p.spanish != nil {
			return p, nil
		}
		for _, key := range []string{"test_cases", "test_case"} {
			if raw, ok := obj[key]; ok {
				if err := json.Unmarshal(raw, &p.single); err != nil {
					return p, fmt.Errorf("output: parsing test cases: %w", err)
				}
				return p, nil
			}
		}
		return p, fmt.Errorf("output: response object has no recognized test case keys")
	}

	var list []map[string]any
	if err := json.Unmarshal([]byte(response), &list); err != nil {
		return testCasePayload{}, fmt.Errorf("output: response is not valid JSON: %w", err)
	}
	return testCasePayload{single: list}, nil
}

// SaveTestCasesJSON writes the decoded test cases as indented JSON,
// splitting bilingual payloads into _en/_es files.
func SaveTestCasesJSON(response, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output: creating dir: %w", err)
	}

	p, err := parsePayload(response)
	if err != nil {
		return err
	}

	if p.english != nil || p.spanish != nil {
		if err := writeJSON(variant(path, "_en"), p.english); err != nil {
			return err
		}
		return writeJSON(variant(path, "_es"), p.spanish)
	}
	return writeJSON(path, p.single)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("output: encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("output: writing %s: %w", path, err)
	}
	return nil
}

// SaveTestCasesCSV flattens the decoded test cases into step-per-row CSV
// files, splitting bilingual payloads into _en/_es files.
func SaveTestCasesCSV(response, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output: creating dir: %w", err)
	}

	p, err := parsePayload(response)
	if err != nil {
		return err
	}

	if p.english != nil || p.spanish != nil {
		if err := writeCSV(variant(path, "_en"), p.english); err != nil {
			return err
		}
		return writeCSV(variant(path, "_es"), p.spanish)
	}
	return writeCSV(path, p.single)
}

var csvHeader = []string{"Test_ID", "Summary", "Step_ID", "Step_Order", "Action", "Input_Data", "Expected_Result"}

func writeCSV(path string, cases []map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("output: writing header: %w", err)
	}

	for _, tc := range cases {
		testID := stringField(tc, "id")
		if testID == "" {
			testID = "TEST-AI-" + strings.ToUpper(uuid.NewString()[:6])
		}
		summary := stringField(tc, "SUMMARY", "summary")

		for order, key := range stepKeys(tc) {
			step, ok := tc[key].(map[string]any)
			if !ok {
				continue
			}
			row := []string{
				testID,
				summary,
				uuid.NewString(),
				strconv.Itoa(order + 1),
				stringField(step, "ACTION", "action"),
				inputDataField(step),
				stringField(step, "EXPECTED_RESULT", "expected_result"),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("output: writing row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("output: flushing %s: %w", path, err)
	}
	return nil
}

var stepKeyRe = regexp.MustCompile(`(?i)^step[ _](\d+)$`)

// stepKeys returns the case's step keys ordered by their number.
func stepKeys(tc map[string]any) []string {
	type numbered struct {
		key string
		n   int
	}
	var keys []numbered
	for k := range tc {
		if m := stepKeyRe.FindStringSubmatch(k); m != nil {
			n, _ := strconv.Atoi(m[1])
			keys = append(keys, numbered{key: k, n: n})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].n < keys[j].n })

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.key
	}
	return out
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return v
		}
	}
	return ""
}

// inputDataField renders input data, re-encoding object values as JSON.
func inputDataField(step map[string]any) string {
	for _, k := range []string{"INPUT_DATA", "input_data"} {
		switch v := step[k].(type) {
		case string:
			return v
		case nil:
			continue
		default:
			if data, err := json.Marshal(v); err == nil {
				return string(data)
			}
		}
	}
	return ""
}
