// Package prompt builds the generation prompts. Templates are opaque to
// the orchestration core; changing them changes cache keys, which is an
// accepted consequence of content-addressed caching.
package prompt

import (
	"fmt"
	"strings"

	"github.com/MateoRodr13/qa-test-generator/internal/input"
)

// UserStory builds the bilingual SCRUM user-story prompt for a raw
// feature description.
func UserStory(description string) string {
	return fmt.Sprintf(userStoryTemplate, description)
}

// TestCases builds the test-case generation prompt from an accepted user
// story and the worked-example set.
func TestCases(userStory string, examples []input.Example) string {
	var b strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&b, "\n--- EXAMPLE %d ---\n", i+1)
		fmt.Fprintf(&b, "SUMMARY: %s\n", ex.Summary)
		for j, step := range ex.Steps {
			fmt.Fprintf(&b, "STEP %d:\n", j+1)
			fmt.Fprintf(&b, "  ACTION: %s\n", step.Action)
			fmt.Fprintf(&b, "  INPUT_DATA: %s\n", step.InputData)
			fmt.Fprintf(&b, "  EXPECTED_RESULT: %s\n", step.ExpectedResult)
		}
	}
	return fmt.Sprintf(testCaseTemplate, userStory, b.String())
}

const userStoryTemplate = `
You are an Agile Business Analyst and Product Owner expert in SCRUM.

Task:
1. Translate the following input from Spanish to English (without losing context or details).
2. Create a User Story in SCRUM format in English:
    - ID: HU-XX
    - Title
    - User Story (As a..., I want..., So that...)
    - Acceptance Criteria (in Gherkin format Given/When/Then, numbered)
    - Non-functional Criteria
3. Provide the same User Story in Spanish with identical structure.

Input (Spanish):
"""%s"""

Output format:
ENGLISH VERSION
---------------
HU-XX - [Title in English]

User Story
----------
As a [role]
I want [functionality]
So that [benefit]

Acceptance Criteria (Gherkin)
-----------------------------
1. ...
    Given ...
    When ...
    Then ...

Non-functional Criteria
-----------------------
- ...

SPANISH VERSION
---------------
HU-XX - [Título en Español]

User Story
----------
Como [rol]
Quiero [funcionalidad]
Para [beneficio]

Acceptance Criteria (Gherkin)
-----------------------------
1. ...
    Dado ...
    Cuando ...
    Entonces ...

Non-functional Criteria
-----------------------
- ...
`

const testCaseTemplate = `
Act as an expert QA Analyst. Your task is to analyze the following User Story and generate test cases in both English and Spanish.

Your output MUST be ONLY a single, valid JSON object. Do not include any text, notes, or markdown formatting before or after the JSON object.

The JSON object MUST strictly adhere to the following schema:
{
  "english_test_cases": [
    {
      "id": "A unique identifier string for the test case (e.g., TEST-123). REQUIRED.",
      "SUMMARY": "A brief summary of the test case in English. REQUIRED.",
      "STEP 1": {
        "ACTION": "The action description in English, following Gherkin format. REQUIRED.",
        "INPUT_DATA": "The input data for the step. Can be a string or a JSON object.",
        "EXPECTED_RESULT": "The expected outcome of the step in English. REQUIRED."
      },
      "STEP 2": {...}
    }
  ],
  "spanish_test_cases": [
    {
      "id": "A unique identifier string for the test case (e.g., TEST-123). REQUIRED.",
      "SUMMARY": "Un resumen breve del caso de prueba en español. REQUIRED.",
      "STEP 1": {
        "ACTION": "La descripción de la acción en español, siguiendo el formato Gherkin. REQUIRED.",
        "INPUT_DATA": "Los datos de entrada para el paso. Puede ser una cadena o un objeto JSON.",
        "EXPECTED_RESULT": "El resultado esperado del paso en español. REQUIRED."
      },
      "STEP 2": {...}
    }
  ]
}

The 'Action' value in English MUST use the format: 'AS A: [ROLE] I WANT TO: [ACTION]'.
The 'Action' value in Spanish MUST use the format: 'COMO [ROL] QUIERO: [ACCIÓN]'.

---
USER STORY TO ANALYZE:
"%s"

---
HIGH-QUALITY EXAMPLES (Follow this style):
%s
`
