package guardrail

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxReportedIssues caps the corrective feedback length so the retry request
// stays focused on the most actionable problems.
const maxReportedIssues = 5

func formatJSONError(err error) string {
	return fmt.Sprintf(`JSON ERROR

Problem: %s

Fix: respond with a single valid JSON object (check commas, quotes, braces) and no surrounding prose.`, err)
}

func formatStructError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Sprintf("VALIDATION ERROR\n\n%s\n\nFix: check that all required fields are present with correct types.", err)
	}

	var lines []string
	for _, fe := range fieldErrs {
		if len(lines) == maxReportedIssues {
			break
		}
		lines = append(lines, "  - "+describeFieldError(fe))
	}

	total := len(fieldErrs)
	out := fmt.Sprintf("VALIDATION ERROR (%d issue%s)\n\nIncorrect fields:\n%s",
		total, plural(total), strings.Join(lines, "\n"))
	if total > maxReportedIssues {
		out += fmt.Sprintf("\n  ... and %d more errors", total-maxReportedIssues)
	}
	out += "\n\nFix: check that all required fields are present with correct types."
	return out
}

func describeFieldError(fe validator.FieldError) string {
	path := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: missing field", path)
	case "min":
		return fmt.Sprintf("%s: needs at least %s element(s)", path, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", path, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", path, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s", path, fe.Param())
	default:
		return fmt.Sprintf("%s: fails %q constraint", path, fe.Tag())
	}
}

func formatReferenceErrors(issues []string) string {
	shown := issues
	if len(shown) > maxReportedIssues {
		shown = shown[:maxReportedIssues]
	}
	var lines []string
	for _, issue := range shown {
		lines = append(lines, "  - "+issue)
	}

	total := len(issues)
	out := fmt.Sprintf("REFERENCE ERROR (%d issue%s)\n\nUnknown schema elements:\n%s",
		total, plural(total), strings.Join(lines, "\n"))
	if total > maxReportedIssues {
		out += fmt.Sprintf("\n  ... and %d more errors", total-maxReportedIssues)
	}
	out += "\n\nFix: use only the exact table and column names declared in the schema metadata."
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
