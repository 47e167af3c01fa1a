package pipeline

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/cvforge-ai/cvforge/pkg/models"
)

//go:embed system_prompt.md
var systemTemplate string

//go:embed user_prompt.md
var userTemplate string

// documentName maps a document type to its prompt wording. Unknown types
// pass through verbatim.
func documentName(t models.DocumentType) string {
	switch t {
	case models.DocumentCV, "":
		return "CV"
	case models.DocumentCoverLetter:
		return "cover letter"
	default:
		return string(t)
	}
}

// buildPrompt renders the system and user prompts. The user prompt doubles
// as the generation cache key, so rendering must stay deterministic for
// identical inputs.
func buildPrompt(docType models.DocumentType, jobText string, top []models.Artifact) (system, prompt string) {
	doc := documentName(docType)

	var sb strings.Builder
	for i, a := range top {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "### %s (id: %s)\n", a.Title, a.ID)
		if len(a.Skills) > 0 {
			fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(a.Skills, ", "))
		}
		sb.WriteString(strings.TrimSpace(a.Text))
		sb.WriteString("\n")
	}

	system = strings.ReplaceAll(systemTemplate, "{{DOCUMENT}}", doc)
	prompt = strings.ReplaceAll(userTemplate, "{{JOB_TEXT}}", strings.TrimSpace(jobText))
	prompt = strings.ReplaceAll(prompt, "{{ARTIFACTS}}", sb.String())
	prompt = strings.ReplaceAll(prompt, "{{DOCUMENT}}", doc)
	return system, prompt
}
