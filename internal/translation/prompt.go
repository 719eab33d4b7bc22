package translation

import (
	"fmt"
	"strings"
)

const systemPrompt = `You translate text extracted from presentation slides.
Return only JSON of the form {"translation": "..."}.
Preserve line breaks, numbers, product names and placeholders exactly.
Do not add commentary or explanations.`

func buildPrompt(text, targetLanguage string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the following slide text into %s.\n", targetLanguage)
	sb.WriteString("Respond with {\"translation\": \"...\"} only.\n\n")
	sb.WriteString(text)
	return sb.String()
}
