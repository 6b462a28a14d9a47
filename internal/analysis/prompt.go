package analysis

import "strings"

// maxResumeChars caps the resume text embedded in the prompt to stay
// within upstream token limits.
const maxResumeChars = 3000

// BuildPrompt renders the evaluation prompt for a resume. The resume
// text is truncated to maxResumeChars; the requested response shape
// matches AnalysisResult so a well-behaved model reply parses directly.
func BuildPrompt(resumeText string) string {
	if runes := []rune(resumeText); len(runes) > maxResumeChars {
		resumeText = string(runes[:maxResumeChars])
	}

	var b strings.Builder
	b.WriteString("Analyze this resume and provide a comprehensive evaluation with the following structure:\n\n")
	b.WriteString("Resume Text:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\nPlease provide a JSON response with:\n")
	b.WriteString("- score (0-100)\n")
	b.WriteString("- atsFriendly (boolean)\n")
	b.WriteString("- strengths (array of strings)\n")
	b.WriteString("- improvements (array of strings)\n")
	b.WriteString("- keywords: {found: array, missing: array}\n")
	b.WriteString("- summary (string)\n")
	return b.String()
}
