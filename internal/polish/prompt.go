package polish

import "fmt"

// BuildSystemPrompt generates the system prompt for transcript cleanup
func BuildSystemPrompt() string {
	prompt := "You are a text cleanup assistant. Your job is to clean up speech-to-text transcriptions before they are saved as notes.\n\n"
	prompt += "Tasks:\n"
	prompt += "- Remove stutters and repeated words/phrases\n"
	prompt += "- Add proper punctuation\n"
	prompt += "- Remove filler words (um, uh, like, you know, etc.)\n"
	prompt += "\nRules:\n"
	prompt += "- Preserve the original meaning and intent\n"
	prompt += "- Keep the same language as the input\n"
	prompt += "- Do not add any new information\n"
	prompt += "- Return only the cleaned text, nothing else\n"
	return prompt
}

// BuildUserPrompt wraps the raw transcript for the chat request
func BuildUserPrompt(text string) string {
	return fmt.Sprintf("Clean up this transcription:\n\n%s", text)
}
