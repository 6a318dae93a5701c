package generation

import (
	"fmt"
	"strings"
)

const (
	QuizQuestionCount = 10
	QuizOptionCount   = 4
	FlashcardCount    = 15
)

const jsonOnlySystemPrompt = "You are a study assistant that produces machine-readable output. " +
	"Respond with a single valid JSON array and nothing else: no prose, no markdown, no code fences."

const textSystemPrompt = "You are a patient study assistant. Write plain text for a student."

const tutorSystemPrompt = "You are an expert tutor. Answer based ONLY on the provided context document. " +
	"Do not use any external knowledge. If the answer cannot be found in the context, clearly state " +
	"that the information is not available in the provided material. " +
	"Explain the answer in a simple and easy-to-understand way."

// quote wraps source text in triple quotes, escaping any triple quote inside so
// the text cannot close the block early.
func quote(text string) string {
	return `"""` + "\n" + strings.ReplaceAll(text, `"""`, `\"\"\"`) + "\n" + `"""`
}

func summaryPrompt(text string) string {
	return "Based on the following text, provide a concise, easy-to-understand summary. " +
		"Focus on the key concepts and main points.\n\nText: " + quote(text)
}

func quizPrompt(text string) string {
	return fmt.Sprintf(`Create a %d-question multiple-choice quiz from the text below.
For each question, provide exactly %d distinct options.
Return a JSON array only, with these exact keys per object: "questionText" (string), "options" (array of %d strings) and "correctAnswer" (string, exactly equal to one of the options).

Text: %s`, QuizQuestionCount, QuizOptionCount, QuizOptionCount, quote(text))
}

func flashcardPrompt(text string) string {
	return fmt.Sprintf(`Generate %d flashcards from the text below. A flashcard has a term or question on the front and a definition or answer on the back.
Return a JSON array only, with these exact keys per object: "front" (string) and "back" (string).

Text: %s`, FlashcardCount, quote(text))
}

func translatePrompt(text, targetLanguage string) string {
	return fmt.Sprintf("Translate the following text to %s. Provide only the translated text in your response.\n\nText: %s",
		targetLanguage, quote(text))
}

func tutorPrompt(contextText, question string) string {
	return fmt.Sprintf("Context Document: %s\n\nQuestion: %q", quote(contextText), question)
}
