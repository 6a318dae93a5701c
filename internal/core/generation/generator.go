package generation

import (
	"context"
	"strings"
	"time"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

// rawLogLimit bounds how much rejected model output is kept in logs.
const rawLogLimit = 2000

// Generator turns source text into study artifacts using the completion service.
// Model output is untrusted: structured results are strictly parsed and
// validated, and nothing is returned unless validation passes.
type Generator struct {
	llm     core.LLMProvider
	timeout time.Duration
	log     *logger.Logger
}

func NewGenerator(llm core.LLMProvider, timeout time.Duration, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{llm: llm, timeout: timeout, log: log}
}

func (g *Generator) Summarize(ctx context.Context, text string) (string, error) {
	if err := requireText(text); err != nil {
		return "", err
	}
	raw, err := g.complete(ctx, "summary", textSystemPrompt, summaryPrompt(text))
	if err != nil {
		return "", err
	}
	return g.acceptText("summary", raw)
}

func (g *Generator) Quiz(ctx context.Context, text string) ([]models.QuizQuestion, error) {
	if err := requireText(text); err != nil {
		return nil, err
	}
	raw, err := g.complete(ctx, "quiz", jsonOnlySystemPrompt, quizPrompt(text))
	if err != nil {
		return nil, err
	}
	questions, err := ParseQuiz(raw)
	if err != nil {
		g.reject("quiz", raw, err)
		return nil, apperr.Generation("the model returned an invalid quiz, please try again", err)
	}
	return questions, nil
}

func (g *Generator) Flashcards(ctx context.Context, text string) ([]models.Flashcard, error) {
	if err := requireText(text); err != nil {
		return nil, err
	}
	raw, err := g.complete(ctx, "flashcards", jsonOnlySystemPrompt, flashcardPrompt(text))
	if err != nil {
		return nil, err
	}
	cards, err := ParseFlashcards(raw)
	if err != nil {
		g.reject("flashcards", raw, err)
		return nil, apperr.Generation("the model returned invalid flashcards, please try again", err)
	}
	return cards, nil
}

func (g *Generator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if err := requireText(text); err != nil {
		return "", err
	}
	targetLanguage = strings.TrimSpace(targetLanguage)
	if targetLanguage == "" {
		return "", apperr.Input("targetLanguage is required")
	}
	raw, err := g.complete(ctx, "translate", textSystemPrompt, translatePrompt(text, targetLanguage))
	if err != nil {
		return "", err
	}
	return g.acceptText("translate", raw)
}

// Answer responds to a question using only contextText.
func (g *Generator) Answer(ctx context.Context, contextText, question string) (string, error) {
	if err := requireText(contextText); err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", apperr.Input("a question is required")
	}
	raw, err := g.complete(ctx, "tutor", tutorSystemPrompt, tutorPrompt(contextText, question))
	if err != nil {
		return "", err
	}
	return g.acceptText("tutor", raw)
}

// complete makes one bounded call to the completion service. Failures are
// ServiceErrors and are never retried here.
func (g *Generator) complete(ctx context.Context, op, system, user string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := g.llm.Generate(ctx, system, user)
	if err != nil {
		g.log.Warn("completion call failed", "op", op, "elapsed", time.Since(start), "error", err)
		return "", apperr.Service("the completion service is unavailable, please retry", err)
	}
	g.log.Debug("completion call done", "op", op, "elapsed", time.Since(start), "response_bytes", len(raw))
	return raw, nil
}

func (g *Generator) acceptText(op, raw string) (string, error) {
	out, err := parseText(raw)
	if err != nil {
		g.reject(op, raw, err)
		return "", apperr.Generation("the model returned an empty response, please try again", err)
	}
	return out, nil
}

func (g *Generator) reject(op, raw string, err error) {
	g.log.Warn("rejected model output", "op", op, "reason", err.Error(), "raw", logger.Truncate(raw, rawLogLimit))
}

func requireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Input("source text is empty")
	}
	return nil
}
