package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/markdave123-py/studybuddy/internal/core/apperr"
)

type fakeLLM struct {
	response    string
	err         error
	calls       int
	system      string
	user        string
	hadDeadline bool
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.system, f.user = systemPrompt, userPrompt
	_, f.hadDeadline = ctx.Deadline()
	return f.response, f.err
}

func quizJSON(n int) string {
	items := make([]map[string]any, n)
	for i := range items {
		opts := []string{
			fmt.Sprintf("A%d", i), fmt.Sprintf("B%d", i), fmt.Sprintf("C%d", i), fmt.Sprintf("D%d", i),
		}
		items[i] = map[string]any{
			"questionText":  fmt.Sprintf("Question %d?", i+1),
			"options":       opts,
			"correctAnswer": opts[i%4],
		}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func flashcardJSON(n int) string {
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{"front": fmt.Sprintf("Term %d", i), "back": fmt.Sprintf("Definition %d", i)}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"  [1,2]  ":                 "[1,2]",
		"```json\n[1,2]\n```":       "[1,2]",
		"```\n[1,2]\n```\n":         "[1,2]",
		"\n```JSON\n  [1]  \n```  ": "[1]",
		"```[1]```":                 "[1]",
		"prefix ```json\n[1]\n```":  "prefix ```json\n[1]\n```",
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Fatalf("StripCodeFence(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestQuizAcceptsValidFencedOutput(t *testing.T) {
	llm := &fakeLLM{response: "```json\n" + quizJSON(10) + "\n```"}
	g := NewGenerator(llm, time.Minute, nil)

	qs, err := g.Quiz(context.Background(), "Photosynthesis converts light into chemical energy.")
	if err != nil {
		t.Fatalf("Quiz: unexpected error: %v", err)
	}
	if len(qs) != QuizQuestionCount {
		t.Fatalf("questions: want=%d got=%d", QuizQuestionCount, len(qs))
	}
	for i, q := range qs {
		if len(q.Options) != QuizOptionCount {
			t.Fatalf("question %d options: want=4 got=%d", i, len(q.Options))
		}
		found := false
		for _, o := range q.Options {
			found = found || o == q.CorrectAnswer
		}
		if !found {
			t.Fatalf("question %d: correct answer %q not in options", i, q.CorrectAnswer)
		}
	}
	if !llm.hadDeadline {
		t.Fatalf("completion call: want a deadline on the context")
	}
	if !strings.Contains(llm.user, "Photosynthesis") || !strings.Contains(llm.user, `"correctAnswer"`) {
		t.Fatalf("prompt missing source text or key directive: %q", llm.user)
	}
}

func TestQuizRejectsInvalidOutput(t *testing.T) {
	valid := quizJSON(10)
	var items []map[string]any
	_ = json.Unmarshal([]byte(valid), &items)
	mutate := func(fn func(q map[string]any)) string {
		cp := make([]map[string]any, len(items))
		for i := range items {
			cp[i] = map[string]any{}
			for k, v := range items[i] {
				cp[i][k] = v
			}
		}
		fn(cp[3])
		b, _ := json.Marshal(cp)
		return string(b)
	}

	cases := map[string]string{
		"nine items":           "```json\n" + quizJSON(9) + "\n```",
		"eleven items":         quizJSON(11),
		"not json":             "Sure! Here is your quiz: 1. What is...",
		"object not array":     `{"questions": []}`,
		"trailing data":        valid + "\n[]",
		"trailing prose":       valid + " Hope this helps!",
		"three options":        mutate(func(q map[string]any) { q["options"] = []string{"a", "b", "c"} }),
		"answer not in option": mutate(func(q map[string]any) { q["correctAnswer"] = "none of these" }),
		"duplicate options":    mutate(func(q map[string]any) { q["options"] = []string{"a", "a", "b", "c"}; q["correctAnswer"] = "a" }),
		"blank option":         mutate(func(q map[string]any) { q["options"] = []string{"a", " ", "b", "c"}; q["correctAnswer"] = "a" }),
		"blank question":       mutate(func(q map[string]any) { q["questionText"] = "  " }),
		"missing answer":       mutate(func(q map[string]any) { delete(q, "correctAnswer") }),
		"extra key":            mutate(func(q map[string]any) { q["explanation"] = "because" }),
		"wrong key case":       mutate(func(q map[string]any) { q["QuestionText"] = q["questionText"]; delete(q, "questionText") }),
		"numeric answer":       mutate(func(q map[string]any) { q["correctAnswer"] = 2 }),
		"null options":         mutate(func(q map[string]any) { q["options"] = nil }),
		"repeated key":         strings.Replace(valid, `{"correctAnswer":"A0",`, `{"correctAnswer":"B0","correctAnswer":"A0",`, 1),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewGenerator(&fakeLLM{response: resp}, time.Minute, nil)
			qs, err := g.Quiz(context.Background(), "some text")
			if !errors.Is(err, apperr.ErrGeneration) {
				t.Fatalf("err: want GenerationError got=%v", err)
			}
			if qs != nil {
				t.Fatalf("questions: want nil on failure")
			}
			if msg := apperr.SafeMessage(err); strings.Contains(msg, "none of these") || strings.Contains(msg, "Question") {
				t.Fatalf("safe message leaks model output: %q", msg)
			}
		})
	}
}

func TestFlashcards(t *testing.T) {
	g := NewGenerator(&fakeLLM{response: flashcardJSON(15)}, time.Minute, nil)
	cards, err := g.Flashcards(context.Background(), "cells and organelles")
	if err != nil {
		t.Fatalf("Flashcards: unexpected error: %v", err)
	}
	if len(cards) != FlashcardCount || cards[14].Front != "Term 14" {
		t.Fatalf("cards: got=%v", cards)
	}

	for name, resp := range map[string]string{
		"fourteen":     flashcardJSON(14),
		"blank back":   strings.Replace(flashcardJSON(15), `"Definition 7"`, `""`, 1),
		"extra key":    strings.Replace(flashcardJSON(15), `"front":"Term 0"`, `"front":"Term 0","hint":"x"`, 1),
		"repeated key": strings.Replace(flashcardJSON(15), `"front":"Term 0"`, `"front":"a","front":"Term 0"`, 1),
	} {
		g := NewGenerator(&fakeLLM{response: resp}, time.Minute, nil)
		if _, err := g.Flashcards(context.Background(), "text"); !errors.Is(err, apperr.ErrGeneration) {
			t.Fatalf("%s: want GenerationError got=%v", name, err)
		}
	}
}

func TestCompletionFailureIsServiceError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("googleapi: Error 429: quota exceeded")}
	g := NewGenerator(llm, time.Minute, nil)

	_, err := g.Quiz(context.Background(), "text")
	if !errors.Is(err, apperr.ErrService) {
		t.Fatalf("err: want ServiceError got=%v", err)
	}
	if errors.Is(err, apperr.ErrGeneration) {
		t.Fatalf("transport failure must not be a GenerationError")
	}
	if llm.calls != 1 {
		t.Fatalf("calls: want=1 (no retry) got=%d", llm.calls)
	}
}

func TestEmptyInputIsInputError(t *testing.T) {
	llm := &fakeLLM{response: "ok"}
	g := NewGenerator(llm, time.Minute, nil)
	if _, err := g.Summarize(context.Background(), "   "); !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("Summarize: want InputError got=%v", err)
	}
	if _, err := g.Translate(context.Background(), "hola", ""); !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("Translate: want InputError got=%v", err)
	}
	if _, err := g.Answer(context.Background(), "ctx", " "); !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("Answer: want InputError got=%v", err)
	}
	if llm.calls != 0 {
		t.Fatalf("calls: want=0 got=%d", llm.calls)
	}
}

func TestFreeTextOperations(t *testing.T) {
	llm := &fakeLLM{response: "  Namaste duniya  "}
	g := NewGenerator(llm, time.Minute, nil)
	out, err := g.Translate(context.Background(), "Hello world", "hindi")
	if err != nil || out != "Namaste duniya" {
		t.Fatalf("Translate: got=%q err=%v", out, err)
	}
	if !strings.Contains(llm.user, "to hindi") {
		t.Fatalf("prompt missing target language: %q", llm.user)
	}

	llm.response = "   "
	if _, err := g.Summarize(context.Background(), "text"); !errors.Is(err, apperr.ErrGeneration) {
		t.Fatalf("empty summary: want GenerationError got=%v", err)
	}
}

func TestPromptIsDeterministic(t *testing.T) {
	if quizPrompt("abc") != quizPrompt("abc") {
		t.Fatalf("quizPrompt is not deterministic")
	}
	if !strings.Contains(quote(`a """ b`), `\"\"\"`) {
		t.Fatalf("quote does not escape triple quotes")
	}
}
