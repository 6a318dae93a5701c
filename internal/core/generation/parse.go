package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/markdave123-py/studybuddy/internal/models"
)

// StripCodeFence removes surrounding whitespace and one surrounding markdown
// fence (``` or ```json). Content inside the fence is left untouched.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// decodeStrict decodes exactly one JSON value into v. Unknown fields and
// trailing data are errors.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// decodeObjects parses a JSON array of objects whose keys must be exactly keys,
// with exact case. encoding/json alone matches field names case-insensitively.
func decodeObjects(raw string, keys ...string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := decodeStrict([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse array: %w", err)
	}
	want := append([]string(nil), keys...)
	sort.Strings(want)
	for i, item := range items {
		got, err := objectKeys(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		sort.Strings(got)
		if strings.Join(got, ",") != strings.Join(want, ",") {
			return nil, fmt.Errorf("item %d: keys %v, want %v", i, got, want)
		}
	}
	return items, nil
}

// objectKeys lists the keys of one JSON object in document order. A repeated
// key is an error.
func objectKeys(item json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(item))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not an object")
	}
	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true
		keys = append(keys, key)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// ParseQuiz parses and validates model output as a quiz: exactly 10 questions,
// each with a non-blank question, exactly 4 non-blank distinct options and a
// correct answer equal to one of them.
func ParseQuiz(raw string) ([]models.QuizQuestion, error) {
	items, err := decodeObjects(StripCodeFence(raw), "questionText", "options", "correctAnswer")
	if err != nil {
		return nil, err
	}
	if len(items) != QuizQuestionCount {
		return nil, fmt.Errorf("quiz has %d questions, want %d", len(items), QuizQuestionCount)
	}
	out := make([]models.QuizQuestion, 0, len(items))
	for i, item := range items {
		var q models.QuizQuestion
		if err := decodeStrict(item, &q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func validateQuestion(q models.QuizQuestion) error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return errors.New("questionText is empty")
	}
	if len(q.Options) != QuizOptionCount {
		return fmt.Errorf("has %d options, want %d", len(q.Options), QuizOptionCount)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return errors.New("option is empty")
		}
		if seen[opt] {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = true
	}
	if !seen[q.CorrectAnswer] {
		return fmt.Errorf("correctAnswer %q is not one of the options", q.CorrectAnswer)
	}
	return nil
}

// ParseFlashcards parses and validates model output as exactly 15 cards with a
// non-blank front and back.
func ParseFlashcards(raw string) ([]models.Flashcard, error) {
	items, err := decodeObjects(StripCodeFence(raw), "front", "back")
	if err != nil {
		return nil, err
	}
	if len(items) != FlashcardCount {
		return nil, fmt.Errorf("flashcard set has %d cards, want %d", len(items), FlashcardCount)
	}
	out := make([]models.Flashcard, 0, len(items))
	for i, item := range items {
		var c models.Flashcard
		if err := decodeStrict(item, &c); err != nil {
			return nil, fmt.Errorf("card %d: %w", i+1, err)
		}
		if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
			return nil, fmt.Errorf("card %d: front and back must be non-empty", i+1)
		}
		out = append(out, c)
	}
	return out, nil
}

// parseText accepts any non-blank freeform answer.
func parseText(raw string) (string, error) {
	s := StripCodeFence(raw)
	if s == "" {
		return "", errors.New("empty response")
	}
	return s, nil
}
