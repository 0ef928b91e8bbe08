// Package quiz runs the flavour personality quiz.
package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed quiz.yaml
var quizYAML []byte

var (
	// ErrFinished is returned by Answer once every question has been answered.
	ErrFinished = errors.New("quiz: already finished")
	// ErrInvalidOption is returned for an option index outside the current question.
	ErrInvalidOption = errors.New("quiz: invalid option")
)

// Option is one answer and the category it scores.
type Option struct {
	Text     string `yaml:"text"`
	Category string `yaml:"category"`
}

// Question is one quiz step.
type Question struct {
	Prompt  string   `yaml:"prompt"`
	Options []Option `yaml:"options"`
}

// Personality is the result shown for a winning category.
type Personality struct {
	Category    string   `yaml:"-"`
	Flavour     string   `yaml:"flavour"`
	Emoji       string   `yaml:"emoji"`
	Description string   `yaml:"description"`
	Traits      []string `yaml:"traits"`
}

// Definition is the static quiz content.
type Definition struct {
	Fallback      string                 `yaml:"fallback"`
	Questions     []Question             `yaml:"questions"`
	Personalities map[string]Personality `yaml:"personalities"`
}

var loadDefault = sync.OnceValues(func() (*Definition, error) {
	return Parse(quizYAML)
})

// Default returns the built-in quiz.
func Default() (*Definition, error) { return loadDefault() }

// Parse decodes and validates a quiz document.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("quiz: parse: %w", err)
	}
	if len(def.Questions) == 0 {
		return nil, errors.New("quiz: no questions")
	}
	for key, p := range def.Personalities {
		p.Category = key
		def.Personalities[key] = p
	}
	if _, ok := def.Personalities[def.Fallback]; !ok {
		return nil, fmt.Errorf("quiz: fallback %q has no personality", def.Fallback)
	}
	for i, q := range def.Questions {
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("quiz: question %d has no options", i)
		}
		for _, opt := range q.Options {
			if _, ok := def.Personalities[opt.Category]; !ok {
				return nil, fmt.Errorf("quiz: question %d scores unknown category %q", i, opt.Category)
			}
		}
	}
	return &def, nil
}

// Quiz is the sequential state of one run through the questions.
type Quiz struct {
	def     *Definition
	current int
	answers []string
}

// New starts a quiz at the first question.
func New(def *Definition) *Quiz {
	return &Quiz{def: def}
}

// Total is the number of questions.
func (q *Quiz) Total() int { return len(q.def.Questions) }

// Index is the zero-based index of the current question.
func (q *Quiz) Index() int { return q.current }

// Done reports whether every question has been answered.
func (q *Quiz) Done() bool { return q.current >= len(q.def.Questions) }

// Current returns the question awaiting an answer.
func (q *Quiz) Current() (Question, bool) {
	if q.Done() {
		return Question{}, false
	}
	return q.def.Questions[q.current], true
}

// Progress is the share of completed questions as a whole percentage. It only
// reaches 100 once the result is showing.
func (q *Quiz) Progress() int {
	total := len(q.def.Questions)
	if total == 0 {
		return 100
	}
	done := q.current
	if done > total {
		done = total
	}
	return (done*100 + total/2) / total
}

// Answer records the option chosen for the current question and advances.
func (q *Quiz) Answer(option int) error {
	question, ok := q.Current()
	if !ok {
		return ErrFinished
	}
	if option < 0 || option >= len(question.Options) {
		return fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}
	q.answers = append(q.answers, question.Options[option].Category)
	q.current++
	return nil
}

// Answers returns the categories recorded so far.
func (q *Quiz) Answers() []string {
	out := make([]string, len(q.answers))
	copy(out, q.answers)
	return out
}

// Reset clears answers and returns to the first question.
func (q *Quiz) Reset() {
	q.current = 0
	q.answers = nil
}

// Result returns the personality for the winning category.
func (q *Quiz) Result() Personality {
	return q.def.Personalities[Winner(q.answers, q.def.Fallback)]
}

// Winner returns the category with the highest tally. Ties go to the category
// first seen earliest in answers; no answers yields fallback.
func Winner(answers []string, fallback string) string {
	counts := make(map[string]int)
	order := make([]string, 0, 4)
	for _, a := range answers {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, seen := counts[a]; !seen {
			order = append(order, a)
		}
		counts[a]++
	}
	if len(order) == 0 {
		return fallback
	}
	best := order[0]
	for _, category := range order[1:] {
		if counts[category] > counts[best] {
			best = category
		}
	}
	return best
}
