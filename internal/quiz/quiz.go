// Package quiz builds chapter quizzes out of the content store, backing
// the quiz nodes the schedule places at chapter ends.
package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/example/mishnahbot/internal/content"
	"github.com/example/mishnahbot/internal/corpus"
)

// DefaultOptionCount is how many answer options a question carries.
const DefaultOptionCount = 4

// Question asks which mishnah a summary describes, multiple choice over
// references within the chapter.
type Question struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Module generates quizzes for completed chapters.
type Module struct {
	corpus  *corpus.Index
	content *content.Service
	rnd     *rand.Rand
}

// New creates a quiz module over the corpus and the content store.
func New(ix *corpus.Index, svc *content.Service) *Module {
	return &Module{
		corpus:  ix,
		content: svc,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ForChapter builds one question per mishnah in the chapter. chapter is
// 1-based, matching how chapters are referred to everywhere user-facing.
func (m *Module) ForChapter(ctx context.Context, tractateName string, chapter, optionCount int) ([]Question, error) {
	if optionCount < 2 {
		optionCount = DefaultOptionCount
	}

	start, err := m.corpus.GlobalIndexForAddress(tractateName, chapter-1, 0)
	if err != nil {
		return nil, err
	}

	var indices []int
	for i := start; ; i++ {
		indices = append(indices, i)
		if m.corpus.IsChapterEnd(i) {
			break
		}
	}

	refs := make([]string, len(indices))
	for n, i := range indices {
		addr, _, err := m.corpus.AddressForGlobalIndex(i)
		if err != nil {
			return nil, err
		}
		refs[n] = m.corpus.HebrewRef(addr)
	}

	contentRefs := m.corpus.ContentRefsForRange(start, indices[len(indices)-1])
	questions := make([]Question, 0, len(indices))
	for n, contentRef := range contentRefs {
		text, err := m.content.Ensure(ctx, contentRef)
		if err != nil {
			return nil, fmt.Errorf("cannot quiz %s without content: %w", contentRef, err)
		}
		questions = append(questions, m.question(text, refs, n, optionCount))
	}
	return questions, nil
}

// ForQuizRef resolves a schedule entry's quiz reference, shaped
// "Quiz_{Tractate}.{Chapter}".
func (m *Module) ForQuizRef(ctx context.Context, ref string, optionCount int) ([]Question, error) {
	rest := strings.TrimPrefix(ref, "Quiz_")
	dot := strings.LastIndex(rest, ".")
	if rest == ref || dot < 1 {
		return nil, fmt.Errorf("malformed quiz ref %q", ref)
	}
	chapter, err := strconv.Atoi(rest[dot+1:])
	if err != nil {
		return nil, fmt.Errorf("malformed quiz ref %q", ref)
	}
	return m.ForChapter(ctx, rest[:dot], chapter, optionCount)
}

// question assembles the options: the correct reference plus distractors
// sampled from the same chapter, shuffled.
func (m *Module) question(prompt string, refs []string, correct, optionCount int) Question {
	options := []string{refs[correct]}
	for _, n := range m.rnd.Perm(len(refs)) {
		if len(options) == optionCount {
			break
		}
		if n != correct {
			options = append(options, refs[n])
		}
	}
	m.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, o := range options {
		if o == refs[correct] {
			correctIndex = i
			break
		}
	}
	return Question{Prompt: prompt, Options: options, CorrectIndex: correctIndex}
}
