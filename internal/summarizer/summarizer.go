// Package summarizer implements deterministic extractive summarization of
// transcript text. The same input always yields byte-identical output, so
// retried requests produce identical emails.
package summarizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/phrazzld/voicebrief/internal/domain"
)

// stopWords are excluded from frequency scoring so filler terms do not
// dominate sentence selection.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"that": {}, "the": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "we": {}, "you": {}, "your": {},
}

// nextStepMarkers flag sentences that read as an action or intent; the
// first match becomes the summary's next step.
var nextStepMarkers = []string{
	"next", "follow up", "action", "todo", "need to", "plan", "should",
}

var wordPattern = regexp.MustCompile(`[a-zA-Z']+`)

const defaultNextStep = "Review the transcript and choose one concrete follow-up action."

// Summarizer turns transcript text into a fixed-shape summary of 3 to 5
// bullets plus a single next-step line.
type Summarizer struct {
	maxBullets int
}

// New creates a Summarizer. maxBullets is clamped to [3, 5].
func New(maxBullets int) *Summarizer {
	if maxBullets < domain.MinSummaryBullets {
		maxBullets = domain.MinSummaryBullets
	}
	if maxBullets > domain.MaxSummaryBullets {
		maxBullets = domain.MaxSummaryBullets
	}
	return &Summarizer{maxBullets: maxBullets}
}

// Summarize extracts the highest-signal sentences from the transcript as
// bullets, in document order, and derives a next step. Returns
// domain.ErrEmptyTranscript for blank or whitespace-only input.
func (s *Summarizer) Summarize(transcript string) (*domain.Summary, error) {
	cleaned := normalizeText(transcript)
	if cleaned == "" {
		return nil, domain.ErrEmptyTranscript
	}

	sentences := splitSentences(cleaned)
	bullets := s.selectBullets(cleaned, sentences)
	nextStep := deriveNextStep(sentences, bullets)

	summary := &domain.Summary{
		Bullets:  bullets,
		NextStep: nextStep,
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}

	return summary, nil
}

// normalizeText collapses all whitespace runs to single spaces.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences splits normalized text after terminal punctuation followed
// by a space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if !isTerminal(r) {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		if sentence := strings.TrimSpace(current.String()); sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// scoreSentence is the mean corpus frequency of the sentence's non-stop
// words, or zero when no scorable words remain.
func scoreSentence(sentence string, frequencies map[string]int) float64 {
	var sum, count int
	for _, word := range tokenize(sentence) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		sum += frequencies[word]
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

type scoredSentence struct {
	index    int
	sentence string
	score    float64
}

func (s *Summarizer) selectBullets(text string, sentences []string) []string {
	if len(sentences) >= domain.MinSummaryBullets {
		return s.selectByFrequency(text, sentences)
	}
	return s.chunkWords(text)
}

// selectByFrequency scores every sentence against corpus word frequencies,
// keeps the top distinct candidates, and restores document order.
func (s *Summarizer) selectByFrequency(text string, sentences []string) []string {
	frequencies := make(map[string]int)
	for _, word := range tokenize(text) {
		if _, stop := stopWords[word]; !stop {
			frequencies[word]++
		}
	}

	scored := make([]scoredSentence, 0, len(sentences))
	for i, sentence := range sentences {
		scored = append(scored, scoredSentence{
			index:    i,
			sentence: sentence,
			score:    scoreSentence(sentence, frequencies),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].index < scored[j].index
	})

	target := s.maxBullets
	if len(sentences) < target {
		target = len(sentences)
	}
	if target < domain.MinSummaryBullets {
		target = domain.MinSummaryBullets
	}

	seen := make(map[string]struct{})
	top := make([]scoredSentence, 0, target)
	for _, candidate := range scored {
		key := strings.ToLower(strings.TrimRight(candidate.sentence, ".!?"))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		top = append(top, candidate)
		if len(top) == target {
			break
		}
	}

	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	bullets := make([]string, 0, len(top))
	for _, candidate := range top {
		bullets = append(bullets, ensureSentence(candidate.sentence))
	}
	for len(bullets) < domain.MinSummaryBullets {
		bullets = append(bullets, bullets[len(bullets)-1])
	}
	return bullets
}

// chunkWords handles short transcripts with fewer than three sentences by
// slicing the text into word chunks, padded to the three-bullet minimum.
func (s *Summarizer) chunkWords(text string) []string {
	words := strings.Fields(text)

	chunkSize := len(words) / 3
	if chunkSize < 6 {
		chunkSize = 6
	}

	var chunks []string
	for i := 0; i < len(words); i += chunkSize {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[i:end], " "))
		if chunk != "" {
			chunks = append(chunks, ensureSentence(chunk))
		}
	}

	for len(chunks) < domain.MinSummaryBullets {
		if len(chunks) == 0 {
			chunks = append(chunks, "No additional key point detected.")
			continue
		}
		chunks = append(chunks, chunks[len(chunks)-1])
	}

	if len(chunks) > s.maxBullets {
		chunks = chunks[:s.maxBullets]
	}
	return chunks
}

// deriveNextStep returns the first sentence carrying an action marker,
// falling back to the leading bullet and then a fixed default.
func deriveNextStep(sentences, bullets []string) string {
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, marker := range nextStepMarkers {
			if strings.Contains(lower, marker) {
				return ensureSentence(sentence)
			}
		}
	}
	if len(bullets) > 0 {
		return fmt.Sprintf("Take action on: %s", bullets[0])
	}
	return defaultNextStep
}

// ensureSentence terminates the text with a period when it lacks terminal
// punctuation.
func ensureSentence(text string) string {
	sentence := strings.TrimSpace(text)
	if sentence == "" {
		return sentence
	}
	if !isTerminal(rune(sentence[len(sentence)-1])) {
		sentence += "."
	}
	return sentence
}
