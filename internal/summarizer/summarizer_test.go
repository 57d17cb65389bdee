package summarizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/summarizer"
)

const meetingTranscript = "Let's ship v2 by Friday. " +
	"We need to give QA two more days. " +
	"Marketing wants a teaser post. " +
	"The launch checklist is almost complete. " +
	"Support will handle early feedback."

func TestSummarizeIsDeterministic(t *testing.T) {
	t.Parallel()

	s := summarizer.New(5)

	first, err := s.Summarize(meetingTranscript)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := s.Summarize(meetingTranscript)
		require.NoError(t, err)
		assert.Equal(t, first, again, "run %d diverged", i)
	}
}

func TestSummarizeMeetingTranscript(t *testing.T) {
	t.Parallel()

	s := summarizer.New(5)

	summary, err := s.Summarize(meetingTranscript)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(summary.Bullets), domain.MinSummaryBullets)
	assert.LessOrEqual(t, len(summary.Bullets), domain.MaxSummaryBullets)
	assert.NoError(t, summary.Validate())

	// Bullets are source sentences in document order.
	lastIndex := -1
	for _, bullet := range summary.Bullets {
		index := strings.Index(meetingTranscript, strings.TrimSuffix(bullet, "."))
		require.GreaterOrEqual(t, index, 0, "bullet %q is not a source fragment", bullet)
		assert.Greater(t, index, lastIndex, "bullet %q is out of document order", bullet)
		lastIndex = index
	}

	// "We need to give QA two more days." carries an action marker.
	assert.Equal(t, "We need to give QA two more days.", summary.NextStep)
}

func TestSummarizeEmptyInput(t *testing.T) {
	t.Parallel()

	s := summarizer.New(5)

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		_, err := s.Summarize(input)
		assert.ErrorIs(t, err, domain.ErrEmptyTranscript, "input %q", input)
	}
}

func TestSummarizeShortTranscriptFallsBackToChunks(t *testing.T) {
	t.Parallel()

	s := summarizer.New(5)

	// Two sentences only: below the sentence threshold, so the text is
	// chunked by words and padded to the minimum bullet count.
	summary, err := s.Summarize("Quick note about the budget. Revisit numbers tomorrow.")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(summary.Bullets), domain.MinSummaryBullets)
	assert.LessOrEqual(t, len(summary.Bullets), domain.MaxSummaryBullets)
	assert.NotEmpty(t, summary.NextStep)
}

func TestSummarizeCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	s := summarizer.New(5)

	messy := "Plan the   rollout carefully.\n\nInvite the\tteam to review. Document every decision we make."
	clean := "Plan the rollout carefully. Invite the team to review. Document every decision we make."

	fromMessy, err := s.Summarize(messy)
	require.NoError(t, err)
	fromClean, err := s.Summarize(clean)
	require.NoError(t, err)

	assert.Equal(t, fromClean, fromMessy)
}

func TestSummarizeNextStepFallsBackToDefault(t *testing.T) {
	t.Parallel()

	s := summarizer.New(5)

	// No sentence carries an action marker, so the first bullet is used.
	summary, err := s.Summarize("The weather was sunny. Birds sang all morning. The garden bloomed.")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(summary.NextStep, "Take action on: "),
		"unexpected next step %q", summary.NextStep)
}

func TestSummarizeDeduplicatesRepeatedSentences(t *testing.T) {
	t.Parallel()

	s := summarizer.New(5)

	summary, err := s.Summarize(
		"Review the contract before signing. Review the contract before signing. " +
			"Send the invoice to finance. Confirm the meeting room booking. " +
			"Review the contract before signing.")
	require.NoError(t, err)

	seen := map[string]int{}
	for _, bullet := range summary.Bullets {
		seen[bullet]++
	}
	assert.LessOrEqual(t, seen["Review the contract before signing."], 1)
}

func TestNewClampsBulletLimit(t *testing.T) {
	t.Parallel()

	for _, limit := range []int{-1, 0, 2, 7, 100} {
		s := summarizer.New(limit)
		summary, err := s.Summarize(meetingTranscript)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(summary.Bullets), domain.MinSummaryBullets, "limit %d", limit)
		assert.LessOrEqual(t, len(summary.Bullets), domain.MaxSummaryBullets, "limit %d", limit)
	}
}
