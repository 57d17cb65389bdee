package email_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/email"
)

func TestRenderText(t *testing.T) {
	t.Parallel()

	summary := &domain.Summary{
		Bullets:  []string{"Ship v2 by Friday.", "QA needs two more days.", "Marketing wants a teaser post."},
		NextStep: "Confirm the QA timeline.",
	}

	body := email.RenderText(summary)

	assert.Equal(t,
		"Your conversation summary\n"+
			"\n"+
			"Key points:\n"+
			"- Ship v2 by Friday.\n"+
			"- QA needs two more days.\n"+
			"- Marketing wants a teaser post.\n"+
			"\n"+
			"Next step: Confirm the QA timeline.",
		body)
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	t.Parallel()

	summary := &domain.Summary{
		Bullets:  []string{"Discuss <script> risks.", "Review Q&A notes.", "Close the loop."},
		NextStep: "Email <everyone> the notes.",
	}

	body := email.RenderHTML(summary)

	assert.Contains(t, body, "<li>Discuss &lt;script&gt; risks.</li>")
	assert.Contains(t, body, "<li>Review Q&amp;A notes.</li>")
	assert.Contains(t, body, "<strong>Next step:</strong> Email &lt;everyone&gt; the notes.")
	assert.NotContains(t, body, "<script>")
}
