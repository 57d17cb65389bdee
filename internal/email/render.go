package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/phrazzld/voicebrief/internal/domain"
)

const summaryHeading = "Your conversation summary"

// RenderText renders the plain-text body of a summary email.
func RenderText(summary *domain.Summary) string {
	lines := []string{summaryHeading, "", "Key points:"}
	for _, bullet := range summary.Bullets {
		lines = append(lines, fmt.Sprintf("- %s", bullet))
	}
	lines = append(lines, "", fmt.Sprintf("Next step: %s", summary.NextStep))
	return strings.Join(lines, "\n")
}

// RenderHTML renders the HTML body of a summary email. Bullet and
// next-step text is escaped.
func RenderHTML(summary *domain.Summary) string {
	var bullets strings.Builder
	for _, bullet := range summary.Bullets {
		bullets.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(bullet)))
	}

	return fmt.Sprintf(
		"<html><body>"+
			"<h2>%s</h2>"+
			"<p><strong>Key points:</strong></p>"+
			"<ul>%s</ul>"+
			"<p><strong>Next step:</strong> %s</p>"+
			"</body></html>",
		summaryHeading,
		bullets.String(),
		html.EscapeString(summary.NextStep),
	)
}
