package telegram

import (
	"html"
	"regexp"
	"strings"

	"github.com/iamwavecut/spamguard/internal/monitor"
)

var boldMarkup = regexp.MustCompile(`\*\*(.+?)\*\*`)

// RenderHTML turns a notice into Telegram HTML. Text is escaped and **bold** markup becomes <b>.
// Embeds have no Telegram counterpart and are flattened to lines below the text.
func RenderHTML(t monitor.Template) string {
	var lines []string
	if t.Text != "" {
		lines = append(lines, inline(t.Text))
	}
	if e := t.Embed; e != nil {
		if e.Author != nil && e.Author.Name != "" {
			lines = append(lines, "<i>"+inline(e.Author.Name)+"</i>")
		}
		if e.Title != "" {
			title := "<b>" + inline(e.Title) + "</b>"
			if e.URL != "" {
				title = `<a href="` + html.EscapeString(e.URL) + `">` + title + "</a>"
			}
			lines = append(lines, title)
		}
		if e.Description != "" {
			lines = append(lines, inline(e.Description))
		}
		for _, f := range e.Fields {
			lines = append(lines, "<b>"+inline(f.Name)+"</b>: "+inline(f.Value))
		}
		if e.Footer != nil && e.Footer.Text != "" {
			lines = append(lines, "<i>"+inline(e.Footer.Text)+"</i>")
		}
	}
	return strings.Join(lines, "\n")
}

func inline(s string) string {
	return boldMarkup.ReplaceAllString(html.EscapeString(s), "<b>$1</b>")
}
