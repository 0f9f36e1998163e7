package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFormat(t *testing.T) {
	t.Parallel()
	p := Placeholders{Mention: "<@42>", Tag: "spammer#0001", GuildName: "Gophers"}

	tests := []struct {
		name string
		in   Template
		want Template
	}{
		{
			name: "text",
			in:   Text("{@user} in {server_name}, {@user}!"),
			want: Text("<@42> in Gophers, <@42>!"),
		},
		{
			name: "unknown-placeholder-kept",
			in:   Text("{user} {user_tag}"),
			want: Text("{user} spammer#0001"),
		},
		{
			name: "embed",
			in: Template{Embed: &Embed{
				Title:       "{user_tag}",
				Description: "left {server_name}",
				Color:       7,
				Footer:      &EmbedFooter{Text: "{server_name}", IconURL: "{server_name}"},
				Author:      &EmbedAuthor{Name: "{@user}"},
				Fields:      []EmbedField{{Name: "who", Value: "{user_tag}", Inline: true}},
			}},
			want: Template{Embed: &Embed{
				Title:       "spammer#0001",
				Description: "left Gophers",
				Color:       7,
				Footer:      &EmbedFooter{Text: "Gophers", IconURL: "{server_name}"},
				Author:      &EmbedAuthor{Name: "<@42>"},
				Fields:      []EmbedField{{Name: "who", Value: "spammer#0001", Inline: true}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.Format(p))
		})
	}
}

func TestTemplateFormatDoesNotMutateSource(t *testing.T) {
	t.Parallel()
	src := Template{Embed: &Embed{
		Title:  "{user_tag}",
		Fields: []EmbedField{{Value: "{user_tag}"}},
	}}
	_ = src.Format(Placeholders{Tag: "x"})

	assert.Equal(t, "{user_tag}", src.Embed.Title)
	assert.Equal(t, "{user_tag}", src.Embed.Fields[0].Value)
}

func TestMatcher(t *testing.T) {
	t.Parallel()
	var zero Matcher[Channel]
	assert.False(t, zero.Match(Channel{ID: "c1"}, "c1"))

	static := StaticSet[Channel]("c1", "c2")
	assert.True(t, static.Match(Channel{}, "c2"))
	assert.False(t, static.Match(Channel{ID: "c3"}, "c3"))
	assert.False(t, static.IsPredicate())

	pred := Predicate(func(c Channel) bool { return c.Direct })
	assert.True(t, pred.Match(Channel{Direct: true}))
	assert.False(t, pred.Match(Channel{ID: "c1"}, "c1"), "predicate ignores keys")
	assert.True(t, pred.IsPredicate())
}
