package monitor

import (
	"strings"
)

const (
	PlaceholderMention   = "{@user}"
	PlaceholderUserTag   = "{user_tag}"
	PlaceholderGuildName = "{server_name}"
)

type (
	// Template is a notice sent to a channel: plain text, a structured embed, or both.
	Template struct {
		Text  string `yaml:"text"`
		Embed *Embed `yaml:"embed"`
	}

	Embed struct {
		Title       string       `yaml:"title"`
		Description string       `yaml:"description"`
		URL         string       `yaml:"url"`
		Color       int          `yaml:"color"`
		Footer      *EmbedFooter `yaml:"footer"`
		Author      *EmbedAuthor `yaml:"author"`
		Fields      []EmbedField `yaml:"fields"`
	}

	EmbedFooter struct {
		Text    string `yaml:"text"`
		IconURL string `yaml:"icon_url"`
	}

	EmbedAuthor struct {
		Name    string `yaml:"name"`
		URL     string `yaml:"url"`
		IconURL string `yaml:"icon_url"`
	}

	EmbedField struct {
		Name   string `yaml:"name"`
		Value  string `yaml:"value"`
		Inline bool   `yaml:"inline"`
	}

	// Placeholders holds the values substituted into templates.
	Placeholders struct {
		Mention   string
		Tag       string
		GuildName string
	}
)

func Text(s string) Template {
	return Template{Text: s}
}

func (t Template) IsZero() bool {
	return t.Text == "" && t.Embed == nil
}

// Format returns a copy of t with every placeholder replaced in the text and in the embed's text fields.
func (t Template) Format(p Placeholders) Template {
	r := strings.NewReplacer(
		PlaceholderMention, p.Mention,
		PlaceholderUserTag, p.Tag,
		PlaceholderGuildName, p.GuildName,
	)
	return Template{
		Text:  r.Replace(t.Text),
		Embed: t.Embed.format(r),
	}
}

func (e *Embed) format(r *strings.Replacer) *Embed {
	if e == nil {
		return nil
	}
	out := *e
	out.Title = r.Replace(e.Title)
	out.Description = r.Replace(e.Description)
	if e.Footer != nil {
		footer := *e.Footer
		footer.Text = r.Replace(footer.Text)
		out.Footer = &footer
	}
	if e.Author != nil {
		author := *e.Author
		author.Name = r.Replace(author.Name)
		out.Author = &author
	}
	if len(e.Fields) > 0 {
		out.Fields = make([]EmbedField, len(e.Fields))
		for i, f := range e.Fields {
			f.Name = r.Replace(f.Name)
			f.Value = r.Replace(f.Value)
			out.Fields[i] = f
		}
	}
	return &out
}

// UnmarshalYAML accepts either a bare string or a mapping with text and/or embed keys.
func (t *Template) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*t = Text(s)
		return nil
	}
	type plain Template
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*t = Template(p)
	return nil
}

func placeholdersFor(msg *Message) Placeholders {
	return Placeholders{
		Mention:   msg.Author.Mention,
		Tag:       msg.Author.Tag,
		GuildName: msg.guildName(),
	}
}
