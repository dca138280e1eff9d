// Package render turns model text into terminal output (glamour) and web
// markup (a small pseudo-markdown transform).
package render

// Options selects how a reply is drawn in the terminal. Options is
// comparable and doubles as the renderer pool key.
type Options struct {
	Width int
	// Style is ThemeSamarth, a glamour style name or a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions matches config.DefaultMarkdownConfig at 80 columns.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            ThemeSamarth,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns a copy wrapping at width columns.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns a copy using style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}
