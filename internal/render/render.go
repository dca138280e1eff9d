package render

// Markdown renders markdown for the terminal with a pooled renderer.
func Markdown(content string, opts Options) (string, error) {
	return renderers.render(content, opts)
}

// Reply renders an assistant reply for the terminal. HTML tables are turned
// into markdown tables first; if rendering fails the raw text is returned.
func Reply(content string, opts Options) string {
	if content == "" {
		return ""
	}
	out, err := Markdown(TerminalMarkdown(content), opts)
	if err != nil {
		return content
	}
	return out
}
