package render

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLPolicy controls whether converted model output is sanitized
type HTMLPolicy string

const (
	// PolicyTrusted emits the converted text as-is, raw HTML included
	PolicyTrusted HTMLPolicy = "trusted"
	// PolicySanitized strips everything but the formatting tags the model is asked to use
	PolicySanitized HTMLPolicy = "sanitized"
)

// ParseHTMLPolicy validates a policy name. Blank means trusted.
func ParseHTMLPolicy(name string) (HTMLPolicy, error) {
	switch HTMLPolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyTrusted:
		return PolicyTrusted, nil
	case PolicySanitized:
		return PolicySanitized, nil
	default:
		return "", fmt.Errorf("unknown html policy %q", name)
	}
}

// Substitutions run in order over the raw accumulated text. Captures stop
// at \r as well as \n so CRLF text keeps its line endings outside the tags.
var (
	boldPattern      = regexp.MustCompile(`\*\*([^\r\n]*?)\*\*`)
	headingPattern   = regexp.MustCompile(`(?m)^### ([^\r\n]*)`)
	listItemPattern  = regexp.MustCompile(`(?m)^\* ([^\r\n]*)`)
	listBlockPattern = regexp.MustCompile(`(?s)(<li>.*</li>)`)
	listMergePattern = regexp.MustCompile(`</ul>\s?<ul>`)
)

// convert applies the pseudo-markdown substitutions. It is not a markdown
// parser: lists are wrapped from the first item to the last one.
func convert(content string) string {
	if content == "" {
		return ""
	}
	out := boldPattern.ReplaceAllString(content, "<strong>$1</strong>")
	out = headingPattern.ReplaceAllString(out, "<h3>$1</h3>")
	out = listItemPattern.ReplaceAllString(out, "<li>$1</li>")
	out = listBlockPattern.ReplaceAllString(out, "<ul>$1</ul>")
	out = listMergePattern.ReplaceAllString(out, "")
	return out
}

// HTML converts model text into markup for the web transcript. The result
// is trusted: raw HTML in content reaches the page unescaped.
func HTML(content string) template.HTML {
	return template.HTML(convert(content))
}

var (
	sanitizerOnce sync.Once
	sanitizer     *bluemonday.Policy
)

// formattingPolicy allows the tags produced by convert and the table markup
// the analyst instruction asks for.
func formattingPolicy() *bluemonday.Policy {
	sanitizerOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("strong", "b", "em", "i", "h3", "ul", "ol", "li", "p", "br",
			"table", "thead", "tbody", "tr", "th", "td", "caption")
		p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		sanitizer = p
	})
	return sanitizer
}

// HTMLRenderer applies the conversion under a fixed policy
type HTMLRenderer struct {
	policy HTMLPolicy
}

// NewHTMLRenderer creates a renderer for the given policy
func NewHTMLRenderer(policy HTMLPolicy) *HTMLRenderer {
	if policy != PolicySanitized {
		policy = PolicyTrusted
	}
	return &HTMLRenderer{policy: policy}
}

// Policy returns the renderer's policy
func (r *HTMLRenderer) Policy() HTMLPolicy {
	return r.policy
}

// Render converts content, sanitizing it when the policy asks for it
func (r *HTMLRenderer) Render(content string) template.HTML {
	out := convert(content)
	if r.policy == PolicySanitized && out != "" {
		out = formattingPolicy().Sanitize(out)
	}
	return template.HTML(out)
}
