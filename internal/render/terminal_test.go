package render

import (
	"strings"
	"testing"
)

func TestTerminalMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no table",
			input: "**Summary** rice up",
			want:  "**Summary** rice up",
		},
		{
			name: "table with header",
			input: "Intro\n<table><thead><tr><th>Year</th><th>Rice (MT)</th></tr></thead>" +
				"<tbody><tr><td>2019</td><td>118.9</td></tr><tr><td>2020</td><td><strong>122.3</strong></td></tr></tbody></table>\nOutro",
			want: "Intro\n\n\n| Year | Rice (MT) |\n| --- | --- |\n| 2019 | 118.9 |\n| 2020 | 122.3 |\n\n\nOutro",
		},
		{
			name:  "ragged rows are padded",
			input: "<TABLE><tr><td>a</td><td>b</td></tr><tr><td>c</td></tr></TABLE>",
			want:  "\n\n| a | b |\n| --- | --- |\n| c |  |\n\n",
		},
		{
			name:  "pipes are escaped",
			input: "<table><tr><th>x|y</th></tr></table>",
			want:  "\n\n| x\\|y |\n| --- |\n\n",
		},
		{
			name:  "empty table kept as is",
			input: "<table></table>",
			want:  "<table></table>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TerminalMarkdown(tt.input)
			if got != tt.want {
				t.Errorf("TerminalMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCellTextCollapsesWhitespace(t *testing.T) {
	got := tableToMarkdown("<table><tr><td>\n  Kharif\n  season </td></tr></table>")
	if !strings.Contains(got, "| Kharif season |") {
		t.Errorf("unexpected table: %q", got)
	}
}
