package chatfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain paragraph",
			in:   "Hello there.",
			want: "<p>Hello there.</p>",
		},
		{
			name: "bold inline",
			in:   "This is **very** good.",
			want: "<p>This is <strong>very</strong> good.</p>",
		},
		{
			name: "numbered heading",
			in:   "**1. Setup** first steps",
			want: "<h2>1. Setup</h2> first steps",
		},
		{
			name: "bullet list closes before paragraph",
			in:   "* one\n* **two**\nafter",
			want: "<ul>\n<li>one</li>\n<li><strong>two</strong></li>\n</ul>\n<p>after</p>",
		},
		{
			name: "list at end is closed",
			in:   "intro\n* a",
			want: "<p>intro</p>\n<ul>\n<li>a</li>\n</ul>",
		},
		{
			name: "code block is escaped and untouched",
			in:   "```go\nif a < b && **x** {\n}\n```",
			want: "<pre class=\"code-block\"><code>if a &lt; b &amp;&amp; **x** {\n}</code></pre>",
		},
		{
			name: "unterminated code block",
			in:   "```\n<div>",
			want: "<pre class=\"code-block\"><code>&lt;div&gt;</code></pre>",
		},
		{
			name: "markup in text is escaped",
			in:   "Try <img src=x onerror=alert(1)> & **<b>bold</b>**",
			want: "<p>Try &lt;img src=x onerror=alert(1)&gt; &amp; <strong>&lt;b&gt;bold&lt;/b&gt;</strong></p>",
		},
		{
			name: "markup in list item is escaped",
			in:   "* <script>x</script>",
			want: "<ul>\n<li>&lt;script&gt;x&lt;/script&gt;</li>\n</ul>",
		},
		{
			name: "blank lines dropped",
			in:   "a\n\n\r\nb",
			want: "<p>a</p>\n<p>b</p>",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestFormat_CodeBlockInsideList(t *testing.T) {
	got := Format("* step\n```\nx\n```\n* next")
	assert.Equal(t, "<ul>\n<li>step</li>\n</ul>\n<pre class=\"code-block\"><code>x</code></pre>\n<ul>\n<li>next</li>\n</ul>", got)
}
