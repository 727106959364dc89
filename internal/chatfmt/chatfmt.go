// Package chatfmt converts the light markdown a chat model emits into the
// small HTML subset the chat UI renders.
package chatfmt

import (
	"regexp"
	"strings"
)

var (
	numberedHeading = regexp.MustCompile(`^\*\*(\d+\..+?)\*\*`)
	bold            = regexp.MustCompile(`\*\*(.+?)\*\*`)
	htmlEscaper     = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// Format renders raw model text as HTML:
//
//	**1. Heading**   -> <h2>1. Heading</h2>
//	**text**         -> <strong>text</strong>
//	``` ... ```      -> <pre class="code-block"><code>escaped</code></pre>
//	* item           -> <ul><li>item</li></ul>
//	anything else    -> <p>line</p>
//
// All text is HTML-escaped before markup is applied. Blank lines outside code
// blocks are dropped. An unterminated code block is closed at the end of the
// input.
func Format(text string) string {
	var (
		out    []string
		code   []string
		inCode bool
		inList bool
	)

	closeList := func() {
		if inList {
			out = append(out, "</ul>")
			inList = false
		}
	}
	flushCode := func() {
		out = append(out, `<pre class="code-block"><code>`+htmlEscaper.Replace(strings.Join(code, "\n"))+"</code></pre>")
		code = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flushCode()
			} else {
				closeList()
			}
			inCode = !inCode
			continue
		}
		if inCode {
			code = append(code, line)
			continue
		}
		if trimmed == "" {
			continue
		}
		trimmed = htmlEscaper.Replace(trimmed)

		if m := numberedHeading.FindStringSubmatch(trimmed); m != nil {
			closeList()
			out = append(out, "<h2>"+m[1]+"</h2>"+inline(trimmed[len(m[0]):]))
			continue
		}

		formatted := inline(trimmed)
		if strings.HasPrefix(formatted, "*") {
			if !inList {
				out = append(out, "<ul>")
				inList = true
			}
			out = append(out, "<li>"+strings.TrimSpace(formatted[1:])+"</li>")
			continue
		}

		closeList()
		out = append(out, "<p>"+formatted+"</p>")
	}

	if inCode {
		flushCode()
	}
	closeList()
	return strings.Join(out, "\n")
}

func inline(s string) string {
	return bold.ReplaceAllString(s, "<strong>$1</strong>")
}
