package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PlainText strips markup from user input, keeping line breaks implied by
// block elements, collapsing runs of spaces and capping the result at maxRunes
// (0 means no cap).
func PlainText(raw string, maxRunes int) string {
	if !strings.ContainsAny(raw, "<&") {
		return limit(normalize(raw), maxRunes)
	}
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return limit(normalize(raw), maxRunes)
	}
	return limit(normalize(extractText(doc)), maxRunes)
}

func extractText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
		case html.ElementNode:
			switch node.Data {
			case "script", "style", "head":
				return
			case "br":
				buf.WriteString("\n")
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode {
			switch node.Data {
			case "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				buf.WriteString("\n")
			}
		}
	}
	walk(n)
	return buf.String()
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			// keep at most one empty line between paragraphs
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func limit(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// RuneLen counts characters the way form limits are expressed.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
