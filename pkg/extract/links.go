package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/aretw0/wikisophy/pkg/domain"
	"golang.org/x/net/html"
)

// minParagraphLength is the stripped text length under which a paragraph is ignored,
// unless it contains "is".
const minParagraphLength = 20

// excludedTags are elements whose whole subtree is dropped before scanning.
var excludedTags = map[string]bool{
	"table":      true,
	"sup":        true,
	"style":      true,
	"script":     true,
	"audio":      true,
	"video":      true,
	"figure":     true,
	"figcaption": true,
}

// excludedClasses flag container blocks (by class substring) whose subtree is dropped.
var excludedClasses = []string{
	"hatnote",
	"shortdescription",
	"thumb",
	"infobox",
	"navbox",
	"noexcerpt",
	"noprint",
	"ambox",
	"mwe-math-element",
}

// voidTags never have content or an end tag, so they cannot open an excluded block.
var voidTags = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// token is the reduced form of an HTML token kept for a paragraph scan.
type token struct {
	kind html.TokenType
	tag  string
	href string
	text string
}

// FirstLink returns the first qualifying article link of the lead-section markup,
// without its fragment. It reports false when no link qualifies.
//
// The markup is tokenized once. Excluded blocks are skipped while tokenizing, every
// paragraph is buffered and scanned linearly as soon as it closes, and the scan stops
// at the first qualifying link. An excluded block is only skipped when a matching end
// tag follows it; an unclosed one is scanned like any other markup.
func FirstLink(markup string) (string, bool) {
	if strings.TrimSpace(markup) == "" {
		return "", false
	}

	lastClose := closingTags(markup)
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		offset    int
		skipTag   string
		skipDepth int
		inPara    bool
		para      []token
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a tokenizer error; an unterminated paragraph is never scanned.
			return "", false
		}
		offset += len(z.Raw())
		tok := z.Token()

		if skipDepth > 0 {
			switch {
			case tt == html.StartTagToken && tok.Data == skipTag:
				skipDepth++
			case tt == html.EndTagToken && tok.Data == skipTag:
				skipDepth--
			}
			continue
		}

		if (tt == html.StartTagToken || tt == html.SelfClosingTagToken) && isExcluded(tok) {
			if tt == html.SelfClosingTagToken || voidTags[tok.Data] {
				// Nothing to skip but the element itself.
				continue
			}
			if lastClose[tok.Data] >= offset {
				skipTag = tok.Data
				skipDepth = 1
				continue
			}
		}

		switch {
		case tt == html.StartTagToken && tok.Data == "p":
			// <p> cannot nest; a new one implicitly closes the previous.
			if inPara {
				if link, ok := scanParagraph(para); ok {
					return link, true
				}
			}
			inPara = true
			para = para[:0]
		case tt == html.EndTagToken && tok.Data == "p":
			if !inPara {
				continue
			}
			inPara = false
			if link, ok := scanParagraph(para); ok {
				return link, true
			}
		case inPara:
			para = append(para, reduce(tt, tok))
		}
	}
}

// closingTags maps every end tag name of markup to the offset of its last occurrence.
func closingTags(markup string) map[string]int {
	last := make(map[string]int)
	for i := 0; i+2 < len(markup); i++ {
		if markup[i] != '<' || markup[i+1] != '/' {
			continue
		}
		j := i + 2
		for j < len(markup) && isNameByte(markup[j]) {
			j++
		}
		if j > i+2 {
			last[strings.ToLower(markup[i+2:j])] = i
		}
		i = j - 1
	}
	return last
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

func isExcluded(tok html.Token) bool {
	if excludedTags[tok.Data] {
		return true
	}
	for _, attr := range tok.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range excludedClasses {
			if strings.Contains(attr.Val, class) {
				return true
			}
		}
	}
	return false
}

func reduce(tt html.TokenType, tok html.Token) token {
	t := token{kind: tt, tag: tok.Data}
	switch tt {
	case html.TextToken:
		t.tag = ""
		t.text = tok.Data
	case html.StartTagToken, html.SelfClosingTagToken:
		for _, attr := range tok.Attr {
			if attr.Key == "href" {
				t.href = attr.Val
				break
			}
		}
	}
	return t
}

// scanParagraph runs the single linear pass over one paragraph.
func scanParagraph(tokens []token) (string, bool) {
	if !worthScanning(tokens) {
		return "", false
	}

	closeAt := anchorCloses(tokens)
	depth := 0
	italic := 0

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.kind {
		case html.TextToken:
			depth = parenDepth(depth, t.text)
		case html.StartTagToken:
			if isItalic(t.tag) {
				italic++
				continue
			}
			if t.tag != "a" || t.href == "" {
				continue
			}
			end := closeAt[i+1]
			if end < 0 {
				// Unterminated anchor: drop this attempt, keep scanning after it.
				continue
			}
			if depth == 0 && italic == 0 && isArticlePath(t.href) && !hasItalic(tokens[i+1:end]) {
				return stripFragment(t.href), true
			}
			i = end
		case html.EndTagToken:
			if isItalic(t.tag) && italic > 0 {
				italic--
			}
		}
	}
	return "", false
}

// worthScanning applies the stub filter: short paragraphs must at least contain "is".
func worthScanning(tokens []token) bool {
	var b strings.Builder
	for _, t := range tokens {
		if t.kind == html.TextToken {
			b.WriteString(t.text)
		}
	}
	text := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(text) < minParagraphLength && !strings.Contains(text, "is") {
		return false
	}
	return true
}

// anchorCloses maps every index to the index of the next </a> at or after it
// (-1 when there is none). The extra slot at len(tokens) keeps lookups at i+1 safe.
func anchorCloses(tokens []token) []int {
	closeAt := make([]int, len(tokens)+1)
	closeAt[len(tokens)] = -1
	for j := len(tokens) - 1; j >= 0; j-- {
		if tokens[j].kind == html.EndTagToken && tokens[j].tag == "a" {
			closeAt[j] = j
		} else {
			closeAt[j] = closeAt[j+1]
		}
	}
	return closeAt
}

// parenDepth advances the parenthesis depth over text. It never drops below zero,
// so a stray ")" cannot hide a later parenthesized aside: in "a) b (c <a>" the link
// is inside parentheses and does not qualify, unlike a scan that lets the depth go
// negative and accepts any depth <= 0.
func parenDepth(depth int, text string) int {
	for _, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}

func isItalic(tag string) bool {
	return tag == "i" || tag == "em"
}

func hasItalic(tokens []token) bool {
	for _, t := range tokens {
		if (t.kind == html.StartTagToken || t.kind == html.SelfClosingTagToken) && isItalic(t.tag) {
			return true
		}
	}
	return false
}

// isArticlePath reports whether href points at a main-namespace article.
func isArticlePath(href string) bool {
	rest, ok := strings.CutPrefix(href, domain.ArticlePathPrefix)
	if !ok {
		return false
	}
	return !strings.Contains(rest, ":")
}

func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}
