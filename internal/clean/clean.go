// Package clean turns raw issue bodies into plain text the extractors can
// work with.
//
// Cleaning is a fixed staged pass: markup stripping, noise removal, then a
// final normalization. Every stage is a pure function — same input, same
// output, no side effects — and Normalize is idempotent on its own output.
package clean

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	// Fenced code blocks and inline code spans. Minified logs and config
	// dumps inside fences are noise for field extraction.
	fencedCodeRE = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRE = regexp.MustCompile("`[^`]*`")

	// Tracker-specific URLs and SSH-style remotes for the hosting domains
	// the collectors cover.
	trackerURLRE = regexp.MustCompile(`https?://(github\.com|gitee\.com|gitlab\.com|gitlab\.io)/[^\s]+`)
	sshRemoteRE  = regexp.MustCompile(`git@(github\.com|gitee\.com|gitlab\.com):[^\s]+`)

	// User mentions plus GitLab label (~bug) and milestone (&v2) tokens.
	mentionRE   = regexp.MustCompile(`@[a-zA-Z0-9_-]+`)
	labelRE     = regexp.MustCompile(`~[a-zA-Z0-9_\-:]+`)
	milestoneRE = regexp.MustCompile(`&[a-zA-Z0-9_\-]+`)

	emojiRE = regexp.MustCompile(`[\x{1F1E6}-\x{1F1FF}\x{1F300}-\x{1F5FF}\x{1F600}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{1F900}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{2500}-\x{25FF}\x{2300}-\x{23FF}\x{FE0F}\x{200D}\x{3030}\x{2640}-\x{2642}]+`)

	// Non-printable control characters, keeping \t and \n.
	controlRE = regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F]`)

	blankLinesRE = regexp.MustCompile(`\n{3,}`)
	hspaceRE     = regexp.MustCompile(`[ \t]{2,}`)
	lineEdgeRE   = regexp.MustCompile(` *\n *`)

	cjkPunctRE      = regexp.MustCompile(`([，。！？；：]){2,}`)
	terminalPunctRE = regexp.MustCompile(`([.,!?;:，。！？；：]){2,}`)

	leadingJunkRE  = regexp.MustCompile(`^[^\p{L}\p{N}_\s]+`)
	trailingJunkRE = regexp.MustCompile(`[^\p{L}\p{N}_\s]+$`)
)

// maxLineLen drops lines longer than this as noise (minified logs, base64
// blobs, single-line stack dumps from CI bots).
const maxLineLen = 500

// All runs the full cleaning pass in stage order.
func All(text string) string {
	return Normalize(RemoveNoise(StripMarkup(text)))
}

// StripMarkup renders HTML to inline text with paragraph breaks preserved
// as newlines, then removes fenced code blocks and inline code spans.
func StripMarkup(text string) string {
	if text == "" {
		return ""
	}
	text = htmlToText(text)
	text = fencedCodeRE.ReplaceAllString(text, "")
	text = inlineCodeRE.ReplaceAllString(text, "")
	text = blankLinesRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// RemoveNoise strips tracker URLs, SSH remotes, mentions, label tokens,
// emoji, and control characters; drops over-long lines; and runs the
// unicode decompose/recompose passes.
func RemoveNoise(text string) string {
	if text == "" {
		return ""
	}
	text = trackerURLRE.ReplaceAllString(text, "")
	text = sshRemoteRE.ReplaceAllString(text, "")
	text = mentionRE.ReplaceAllString(text, "")
	text = labelRE.ReplaceAllString(text, "")
	text = milestoneRE.ReplaceAllString(text, "")
	text = emojiRE.ReplaceAllString(text, "")

	text = norm.NFKD.String(text)
	text = controlRE.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if len(strings.TrimSpace(line)) <= maxLineLen {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, "\n")

	text = blankLinesRE.ReplaceAllString(text, "\n\n")
	text = hspaceRE.ReplaceAllString(text, " ")

	// Recompose (full-width → half-width among other folds) and collapse
	// runs of CJK punctuation.
	text = norm.NFKC.String(text)
	text = cjkPunctRE.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// Normalize is the final pass: lowercase, collapse repeated terminal
// punctuation, trim non-word characters from the edges, and collapse
// whitespace. Paragraph breaks survive so the rule extractor can still
// split on blank lines. Running Normalize on its own output is a no-op.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = terminalPunctRE.ReplaceAllString(text, "$1")
	text = leadingJunkRE.ReplaceAllString(text, "")
	text = trailingJunkRE.ReplaceAllString(text, "")
	text = hspaceRE.ReplaceAllString(text, " ")
	text = lineEdgeRE.ReplaceAllString(text, "\n")
	text = blankLinesRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// htmlToText walks the parsed HTML tree collecting text nodes, inserting
// newlines at block boundaries. Plain text without tags passes through
// unchanged apart from entity decoding.
func htmlToText(text string) string {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return text
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "br", "p", "div", "li", "tr", "blockquote",
				"h1", "h2", "h3", "h4", "h5", "h6":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}
