package mentions

import (
	"regexp"
	"strconv"
	"strings"
)

var tokenPattern = regexp.MustCompile(`@[A-Za-z0-9_]+`)

// Token is an @username occurrence. Position is its ordinal among all tokens
// of the source text.
type Token struct {
	Username string
	Position int
}

// tokenSpans returns the byte ranges of the tokens in text. A token must start
// the text or follow ASCII whitespace; the pattern is greedy so no word
// character can follow it.
func tokenSpans(text string) [][]int {
	matches := tokenPattern.FindAllStringIndex(text, -1)
	spans := make([][]int, 0, len(matches))
	for _, m := range matches {
		if m[0] > 0 {
			if !isASCIISpace(text[m[0]-1]) {
				continue
			}
		}
		spans = append(spans, m)
	}
	return spans
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// markText appends the ordinal of every token to it, so "@bob" becomes
// "@bob_0". The ordinals survive rendering and identify the token afterwards.
func markText(text string) string {
	spans := tokenSpans(text)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 4*len(spans))
	last := 0
	for i, span := range spans {
		b.WriteString(text[last:span[1]])
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(i))
		last = span[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// markedTokens extracts marked tokens from a fragment of rendered text.
// Tokens without an ordinal suffix were not marked in the source and are
// ignored.
func markedTokens(text string) []Token {
	out := make([]Token, 0)
	for _, span := range tokenSpans(text) {
		raw := text[span[0]+1 : span[1]]
		cut := strings.LastIndexByte(raw, '_')
		if cut < 0 {
			continue
		}
		position, err := strconv.Atoi(raw[cut+1:])
		if err != nil {
			continue
		}
		out = append(out, Token{Username: raw[:cut], Position: position})
	}
	return out
}

// FindTokens returns the tokens of raw text in order, without rendering.
func FindTokens(text string) []Token {
	spans := tokenSpans(text)
	out := make([]Token, 0, len(spans))
	for i, span := range spans {
		out = append(out, Token{Username: text[span[0]+1 : span[1]], Position: i})
	}
	return out
}
