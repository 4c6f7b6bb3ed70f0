package bulletin

import "regexp"

// TokenKind distinguishes structural anchors from data values.
type TokenKind int

const (
	TokenValue TokenKind = iota
	TokenAnchor
)

// Token is one match from a stream scan.
type Token struct {
	Kind TokenKind
	Text string
}

// Is reports whether the token is the named anchor.
func (t Token) Is(anchor string) bool {
	return t.Kind == TokenAnchor && t.Text == anchor
}

// Tokenize scans text with pattern and classifies each match. Matches equal to
// one of anchors become TokenAnchor.
func Tokenize(pattern *regexp.Regexp, text string, anchors ...string) []Token {
	matches := pattern.FindAllString(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		kind := TokenValue
		for _, a := range anchors {
			if m == a {
				kind = TokenAnchor
				break
			}
		}
		tokens = append(tokens, Token{Kind: kind, Text: m})
	}
	return tokens
}

type scanState int

const (
	stateSeekingAnchor scanState = iota
	stateCollecting
	stateDone
)

// PreferredAnchor returns the first of candidates present anywhere in tokens.
func PreferredAnchor(tokens []Token, candidates ...string) (string, bool) {
	for _, c := range candidates {
		for _, tok := range tokens {
			if tok.Is(c) {
				return c, true
			}
		}
	}
	return "", false
}

// Before collects every token up to the first occurrence of anchor. With no
// anchor the whole stream is returned.
func Before(tokens []Token, anchor string) []Token {
	out := make([]Token, 0, len(tokens))
	state := stateCollecting
	for _, tok := range tokens {
		if anchor != "" && tok.Is(anchor) {
			state = stateDone
		}
		if state == stateDone {
			break
		}
		out = append(out, tok)
	}
	return out
}

// After collects the n tokens immediately following the first occurrence of
// anchor. Anchors inside the window are kept; they are filtered on conversion.
// When the anchor is absent and fromStart is set, the first token stands in
// for the anchor.
func After(tokens []Token, anchor string, n int, fromStart bool) (window []Token, anchored bool) {
	window = make([]Token, 0, max(n, 0))
	state := stateSeekingAnchor
	if !contains(tokens, anchor) {
		if !fromStart || len(tokens) == 0 {
			return window, false
		}
		// the first token is consumed as the anchor
		state = stateCollecting
		tokens = tokens[1:]
	} else {
		anchored = true
	}

	for _, tok := range tokens {
		if len(window) >= n {
			state = stateDone
		}
		switch state {
		case stateSeekingAnchor:
			if tok.Is(anchor) {
				state = stateCollecting
			}
		case stateCollecting:
			window = append(window, tok)
		}
		if state == stateDone {
			break
		}
	}

	return window, anchored
}

func contains(tokens []Token, anchor string) bool {
	if anchor == "" {
		return false
	}
	for _, tok := range tokens {
		if tok.Is(anchor) {
			return true
		}
	}
	return false
}

// Texts returns the raw text of each token.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}
