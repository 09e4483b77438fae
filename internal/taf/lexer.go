package taf

import (
	"fmt"
	"strings"
	"unicode"
)

// token is one whitespace-delimited field of the message body, with its byte
// offset into the original message for error hints.
type token struct {
	text   string
	offset int
}

// syntaxError is the internal error type raised while matching the grammar.
// It is converted into a *ParseError at the Parse boundary and never escapes
// the package.
type syntaxError struct {
	detail string
	offset int // byte offset into the message, -1 if unknown
}

func (e *syntaxError) Error() string { return e.detail }

func errAt(tok token, format string, args ...any) *syntaxError {
	return &syntaxError{detail: fmt.Sprintf(format, args...), offset: tok.offset}
}

// lex splits the message into tokens up to the "=" terminator. Everything
// after the terminator is ignored, per the AFOS product convention.
func lex(message string) ([]token, *syntaxError) {
	end := strings.IndexByte(message, '=')
	if end < 0 {
		return nil, &syntaxError{detail: "missing '=' message terminator", offset: -1}
	}
	body := message[:end]

	var toks []token
	start := -1
	for i, r := range body {
		if unicode.IsSpace(r) {
			if start >= 0 {
				toks = append(toks, token{text: body[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, token{text: body[start:], offset: start})
	}
	if len(toks) == 0 {
		return nil, &syntaxError{detail: "empty message", offset: 0}
	}
	return toks, nil
}

// contextHint renders the line containing the given offset with a caret
// marking the failure position, in the manner of parser-generator error
// context output.
func contextHint(message string, offset int) string {
	if offset < 0 || offset > len(message) {
		return ""
	}
	lineStart := strings.LastIndexByte(message[:offset], '\n') + 1
	lineEnd := strings.IndexByte(message[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(message)
	} else {
		lineEnd += offset
	}
	line := strings.TrimRight(message[lineStart:lineEnd], "\r")
	col := offset - lineStart
	if col > len(line) {
		col = len(line)
	}
	return line + "\n" + strings.Repeat(" ", col) + "^"
}
