// Package spam screens completed applications before they reach the moderators.
package spam

import (
	"applybot/bot/models"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minAnswerLength = 10
	maxRepeatedRun  = 6
	maxSymbolRun    = 10
)

// Error carries the user-facing reason a submission was rejected.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "submission rejected: " + e.Reason }

var (
	ErrTooShort  = &Error{Reason: "Answers too short"}
	ErrIdentical = &Error{Reason: "All answers identical"}
	ErrPattern   = &Error{Reason: "Spam detected"}
)

// Check inspects the text answers of a candidate submission. Image answers are not counted, so a
// submission without any text answer is rejected as too short.
func Check(answers []models.Answer) error {
	var texts []string
	for _, a := range answers {
		if a.Kind == models.AnswerText {
			texts = append(texts, strings.ToLower(a.Answer))
		}
	}

	short := 0
	for _, t := range texts {
		if utf8.RuneCountInString(t) < minAnswerLength {
			short++
		}
	}
	if 2*short >= len(texts) {
		return ErrTooShort
	}

	if len(texts) > 1 && allEqual(texts) {
		return ErrIdentical
	}

	for _, t := range texts {
		if longestRepeat(t) >= maxRepeatedRun || longestSymbolRun(t) >= maxSymbolRun {
			return ErrPattern
		}
	}

	return nil
}

func allEqual(texts []string) bool {
	for _, t := range texts[1:] {
		if t != texts[0] {
			return false
		}
	}
	return true
}

// longestRepeat is the longest run of one character repeated back to back. Line breaks reset it.
func longestRepeat(s string) int {
	longest, run := 0, 0
	var prev rune = -1
	for _, r := range s {
		if r == '\n' {
			run, prev = 0, -1
			continue
		}
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// longestSymbolRun counts consecutive characters that are neither word characters nor whitespace.
func longestSymbolRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if isWord(r) || unicode.IsSpace(r) {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
