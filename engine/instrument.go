// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package engine

import "strings"

// gasStepCall is injected as the first statement of every instrumented
// loop body. It contains no newline, so every line after it in the
// rewritten source stays on the same line number as in the original —
// only column offsets on an instrumented line shift.
const gasStepCall = "__gasStep();"

// instrumentLoops rewrites source so that every for/while/do-while loop
// body calls the __gasStep global (installed by installGasStepHook) as
// its first statement. countTopLevelStatements charges a static lump
// for the program's top-level shape once per eval; that lump does
// nothing to bound a loop whose body never makes a host call, so this
// pass adds the per-entry charge that actually makes an unbounded loop
// gas-bounded.
//
// This is a lightweight text-level scan, not a full parser. It tracks
// string/template-literal/comment boundaries well enough to avoid
// matching "for"/"while"/"do" inside them, as part of a longer
// identifier (forEach, doSomething, ...), or as a property access
// (obj.for), and to find the matching paren/brace that closes a loop
// header or body. Two narrow gaps are accepted: regex literals are not
// specially tokenized (harmless, since RegExp is already a removed
// global in this determinism profile), and "for await" loops are left
// uninstrumented (this shell removes Promise and never schedules async
// work, so the construct is vestigial here).
func instrumentLoops(source string) string {
	return instrumentString(source)
}

func instrumentString(s string) string {
	var out strings.Builder
	i, n := 0, len(s)
	var lastSig byte
	for i < n {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			j := skipQuoted(s, i)
			out.WriteString(s[i:j])
			lastSig = s[j-1]
			i = j
		case c == '`':
			j := skipTemplate(s, i)
			out.WriteString(s[i:j])
			lastSig = s[j-1]
			i = j
		case c == '/' && i+1 < n && s[i+1] == '/':
			j := skipLineComment(s, i)
			out.WriteString(s[i:j])
			i = j
		case c == '/' && i+1 < n && s[i+1] == '*':
			j := skipBlockComment(s, i)
			out.WriteString(s[i:j])
			i = j
		case isIdentStart(c):
			word, j := readWord(s, i)
			if (word == "for" || word == "while") && lastSig != '.' {
				if rewritten, next, ok := tryLoop(s, i, j); ok {
					out.WriteString(rewritten)
					lastSig = '}'
					i = next
					continue
				}
			}
			if word == "do" && lastSig != '.' {
				if rewritten, next, ok := tryDo(s, i, j); ok {
					out.WriteString(rewritten)
					lastSig = ')'
					i = next
					continue
				}
			}
			out.WriteString(word)
			lastSig = word[len(word)-1]
			i = j
		default:
			out.WriteByte(c)
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\v' && c != '\f' {
				lastSig = c
			}
			i++
		}
	}
	return out.String()
}

// tryLoop handles a "for" or "while" keyword spanning s[keywordStart:
// keywordEnd]. It returns the rewritten construct and the index just
// past its body, or ok=false if what follows does not look like a loop
// header (e.g. a property named "for", or "for await").
func tryLoop(s string, keywordStart, keywordEnd int) (string, int, bool) {
	k := skipWS(s, keywordEnd)
	if k >= len(s) || s[k] != '(' {
		return "", 0, false
	}
	closeParen, ok := findMatchingParen(s, k)
	if !ok {
		return "", 0, false
	}
	cond := instrumentString(s[k+1 : closeParen])
	bodyStart := skipWS(s, closeParen+1)
	gap := s[closeParen+1 : bodyStart]
	inner, bodyEnd, ok := extractBody(s, bodyStart)
	if !ok {
		return "", 0, false
	}
	keyword := s[keywordStart:keywordEnd]
	return keyword + "(" + cond + ")" + gap + wrapBody(inner), bodyEnd, true
}

// tryDo handles a "do" keyword spanning s[keywordStart:keywordEnd],
// requiring the matching "while (...)" that completes it.
func tryDo(s string, keywordStart, keywordEnd int) (string, int, bool) {
	bodyStart := skipWS(s, keywordEnd)
	gapBefore := s[keywordEnd:bodyStart]
	inner, bodyEnd, ok := extractBody(s, bodyStart)
	if !ok {
		return "", 0, false
	}
	k := skipWS(s, bodyEnd)
	gapAfterBody := s[bodyEnd:k]
	word, wend := readWord(s, k)
	if word != "while" {
		return "", 0, false
	}
	k2 := skipWS(s, wend)
	gapBeforeParen := s[wend:k2]
	if k2 >= len(s) || s[k2] != '(' {
		return "", 0, false
	}
	closeParen, ok := findMatchingParen(s, k2)
	if !ok {
		return "", 0, false
	}
	cond := instrumentString(s[k2+1 : closeParen])
	end := closeParen + 1
	trailing := ""
	if p := skipWS(s, end); p < len(s) && s[p] == ';' {
		trailing = s[end : p+1]
		end = p + 1
	}
	keyword := s[keywordStart:keywordEnd]
	return keyword + gapBefore + wrapBody(inner) + gapAfterBody + "while" + gapBeforeParen + "(" + cond + ")" + trailing, end, true
}

// extractBody returns the content of the loop body starting at s[start]
// (without its enclosing braces, if any) and the index just past the
// whole body. A body that is not already a block is a single statement,
// found via skipStatement; wrapBody adds synthetic braces either way.
func extractBody(s string, start int) (inner string, next int, ok bool) {
	if start >= len(s) {
		return "", 0, false
	}
	if s[start] == '{' {
		end, ok := findMatchingBrace(s, start)
		if !ok {
			return "", 0, false
		}
		return s[start+1 : end], end + 1, true
	}
	end, ok := skipStatement(s, start)
	if !ok {
		return "", 0, false
	}
	return s[start:end], end, true
}

// wrapBody recursively instruments a loop body's content (for nested
// loops) and wraps it in braces with the step charge as the first
// statement.
func wrapBody(inner string) string {
	return "{" + gasStepCall + instrumentString(inner) + "}"
}

// skipStatement returns the index just past the single statement
// beginning at s[start]. if/else and nested for/while/do are descended
// into so the whole compound statement counts as one body; anything
// else is scanned as a simple statement up to its closing top-level ';'
// (scanSimpleStatement also stops at a top-level '}' or end of input,
// approximating automatic semicolon insertion).
func skipStatement(s string, start int) (int, bool) {
	i := skipWS(s, start)
	if i >= len(s) {
		return 0, false
	}
	if s[i] == '{' {
		end, ok := findMatchingBrace(s, i)
		if !ok {
			return 0, false
		}
		return end + 1, true
	}
	if s[i] == ';' {
		return i + 1, true
	}
	word, wend := readWord(s, i)
	switch word {
	case "if":
		return skipIfStatement(s, i)
	case "for", "while":
		k := skipWS(s, wend)
		if k >= len(s) || s[k] != '(' {
			return scanSimpleStatement(s, i)
		}
		closeParen, ok := findMatchingParen(s, k)
		if !ok {
			return 0, false
		}
		bodyStart := skipWS(s, closeParen+1)
		return skipStatement(s, bodyStart)
	case "do":
		bodyStart := skipWS(s, wend)
		bodyEnd, ok := skipStatement(s, bodyStart)
		if !ok {
			return 0, false
		}
		k := skipWS(s, bodyEnd)
		ww, wwend := readWord(s, k)
		if ww != "while" {
			return 0, false
		}
		k2 := skipWS(s, wwend)
		if k2 >= len(s) || s[k2] != '(' {
			return 0, false
		}
		closeParen, ok := findMatchingParen(s, k2)
		if !ok {
			return 0, false
		}
		end := closeParen + 1
		if p := skipWS(s, end); p < len(s) && s[p] == ';' {
			end = p + 1
		}
		return end, true
	default:
		return scanSimpleStatement(s, i)
	}
}

func skipIfStatement(s string, i int) (int, bool) {
	_, wend := readWord(s, i) // "if"
	k := skipWS(s, wend)
	if k >= len(s) || s[k] != '(' {
		return 0, false
	}
	closeParen, ok := findMatchingParen(s, k)
	if !ok {
		return 0, false
	}
	thenStart := skipWS(s, closeParen+1)
	thenEnd, ok := skipStatement(s, thenStart)
	if !ok {
		return 0, false
	}
	k2 := skipWS(s, thenEnd)
	word, wend2 := readWord(s, k2)
	if word == "else" {
		elseStart := skipWS(s, wend2)
		return skipStatement(s, elseStart)
	}
	return thenEnd, true
}

// scanSimpleStatement scans an expression/declaration/return/break/
// continue/throw statement (anything not handled explicitly by
// skipStatement) up to its closing top-level ';'. Nested parens,
// brackets, and braces (object/array literals, function expressions)
// are depth-tracked so an embedded ';' inside, say, a for-loop header
// does not end the outer statement early. A top-level '}' or end of
// input also ends the scan, without being consumed, matching automatic
// semicolon insertion at a block boundary.
func scanSimpleStatement(s string, start int) (int, bool) {
	i, n := start, len(s)
	depth := 0
	for i < n {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			i = skipQuoted(s, i)
		case c == '`':
			i = skipTemplate(s, i)
		case c == '/' && i+1 < n && s[i+1] == '/':
			i = skipLineComment(s, i)
		case c == '/' && i+1 < n && s[i+1] == '*':
			i = skipBlockComment(s, i)
		case c == '(' || c == '[' || c == '{':
			depth++
			i++
		case c == ')' || c == ']':
			depth--
			i++
		case c == '}':
			if depth == 0 {
				return i, true
			}
			depth--
			i++
		case c == ';':
			if depth == 0 {
				return i + 1, true
			}
			i++
		default:
			i++
		}
	}
	return i, true
}

func readWord(s string, i int) (string, int) {
	if i >= len(s) || !isIdentStart(s[i]) {
		return "", i
	}
	j := i
	for j < len(s) && isIdentChar(s[j]) {
		j++
	}
	return s[i:j], j
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// skipWS advances past whitespace and comments, treating both as
// trivia between tokens.
func skipWS(s string, i int) int {
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			i++
		case c == '/' && i+1 < n && s[i+1] == '/':
			i = skipLineComment(s, i)
		case c == '/' && i+1 < n && s[i+1] == '*':
			i = skipBlockComment(s, i)
		default:
			return i
		}
	}
	return i
}

func skipLineComment(s string, i int) int {
	n := len(s)
	for i < n && s[i] != '\n' {
		i++
	}
	if i < n {
		i++
	}
	return i
}

func skipBlockComment(s string, i int) int {
	n := len(s)
	i += 2
	for i < n {
		if s[i] == '*' && i+1 < n && s[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return n
}

func skipQuoted(s string, i int) int {
	quote := s[i]
	n := len(s)
	i++
	for i < n {
		if s[i] == '\\' {
			i += 2
			continue
		}
		if s[i] == quote {
			return i + 1
		}
		i++
	}
	return n
}

// skipTemplate skips a backtick template literal, descending into
// ${...} substitutions (which may themselves contain nested templates,
// strings, or braces) via findMatchingBrace.
func skipTemplate(s string, i int) int {
	n := len(s)
	i++
	for i < n {
		c := s[i]
		switch {
		case c == '\\':
			i += 2
		case c == '`':
			return i + 1
		case c == '$' && i+1 < n && s[i+1] == '{':
			end, ok := findMatchingBrace(s, i+1)
			if !ok {
				return n
			}
			i = end + 1
		default:
			i++
		}
	}
	return n
}

// findMatchingBrace returns the index of the '}' that closes the '{' at
// s[open], skipping over nested strings/templates/comments/braces.
func findMatchingBrace(s string, open int) (int, bool) {
	n := len(s)
	depth := 0
	i := open
	for i < n {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			i = skipQuoted(s, i)
		case c == '`':
			i = skipTemplate(s, i)
		case c == '/' && i+1 < n && s[i+1] == '/':
			i = skipLineComment(s, i)
		case c == '/' && i+1 < n && s[i+1] == '*':
			i = skipBlockComment(s, i)
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
			i++
		default:
			i++
		}
	}
	return 0, false
}

// findMatchingParen returns the index of the ')' that closes the '(' at
// s[open], skipping over nested strings/templates/comments/parens.
func findMatchingParen(s string, open int) (int, bool) {
	n := len(s)
	depth := 0
	i := open
	for i < n {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			i = skipQuoted(s, i)
		case c == '`':
			i = skipTemplate(s, i)
		case c == '/' && i+1 < n && s[i+1] == '/':
			i = skipLineComment(s, i)
		case c == '/' && i+1 < n && s[i+1] == '*':
			i = skipBlockComment(s, i)
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			if depth == 0 {
				return i, true
			}
			i++
		default:
			i++
		}
	}
	return 0, false
}
