/*
 * Copyright 2025 The Redline Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package markup renders the lightweight inline markup used in comment
// bodies. Supported constructs: bold (**x**), italic (*x*), inline code
// (`x`), and @mentions. Anything else is treated as plain text. Unclosed
// markers render literally, never as an error.
package markup

import (
	"html"
	"strings"
	"unicode"
)

// Render converts the given content to its rendered HTML form. Text is
// HTML-escaped; code spans suppress markup interpretation of their body.
func Render(content string) string {
	var b strings.Builder
	runes := []rune(content)

	for i := 0; i < len(runes); {
		switch {
		case runes[i] == '`':
			if end := findRune(runes, i+1, '`'); end != -1 {
				b.WriteString("<code>")
				b.WriteString(html.EscapeString(string(runes[i+1 : end])))
				b.WriteString("</code>")
				i = end + 1
				continue
			}
			b.WriteString(html.EscapeString(string(runes[i])))
			i++
		case hasPrefixAt(runes, i, "**"):
			if end := findSeq(runes, i+2, "**"); end != -1 && end > i+2 {
				b.WriteString("<strong>")
				b.WriteString(html.EscapeString(string(runes[i+2 : end])))
				b.WriteString("</strong>")
				i = end + 2
				continue
			}
			b.WriteString("**")
			i += 2
		case runes[i] == '*':
			if end := findRune(runes, i+1, '*'); end != -1 && end > i+1 {
				b.WriteString("<em>")
				b.WriteString(html.EscapeString(string(runes[i+1 : end])))
				b.WriteString("</em>")
				i = end + 1
				continue
			}
			b.WriteString("*")
			i++
		case runes[i] == '@' && i+1 < len(runes) && isMentionRune(runes[i+1]):
			end := i + 1
			for end < len(runes) && isMentionRune(runes[end]) {
				end++
			}
			name := string(runes[i+1 : end])
			b.WriteString(`<span class="mention" data-user="`)
			b.WriteString(html.EscapeString(name))
			b.WriteString(`">@`)
			b.WriteString(html.EscapeString(name))
			b.WriteString(`</span>`)
			i = end
		default:
			b.WriteString(html.EscapeString(string(runes[i])))
			i++
		}
	}

	return b.String()
}

// Mentions extracts the mentioned user names from the given content, in
// order of first appearance. Mentions inside code spans are ignored.
func Mentions(content string) []string {
	var names []string
	seen := make(map[string]bool)
	runes := []rune(content)

	for i := 0; i < len(runes); {
		if runes[i] == '`' {
			if end := findRune(runes, i+1, '`'); end != -1 {
				i = end + 1
				continue
			}
		}

		if runes[i] == '@' && i+1 < len(runes) && isMentionRune(runes[i+1]) {
			end := i + 1
			for end < len(runes) && isMentionRune(runes[end]) {
				end++
			}
			name := string(runes[i+1 : end])
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i = end
			continue
		}

		i++
	}

	return names
}

func findRune(runes []rune, from int, r rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

func findSeq(runes []rune, from int, seq string) int {
	for i := from; i <= len(runes)-len(seq); i++ {
		if hasPrefixAt(runes, i, seq) {
			return i
		}
	}
	return -1
}

func hasPrefixAt(runes []rune, at int, prefix string) bool {
	p := []rune(prefix)
	if at+len(p) > len(runes) {
		return false
	}
	for i, r := range p {
		if runes[at+i] != r {
			return false
		}
	}
	return true
}

func isMentionRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}
