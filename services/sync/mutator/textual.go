// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutator

import (
	"context"
	"fmt"
	"regexp"
)

// Textual is the deterministic regex-based mutation strategy.
//
// # Description
//
// Declarations are located by a name-anchored pattern covering the common
// top-level forms (function/class/func/type and const/let/var bindings).
// Block extents are computed by brace counting from the declaration
// start. The strategy is intentionally syntax-naive; it exists so the
// batch makes forward progress when structural analysis is unavailable
// or fails.
//
// # Thread Safety
//
// Safe for concurrent use; all state is per call.
type Textual struct{}

// NewTextual creates the regex-backed strategy.
func NewTextual() *Textual {
	return &Textual{}
}

// declPattern matches the start of a top-level declaration of name.
func declPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(
		`(?m)^[ \t]*(?:export[ \t]+)?(?:default[ \t]+)?(?:async[ \t]+)?` +
			`(?:function\*?[ \t]+|class[ \t]+|func[ \t]+(?:\([^)]*\)[ \t]+)?|type[ \t]+|(?:const|let|var)[ \t]+)` +
			regexp.QuoteMeta(name) + `\b`)
}

// wordPattern matches name as an exact word.
func wordPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// locate returns the [start, end) byte range of the named declaration's
// full text, including its brace-balanced body.
func locate(content []byte, name string) (int, int, bool) {
	loc := declPattern(name).FindIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	start := loc[0]

	// Find the block opener on the declaration's first lines.
	depth := 0
	opened := false
	for i := loc[1]; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
			opened = true
		case '}':
			depth--
			if opened && depth == 0 {
				end := i + 1
				// Statement terminator for const X = () => { ... };
				if end < len(content) && content[end] == ';' {
					end++
				}
				return start, end, true
			}
		case '\n':
			if !opened {
				// Braceless declaration: ends at first statement
				// terminator or this line break.
				return start, i, true
			}
		case ';':
			if !opened {
				return start, i + 1, true
			}
		}
	}

	if !opened {
		return start, len(content), true
	}
	// Unbalanced braces; refuse rather than guess.
	return 0, 0, false
}

// trimRange widens [start, end) to swallow one trailing newline and any
// blank line left immediately before the removed block.
func trimRange(content []byte, start, end int) (int, int) {
	if end < len(content) && content[end] == '\n' {
		end++
	}
	for start >= 2 && content[start-1] == '\n' && content[start-2] == '\n' {
		start--
	}
	return start, end
}

// Exists implements Strategy.
func (t *Textual) Exists(ctx context.Context, ext string, content []byte, name string, kind ElementKind) bool {
	return declPattern(name).Match(content)
}

// Remove implements Strategy.
func (t *Textual) Remove(ctx context.Context, ext string, content []byte, name string, kind ElementKind) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	start, end, ok := locate(content, name)
	if !ok {
		return nil, false, nil
	}
	start, end = trimRange(content, start, end)

	out := make([]byte, 0, len(content)-(end-start))
	out = append(out, content[:start]...)
	out = append(out, content[end:]...)
	return out, true, nil
}

// Rename implements Strategy.
//
// Whole-word substitution across the file, so same-file references keep
// compiling after the declaration is renamed.
func (t *Textual) Rename(ctx context.Context, ext string, content []byte, oldName, newName string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	pattern := wordPattern(oldName)
	if !pattern.Match(content) {
		return nil, false, nil
	}
	return pattern.ReplaceAll(content, []byte(newName)), true, nil
}

// Extract implements Strategy.
func (t *Textual) Extract(ctx context.Context, ext string, content []byte, name string, kind ElementKind) (string, error) {
	start, end, ok := locate(content, name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, name)
	}
	return string(content[start:end]), nil
}
