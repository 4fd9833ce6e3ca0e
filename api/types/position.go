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

package types

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when the end of a range precedes its start.
var ErrInvalidRange = errors.New("range end precedes start")

// Position is a location inside a document version. Line and Column are
// zero-based; Offset is the absolute rune offset from the start of the
// document and is the authoritative ordering key.
type Position struct {
	Line   int `bson:"line" json:"line"`
	Column int `bson:"column" json:"column"`
	Offset int `bson:"offset" json:"offset"`
}

// String returns a string representation of this Position.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d(%d)", p.Line, p.Column, p.Offset)
}

// Before returns whether this position precedes the given position.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// Range is a span of text between two positions. Ranges anchor suggestions,
// track changes, and inline comments to the document.
type Range struct {
	Start Position `bson:"start" json:"start"`
	End   Position `bson:"end" json:"end"`
}

// String returns a string representation of this Range.
func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]", r.Start, r.End)
}

// Validate returns an error if the range is inverted.
func (r Range) Validate() error {
	if r.End.Offset < r.Start.Offset {
		return fmt.Errorf("%s: %w", r, ErrInvalidRange)
	}

	return nil
}

// IsCollapsed returns whether the range covers no text.
func (r Range) IsCollapsed() bool {
	return r.Start.Offset == r.End.Offset
}

// Viewport is the visible line window of an editing session. It is advisory
// presence data and carries no correctness guarantees.
type Viewport struct {
	Top    int `bson:"top" json:"top"`
	Bottom int `bson:"bottom" json:"bottom"`
}
