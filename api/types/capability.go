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

import "fmt"

// Capability is a per-document permission granted to a collaborator.
type Capability string

const (
	// CapabilityEdit allows direct edits to the document content.
	CapabilityEdit Capability = "edit"

	// CapabilitySuggest allows proposing suggestions and track changes.
	CapabilitySuggest Capability = "suggest"

	// CapabilityComment allows creating inline comments.
	CapabilityComment Capability = "comment"

	// CapabilityResolve allows accepting or rejecting suggestions, track
	// changes, and comment threads.
	CapabilityResolve Capability = "resolve"

	// CapabilityManage allows managing collaborators and document settings.
	CapabilityManage Capability = "manage"
)

// Capabilities lists every capability, in the order used for display.
var Capabilities = []Capability{
	CapabilityEdit,
	CapabilitySuggest,
	CapabilityComment,
	CapabilityResolve,
	CapabilityManage,
}

// ParseCapability converts the given string to a Capability.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities {
		if string(c) == s {
			return c, nil
		}
	}

	return "", fmt.Errorf("unknown capability %q", s)
}

// String returns a string representation of this Capability.
func (c Capability) String() string {
	return string(c)
}
