// Copyright 2016 Aaron Wilson and Habla, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import "errors"

var (
	// ErrNotFound is the base error for any lookup that has no resolvable
	// value: unknown record id, unknown version, missing model subtree.
	ErrNotFound = errors.New("not found")

	// ErrModelIgnored marks a model that exists but is administratively
	// disabled by the ignore control file. Kept distinct from ErrNotFound
	// so callers can branch (forbidden vs missing).
	ErrModelIgnored = errors.New("model is ignored")

	// ErrConfiguration marks caller mistakes: mutually exclusive query
	// modifiers, or querying a model handle with no datastore attached.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAbsent is returned by the backend when a tree entry, ref or
	// object does not exist at the requested commit. Distinct from a
	// backend failure.
	ErrAbsent = errors.New("absent")
)
