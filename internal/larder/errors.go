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

package larder

import (
	"errors"

	"github.com/aawilson/git-larder/internal/common"
	"github.com/aawilson/git-larder/internal/record"
)

// NotFoundError reports that a lookup had no resolvable value. When the
// record once existed and was later deleted, LastKnown carries its value
// at the commit just before removal (the epitaph); it is nil when the
// record never existed or its pre-deletion content was malformed.
//
// Matches common.ErrNotFound under errors.Is.
type NotFoundError struct {
	Msg       string
	LastKnown *record.Record
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

func (e *NotFoundError) Unwrap() error {
	return common.ErrNotFound
}

// LastKnownValue extracts the epitaph payload from an error, if err is a
// NotFoundError carrying one.
func LastKnownValue(err error) (*record.Record, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.LastKnown != nil {
		return nf.LastKnown, true
	}
	return nil, false
}
