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
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/aawilson/git-larder/internal/common"
	"github.com/aawilson/git-larder/internal/gitdb"
	"github.com/aawilson/git-larder/internal/record"
)

// pathState is one point in a logical record's lifetime: a commit that
// touched the record and the concrete tree path the record occupied at
// that commit (which differs from the logical path before a rename).
type pathState struct {
	CommitID string
	Path     string
}

// walkHistory reconstructs a logical path's lifetime from the backend's
// rename-aware change log, newest first, scoped to the factory's ref so
// a pinned factory never sees commits beyond it. Removal commits are
// excluded: a state is a commit at which the record existed. For rename
// and copy entries the post-change name is the concrete path at that
// commit; the log itself reports pre-rename commits under the name in
// effect back then, so every state carries the path to use when
// inspecting its commit.
func (f *Factory) walkHistory(path string) ([]pathState, error) {
	changes, err := f.backend.ChangeLog(f.ref, path)
	if err != nil {
		return nil, err
	}

	var states []pathState
	for _, c := range changes {
		switch c.Status {
		case gitdb.StatusAdded, gitdb.StatusModified, gitdb.StatusChanged, gitdb.StatusRenamed:
			states = append(states, pathState{CommitID: c.CommitID, Path: c.Path})
		}
	}
	log.Debugf("[Walker] walkHistory: %s has %d states across %d log entries", path, len(states), len(changes))
	return states, nil
}

// findVersionInHistory scans a path's lifetime for the commit at which the
// path held exactly the given fingerprint, and decodes that snapshot.
//
// This is a linear scan over the full history, one tree lookup per state.
// Known scalability limit for long histories; kept deliberately simple
// rather than indexed.
func (f *Factory) findVersionInHistory(path, version string) (*record.Record, error) {
	states, err := f.walkHistory(path)
	if err != nil {
		return nil, err
	}

	for _, st := range states {
		entry, err := f.backend.TreeEntry(st.CommitID, st.Path)
		if err != nil {
			if errors.Is(err, common.ErrAbsent) {
				continue
			}
			return nil, err
		}
		if entry.Fingerprint != version {
			continue
		}
		ts, err := f.backend.CommitTimestamp(st.CommitID)
		if err != nil {
			return nil, err
		}
		rec, err := record.Decode(entry.Data, entry.Fingerprint, ts, st.Path)
		if err != nil {
			return nil, &NotFoundError{Msg: fmt.Sprintf("version %s is invalid JSON: %v", version, err)}
		}
		return rec, nil
	}
	return nil, &NotFoundError{Msg: fmt.Sprintf("version did not exist in history: %s", version)}
}

// lastStateBeforeDeletion locates the newest removal of the path in its
// change log and returns the state immediately preceding it: the last
// commit at which the record still existed. Returns nil if the path was
// never deleted.
func (f *Factory) lastStateBeforeDeletion(path string) (*pathState, error) {
	changes, err := f.backend.ChangeLog(f.ref, path)
	if err != nil {
		return nil, err
	}

	removedAt := -1
	for i, c := range changes {
		if c.Status == gitdb.StatusRemoved {
			removedAt = i
			break
		}
	}
	if removedAt < 0 {
		return nil, nil
	}

	// Entries after the removal are older; the first one at which the
	// record existed is the pre-deletion state.
	for _, c := range changes[removedAt+1:] {
		switch c.Status {
		case gitdb.StatusAdded, gitdb.StatusModified, gitdb.StatusChanged, gitdb.StatusRenamed:
			return &pathState{CommitID: c.CommitID, Path: c.Path}, nil
		}
	}
	return nil, nil
}
