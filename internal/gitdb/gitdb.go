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

// Package gitdb adapts a git repository into the primitive surface the
// record store consumes: ref resolution, tree entry fetches, rename-aware
// change logs, and working-tree restores.
//
// The default implementation shells out to the git executable. The Backend
// interface allows alternative implementations (e.g. an in-memory fake for
// tests) without changing callers.
package gitdb

// Status classifies how a commit touched a path, following git's
// name-status letters.
type Status byte

const (
	StatusAdded    Status = 'A'
	StatusModified Status = 'M'
	StatusChanged  Status = 'C' // copied
	StatusRemoved  Status = 'D'
	StatusRenamed  Status = 'R'
	StatusOther    Status = '?' // type changes and anything unrecognized
)

// statusFromToken maps a raw name-status token ("A", "M", "R100", "C75")
// to a Status. Rename and copy tokens carry a similarity score suffix.
func statusFromToken(tok string) Status {
	if tok == "" {
		return StatusOther
	}
	switch tok[0] {
	case 'A', 'M', 'C', 'D', 'R':
		return Status(tok[0])
	default:
		return StatusOther
	}
}

// Change is one entry in a path's change log: a commit that touched the
// path, how it touched it, and the concrete path in effect at that commit.
// For renames and copies OldPath carries the pre-change name and Path the
// post-change name.
type Change struct {
	CommitID string
	Status   Status
	Path     string
	OldPath  string
}

// TreeEntry is the content stored at a path within one commit's snapshot,
// plus the backend-assigned fingerprint of those exact bytes.
type TreeEntry struct {
	Data        []byte
	Fingerprint string
}

// TreeEntryRef is a (path, fingerprint) pair from a tree listing, without
// the blob content.
type TreeEntryRef struct {
	Path        string
	Fingerprint string
}

// Backend is the narrow primitive surface the record store consumes.
type Backend interface {
	// ResolveRef resolves a ref (branch, tag, "HEAD", hash prefix) to a
	// full commit id. Returns common.ErrAbsent if the ref does not exist.
	ResolveRef(ref string) (string, error)

	// CommitTimestamp returns a commit's committer timestamp in seconds
	// since epoch.
	CommitTimestamp(commitID string) (int64, error)

	// TreeEntry fetches the blob at path within the given commit's tree.
	// Returns common.ErrAbsent if no entry exists at that path.
	TreeEntry(commitID, path string) (*TreeEntry, error)

	// SubtreeExists reports whether path names a subtree (directory) in
	// the given commit's snapshot.
	SubtreeExists(commitID, path string) (bool, error)

	// ListTree lists the blob entries directly under a subtree in the
	// given commit's snapshot, in tree order. Returns common.ErrAbsent
	// if the subtree does not exist in that commit.
	ListTree(commitID, path string) ([]TreeEntryRef, error)

	// IterCommits lists commit ids reachable from startRef in
	// reverse-chronological order.
	IterCommits(startRef string) ([]string, error)

	// ChangeLog returns the rename-aware change log for a path as seen
	// from ref, newest first: every commit reachable from ref that
	// touched the path, including the removal commit if the path was
	// deleted. Earlier entries in a renamed record's life report the
	// name the path had at that commit.
	ChangeLog(ref, path string) ([]Change, error)

	// ObjectExists reports whether a blob with the given fingerprint is
	// present in the object store.
	ObjectExists(fingerprint string) (bool, error)

	// ReadObject fetches a blob's content directly from the object store
	// by fingerprint. Returns common.ErrAbsent for unknown fingerprints.
	ReadObject(fingerprint string) ([]byte, error)

	// DiscardLocalChanges restores the working copy at path to its last
	// committed state. An empty path discards all uncommitted state
	// across the whole working area.
	DiscardLocalChanges(path string) error
}
