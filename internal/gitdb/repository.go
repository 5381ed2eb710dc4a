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

package gitdb

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/aawilson/git-larder/internal/common"
	"github.com/aawilson/git-larder/internal/util"
)

// Repository is the exec-based Backend implementation: every primitive is
// one or two invocations of the git binary against a local repository.
type Repository struct {
	dir string
}

var _ Backend = (*Repository)(nil)

// Open opens the git repository at dir. Fails if dir is not inside a git
// working tree.
func Open(dir string) (*Repository, error) {
	r := &Repository{dir: dir}
	if _, err := r.git("rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("not a git repository: %s: %w", dir, err)
	}
	return r, nil
}

// Dir returns the repository's working tree location.
func (r *Repository) Dir() string {
	return r.dir
}

// git runs one git command in the repository and returns its stdout with
// trailing newlines trimmed. Stderr is folded into the returned error.
func (r *Repository) git(args ...string) (string, error) {
	out, err := r.gitBytes(args...)
	return strings.TrimRight(string(out), "\n"), err
}

// gitBytes is git without output trimming, for blob content where the
// exact bytes matter.
func (r *Repository) gitBytes(args ...string) ([]byte, error) {
	log.Debugf("[GitDB] git %s", strings.Join(args, " "))
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("git %s: %s", args[0], msg)
	}
	return out, nil
}

// ResolveRef resolves a ref to a full commit id.
func (r *Repository) ResolveRef(ref string) (string, error) {
	out, err := r.git("rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil || out == "" {
		return "", fmt.Errorf("ref %q: %w", ref, common.ErrAbsent)
	}
	return out, nil
}

// CommitTimestamp returns the committer timestamp of a commit.
func (r *Repository) CommitTimestamp(commitID string) (int64, error) {
	out, err := r.git("show", "--no-patch", "--format=%ct", commitID)
	if err != nil {
		return 0, fmt.Errorf("commit %s: %w", commitID, common.ErrAbsent)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("commit %s: unparseable timestamp %q", commitID, out)
	}
	return ts, nil
}

// TreeEntry fetches the blob at path within a commit's snapshot.
func (r *Repository) TreeEntry(commitID, path string) (*TreeEntry, error) {
	path = common.NormalizeTreePath(path)
	out, err := r.git("ls-tree", commitID, "--", path)
	if err != nil || out == "" {
		return nil, fmt.Errorf("no entry at %s in %s: %w", path, commitID, common.ErrAbsent)
	}
	entry, ok := parseLsTreeLine(out)
	if !ok || entry.Type != "blob" {
		return nil, fmt.Errorf("no blob at %s in %s: %w", path, commitID, common.ErrAbsent)
	}
	data, err := r.gitBytes("cat-file", "blob", entry.SHA)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", entry.SHA, err)
	}
	return &TreeEntry{Data: data, Fingerprint: entry.SHA}, nil
}

// SubtreeExists reports whether path is a directory in a commit's snapshot.
func (r *Repository) SubtreeExists(commitID, path string) (bool, error) {
	path = common.NormalizeTreePath(path)
	out, err := r.git("ls-tree", "-d", commitID, "--", path)
	if err != nil {
		return false, err
	}
	if out == "" {
		return false, nil
	}
	entry, ok := parseLsTreeLine(out)
	return ok && entry.Type == "tree", nil
}

// ListTree lists the blob entries directly under a subtree in a commit's
// snapshot, returning (path, fingerprint) pairs in tree order.
func (r *Repository) ListTree(commitID, path string) ([]TreeEntryRef, error) {
	path = common.NormalizeTreePath(path)
	out, err := r.git("ls-tree", commitID+":"+path)
	if err != nil {
		return nil, fmt.Errorf("no subtree at %s in %s: %w", path, commitID, common.ErrAbsent)
	}
	var refs []TreeEntryRef
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		entry, ok := parseLsTreeLine(line)
		if !ok || entry.Type != "blob" {
			continue
		}
		refs = append(refs, TreeEntryRef{Path: path + "/" + entry.Name, Fingerprint: entry.SHA})
	}
	return refs, nil
}

// IterCommits lists commits reachable from startRef, newest first.
func (r *Repository) IterCommits(startRef string) ([]string, error) {
	out, err := r.git("rev-list", startRef)
	if err != nil {
		return nil, fmt.Errorf("rev-list %s: %w", startRef, err)
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// ChangeLog returns the rename-aware change log for a path as seen from
// ref, newest first.
//
// The underlying query is `git log <ref> --follow --name-status
// --pretty=%H`, whose text output interleaves commit hashes with
// tab-separated status lines; parseNameStatusLog deals with the chunking
// so callers see a structured sequence.
func (r *Repository) ChangeLog(ref, path string) ([]Change, error) {
	path = common.NormalizeTreePath(path)
	out, err := r.git("log", ref, "--follow", "--name-status", "--pretty=%H", "--", path)
	if err != nil {
		return nil, fmt.Errorf("log %s for %s: %w", ref, path, err)
	}
	return parseNameStatusLog(out), nil
}

// ObjectExists reports whether a blob with the given fingerprint exists in
// the object store.
func (r *Repository) ObjectExists(fingerprint string) (bool, error) {
	_, err := r.git("cat-file", "-e", fingerprint)
	if err != nil {
		// cat-file -e exits non-zero for missing objects; there is no
		// distinct failure mode to separate out here.
		return false, nil
	}
	return true, nil
}

// DiscardLocalChanges restores path (or, with an empty path, the whole
// working area) to the last committed state. Retries on transient
// index.lock contention with concurrent git processes.
func (r *Repository) DiscardLocalChanges(path string) error {
	ctx := context.Background()
	return util.Retry(ctx, func() error {
		var err error
		if path == "" {
			_, err = r.git("reset", "--hard", "HEAD")
		} else {
			_, err = r.git("checkout", "--force", "--", common.NormalizeTreePath(path))
		}
		return err
	}, util.GitRetryOptions(ctx)...)
}

// ReadObject fetches a blob's content by fingerprint.
func (r *Repository) ReadObject(fingerprint string) ([]byte, error) {
	data, err := r.gitBytes("cat-file", "blob", fingerprint)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", fingerprint, common.ErrAbsent)
	}
	return data, nil
}
