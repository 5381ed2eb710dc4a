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
	"fmt"
	"sort"
	"strings"

	"github.com/aawilson/git-larder/internal/common"
	"github.com/aawilson/git-larder/internal/gitdb"
)

// fakeCommit is one snapshot in the fake backend: a commit id, a
// timestamp, and a flat tree mapping paths to blob fingerprints.
type fakeCommit struct {
	id   string
	ts   int64
	tree map[string]string
}

// fakeBackend is an in-memory gitdb.Backend for walker/factory tests.
// Commits are held newest first, mirroring the real backend's ordering.
// Change logs are declared per (ref, path) by the test, consistent with
// the commits, the way git's rename-aware log would report them.
type fakeBackend struct {
	commits    []fakeCommit
	objects    map[string][]byte
	refs       map[string]string
	changeLogs map[string][]gitdb.Change
	discards   []string
}

var _ gitdb.Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		objects:    make(map[string][]byte),
		refs:       make(map[string]string),
		changeLogs: make(map[string][]gitdb.Change),
	}
}

// addCommit prepends a commit (it becomes the new head).
func (b *fakeBackend) addCommit(id string, ts int64, tree map[string]string) {
	b.commits = append([]fakeCommit{{id: id, ts: ts, tree: tree}}, b.commits...)
}

func (b *fakeBackend) addObject(fingerprint string, data string) {
	b.objects[fingerprint] = []byte(data)
}

// setChangeLog declares the change log HEAD sees for a path.
func (b *fakeBackend) setChangeLog(path string, changes ...gitdb.Change) {
	b.setChangeLogAt("HEAD", path, changes...)
}

// setChangeLogAt declares the change log a specific ref sees for a path.
func (b *fakeBackend) setChangeLogAt(ref, path string, changes ...gitdb.Change) {
	b.changeLogs[ref+"\x00"+path] = changes
}

// setRef names a commit, the way a branch or tag would.
func (b *fakeBackend) setRef(name, commitID string) {
	b.refs[name] = commitID
}

func (b *fakeBackend) commit(id string) (*fakeCommit, error) {
	for i := range b.commits {
		if b.commits[i].id == id {
			return &b.commits[i], nil
		}
	}
	return nil, fmt.Errorf("commit %s: %w", id, common.ErrAbsent)
}

func (b *fakeBackend) ResolveRef(ref string) (string, error) {
	if ref == "HEAD" && len(b.commits) > 0 {
		return b.commits[0].id, nil
	}
	if id, ok := b.refs[ref]; ok {
		return id, nil
	}
	if c, err := b.commit(ref); err == nil {
		return c.id, nil
	}
	return "", fmt.Errorf("ref %q: %w", ref, common.ErrAbsent)
}

func (b *fakeBackend) CommitTimestamp(commitID string) (int64, error) {
	c, err := b.commit(commitID)
	if err != nil {
		return 0, err
	}
	return c.ts, nil
}

func (b *fakeBackend) TreeEntry(commitID, path string) (*gitdb.TreeEntry, error) {
	c, err := b.commit(commitID)
	if err != nil {
		return nil, err
	}
	fp, ok := c.tree[path]
	if !ok {
		return nil, fmt.Errorf("no entry at %s in %s: %w", path, commitID, common.ErrAbsent)
	}
	data, ok := b.objects[fp]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", fp, common.ErrAbsent)
	}
	return &gitdb.TreeEntry{Data: data, Fingerprint: fp}, nil
}

func (b *fakeBackend) SubtreeExists(commitID, path string) (bool, error) {
	c, err := b.commit(commitID)
	if err != nil {
		return false, err
	}
	for p := range c.tree {
		if strings.HasPrefix(p, path+"/") {
			return true, nil
		}
	}
	return false, nil
}

func (b *fakeBackend) ListTree(commitID, path string) ([]gitdb.TreeEntryRef, error) {
	c, err := b.commit(commitID)
	if err != nil {
		return nil, err
	}
	var refs []gitdb.TreeEntryRef
	for p, fp := range c.tree {
		if strings.HasPrefix(p, path+"/") && !strings.Contains(strings.TrimPrefix(p, path+"/"), "/") {
			refs = append(refs, gitdb.TreeEntryRef{Path: p, Fingerprint: fp})
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no subtree at %s in %s: %w", path, commitID, common.ErrAbsent)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

func (b *fakeBackend) IterCommits(startRef string) ([]string, error) {
	start, err := b.ResolveRef(startRef)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, c := range b.commits {
		if len(ids) == 0 && c.id != start {
			continue
		}
		ids = append(ids, c.id)
	}
	return ids, nil
}

func (b *fakeBackend) ChangeLog(ref, path string) ([]gitdb.Change, error) {
	return b.changeLogs[ref+"\x00"+path], nil
}

func (b *fakeBackend) ObjectExists(fingerprint string) (bool, error) {
	_, ok := b.objects[fingerprint]
	return ok, nil
}

func (b *fakeBackend) ReadObject(fingerprint string) ([]byte, error) {
	data, ok := b.objects[fingerprint]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", fingerprint, common.ErrAbsent)
	}
	return data, nil
}

func (b *fakeBackend) DiscardLocalChanges(path string) error {
	b.discards = append(b.discards, path)
	return nil
}

// fp builds a syntactically valid fake fingerprint from a single hex
// digit, matching the 40-hex shape FindVersion validates.
func fp(digit string) string {
	return strings.Repeat(digit, 40)
}

// cid builds a fake commit id. Kept visually distinct from fingerprints.
func cid(n int) string {
	return fmt.Sprintf("%040x", 0xc0de+n)
}
