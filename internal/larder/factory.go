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

// Package larder is the record store built on a git backend: named
// collections ("models") of JSON documents, with current-state, historical
// and full-lifetime queries, an object cache over every ever-committed
// document body, and restore-to-committed recovery.
package larder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	ignore "github.com/sabhiram/go-gitignore"
	log "github.com/sirupsen/logrus"

	"github.com/aawilson/git-larder/internal/cache"
	"github.com/aawilson/git-larder/internal/common"
	"github.com/aawilson/git-larder/internal/gitdb"
	"github.com/aawilson/git-larder/internal/record"
)

// IgnoreControlFile is the well-known tree path of the ignore list: one
// model name (or pattern) per line. An absent file means nothing is
// ignored.
const IgnoreControlFile = ".gitrecord_ignore"

// Factory owns the backend connection and the ignore list, and implements
// every query and recovery operation. All methods are synchronous and
// blocking; the only mutation is Reset/ResetAll, which touches working-tree
// state shared process-wide and is serialized through a file lock.
type Factory struct {
	backend gitdb.Backend
	ref     string
	ignored *ignore.GitIgnore // nil when the control file is absent
	lk      *flock.Flock      // nil for non-repository backends
}

// Options configures a Factory.
type Options struct {
	// Ref is the head reference queries resolve against. Defaults to
	// "HEAD".
	Ref string

	// LockPath, when non-empty, names the file lock guarding working-copy
	// mutation. Open derives one automatically for repository backends.
	LockPath string
}

// New builds a Factory over any Backend. The ignore list is loaded once,
// here, from the current head snapshot.
func New(backend gitdb.Backend, opts *Options) (*Factory, error) {
	f := &Factory{backend: backend, ref: "HEAD"}
	if opts != nil {
		if opts.Ref != "" {
			f.ref = opts.Ref
		}
		if opts.LockPath != "" {
			f.lk = flock.New(opts.LockPath)
		}
	}
	if err := f.loadIgnoreList(); err != nil {
		return nil, err
	}
	return f, nil
}

// Open opens the git repository at dir and builds a Factory over it. The
// working-copy lock lives alongside the repository metadata so every
// Factory on the same repository contends for the same lock.
func Open(dir string, opts *Options) (*Factory, error) {
	repo, err := gitdb.Open(dir)
	if err != nil {
		return nil, err
	}
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.LockPath == "" {
		o.LockPath = filepath.Join(dir, ".git", "gitrecord.lock")
	}
	return New(repo, &o)
}

// loadIgnoreList reads the control file at head. Loaded once per Factory
// lifetime.
func (f *Factory) loadIgnoreList() error {
	head, err := f.backend.ResolveRef(f.ref)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", f.ref, err)
	}
	entry, err := f.backend.TreeEntry(head, IgnoreControlFile)
	if err != nil {
		if errors.Is(err, common.ErrAbsent) {
			return nil
		}
		return err
	}

	var lines []string
	for _, line := range strings.Split(string(entry.Data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	f.ignored = ignore.CompileIgnoreLines(lines...)
	log.Debugf("[Factory] loadIgnoreList: %d ignore entries", len(lines))
	return nil
}

// head resolves the factory's ref to a commit id.
func (f *Factory) head() (string, error) {
	return f.backend.ResolveRef(f.ref)
}

// HeadVersion returns the commit id of the head snapshot.
func (f *Factory) HeadVersion() (string, error) {
	return f.head()
}

// verifyModel applies the ignore policy and checks the model subtree
// exists at head. The ignore check runs first: an ignored model is
// reported as ignored even if its subtree is gone.
func (f *Factory) verifyModel(name string) error {
	if f.ignored != nil && f.ignored.MatchesPath(name) {
		return fmt.Errorf("model %q exists but is ignored by %s: %w", name, IgnoreControlFile, common.ErrModelIgnored)
	}
	head, err := f.head()
	if err != nil {
		return err
	}
	ok, err := f.backend.SubtreeExists(head, name)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Msg: fmt.Sprintf("model %q did not exist in the database", name)}
	}
	return nil
}

// GetModel returns a model handle bound to this factory. Fails with
// common.ErrModelIgnored if the name is on the ignore list, or with
// NotFound if the model subtree does not exist at head.
func (f *Factory) GetModel(name string) (*Model, error) {
	if err := f.verifyModel(name); err != nil {
		return nil, err
	}
	m := NewModel(name)
	m.Bind(f)
	return m, nil
}

// All returns every record currently present in the model's subtree at the
// head snapshot. Individually malformed records are skipped, not failed on.
func (f *Factory) All(m *Model) ([]*record.Record, error) {
	if err := f.verifyModel(m.name); err != nil {
		return nil, err
	}
	head, err := f.head()
	if err != nil {
		return nil, err
	}
	ts, err := f.backend.CommitTimestamp(head)
	if err != nil {
		return nil, err
	}
	refs, err := f.backend.ListTree(head, m.name)
	if err != nil {
		return nil, err
	}

	var records []*record.Record
	for _, ref := range refs {
		data, err := f.backend.ReadObject(ref.Fingerprint)
		if err != nil {
			continue
		}
		rec, err := record.Decode(data, ref.Fingerprint, ts, ref.Path)
		if err != nil {
			// Best-effort contract: a malformed record is omitted.
			log.Debugf("[Factory] All: skipping malformed record at %s: %v", ref.Path, err)
			continue
		}
		rec.Bind(m.name, f)
		records = append(records, rec)
	}
	return records, nil
}

// FindOptions selects one of the historical query modes of Find. The zero
// value queries the current head state.
type FindOptions struct {
	// Version restricts the lookup to the commit at which the record held
	// exactly this blob fingerprint.
	Version string

	// AllVersions returns the record's full lifetime, newest first.
	AllVersions bool

	// Max truncates an AllVersions result to the newest Max entries.
	// Zero means unlimited.
	Max int
}

// FindRecords is the modifier-driven query entry point. Exactly one of
// Version and AllVersions may be set; setting both is a configuration
// error. Single-value modes return a one-element slice.
func (f *Factory) FindRecords(m *Model, id string, opts FindOptions) ([]*record.Record, error) {
	if opts.Version != "" && opts.AllVersions {
		return nil, fmt.Errorf("cannot simultaneously search for a particular version and all versions of a record: %w", common.ErrConfiguration)
	}

	switch {
	case opts.AllVersions:
		return f.FindVersions(m, id, opts.Max)
	case opts.Version != "":
		rec, err := f.FindVersion(m, id, opts.Version)
		if err != nil {
			return nil, err
		}
		return []*record.Record{rec}, nil
	default:
		rec, err := f.Find(m, id)
		if err != nil {
			return nil, err
		}
		return []*record.Record{rec}, nil
	}
}

// Find returns the record's value at the head snapshot. If the record is
// absent (or its head content is malformed), history is searched for a
// deletion epitaph: a NotFoundError carrying the last committed value, or
// carrying nothing if that value was itself malformed or the record never
// existed.
func (f *Factory) Find(m *Model, id string) (*record.Record, error) {
	if err := f.verifyModel(m.name); err != nil {
		return nil, err
	}
	head, err := f.head()
	if err != nil {
		return nil, err
	}

	path := common.RecordPath(m.name, id)
	entry, err := f.backend.TreeEntry(head, path)
	if err == nil {
		ts, terr := f.backend.CommitTimestamp(head)
		if terr != nil {
			return nil, terr
		}
		rec, derr := record.Decode(entry.Data, entry.Fingerprint, ts, path)
		if derr == nil {
			rec.Bind(m.name, f)
			return rec, nil
		}
		// Head content is broken; fall through to the epitaph search,
		// same as a missing entry.
		log.Debugf("[Factory] Find: head content at %s is malformed: %v", path, derr)
	} else if !errors.Is(err, common.ErrAbsent) {
		return nil, err
	}

	return nil, f.epitaphError(id, path)
}

// epitaphError builds the NotFoundError for an unresolvable head lookup,
// attaching the pre-deletion value when one can still be recovered.
func (f *Factory) epitaphError(id, path string) error {
	st, err := f.lastStateBeforeDeletion(path)
	if err != nil {
		return err
	}
	if st == nil {
		return &NotFoundError{Msg: fmt.Sprintf("no record found with id %q", id)}
	}

	entry, err := f.backend.TreeEntry(st.CommitID, st.Path)
	if err != nil {
		return &NotFoundError{Msg: fmt.Sprintf("no record found with id %q", id)}
	}
	ts, err := f.backend.CommitTimestamp(st.CommitID)
	if err != nil {
		return err
	}
	rec, derr := record.Decode(entry.Data, entry.Fingerprint, ts, st.Path)
	if derr != nil {
		return &NotFoundError{Msg: fmt.Sprintf(
			"no record found with id %q; a previous version was found at %s but was invalid JSON: %v", id, st.CommitID, derr)}
	}
	return &NotFoundError{
		Msg:       fmt.Sprintf("no record found with id %q (a previous version was found: %s)", id, rec.Version),
		LastKnown: rec,
	}
}

// FindVersion returns the record's value at the commit where its path held
// exactly the given blob fingerprint. The fingerprint is validated
// syntactically and probed against the object store before the history
// walk, which is the expensive part.
func (f *Factory) FindVersion(m *Model, id, version string) (*record.Record, error) {
	if err := f.verifyModel(m.name); err != nil {
		return nil, err
	}
	if !gitdb.IsFingerprint(version) {
		return nil, &NotFoundError{Msg: fmt.Sprintf("version did not exist: %s", version)}
	}
	ok, err := f.backend.ObjectExists(version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Msg: fmt.Sprintf("version did not exist: %s", version)}
	}

	rec, err := f.findVersionInHistory(common.RecordPath(m.name, id), version)
	if err != nil {
		return nil, err
	}
	rec.Bind(m.name, f)
	return rec, nil
}

// FindVersions returns every historical value of the record, newest first,
// optionally truncated to the newest max entries (max <= 0 means
// unlimited). Individually malformed or no-longer-resolvable snapshots are
// skipped, not failed on.
func (f *Factory) FindVersions(m *Model, id string, max int) ([]*record.Record, error) {
	if err := f.verifyModel(m.name); err != nil {
		return nil, err
	}
	states, err := f.walkHistory(common.RecordPath(m.name, id))
	if err != nil {
		return nil, err
	}
	if max > 0 && len(states) > max {
		states = states[:max]
	}

	var records []*record.Record
	for _, st := range states {
		entry, err := f.backend.TreeEntry(st.CommitID, st.Path)
		if err != nil {
			continue
		}
		ts, err := f.backend.CommitTimestamp(st.CommitID)
		if err != nil {
			continue
		}
		rec, err := record.Decode(entry.Data, entry.Fingerprint, ts, st.Path)
		if err != nil {
			continue
		}
		rec.Bind(m.name, f)
		records = append(records, rec)
	}
	return records, nil
}

// BuildObjectCache walks the entire commit history of a model and returns
// the deduplicated object cache plus the id map: one entry per
// currently-existing record id, pointing at the cache key of its value at
// the most recent commit.
//
// The first decoded value for a key is retained; later encounters are
// no-ops, since content for a given (id, version) pair never changes. A
// decode failure at the most recent commit is fatal, the live data is
// broken, while historical-only failures are tolerated and omitted.
func (f *Factory) BuildObjectCache(m *Model) (cache.Objects, cache.IDMap, error) {
	if err := f.verifyModel(m.name); err != nil {
		return nil, nil, err
	}

	objects := make(cache.Objects)
	idToKey := make(cache.IDMap)

	commits, err := f.backend.IterCommits(f.ref)
	if err != nil {
		return nil, nil, err
	}

	atHead := true
	for _, commit := range commits {
		refs, err := f.backend.ListTree(commit, m.name)
		if err != nil {
			if errors.Is(err, common.ErrAbsent) {
				// The model subtree may not have existed for all
				// commits; that is fine.
				atHead = false
				continue
			}
			return nil, nil, err
		}

		var ts int64
		tsLoaded := false
		for _, ref := range refs {
			id := common.IDFromPath(ref.Path)
			key := record.CacheKey(id, ref.Fingerprint)
			if atHead {
				idToKey[id] = key
			}
			if objects.Has(key) {
				continue
			}

			data, err := f.backend.ReadObject(ref.Fingerprint)
			if err != nil {
				if atHead {
					return nil, nil, fmt.Errorf("bad record %q found at %s: %w", id, commit, err)
				}
				continue
			}
			if !tsLoaded {
				if ts, err = f.backend.CommitTimestamp(commit); err != nil {
					return nil, nil, err
				}
				tsLoaded = true
			}
			rec, err := record.Decode(data, ref.Fingerprint, ts, ref.Path)
			if err != nil {
				if atHead {
					return nil, nil, fmt.Errorf("bad record %q found at %s: %w", id, commit, err)
				}
				log.Debugf("[Factory] BuildObjectCache: skipping malformed historical record at %s in %s", ref.Path, commit)
				continue
			}
			rec.Bind(m.name, f)
			objects.Insert(key, rec)
		}
		atHead = false
	}

	log.Debugf("[Factory] BuildObjectCache: %s has %d cache entries, %d live ids", m.name, len(objects), len(idToKey))
	return objects, idToKey, nil
}

// Reset discards any uncommitted local modification to the record's
// backing path, restoring it to the last committed snapshot.
func (f *Factory) Reset(r *record.Record) error {
	if r == nil {
		return f.ResetAll()
	}
	if r.Model == "" {
		return fmt.Errorf("%w: record %q has no model bound", common.ErrConfiguration, r.ID)
	}
	return f.discard(common.RecordPath(r.Model, r.ID))
}

// ResetAll discards all uncommitted local state across the whole working
// area.
func (f *Factory) ResetAll() error {
	return f.discard("")
}

// discard serializes working-copy mutation through the factory's file
// lock. The backend's working copy is one shared resource; concurrent
// resets from multiple factories would race without this.
func (f *Factory) discard(path string) error {
	if f.lk != nil {
		if err := f.lk.Lock(); err != nil {
			return fmt.Errorf("acquiring working-copy lock: %w", err)
		}
		defer f.lk.Unlock() //nolint:errcheck
	}
	return f.backend.DiscardLocalChanges(path)
}

// ResetRecord implements record.Datastore.
func (f *Factory) ResetRecord(r *record.Record) error {
	return f.Reset(r)
}

// CurrentRecord implements record.Datastore.
func (f *Factory) CurrentRecord(model, id string) (*record.Record, error) {
	return f.Find(NewBoundModel(model, f), id)
}
