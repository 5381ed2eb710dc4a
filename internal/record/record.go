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

// Package record defines the document value type returned to callers,
// the snapshot decoder that produces it, and the cache key function used
// to fingerprint (id, version) pairs.
package record

import (
	"encoding/json"
	"fmt"

	"github.com/aawilson/git-larder/internal/common"
)

// Datastore is the subset of the record factory a Record needs in order to
// re-synchronize itself. Implemented by larder.Factory.
type Datastore interface {
	// ResetRecord discards uncommitted local changes to the record's
	// backing path, restoring the last committed state.
	ResetRecord(r *Record) error

	// CurrentRecord fetches the record's value at the head snapshot.
	CurrentRecord(model, id string) (*Record, error)
}

// Record is one JSON document loaded from a snapshot, plus the identity
// metadata injected at decode time. The Body map holds the full decoded
// object, including the injected keys, so serializing a Record's body
// round-trips the derived fields.
type Record struct {
	ID        string
	Version   string
	UpdatedAt int64
	Body      map[string]any

	// Model and store form the weak back-reference to the factory that
	// produced this record. Both are zero until Bind is called.
	Model string
	store Datastore
}

// Bind attaches the record to the datastore that produced it, scoped to one
// collection name. Reload fails until Bind has been called.
func (r *Record) Bind(model string, store Datastore) {
	r.Model = model
	r.store = store
}

// Bound reports whether the record has a datastore attached.
func (r *Record) Bound() bool {
	return r.store != nil
}

// Get returns a body field by key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.Body[key]
	return v, ok
}

// Reload discards uncommitted local changes to this record's backing path,
// re-fetches the record by id, and replaces this instance's contents in
// place. The binding survives the reload.
func (r *Record) Reload() error {
	if r.store == nil {
		return fmt.Errorf("%w: no datastore attached to record %q", common.ErrConfiguration, r.ID)
	}
	if err := r.store.ResetRecord(r); err != nil {
		return err
	}
	fresh, err := r.store.CurrentRecord(r.Model, r.ID)
	if err != nil {
		return err
	}
	r.Version = fresh.Version
	r.UpdatedAt = fresh.UpdatedAt
	r.Body = fresh.Body
	return nil
}

// MarshalJSON renders the record as its body object.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Body)
}

// DecodeError reports that a snapshot's bytes were not a valid JSON object.
// Callers decide whether this is fatal: bulk scans skip it, head-snapshot
// paths treat it as authoritative-data corruption.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("record at %s is not valid JSON: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode turns one snapshot blob into a Record. data is the raw tree entry
// content, fingerprint the backend-assigned content hash of those exact
// bytes, committedAt the timestamp of the owning commit, and treePath the
// concrete path the blob was stored at (the record id derives from it).
//
// The decoded object's own id/version/updated_at keys, if present, are
// overwritten by the derived values. Pure function; no backend access.
func Decode(data []byte, fingerprint string, committedAt int64, treePath string) (*Record, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, &DecodeError{Path: treePath, Err: err}
	}

	id := common.IDFromPath(treePath)
	body["id"] = id
	body["version"] = fingerprint
	body["updated_at"] = committedAt

	return &Record{
		ID:        id,
		Version:   fingerprint,
		UpdatedAt: committedAt,
		Body:      body,
	}, nil
}
