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

	"github.com/aawilson/git-larder/internal/cache"
	"github.com/aawilson/git-larder/internal/common"
	"github.com/aawilson/git-larder/internal/record"
)

// Model is a capability handle scoped to one collection name: every query
// operation passes through to the bound factory. A handle starts unbound;
// query operations on an unbound handle fail with common.ErrConfiguration.
type Model struct {
	name    string
	factory *Factory
}

// NewModel returns an unbound handle for the named collection.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// NewBoundModel returns a handle already attached to a factory. Unlike
// Factory.GetModel it performs no existence or ignore check.
func NewBoundModel(name string, f *Factory) *Model {
	return &Model{name: name, factory: f}
}

// Name returns the collection name.
func (m *Model) Name() string {
	return m.name
}

// Bind attaches the handle to a datastore.
func (m *Model) Bind(f *Factory) {
	m.factory = f
}

// Bound reports whether a datastore is attached.
func (m *Model) Bound() bool {
	return m.factory != nil
}

func (m *Model) bound() (*Factory, error) {
	if m.factory == nil {
		return nil, fmt.Errorf("%w: no datastore attached to model %q", common.ErrConfiguration, m.name)
	}
	return m.factory, nil
}

// PathFor returns the tree path of a record id within this collection.
func (m *Model) PathFor(id string) string {
	return common.RecordPath(m.name, id)
}

// Find returns the record's current value. See Factory.Find.
func (m *Model) Find(id string) (*record.Record, error) {
	f, err := m.bound()
	if err != nil {
		return nil, err
	}
	return f.Find(m, id)
}

// FindVersion returns the record's value at a specific blob fingerprint.
// See Factory.FindVersion.
func (m *Model) FindVersion(id, version string) (*record.Record, error) {
	f, err := m.bound()
	if err != nil {
		return nil, err
	}
	return f.FindVersion(m, id, version)
}

// FindVersions returns the record's full lifetime, newest first. See
// Factory.FindVersions.
func (m *Model) FindVersions(id string, max int) ([]*record.Record, error) {
	f, err := m.bound()
	if err != nil {
		return nil, err
	}
	return f.FindVersions(m, id, max)
}

// FindRecords is the modifier-driven query entry point. See
// Factory.FindRecords.
func (m *Model) FindRecords(id string, opts FindOptions) ([]*record.Record, error) {
	f, err := m.bound()
	if err != nil {
		return nil, err
	}
	return f.FindRecords(m, id, opts)
}

// All returns every record currently in the collection. See Factory.All.
func (m *Model) All() ([]*record.Record, error) {
	f, err := m.bound()
	if err != nil {
		return nil, err
	}
	return f.All(m)
}

// BuildObjectCache builds the collection's object cache. See
// Factory.BuildObjectCache.
func (m *Model) BuildObjectCache() (cache.Objects, cache.IDMap, error) {
	f, err := m.bound()
	if err != nil {
		return nil, nil, err
	}
	return f.BuildObjectCache(m)
}

// HeadVersion returns the commit id of the head snapshot.
func (m *Model) HeadVersion() (string, error) {
	f, err := m.bound()
	if err != nil {
		return "", err
	}
	return f.HeadVersion()
}
