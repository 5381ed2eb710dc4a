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

// Package cache holds the in-memory object cache built from a model's
// full commit history: every (id, version) pair ever committed, keyed by
// the content fingerprint of record.CacheKey, plus the companion map from
// live record ids to their most recent entry.
package cache

import "github.com/aawilson/git-larder/internal/record"

// Objects maps cache keys to decoded record bodies. Content for a given
// (id, version) pair never changes, so the first value stored under a key
// is authoritative.
type Objects map[string]*record.Record

// Insert stores rec under key unless the key is already present. Reports
// whether the value was stored.
func (o Objects) Insert(key string, rec *record.Record) bool {
	if _, ok := o[key]; ok {
		return false
	}
	o[key] = rec
	return true
}

// Has reports whether key is already cached.
func (o Objects) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Get returns the cached record for key.
func (o Objects) Get(key string) (*record.Record, bool) {
	rec, ok := o[key]
	return rec, ok
}

// IDMap maps each currently-existing record id to the cache key of its
// value at the most recent commit.
type IDMap map[string]string

// Resolve follows an id through the map into the object cache.
func (m IDMap) Resolve(objects Objects, id string) (*record.Record, bool) {
	key, ok := m[id]
	if !ok {
		return nil, false
	}
	return objects.Get(key)
}
