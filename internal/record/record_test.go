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

package record

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aawilson/git-larder/internal/common"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	r, err := Decode([]byte(`{"test_integer_attribute": 5}`), "deadbeef", 1700000000, "test_model/test_record_one.json")
	require.NoError(t, err)

	assert.Equal(t, "test_record_one", r.ID)
	assert.Equal(t, "deadbeef", r.Version)
	assert.Equal(t, int64(1700000000), r.UpdatedAt)
	assert.Equal(t, float64(5), r.Body["test_integer_attribute"])

	// Derived fields are mirrored into the body.
	assert.Equal(t, "test_record_one", r.Body["id"])
	assert.Equal(t, "deadbeef", r.Body["version"])
	assert.Equal(t, int64(1700000000), r.Body["updated_at"])
}

func TestDecode_OverwritesReservedKeys(t *testing.T) {
	t.Parallel()

	raw := `{"id": "liar", "version": "fake", "updated_at": 1, "x": true}`
	r, err := Decode([]byte(raw), "cafe", 42, "plans/basic.json")
	require.NoError(t, err)

	assert.Equal(t, "basic", r.ID)
	assert.Equal(t, "basic", r.Body["id"])
	assert.Equal(t, "cafe", r.Body["version"])
	assert.Equal(t, int64(42), r.Body["updated_at"])
	assert.Equal(t, true, r.Body["x"])
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"truncated", `{"a":`},
		{"not json", `this is not json`},
		{"array", `[1, 2, 3]`},
		{"scalar", `5`},
		{"empty", ``},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.data), "abc", 0, "m/r.json")
			var derr *DecodeError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "m/r.json", derr.Path)
		})
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	t.Parallel()

	r, err := Decode([]byte(`{"a": 1}`), "abc", 7, "m/r.json")
	require.NoError(t, err)

	out, err := json.Marshal(r)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, "r", round["id"])
	assert.Equal(t, "abc", round["version"])
	assert.Equal(t, float64(1), round["a"])
}

type fakeStore struct {
	resetCalls int
	fresh      *Record
	findErr    error
}

func (s *fakeStore) ResetRecord(r *Record) error {
	s.resetCalls++
	return nil
}

func (s *fakeStore) CurrentRecord(model, id string) (*Record, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.fresh, nil
}

func TestRecord_Reload(t *testing.T) {
	t.Parallel()

	stale, err := Decode([]byte(`{"a": 1}`), "v1", 10, "plans/basic.json")
	require.NoError(t, err)

	fresh, err := Decode([]byte(`{"a": 2}`), "v2", 20, "plans/basic.json")
	require.NoError(t, err)

	store := &fakeStore{fresh: fresh}
	stale.Bind("plans", store)

	require.NoError(t, err)
	require.NoError(t, stale.Reload())

	assert.Equal(t, 1, store.resetCalls)
	assert.Equal(t, "v2", stale.Version)
	assert.Equal(t, int64(20), stale.UpdatedAt)
	assert.Equal(t, float64(2), stale.Body["a"])
	assert.True(t, stale.Bound(), "binding survives reload")
}

func TestRecord_ReloadUnbound(t *testing.T) {
	t.Parallel()

	r, err := Decode([]byte(`{}`), "v1", 0, "plans/basic.json")
	require.NoError(t, err)

	err = r.Reload()
	assert.True(t, errors.Is(err, common.ErrConfiguration))
	assert.Contains(t, err.Error(), "no datastore attached")
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	// Known vector: sha1("test_record_one" + "deadbeef")
	assert.Equal(t, "f1ac89a9afe3528a8c302ecb66376e1bae3bba22", CacheKey("test_record_one", "deadbeef"))

	// Deterministic.
	assert.Equal(t, CacheKey("a", "b"), CacheKey("a", "b"))

	// The id is folded into the key: identical content (same blob
	// fingerprint) under two ids must not collide.
	assert.NotEqual(t, CacheKey("first", "samehash"), CacheKey("second", "samehash"))
}

func TestRecordCacheKey(t *testing.T) {
	t.Parallel()

	r, err := Decode([]byte(`{}`), "deadbeef", 0, "m/test_record_one.json")
	require.NoError(t, err)
	assert.Equal(t, CacheKey("test_record_one", "deadbeef"), RecordCacheKey(r))
}
