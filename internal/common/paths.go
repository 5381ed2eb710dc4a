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

package common

import (
	"path"
	"strings"
)

// RecordExt is the on-disk extension for record documents.
const RecordExt = ".json"

// NormalizeTreePath cleans a snapshot tree path. Tree paths are always
// slash-separated regardless of host OS, with no leading or trailing slash.
func NormalizeTreePath(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// RecordPath returns the tree path of a record document inside its model
// subtree: <model>/<id>.json.
func RecordPath(model, id string) string {
	return model + "/" + id + RecordExt
}

// IDFromPath derives a record id from a tree path: the final path element
// with the extension stripped.
func IDFromPath(p string) string {
	base := path.Base(NormalizeTreePath(p))
	return strings.TrimSuffix(base, path.Ext(base))
}

// ModelFromPath returns the model (collection) component of a record path,
// or "" if the path has no directory component.
func ModelFromPath(p string) string {
	dir := path.Dir(NormalizeTreePath(p))
	if dir == "." {
		return ""
	}
	return dir
}
