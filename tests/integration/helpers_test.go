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

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aawilson/git-larder/internal/larder"
)

// Env is one end-to-end test environment: a real git repository driven
// through the git binary, queried through a Factory. Commit timestamps are
// fixed and strictly increasing for stable ordering assertions.
type Env struct {
	t    *testing.T
	Dir  string
	tick int64
}

// NewEnv creates a fresh repository. Skipped in short mode and when the
// git binary is unavailable.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	env := &Env{t: t, Dir: t.TempDir(), tick: 1700000000}
	env.Git("init", "--initial-branch=main")
	env.Git("config", "user.email", "larder@example.com")
	env.Git("config", "user.name", "larder integration")
	return env
}

// Git runs a git command in the environment's repository.
func (e *Env) Git(args ...string) string {
	e.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = e.Dir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("GIT_AUTHOR_DATE=%d +0000", e.tick),
		fmt.Sprintf("GIT_COMMITTER_DATE=%d +0000", e.tick),
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		e.t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes a file under the repository without staging it.
func (e *Env) WriteFile(relPath, content string) {
	e.t.Helper()
	full := filepath.Join(e.Dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		e.t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		e.t.Fatal(err)
	}
}

// ReadFile reads a file under the repository.
func (e *Env) ReadFile(relPath string) string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.Dir, filepath.FromSlash(relPath)))
	if err != nil {
		e.t.Fatal(err)
	}
	return string(data)
}

// WriteRecord writes a record document under a model directory.
func (e *Env) WriteRecord(model, id, content string) {
	e.WriteFile(model+"/"+id+".json", content)
}

// Commit stages everything and commits at the next timestamp tick.
func (e *Env) Commit(msg string) {
	e.t.Helper()
	e.tick += 60
	e.Git("add", "-A")
	e.Git("commit", "-m", msg)
}

// Factory opens a record factory over the repository.
func (e *Env) Factory() *larder.Factory {
	e.t.Helper()
	f, err := larder.Open(e.Dir, nil)
	if err != nil {
		e.t.Fatalf("opening factory: %v", err)
	}
	return f
}

// FactoryAt opens a record factory pinned to a ref other than HEAD.
func (e *Env) FactoryAt(ref string) *larder.Factory {
	e.t.Helper()
	f, err := larder.Open(e.Dir, &larder.Options{Ref: ref})
	if err != nil {
		e.t.Fatalf("opening factory at %s: %v", ref, err)
	}
	return f
}

// UniqueModelName returns a collection name that cannot collide across
// environments sharing a repository.
func UniqueModelName(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.NewString()[:8], "-", ""))
}
