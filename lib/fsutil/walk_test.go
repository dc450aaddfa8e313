// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// buildTestTree materialises a small tree:
//
//	root/top.txt
//	root/sub/middle.txt
//	root/sub/deeper/bottom.txt
//	root/sub/link -> middle.txt
//	root/vacant/            (empty directory)
func buildTestTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "root")

	for _, directory := range []string{"sub/deeper", "vacant"} {
		if err := os.MkdirAll(filepath.Join(root, directory), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	files := map[string]string{
		"top.txt":               "top",
		"sub/middle.txt":        "middle",
		"sub/deeper/bottom.txt": "bottom",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Symlink("middle.txt", filepath.Join(root, "sub/link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	return root
}

func TestWalkTreeVisitsEverything(t *testing.T) {
	root := buildTestTree(t)

	var files []string
	sizes := map[string]int64{}
	links := map[string]string{}

	err := WalkTree(root, nil,
		func(path string, file *File) error {
			files = append(files, path)
			size, err := file.Size()
			if err != nil {
				return err
			}
			sizes[path] = size
			return nil
		},
		func(path, target string) error {
			links[path] = target
			return nil
		})
	if err != nil {
		t.Fatalf("WalkTree: %v", err)
	}

	sort.Strings(files)
	wantFiles := []string{"sub/deeper/bottom.txt", "sub/middle.txt", "top.txt"}
	if len(files) != len(wantFiles) {
		t.Fatalf("visited files %v, want %v", files, wantFiles)
	}
	for i, want := range wantFiles {
		if files[i] != want {
			t.Errorf("file %d = %q, want %q", i, files[i], want)
		}
	}

	// Relative paths are rooted below the walk target: the names
	// above carry no "root/" prefix, and none of them is absolute.
	for _, path := range files {
		if filepath.IsAbs(path) {
			t.Errorf("path %q is absolute", path)
		}
	}

	if sizes["sub/middle.txt"] != int64(len("middle")) {
		t.Errorf("size of sub/middle.txt = %d, want %d", sizes["sub/middle.txt"], len("middle"))
	}

	if len(links) != 1 || links["sub/link"] != "middle.txt" {
		t.Errorf("links = %v, want sub/link -> middle.txt", links)
	}
}

func TestWalkTreeEmptyDirectoryEmitsNothing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "empty")
	if err := os.MkdirAll(filepath.Join(root, "only/nested/dirs"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	visited := 0
	err := WalkTree(root, nil,
		func(string, *File) error { visited++; return nil },
		func(string, string) error { visited++; return nil })
	if err != nil {
		t.Fatalf("WalkTree: %v", err)
	}
	if visited != 0 {
		t.Errorf("visited %d entries in a file-less tree, want 0", visited)
	}
}

func TestWalkTreeCallbackErrorAborts(t *testing.T) {
	root := buildTestTree(t)

	boom := fmt.Errorf("callback refused")
	err := WalkTree(root, nil,
		func(string, *File) error { return boom },
		func(string, string) error { return nil })
	if err == nil {
		t.Fatal("WalkTree should propagate the callback error")
	}
}

func TestWalkTreeRelativeToBase(t *testing.T) {
	root := buildTestTree(t)
	parent := filepath.Dir(root)

	base, err := Open(parent, ReadOnly, Directory, nil)
	if err != nil {
		t.Fatalf("Open base: %v", err)
	}
	defer base.Close()

	var files []string
	err = WalkTree("root", base,
		func(path string, _ *File) error {
			files = append(files, path)
			return nil
		},
		func(string, string) error { return nil })
	if err != nil {
		t.Fatalf("WalkTree: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("visited %d files via base handle, want 3", len(files))
	}
}

func TestWalkTreeOnMissingDirectory(t *testing.T) {
	err := WalkTree(filepath.Join(t.TempDir(), "absent"), nil,
		func(string, *File) error { return nil },
		func(string, string) error { return nil })
	if err == nil {
		t.Error("WalkTree on a missing directory should fail")
	}
}
