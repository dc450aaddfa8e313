// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileMappingReadsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := bytes.Repeat([]byte("mapped"), 1000)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	region, err := File(int(file.Fd()), int64(len(content)), false, false)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	defer region.Close()

	if region.Size() != int64(len(content)) {
		t.Errorf("Size() = %d, want %d", region.Size(), len(content))
	}
	if !bytes.Equal(region.Data(), content) {
		t.Error("mapped data does not match file contents")
	}
}

func TestFileMappingSharedWritesReachFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()

	region, err := File(int(file.Fd()), 64, true, true)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	defer region.Close()

	copy(region.Data(), "written through the mapping")
	if err := region.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := region.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(onDisk, []byte("written through the mapping")) {
		t.Error("shared mapping writes did not reach the file")
	}
}

func TestAnonymousMappingIsWritable(t *testing.T) {
	region, err := Anonymous(4096)
	if err != nil {
		t.Fatalf("Anonymous: %v", err)
	}
	defer region.Close()

	for i := range region.Data() {
		region.Data()[i] = byte(i % 251)
	}
	for i, value := range region.Data() {
		if value != byte(i%251) {
			t.Fatalf("byte %d = %d after write, want %d", i, value, i%251)
		}
	}
}

func TestEmptyRegion(t *testing.T) {
	region := Empty()
	if region.Size() != 0 {
		t.Errorf("Size() = %d, want 0", region.Size())
	}
	if len(region.Data()) != 0 {
		t.Errorf("len(Data()) = %d, want 0", len(region.Data()))
	}
	if err := region.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestZeroSizeConstructorsReturnEmpty(t *testing.T) {
	region, err := Anonymous(0)
	if err != nil {
		t.Fatalf("Anonymous(0): %v", err)
	}
	if region.Size() != 0 {
		t.Errorf("Anonymous(0).Size() = %d, want 0", region.Size())
	}

	region, err = File(-1, 0, false, false)
	if err != nil {
		t.Fatalf("File(size 0): %v", err)
	}
	if region.Size() != 0 {
		t.Errorf("File(size 0).Size() = %d, want 0", region.Size())
	}
}

func TestNegativeSizeRejected(t *testing.T) {
	if _, err := Anonymous(-1); err == nil {
		t.Error("Anonymous(-1) should fail")
	}
	if _, err := File(-1, -1, false, false); err == nil {
		t.Error("File with negative size should fail")
	}
}

func TestSyncRequiresSharedWritableMapping(t *testing.T) {
	region, err := Anonymous(128)
	if err != nil {
		t.Fatalf("Anonymous: %v", err)
	}
	defer region.Close()

	if err := region.Sync(); err == nil {
		t.Error("Sync on a private mapping should fail")
	}
	if err := Empty().Sync(); err == nil {
		t.Error("Sync on an empty region should fail")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	region, err := Anonymous(128)
	if err != nil {
		t.Fatalf("Anonymous: %v", err)
	}
	if err := region.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := region.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if region.Data() != nil {
		t.Error("Data() should be nil after Close")
	}
}
