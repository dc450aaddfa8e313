// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestCodecString(t *testing.T) {
	tests := []struct {
		codec Codec
		want  string
	}{
		{CodecZstd, "zstd"},
		{CodecLZ4, "lz4"},
		{Codec(99), "unknown(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.codec.String(); got != tt.want {
				t.Errorf("Codec(%d).String() = %q, want %q", tt.codec, got, tt.want)
			}
		})
	}
}

func TestParseCodec(t *testing.T) {
	for _, name := range []string{"zstd", "lz4"} {
		t.Run(name, func(t *testing.T) {
			codec, err := ParseCodec(name)
			if err != nil {
				t.Fatalf("ParseCodec(%q): %v", name, err)
			}
			if codec.String() != name {
				t.Errorf("roundtrip: ParseCodec(%q).String() = %q", name, codec.String())
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseCodec("gzip"); err == nil {
			t.Error("ParseCodec(\"gzip\") should fail")
		}
	})
}

// compressToBytes runs Compress and copies the valid prefix out of the
// scratch region.
func compressToBytes(t *testing.T, data []byte, codec Codec) []byte {
	t.Helper()
	region, length, err := Compress(data, codec)
	if err != nil {
		t.Fatalf("Compress(%s): %v", codec, err)
	}
	defer region.Close()
	frame := make([]byte, length)
	copy(frame, region.Data()[:length])
	return frame
}

func TestCompressRoundTrip(t *testing.T) {
	// Compressible data: repeated pattern.
	patterned := make([]byte, 64*1024)
	for i := range patterned {
		patterned[i] = byte(i % 17)
	}
	// Incompressible data: random bytes still round-trip, the frame
	// just doesn't shrink.
	random := make([]byte, 8*1024)
	if _, err := rand.Read(random); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	for _, codec := range []Codec{CodecZstd, CodecLZ4} {
		for _, tt := range []struct {
			name string
			data []byte
		}{
			{"patterned", patterned},
			{"random", random},
			{"tiny", []byte("x")},
		} {
			t.Run(codec.String()+"/"+tt.name, func(t *testing.T) {
				frame := compressToBytes(t, tt.data, codec)

				size, err := FrameContentSize(frame)
				if err != nil {
					t.Fatalf("FrameContentSize: %v", err)
				}
				if size != int64(len(tt.data)) {
					t.Errorf("frame content size = %d, want %d", size, len(tt.data))
				}

				destination := filepath.Join(t.TempDir(), "out.bin")
				if err := DecompressToPath(frame, destination, nil); err != nil {
					t.Fatalf("DecompressToPath: %v", err)
				}
				produced, err := os.ReadFile(destination)
				if err != nil {
					t.Fatalf("ReadFile: %v", err)
				}
				if !bytes.Equal(produced, tt.data) {
					t.Error("decompressed output does not match input")
				}
			})
		}
	}
}

func TestCompressPatternedShrinks(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 8192)
	for _, codec := range []Codec{CodecZstd, CodecLZ4} {
		frame := compressToBytes(t, data, codec)
		if len(frame) >= len(data) {
			t.Errorf("%s frame is %d bytes for %d input, expected compression",
				codec, len(frame), len(data))
		}
	}
}

func TestCompressEmptyInput(t *testing.T) {
	for _, codec := range []Codec{CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			frame := compressToBytes(t, nil, codec)
			if len(frame) == 0 {
				t.Fatal("empty input must still produce a frame")
			}

			// Empty input is framed with zstd under either codec
			// setting: an empty LZ4 frame would not record its
			// content size.
			if !bytes.Equal(frame[:4], []byte{0x28, 0xB5, 0x2F, 0xFD}) {
				t.Errorf("empty frame under %s starts with % x, want the zstd magic", codec, frame[:4])
			}

			size, err := FrameContentSize(frame)
			if err != nil {
				t.Fatalf("FrameContentSize: %v", err)
			}
			if size != 0 {
				t.Errorf("frame content size = %d, want 0", size)
			}

			destination := filepath.Join(t.TempDir(), "empty.bin")
			if err := DecompressToPath(frame, destination, nil); err != nil {
				t.Fatalf("DecompressToPath: %v", err)
			}
			info, err := os.Stat(destination)
			if err != nil {
				t.Fatalf("Stat: %v", err)
			}
			if info.Size() != 0 {
				t.Errorf("installed size = %d, want 0", info.Size())
			}
		})
	}
}

func TestFrameContentSizeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"unknown_magic", []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x00}},
		{"truncated_lz4_header", []byte{0x04, 0x22, 0x4D, 0x18, 0x48}},
		{"text", []byte("definitely not a frame")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FrameContentSize(tt.frame); err == nil {
				t.Errorf("FrameContentSize(%x) should fail", tt.frame)
			}
		})
	}
}

func TestDecompressToPathRejectsCorruptFrame(t *testing.T) {
	data := bytes.Repeat([]byte("corrupt me"), 4096)
	frame := compressToBytes(t, data, CodecZstd)

	// Flip bytes in the middle of the frame body; the header stays
	// intact so the size is still readable.
	for i := len(frame) / 2; i < len(frame)/2+8 && i < len(frame); i++ {
		frame[i] ^= 0xFF
	}

	destination := filepath.Join(t.TempDir(), "out.bin")
	if err := DecompressToPath(frame, destination, nil); err == nil {
		t.Fatal("DecompressToPath should fail on a corrupt frame")
	}
	if _, err := os.Stat(destination); err == nil {
		t.Error("final path must not exist after a failed decompression")
	}
}
