// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/chinmaygarde/appack/lib/fsutil"
	"github.com/chinmaygarde/appack/lib/mapping"
)

// Codec identifies the compression algorithm used when registering
// files. Extraction does not consult it — every blob is a framed
// format that starts with the codec's magic number and records its
// uncompressed length in the frame header, so a package written with
// either codec installs the same way.
type Codec uint8

const (
	// CodecZstd compresses with zstd at the default level. Best
	// ratios for text-like content; the default.
	CodecZstd Codec = iota

	// CodecLZ4 compresses with the LZ4 frame format. Faster with
	// lower ratios; useful when ingest speed matters more than
	// package size.
	CodecLZ4
)

// String returns the human-readable name of a codec.
func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec parses a codec from its string representation.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec: %q", name)
	}
}

// Frame magic numbers, as they appear in the first four bytes of a
// compressed blob.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
// WithZeroFrames makes the encoder emit a real frame for empty input,
// so empty files produce a blob that decodes like any other.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic("pack: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("pack: zstd decoder initialization failed: " + err.Error())
	}
}

// compressBound returns an output allocation that accommodates the
// worst case of both codecs: the incompressible-input expansion plus
// frame and per-block headers.
func compressBound(size int) int {
	bound := lz4.CompressBlockBound(size)
	// Frame descriptor, one block header per 4 MiB block, end mark,
	// and checksums.
	bound += size>>20 + 64
	if zstdWorst := size + size>>8 + 64; zstdWorst > bound {
		bound = zstdWorst
	}
	return bound
}

// Compress performs one-shot compression of data into a fresh
// anonymous mapping sized to the codec's worst-case bound. It returns
// the mapping together with the length of the valid compressed prefix.
// The caller owns the returned region and must close it.
//
// Empty input is always framed with zstd, whichever codec is
// configured: the zstd encoder records a zero content size in the
// frame header, while the LZ4 frame format omits the content-size
// field entirely for empty input (SizeOption only sets the FLG
// content-size bit for a non-zero size), which would leave the blob
// undecodable by [FrameContentSize]. Blobs identify their codec by
// magic, so the substitution is invisible to extraction.
func Compress(data []byte, codec Codec) (*mapping.Region, int64, error) {
	if len(data) == 0 {
		codec = CodecZstd
	}

	region, err := mapping.Anonymous(int64(compressBound(len(data))))
	if err != nil {
		return nil, 0, fmt.Errorf("allocating compression scratch: %w", err)
	}

	var length int
	switch codec {
	case CodecZstd:
		length, err = compressZstd(data, region.Data())
	case CodecLZ4:
		length, err = compressLZ4(data, region.Data())
	default:
		err = fmt.Errorf("unsupported codec: %d", codec)
	}
	if err != nil {
		region.Close()
		return nil, 0, err
	}
	return region, int64(length), nil
}

func compressZstd(data, destination []byte) (int, error) {
	encoder := zstdEncoder
	if len(data) > 0 && len(data) < 256 {
		// Below 256 bytes the encoder writes the frame content size
		// only for single-segment frames; force one so the length is
		// always recorded.
		small, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
			zstd.WithSingleSegment(true),
		)
		if err != nil {
			return 0, fmt.Errorf("zstd compress: %w", err)
		}
		defer small.Close()
		encoder = small
	}
	compressed := encoder.EncodeAll(data, destination[:0])
	if len(compressed) > len(destination) {
		// EncodeAll grew past the scratch region and reallocated;
		// the bound was violated.
		return 0, fmt.Errorf("zstd output %d bytes exceeds bound %d", len(compressed), len(destination))
	}
	if len(compressed) > 0 && &compressed[0] != &destination[0] {
		copy(destination, compressed)
	}
	return len(compressed), nil
}

func compressLZ4(data, destination []byte) (int, error) {
	sink := &boundedWriter{buffer: destination}
	writer := lz4.NewWriter(sink)
	// Record the content size in the frame descriptor; extraction
	// depends on it. SizeOption only sets the descriptor's
	// content-size flag for a non-zero size, so empty input must not
	// reach this path ([Compress] reroutes it to zstd).
	if err := writer.Apply(lz4.SizeOption(uint64(len(data)))); err != nil {
		return 0, fmt.Errorf("lz4 compress: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return 0, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("lz4 compress: %w", err)
	}
	return sink.written, nil
}

// boundedWriter writes into a fixed buffer and fails rather than grow.
type boundedWriter struct {
	buffer  []byte
	written int
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > len(w.buffer) {
		return 0, fmt.Errorf("compressed output exceeds the %d-byte bound", len(w.buffer))
	}
	copy(w.buffer[w.written:], p)
	w.written += len(p)
	return len(p), nil
}

// FrameContentSize reads the uncompressed length recorded in a
// compressed frame's header. It recognises the frame by its magic
// number and fails on unknown magic, a truncated header, or a frame
// that does not record its content size.
func FrameContentSize(frame []byte) (int64, error) {
	switch {
	case len(frame) >= 4 && bytes.Equal(frame[:4], zstdMagic):
		var header zstd.Header
		if err := header.Decode(frame); err != nil {
			return 0, fmt.Errorf("decoding zstd frame header: %w", err)
		}
		if !header.HasFCS {
			return 0, fmt.Errorf("zstd frame does not record its content size")
		}
		return int64(header.FrameContentSize), nil

	case len(frame) >= 4 && bytes.Equal(frame[:4], lz4Magic):
		// Frame descriptor: FLG byte after the magic; bit 3 is the
		// content-size flag, with the size stored as a little-endian
		// uint64 after the BD byte.
		if len(frame) < 6 {
			return 0, fmt.Errorf("lz4 frame header is truncated")
		}
		if frame[4]&0x08 == 0 {
			return 0, fmt.Errorf("lz4 frame does not record its content size")
		}
		if len(frame) < 14 {
			return 0, fmt.Errorf("lz4 frame header is truncated")
		}
		return int64(binary.LittleEndian.Uint64(frame[6:14])), nil

	default:
		return 0, fmt.Errorf("unrecognized compression frame")
	}
}

// DecompressToPath decompresses frame and writes the result atomically
// to path. The output file is pre-sized from the frame header and the
// decompression happens directly into the mapped output, with the
// produced byte count verified against the header's declared length.
func DecompressToPath(frame []byte, path string, base *fsutil.File) error {
	size, err := FrameContentSize(frame)
	if err != nil {
		return fmt.Errorf("decompressing to %s: %w", path, err)
	}
	return fsutil.WriteAtomically(path, base, size, func(output []byte) error {
		return decompressInto(frame, output)
	})
}

// decompressInto performs one-shot decompression of frame into output,
// which must be sized to the frame's declared content size exactly.
func decompressInto(frame, output []byte) error {
	switch {
	case bytes.Equal(frame[:4], zstdMagic):
		result, err := zstdDecoder.DecodeAll(frame, output[:0])
		if err != nil {
			return fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != len(output) {
			return fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), len(output))
		}
		if &result[0] != &output[0] {
			copy(output, result)
		}
		return nil

	case bytes.Equal(frame[:4], lz4Magic):
		reader := lz4.NewReader(bytes.NewReader(frame))
		if _, err := io.ReadFull(reader, output); err != nil {
			return fmt.Errorf("lz4 decompress: %w", err)
		}
		var extra [1]byte
		if n, _ := reader.Read(extra[:]); n != 0 {
			return fmt.Errorf("lz4 decompress: frame holds more than the declared %d bytes", len(output))
		}
		return nil

	default:
		return fmt.Errorf("unrecognized compression frame")
	}
}
