package dupes

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // Content fingerprint, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/minio/highwayhash"
	"github.com/spf13/afero"
)

// Algorithm names a content digest.
type Algorithm string

const (
	// SHA256 is a 256-bit SHA-2 digest.
	SHA256 Algorithm = "sha256"
	// MD5 is a 128-bit MD5 digest.
	MD5 Algorithm = "md5"
	// Highway is a 256-bit HighwayHash digest under a fixed key.
	Highway Algorithm = "highway"
)

// Algorithms lists the accepted digest algorithms.
//
//nolint:gochecknoglobals // Lookup table
var Algorithms = []Algorithm{SHA256, MD5, Highway}

// highwayKey is fixed so that digests are stable across runs.
//
//nolint:gochecknoglobals // Constant key material
var highwayKey = []byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	0xF0, 0xE0, 0xD0, 0xC0, 0xB0, 0xA0, 0x90, 0x80,
	0x70, 0x60, 0x50, 0x40, 0x30, 0x20, 0x10, 0x00,
}

// chunkSize is the read size used while hashing and comparing.
const chunkSize = 64 * 1024

// NewHash returns a fresh hash for the algorithm.
func NewHash(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case SHA256, "":
		return sha256.New(), nil
	case MD5:
		return md5.New(), nil //nolint:gosec // See import
	case Highway:
		return highwayhash.New(highwayKey)
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q: must be one of %v", algo, Algorithms)
	}
}

// copyContext copies src into dst in chunks and stops once ctx is done.
func copyContext(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

// Digest returns the hex digest of the file at path. A file that cannot be
// opened or read yields a *FileError of kind KindUnreadable.
func Digest(ctx context.Context, fsys afero.Fs, path string, algo Algorithm) (string, error) {
	h, err := NewHash(algo)
	if err != nil {
		return "", err
	}

	file, err := fsys.Open(path)
	if err != nil {
		return "", unreadable(path, err)
	}
	defer file.Close()

	if err := copyContext(ctx, h, file, make([]byte, chunkSize)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		return "", unreadable(path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// readChunk fills buf from r and returns the bytes read. io.EOF is only
// returned once nothing is left.
func readChunk(r io.Reader, buf []byte) ([]byte, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) || (errors.Is(err, io.EOF) && n > 0) {
		err = nil
	}

	return buf[:n], err
}

// Equal reports whether the files at a and b hold the same bytes. A file that
// cannot be opened or read yields a *FileError naming that file.
func Equal(ctx context.Context, fsys afero.Fs, a, b string) (bool, error) {
	fa, err := fsys.Open(a)
	if err != nil {
		return false, unreadable(a, err)
	}
	defer fa.Close()

	fb, err := fsys.Open(b)
	if err != nil {
		return false, unreadable(b, err)
	}
	defer fb.Close()

	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		chunkA, errA := readChunk(fa, bufA)
		if errA != nil && !errors.Is(errA, io.EOF) {
			return false, unreadable(a, errA)
		}

		chunkB, errB := readChunk(fb, bufB)
		if errB != nil && !errors.Is(errB, io.EOF) {
			return false, unreadable(b, errB)
		}

		if !bytes.Equal(chunkA, chunkB) {
			return false, nil
		}

		// Equal chunks that are empty mean both files ended here.
		if errA != nil || errB != nil {
			return errA != nil && errB != nil, nil
		}
	}
}
