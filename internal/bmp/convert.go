package bmp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// ConvertOptions controls ConvertFile.
type ConvertOptions struct {
	// Verify re-reads the header after writing and fails if any of its
	// bytes changed.
	Verify bool
}

// ConvertResult describes a completed conversion.
type ConvertResult struct {
	Width        int
	Height       int
	PixelBytes   int
	HeaderDigest string // BLAKE3 of the 54 header bytes, set when verifying
}

// ConvertFile converts the bitmap at path to grayscale in place. On failure
// the file keeps whatever writes had already completed.
func ConvertFile(path string, opts ConvertOptions) (res ConvertResult, err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return res, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	raw := make([]byte, PixelOffset)
	n, err := io.ReadFull(f, raw)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return res, &FormatError{Reason: "header too short", Have: n, Want: PixelOffset}
		}
		return res, fmt.Errorf("read header %s: %w", path, err)
	}

	_, info, err := DecodeHeader(raw)
	if err != nil {
		return res, err
	}
	if err := CheckDepth(info); err != nil {
		return res, err
	}

	res.Width, res.Height = info.Dimensions()
	pixels, err := ReadPixels(f, res.Width, res.Height)
	if err != nil {
		return res, err
	}
	res.PixelBytes = len(pixels)

	ToGrayscale(pixels, res.Width, res.Height)

	if err := WritePixels(f, pixels); err != nil {
		return res, err
	}

	if opts.Verify {
		digest, err := verifyHeader(f, raw)
		if err != nil {
			return res, err
		}
		res.HeaderDigest = digest
	}
	return res, nil
}

func verifyHeader(r io.ReaderAt, before []byte) (string, error) {
	after := make([]byte, PixelOffset)
	if _, err := r.ReadAt(after, 0); err != nil {
		return "", fmt.Errorf("re-read header: %w", err)
	}
	want := blake3.Sum256(before)
	got := blake3.Sum256(after)
	if !bytes.Equal(want[:], got[:]) {
		return "", fmt.Errorf("header changed during conversion: %s != %s",
			hex.EncodeToString(got[:]), hex.EncodeToString(want[:]))
	}
	return hex.EncodeToString(want[:]), nil
}
