// Package bmp reads and rewrites uncompressed 24-bit bitmap files.
//
// All multi-byte fields are little-endian. The file header is 14 bytes and
// the info header (BITMAPINFOHEADER) is 40 bytes; pixel data is assumed to
// start immediately after them at offset 54, with no row padding.
package bmp

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 14
	// InfoHeaderSize is the size of the info header in bytes.
	InfoHeaderSize = 40
	// PixelOffset is where pixel data begins.
	PixelOffset = HeaderSize + InfoHeaderSize

	// Signature is "BM" read as a little-endian uint16.
	Signature uint16 = 0x4D42
)

// Header is the 14-byte bitmap file header.
type Header struct {
	Signature  uint16 // @0
	FileSize   uint32 // @2
	Reserved   uint32 // @6
	DataOffset uint32 // @10
}

// InfoHeader is the 40-byte bitmap info header.
type InfoHeader struct {
	Size            uint32 // @0
	Width           int32  // @4
	Height          int32  // @8
	Planes          uint16 // @12
	BitCount        uint16 // @14
	Compression     uint32 // @16
	ImageSize       uint32 // @20
	XPixelsPerM     int32  // @24
	YPixelsPerM     int32  // @28
	ColorsUsed      uint32 // @32
	ColorsImportant uint32 // @36
}

var le = binary.LittleEndian

// DecodeHeader parses both headers from the start of b.
func DecodeHeader(b []byte) (Header, InfoHeader, error) {
	if len(b) < PixelOffset {
		return Header{}, InfoHeader{}, &FormatError{
			Reason: "header too short",
			Have:   len(b),
			Want:   PixelOffset,
		}
	}

	h := Header{
		Signature:  le.Uint16(b[0:]),
		FileSize:   le.Uint32(b[2:]),
		Reserved:   le.Uint32(b[6:]),
		DataOffset: le.Uint32(b[10:]),
	}

	ib := b[HeaderSize:]
	info := InfoHeader{
		Size:            le.Uint32(ib[0:]),
		Width:           int32(le.Uint32(ib[4:])), //nolint:gosec // G115: reinterpreting signed field
		Height:          int32(le.Uint32(ib[8:])), //nolint:gosec // G115: reinterpreting signed field
		Planes:          le.Uint16(ib[12:]),
		BitCount:        le.Uint16(ib[14:]),
		Compression:     le.Uint32(ib[16:]),
		ImageSize:       le.Uint32(ib[20:]),
		XPixelsPerM:     int32(le.Uint32(ib[24:])), //nolint:gosec // G115: reinterpreting signed field
		YPixelsPerM:     int32(le.Uint32(ib[28:])), //nolint:gosec // G115: reinterpreting signed field
		ColorsUsed:      le.Uint32(ib[32:]),
		ColorsImportant: le.Uint32(ib[36:]),
	}
	return h, info, nil
}

// ReadHeader reads and decodes the 54 header bytes from r.
func ReadHeader(r io.Reader) (Header, InfoHeader, error) {
	buf := make([]byte, PixelOffset)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, InfoHeader{}, &FormatError{
				Reason: "header too short",
				Have:   n,
				Want:   PixelOffset,
			}
		}
		return Header{}, InfoHeader{}, err
	}
	return DecodeHeader(buf)
}

// Encode returns the 14-byte encoding of h.
func (h Header) Encode() []byte {
	b := make([]byte, HeaderSize)
	le.PutUint16(b[0:], h.Signature)
	le.PutUint32(b[2:], h.FileSize)
	le.PutUint32(b[6:], h.Reserved)
	le.PutUint32(b[10:], h.DataOffset)
	return b
}

// Encode returns the 40-byte encoding of info.
func (info InfoHeader) Encode() []byte {
	b := make([]byte, InfoHeaderSize)
	le.PutUint32(b[0:], info.Size)
	le.PutUint32(b[4:], uint32(info.Width))  //nolint:gosec // G115: two's complement round-trip
	le.PutUint32(b[8:], uint32(info.Height)) //nolint:gosec // G115: two's complement round-trip
	le.PutUint16(b[12:], info.Planes)
	le.PutUint16(b[14:], info.BitCount)
	le.PutUint32(b[16:], info.Compression)
	le.PutUint32(b[20:], info.ImageSize)
	le.PutUint32(b[24:], uint32(info.XPixelsPerM)) //nolint:gosec // G115: two's complement round-trip
	le.PutUint32(b[28:], uint32(info.YPixelsPerM)) //nolint:gosec // G115: two's complement round-trip
	le.PutUint32(b[32:], info.ColorsUsed)
	le.PutUint32(b[36:], info.ColorsImportant)
	return b
}

// Dimensions returns the absolute pixel width and height. Top-down bitmaps
// store a negative height.
func (info InfoHeader) Dimensions() (width, height int) {
	return absInt(int(info.Width)), absInt(int(info.Height))
}

// CheckDepth rejects palette-indexed formats.
func CheckDepth(info InfoHeader) error {
	if info.BitCount <= 8 {
		return &UnsupportedFormatError{BitCount: info.BitCount}
	}
	return nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
