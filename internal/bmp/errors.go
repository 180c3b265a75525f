package bmp

import "fmt"

// FormatError reports a malformed header or an impossible size.
type FormatError struct {
	Reason string
	Have   int
	Want   int
}

func (e *FormatError) Error() string {
	if e.Want > 0 {
		return fmt.Sprintf("bmp: %s (have %d bytes, want %d)", e.Reason, e.Have, e.Want)
	}
	return "bmp: " + e.Reason
}

// UnsupportedFormatError reports a bit depth the grayscale path cannot handle.
type UnsupportedFormatError struct {
	BitCount uint16
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("bmp: unsupported bit depth %d (need more than 8)", e.BitCount)
}

// TruncatedImageError reports pixel data shorter than the header declares.
type TruncatedImageError struct {
	Have int
	Want int
}

func (e *TruncatedImageError) Error() string {
	return fmt.Sprintf("bmp: truncated pixel data (have %d bytes, want %d)", e.Have, e.Want)
}
