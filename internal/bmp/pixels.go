package bmp

import (
	"errors"
	"fmt"
	"io"
)

// MaxPixelBytes caps the pixel buffer a single image may allocate.
const MaxPixelBytes = 512 << 20 // 512 MiB

const bytesPerPixel = 3

// PixelBytes returns width*height*3, rejecting negative or oversized images.
func PixelBytes(width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, &FormatError{Reason: fmt.Sprintf("negative dimensions %dx%d", width, height)}
	}
	if width == 0 || height == 0 {
		return 0, nil
	}
	if height > MaxPixelBytes/bytesPerPixel/width {
		return 0, &FormatError{Reason: fmt.Sprintf("image %dx%d exceeds %d byte limit", width, height, MaxPixelBytes)}
	}
	return width * height * bytesPerPixel, nil
}

// ReadPixels reads exactly width*height*3 bytes of B,G,R pixel data.
func ReadPixels(r io.Reader, width, height int) ([]byte, error) {
	size, err := PixelBytes(width, height)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TruncatedImageError{Have: n, Want: size}
		}
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	return buf, nil
}

// Gray returns floor(0.299*r + 0.587*g + 0.114*b), computed in integers.
func Gray(b, g, r byte) byte {
	return byte((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
}

// ToGrayscale rewrites every B,G,R triple in buf with its luminance, row by
// row, left to right. Pixels beyond len(buf) are ignored.
func ToGrayscale(buf []byte, width, height int) {
	for y := range height {
		row := y * width * bytesPerPixel
		for x := range width {
			i := row + x*bytesPerPixel
			if i+bytesPerPixel > len(buf) {
				return
			}
			v := Gray(buf[i], buf[i+1], buf[i+2])
			buf[i], buf[i+1], buf[i+2] = v, v, v
		}
	}
}

// WritePixels overwrites the pixel region at PixelOffset with buf. The
// header bytes are never touched.
func WritePixels(w io.WriterAt, buf []byte) error {
	n, err := w.WriteAt(buf, PixelOffset)
	if err != nil {
		return fmt.Errorf("write pixels: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("write pixels: %w (wrote %d of %d)", io.ErrShortWrite, n, len(buf))
	}
	return nil
}
