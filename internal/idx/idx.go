// Package idx reads and writes the IDX tensor files the MNIST dataset is
// distributed in.
//
// Binary specification for the IDX files used by MNIST:
// - All integers are stored in big-endian layout
// - An image file starts with the magic number 0x00000803 (int32),
//   followed by the image count, row count and column count (int32 each),
//   followed by count*rows*cols unsigned bytes, one per pixel, row-major
// - A label file starts with the magic number 0x00000801 (int32),
//   followed by the label count (int32) and count unsigned bytes
package idx

import (
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	imageMagic = 0x00000803
	labelMagic = 0x00000801
)

// ImageSize is the side of an MNIST image in pixels.
const ImageSize = 28

// ImageBytes is the number of pixels in a flattened image.
const ImageBytes = ImageSize * ImageSize

// Image holds a single raw 28x28 grayscale image, row-major.
type Image [ImageBytes]byte

// NumClasses is the number of digit classes an MNIST label can take.
const NumClasses = 10

var (
	// ErrBadMagic indicates the file does not start with the expected
	// IDX magic number.
	ErrBadMagic = errors.New("idx: bad magic number")

	// ErrDimensions indicates an image file whose row/column counts are
	// not 28x28.
	ErrDimensions = errors.New("idx: unexpected image dimensions")

	// ErrBadLabel indicates a label outside 0..9.
	ErrBadLabel = errors.New("idx: label out of range")

	// ErrTrailingData indicates bytes left over after the declared count
	// was consumed.
	ErrTrailingData = errors.New("idx: trailing data after payload")
)

// ReadImages parses an MNIST image file.
func ReadImages(r io.Reader) ([]Image, error) {
	var header [4]uint32
	if err := readHeader(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != imageMagic {
		return nil, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrBadMagic, header[0], uint32(imageMagic))
	}
	count := int(header[1])
	if header[2] != ImageSize || header[3] != ImageSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, header[2], header[3])
	}

	images := make([]Image, count)
	for i := range images {
		if _, err := io.ReadFull(r, images[i][:]); err != nil {
			return nil, fmt.Errorf("idx: image %d of %d: %w", i, count, err)
		}
	}
	if err := expectEOF(r); err != nil {
		return nil, err
	}
	return images, nil
}

// ReadLabels parses an MNIST label file.
func ReadLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := readHeader(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrBadMagic, header[0], uint32(labelMagic))
	}
	count := int(header[1])

	labels := make([]byte, count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("idx: labels: %w", err)
	}
	for i, label := range labels {
		if label >= NumClasses {
			return nil, fmt.Errorf("%w: label %d at index %d", ErrBadLabel, label, i)
		}
	}
	if err := expectEOF(r); err != nil {
		return nil, err
	}
	return labels, nil
}

// WriteImages writes images in the MNIST image file layout.
func WriteImages(w io.Writer, images []Image) error {
	header := []uint32{imageMagic, uint32(len(images)), ImageSize, ImageSize}
	if err := writeHeader(w, header); err != nil {
		return err
	}
	for i := range images {
		if _, err := w.Write(images[i][:]); err != nil {
			return fmt.Errorf("idx: image %d: %w", i, err)
		}
	}
	return nil
}

// WriteLabels writes labels in the MNIST label file layout.
func WriteLabels(w io.Writer, labels []byte) error {
	for i, label := range labels {
		if label >= NumClasses {
			return fmt.Errorf("%w: label %d at index %d", ErrBadLabel, label, i)
		}
	}
	if err := writeHeader(w, []uint32{labelMagic, uint32(len(labels))}); err != nil {
		return err
	}
	if _, err := w.Write(labels); err != nil {
		return fmt.Errorf("idx: labels: %w", err)
	}
	return nil
}

// ReadImagesFile reads an image file from disk, decompressing
// transparently when the name ends in .gz.
func ReadImagesFile(path string) ([]Image, error) {
	r, closeAll, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeAll()
	return ReadImages(r)
}

// ReadLabelsFile reads a label file from disk, decompressing
// transparently when the name ends in .gz.
func ReadLabelsFile(path string) ([]byte, error) {
	r, closeAll, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeAll()
	return ReadLabels(r)
}

func openMaybeGzip(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, func() { f.Close() }, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("idx: gzip %s: %w", path, err)
	}
	return zr, func() {
		zr.Close()
		f.Close()
	}, nil
}

func readHeader(r io.Reader, dst []uint32) error {
	buf := make([]byte, 4*len(dst))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("idx: header: %w", err)
	}
	for i := range dst {
		dst[i] = binary.BigEndian.Uint32(buf[4*i:])
	}
	return nil
}

func writeHeader(w io.Writer, fields []uint32) error {
	buf := make([]byte, 4*len(fields))
	for i, v := range fields {
		binary.BigEndian.PutUint32(buf[4*i:], v)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("idx: header: %w", err)
	}
	return nil
}

func expectEOF(r io.Reader) error {
	var scratch [1]byte
	_, err := io.ReadFull(r, scratch[:])
	switch err {
	case io.EOF:
		return nil
	case nil:
		return ErrTrailingData
	default:
		return fmt.Errorf("idx: %w", err)
	}
}
