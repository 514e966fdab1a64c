// Package media serves asset files to video and audio sinks over HTTP,
// honoring byte-range requests so sinks can seek without downloading the
// whole file.
package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte window within a file of known size.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange interprets a Range request header against a file size. A
// missing header returns (nil, nil): serve the whole file. Multi-range
// requests collapse to their first range; an end past the file clamps to
// the last byte.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	if first, _, found := strings.Cut(spec, ","); found {
		spec = strings.TrimSpace(first)
	}

	startPart, endPart, found := strings.Cut(spec, "-")
	if !found {
		return nil, ErrInvalidRange
	}

	if startPart == "" {
		// suffix form: the last N bytes
		n, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrInvalidRange
		}
		start := size - n
		if start < 0 {
			start = 0
		}
		return &ByteRange{Start: start, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil || start < 0 {
		return nil, ErrInvalidRange
	}

	end := size - 1
	if endPart != "" {
		end, err = strconv.ParseInt(endPart, 10, 64)
		if err != nil {
			return nil, ErrInvalidRange
		}
		if end > size-1 {
			end = size - 1
		}
	}

	if start >= size || start > end {
		return nil, ErrUnsatisfiable
	}
	return &ByteRange{Start: start, End: end}, nil
}
