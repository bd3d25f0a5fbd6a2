package media

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

// rangePattern matches a prefix only, so "bytes=0-1,5-9" is served as "bytes=0-1".
var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)`)

// ByteRange is an inclusive interval of an object. Partial is false for a full response.
type ByteRange struct {
	Start   int64
	End     int64
	Partial bool
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ResolveRange turns a Range header into the interval to send for an object of size bytes.
// Absent or malformed headers yield the full object.
func ResolveRange(header string, size int64) (ByteRange, error) {
	full := ByteRange{Start: 0, End: size - 1}

	m := rangePattern.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return full, nil
	}
	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return full, nil
	}
	end := size - 1
	if m[2] != "" {
		e, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return full, nil
		}
		if e < end {
			end = e
		}
	}

	if start >= size || start > end {
		return ByteRange{}, ErrRangeNotSatisfiable
	}
	return ByteRange{Start: start, End: end, Partial: true}, nil
}
