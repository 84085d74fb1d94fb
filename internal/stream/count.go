package stream

import (
	"bytes"
	"io"
)

// CountRecords scans r to the end and counts delimited records. A final
// record with no trailing delimiter still counts. Used to pre-compute a
// session total for seekable inputs.
func CountRecords(r io.Reader, delim byte) (uint64, error) {
	buf := make([]byte, bufSize)
	var n uint64
	var last byte
	seen := false
	for {
		read, err := r.Read(buf)
		if read > 0 {
			seen = true
			n += uint64(bytes.Count(buf[:read], []byte{delim}))
			last = buf[read-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if seen && last != delim {
		n++
	}
	return n, nil
}
