// Package image reads and writes program images: comma separated decimal
// integers, optionally zstd compressed.
package image

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jcorbin/intcode/internal/flushio"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// CompressedExt marks image files that are zstd compressed.
const CompressedExt = ".zst"

// Location names a value within an image.
type Location struct {
	Name  string
	Line  int
	Index int
}

func (loc Location) String() string {
	return fmt.Sprintf("%v:%v: value #%v", loc.Name, loc.Line, loc.Index)
}

// ParseError reports a token that is not a decimal integer.
type ParseError struct {
	Location
	Token string
	Err   error
}

func (err *ParseError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("%v: invalid value %q: %v", err.Location, err.Token, err.Err)
	}
	return fmt.Sprintf("%v: invalid value %q", err.Location, err.Token)
}

func (err *ParseError) Unwrap() error { return err.Err }

// Parse reads an image from r; name only labels any ParseError. Whitespace
// around values, including line breaks, is ignored.
func Parse(r io.Reader, name string) ([]int64, error) {
	br := bufio.NewReader(r)
	loc := Location{Name: name, Line: 1}
	var prog []int64
	for {
		tok, rerr := br.ReadString(',')
		if rerr != nil && rerr != io.EOF {
			return nil, errors.Wrap(rerr, name)
		}
		sep := rerr == nil

		lead := len(tok) - len(strings.TrimLeft(tok, " \t\r\n"))
		loc.Line += strings.Count(tok[:lead], "\n")
		field := strings.TrimSpace(strings.TrimSuffix(tok, ","))

		if field == "" && !sep && len(prog) == 0 {
			return nil, &ParseError{Location: loc, Token: field, Err: errors.New("empty image")}
		}
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); ok {
				err = ne.Err
			}
			return nil, &ParseError{Location: loc, Token: field, Err: err}
		}
		prog = append(prog, v)
		loc.Line += strings.Count(tok[lead:], "\n")
		loc.Index++

		if !sep {
			return prog, nil
		}
	}
}

// Load reads an image file, decompressing it if its name ends in
// CompressedExt.
func Load(path string) (_ []int64, rerr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); rerr == nil {
			rerr = cerr
		}
	}()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "%v: zstd", path)
		}
		defer dec.Close()
		r = dec
	}
	return Parse(r, path)
}

// Write renders prog in the format read by Parse, ending with a newline.
func Write(w io.Writer, prog []int64) error {
	wf := flushio.NewWriteFlusher(w)
	var buf []byte
	for i, v := range prog {
		buf = buf[:0]
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, v, 10)
		if _, err := wf.Write(buf); err != nil {
			return err
		}
	}
	if _, err := wf.Write([]byte{'\n'}); err != nil {
		return err
	}
	return wf.Flush()
}

// Save writes prog to a file, compressing it if its name ends in
// CompressedExt.
func Save(path string, prog []int64) (rerr error) {
	var buf bytes.Buffer
	if err := Write(&buf, prog); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); rerr == nil {
			rerr = cerr
		}
	}()

	if !strings.HasSuffix(path, CompressedExt) {
		_, err = buf.WriteTo(f)
		return err
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return errors.Wrapf(err, "%v: zstd", path)
	}
	if _, err := buf.WriteTo(enc); err != nil {
		enc.Close()
		return errors.Wrapf(err, "%v: zstd", path)
	}
	return errors.Wrapf(enc.Close(), "%v: zstd", path)
}
