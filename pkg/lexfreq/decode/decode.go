// Package decode turns one gzip-compressed XML corpus file into an element
// tree. Decompression and parsing stream; only the tree is held in memory.
package decode

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html/charset"

	"github.com/cognicore/lexfreq/pkg/lexfreq/internalerr"
)

// Kind classifies a decode failure.
type Kind int

const (
	KindOpen Kind = iota
	KindDecompress
	KindMarkup
	KindEmpty
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindDecompress:
		return "decompress"
	case KindMarkup:
		return "markup"
	case KindEmpty:
		return "empty"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// DecodeError reports why a file could not be turned into a Document.
// It matches internalerr.ErrDecode, and internalerr.ErrTimeout for KindTimeout.
type DecodeError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	switch target {
	case internalerr.ErrDecode:
		return true
	case internalerr.ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// Open decodes the file at path.
func Open(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Kind: KindOpen, Err: err}
	}
	defer f.Close()

	doc, err := Decode(ctx, f)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Decode reads a gzip stream of XML and builds its tree. A cancelled ctx
// stops the read and is returned as is; an expired deadline is a
// KindTimeout failure.
func Decode(ctx context.Context, r io.Reader) (*Document, error) {
	cr := &ctxReader{ctx: ctx, r: r}
	zr, err := gzip.NewReader(cr)
	if err != nil {
		return nil, classify(ctx, KindDecompress, err)
	}
	defer zr.Close()

	src := &errReader{r: zr}
	root, err := parse(src)
	if err != nil {
		if src.err != nil {
			return nil, classify(ctx, KindDecompress, src.err)
		}
		return nil, classify(ctx, KindMarkup, err)
	}
	if root == nil {
		return nil, classify(ctx, KindEmpty, errors.New("no root element"))
	}
	return &Document{Root: root}, nil
}

func classify(ctx context.Context, kind Kind, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &DecodeError{Kind: KindTimeout, Err: ctx.Err()}
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	}
	return &DecodeError{Kind: kind, Err: err}
}

func parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if len(stack) > 0 {
				return nil, fmt.Errorf("unexpected EOF inside <%s>", stack[len(stack)-1].Name)
			}
			return root, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				el.Attr = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					el.Attr[a.Name.Local] = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			el := stack[len(stack)-1]
			if len(el.Children) == 0 {
				el.Text += string(t)
			}
		}
	}
}

// ctxReader fails reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// errReader remembers the last non-EOF error of the decompressor so a
// truncated stream is not reported as a markup error.
type errReader struct {
	r   io.Reader
	err error
}

func (e *errReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF {
		e.err = err
	}
	return n, err
}
