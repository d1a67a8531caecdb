package decode

// Document is the parsed tree of one corpus file.
type Document struct {
	Path string
	Root *Element
}

// Element is one markup element. Text holds the character data that precedes
// the first child element, which is where corpus exports put token text.
type Element struct {
	Name     string
	Attr     map[string]string
	Text     string
	Children []*Element
}

// Child returns the i-th child element or nil.
func (e *Element) Child(i int) *Element {
	if e == nil || i < 0 || i >= len(e.Children) {
		return nil
	}
	return e.Children[i]
}

// Get returns an attribute value and whether it was present.
func (e *Element) Get(name string) (string, bool) {
	v, ok := e.Attr[name]
	return v, ok
}

// Iter calls fn for e and every descendant named tag, in document order.
func (e *Element) Iter(tag string, fn func(*Element)) {
	if e == nil {
		return
	}
	if e.Name == tag {
		fn(e)
	}
	for _, c := range e.Children {
		c.Iter(tag, fn)
	}
}
