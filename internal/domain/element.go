package domain

// Element kinds that produce documents.
const (
	KindNode = "node"
	KindWay  = "way"
)

// Attr is a single XML attribute. Attributes keep their document order.
type Attr struct {
	Name  string
	Value string
}

// Element is one parsed XML element together with its subtree.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Shapeable reports whether the element is a node or a way.
func (e *Element) Shapeable() bool {
	return e.Name == KindNode || e.Name == KindWay
}

// Walk calls fn for e and then for every descendant in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Release drops the element's attributes and subtree so the memory can be
// reclaimed once the element has been shaped and written.
func (e *Element) Release() {
	e.Attrs = nil
	e.Children = nil
}
