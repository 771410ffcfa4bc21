package domain

import (
	"bytes"
	"encoding/json"
)

// Reserved document keys. Element attributes and tags cannot overwrite them.
const (
	KeyType     = "type"
	KeyPos      = "pos"
	KeyCreated  = "created"
	KeyAddress  = "address"
	KeyNodeRefs = "node_refs"
)

var reservedKeys = map[string]bool{
	KeyType:     true,
	KeyPos:      true,
	KeyCreated:  true,
	KeyAddress:  true,
	KeyNodeRefs: true,
}

// Document is the shaped form of a node or way.
//
// Pos is non-nil for every node (possibly empty when the node has no
// coordinates) and nil for ways. Created, Address and NodeRefs are nil
// unless the source element supplied data for them.
type Document struct {
	Type     string
	Pos      []float64
	Created  map[string]string
	Address  map[string]string
	NodeRefs []string
	Fields   map[string]string

	// Dropped counts inputs the shaper skipped. It is not serialized.
	Dropped Drops
}

// Drops counts tags and attributes left out of a document, by reason.
type Drops struct {
	ProblemKeys     int
	StreetDetail    int
	InvalidPostcode int
	ReservedKeys    int
}

// Total returns the number of dropped inputs.
func (d Drops) Total() int {
	return d.ProblemKeys + d.StreetDetail + d.InvalidPostcode + d.ReservedKeys
}

// ID returns the element id attribute, or "" when the element had none.
func (d *Document) ID() string {
	return d.Fields["id"]
}

// MarshalJSON flattens the document into a single JSON object. Keys are
// emitted in sorted order so repeated runs produce identical bytes.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+5)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[KeyType] = d.Type
	if d.Pos != nil {
		out[KeyPos] = d.Pos
	}
	if len(d.Created) > 0 {
		out[KeyCreated] = d.Created
	}
	if len(d.Address) > 0 {
		out[KeyAddress] = d.Address
	}
	if d.NodeRefs != nil {
		out[KeyNodeRefs] = d.NodeRefs
	}
	return encode(out, "")
}

// MarshalDocument encodes doc as JSON without HTML escaping. A non-empty
// indent produces multi-line output. The result has no trailing newline.
func MarshalDocument(doc *Document, indent string) ([]byte, error) {
	return encode(doc, indent)
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
