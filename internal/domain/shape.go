package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidCoordinate is returned when a node's lat or lon is not a number.
// It signals corrupt input and aborts the run.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

const government = "Government"

// Shaper maps OSM elements to documents. It holds no per-call state and is
// safe for concurrent use.
type Shaper struct {
	rules      Rules
	created    map[string]bool
	amenity    map[string]string
	government []*regexp.Regexp
}

// NewShaper creates a Shaper from rules. The lookup tables are copied, so
// later changes to rules do not affect the shaper.
func NewShaper(rules Rules) *Shaper {
	s := &Shaper{
		rules:   rules,
		created: make(map[string]bool, len(rules.Created)),
		amenity: make(map[string]string, len(rules.AmenityRemap)),
	}
	for _, name := range rules.Created {
		s.created[name] = true
	}
	for k, v := range rules.AmenityRemap {
		s.amenity[k] = v
	}
	for _, abbr := range rules.GovernmentAbbr {
		s.government = append(s.government, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(abbr)))
	}
	return s
}

// Shape converts a node or way into a document. It returns nil with no error
// for any other element. The element is only read, never modified.
func (s *Shaper) Shape(el *Element, clean bool) (*Document, error) {
	if el == nil || !el.Shapeable() {
		return nil, nil
	}

	doc := &Document{
		Type:   el.Name,
		Fields: make(map[string]string),
	}

	if el.Name == KindNode {
		pos, err := parsePos(el)
		if err != nil {
			return nil, err
		}
		doc.Pos = pos
	}

	s.applyAttrs(doc, el)

	el.Walk(func(child *Element) {
		switch child.Name {
		case "tag":
			s.applyTag(doc, child, clean)
		case "nd":
			if el.Name != KindWay {
				return
			}
			if ref, ok := child.Attr("ref"); ok {
				doc.NodeRefs = append(doc.NodeRefs, ref)
			}
		}
	})

	return doc, nil
}

// parsePos reads lat then lon. A missing or empty attribute is skipped; a
// present but malformed one is an error.
func parsePos(el *Element) ([]float64, error) {
	pos := make([]float64, 0, 2)
	for _, name := range []string{"lat", "lon"} {
		raw, ok := el.Attr(name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			id, _ := el.Attr("id")
			return nil, fmt.Errorf("%w: node %s %s=%q", ErrInvalidCoordinate, id, name, raw)
		}
		pos = append(pos, v)
	}
	return pos, nil
}

func (s *Shaper) applyAttrs(doc *Document, el *Element) {
	for _, a := range el.Attrs {
		switch {
		case s.created[a.Name]:
			if doc.Created == nil {
				doc.Created = make(map[string]string, len(s.created))
			}
			doc.Created[a.Name] = a.Value
		case a.Name == "lat" || a.Name == "lon":
		case reservedKeys[a.Name]:
			doc.Dropped.ReservedKeys++
		default:
			doc.Fields[a.Name] = a.Value
		}
	}
}

func (s *Shaper) applyTag(doc *Document, tag *Element, clean bool) {
	key, ok := tag.Attr("k")
	if !ok || key == "" || s.rules.ProblemChars.MatchString(key) {
		doc.Dropped.ProblemKeys++
		return
	}
	value, _ := tag.Attr("v")

	if strings.HasPrefix(key, s.rules.AddressPrefix) {
		if s.rules.LowerColon.MatchString(key) {
			s.applyAddress(doc, key[len(s.rules.AddressPrefix):], value, clean)
			return
		}
		if s.rules.StreetDetail.MatchString(key) {
			doc.Dropped.StreetDetail++
			return
		}
	}

	if reservedKeys[key] {
		doc.Dropped.ReservedKeys++
		return
	}

	if clean {
		value = s.cleanField(key, value)
	}
	doc.Fields[key] = value
}

func (s *Shaper) applyAddress(doc *Document, field, value string, clean bool) {
	if field == "" {
		doc.Dropped.ProblemKeys++
		return
	}
	if clean && field == "postcode" {
		value = strings.ReplaceAll(value, " ", "")
		if !s.rules.Postcode.MatchString(value) {
			doc.Dropped.InvalidPostcode++
			return
		}
	}
	if doc.Address == nil {
		doc.Address = make(map[string]string)
	}
	doc.Address[field] = value
}

func (s *Shaper) cleanField(key, value string) string {
	switch key {
	case "amenity":
		value = strings.ToLower(value)
		if mapped, ok := s.amenity[value]; ok {
			return mapped
		}
		return value
	case "name":
		for _, re := range s.government {
			value = re.ReplaceAllLiteralString(value, government)
		}
		return value
	}
	return value
}
