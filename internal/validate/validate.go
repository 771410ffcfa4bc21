// Package validate checks converted NDJSON output against the shaped
// document schema using simple pattern checks.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
)

var (
	// refRe matches an OSM element id as written in nd/@ref.
	refRe = regexp.MustCompile(`^-?[0-9]+$`)
	// addressFieldRe matches the part after "addr:" of a kept address tag.
	addressFieldRe = regexp.MustCompile(`^[a-z_]+$`)
)

// Problem is one schema violation.
type Problem struct {
	Record  int    // 1-based position in the file
	ID      string // element id, when present
	Message string
}

func (p Problem) String() string {
	if p.ID == "" {
		return fmt.Sprintf("record %d: %s", p.Record, p.Message)
	}
	return fmt.Sprintf("record %d (id %s): %s", p.Record, p.ID, p.Message)
}

// Report summarizes a checked file.
type Report struct {
	Documents int
	Types     map[string]int
	Problems  []Problem
}

// Passed reports whether no problems were found.
func (r Report) Passed() bool { return len(r.Problems) == 0 }

// Checker validates documents. With clean set it also checks the
// normalization rules applied by cleaning mode.
type Checker struct {
	rules   domain.Rules
	created map[string]bool
	clean   bool
}

// NewChecker creates a Checker for documents shaped with rules.
func NewChecker(rules domain.Rules, clean bool) *Checker {
	created := make(map[string]bool, len(rules.Created))
	for _, name := range rules.Created {
		created[name] = true
	}
	return &Checker{rules: rules, created: created, clean: clean}
}

// CheckFile reads a stream of JSON documents, compact or indented, and
// checks each one. A document that is not valid JSON ends the check with an error.
func (c *Checker) CheckFile(r io.Reader) (Report, error) {
	report := Report{Types: make(map[string]int)}
	dec := json.NewDecoder(r)
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return report, nil
		}
		if err != nil {
			return report, fmt.Errorf("decode record %d: %w", report.Documents+1, err)
		}
		report.Documents++

		typ, _ := doc[domain.KeyType].(string)
		report.Types[typ]++

		id, _ := doc["id"].(string)
		for _, msg := range c.CheckDocument(doc) {
			report.Problems = append(report.Problems, Problem{Record: report.Documents, ID: id, Message: msg})
		}
	}
}

// CheckDocument returns the schema violations of one decoded document.
func (c *Checker) CheckDocument(doc map[string]any) []string {
	var problems []string
	pf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	typ, ok := doc[domain.KeyType].(string)
	switch {
	case !ok:
		pf("type is missing or not a string")
	case typ != domain.KindNode && typ != domain.KindWay:
		pf("type %q not in {node, way}", typ)
	}

	c.checkPos(pf, typ, doc)
	c.checkNodeRefs(pf, typ, doc)
	c.checkCreated(pf, doc)
	c.checkAddress(pf, doc)
	c.checkKeys(pf, doc)

	return problems
}

func (c *Checker) checkPos(pf func(string, ...any), typ string, doc map[string]any) {
	raw, ok := doc[domain.KeyPos]
	if !ok {
		if typ == domain.KindNode {
			pf("node has no pos")
		}
		return
	}
	if typ == domain.KindWay {
		pf("way has pos")
	}
	pos, ok := raw.([]any)
	if !ok {
		pf("pos is not an array")
		return
	}
	if len(pos) > 2 {
		pf("pos has %d values, want at most 2", len(pos))
	}
	for i, v := range pos {
		if _, ok := v.(float64); !ok {
			pf("pos[%d] is not a number", i)
		}
	}
}

func (c *Checker) checkNodeRefs(pf func(string, ...any), typ string, doc map[string]any) {
	raw, ok := doc[domain.KeyNodeRefs]
	if !ok {
		return
	}
	if typ != domain.KindWay {
		pf("node_refs on a %s", typ)
	}
	refs, ok := raw.([]any)
	if !ok {
		pf("node_refs is not an array")
		return
	}
	for i, v := range refs {
		s, ok := v.(string)
		if !ok || !refRe.MatchString(s) {
			pf("node_refs[%d] %v is not an element id", i, v)
		}
	}
}

func (c *Checker) checkCreated(pf func(string, ...any), doc map[string]any) {
	raw, ok := doc[domain.KeyCreated]
	if !ok {
		return
	}
	created, ok := raw.(map[string]any)
	if !ok {
		pf("created is not an object")
		return
	}
	for _, k := range sortedKeys(created) {
		if !c.created[k] {
			pf("created.%s is not a provenance attribute", k)
		}
		if _, ok := created[k].(string); !ok {
			pf("created.%s is not a string", k)
		}
	}
}

func (c *Checker) checkAddress(pf func(string, ...any), doc map[string]any) {
	raw, ok := doc[domain.KeyAddress]
	if !ok {
		return
	}
	address, ok := raw.(map[string]any)
	if !ok {
		pf("address is not an object")
		return
	}
	for _, k := range sortedKeys(address) {
		if !addressFieldRe.MatchString(k) {
			pf("address.%s is not a lowercase field name", k)
		}
		v, ok := address[k].(string)
		if !ok {
			pf("address.%s is not a string", k)
			continue
		}
		if c.clean && k == "postcode" && !c.rules.Postcode.MatchString(v) {
			pf("address.postcode %q is not a six digit postcode", v)
		}
	}
}

func (c *Checker) checkKeys(pf func(string, ...any), doc map[string]any) {
	for _, k := range sortedKeys(doc) {
		if k == "" || c.rules.ProblemChars.MatchString(k) {
			pf("key %q contains characters not allowed in a field name", k)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
