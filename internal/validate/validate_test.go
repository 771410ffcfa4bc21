package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
)

const validOutput = `{"created":{"uid":"451048","version":"7"},"id":"261114295","pos":[41.9730791,-87.6866303],"type":"node"}
{"address":{"housenumber":"5158","postcode":"606250"},"id":"258219703","node_refs":["1","2","1"],"type":"way"}
{"id":"3","pos":[],"type":"node"}
`

func TestCheckFile_Valid(t *testing.T) {
	report, err := NewChecker(domain.DefaultRules(), true).CheckFile(strings.NewReader(validOutput))
	require.NoError(t, err)

	assert.True(t, report.Passed(), "%v", report.Problems)
	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, map[string]int{"node": 2, "way": 1}, report.Types)
}

func TestCheckFile_Pretty(t *testing.T) {
	pretty := "{\n  \"node_refs\": [\n    \"1\"\n  ],\n  \"type\": \"way\"\n}\n{\n  \"pos\": [],\n  \"type\": \"node\"\n}\n"
	report, err := NewChecker(domain.DefaultRules(), false).CheckFile(strings.NewReader(pretty))
	require.NoError(t, err)
	assert.True(t, report.Passed(), "%v", report.Problems)
	assert.Equal(t, 2, report.Documents)
}

func TestCheckFile_InvalidJSON(t *testing.T) {
	_, err := NewChecker(domain.DefaultRules(), false).CheckFile(strings.NewReader(`{"type":"node","pos":[]}` + "\n{oops"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
}

func TestCheckDocument_Violations(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		clean bool
		want  string
	}{
		{name: "missing type", doc: `{"pos":[]}`, want: "type is missing"},
		{name: "relation type", doc: `{"type":"relation"}`, want: `type "relation" not in`},
		{name: "node without pos", doc: `{"type":"node"}`, want: "node has no pos"},
		{name: "way with pos", doc: `{"type":"way","pos":[1,2]}`, want: "way has pos"},
		{name: "pos too long", doc: `{"type":"node","pos":[1,2,3]}`, want: "pos has 3 values"},
		{name: "pos as strings", doc: `{"type":"node","pos":["1","2"]}`, want: "pos[0] is not a number"},
		{name: "refs on node", doc: `{"type":"node","pos":[],"node_refs":["1"]}`, want: "node_refs on a node"},
		{name: "non numeric ref", doc: `{"type":"way","node_refs":["abc"]}`, want: "node_refs[0]"},
		{name: "unknown created", doc: `{"type":"way","created":{"editor":"josm"}}`, want: "created.editor is not a provenance attribute"},
		{name: "address detail key", doc: `{"type":"way","address":{"street:name":"x"}}`, want: "address.street:name is not a lowercase field name"},
		{name: "problem key", doc: `{"type":"way","opening.hours":"x"}`, want: `key "opening.hours"`},
		{name: "dirty postcode", doc: `{"type":"way","address":{"postcode":"606 25"}}`, clean: true, want: "address.postcode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := NewChecker(domain.DefaultRules(), tt.clean).CheckFile(strings.NewReader(tt.doc))
			require.NoError(t, err)
			require.False(t, report.Passed())

			var messages []string
			for _, p := range report.Problems {
				messages = append(messages, p.String())
			}
			assert.Contains(t, strings.Join(messages, "\n"), tt.want)
		})
	}
}

func TestCheckDocument_PostcodeOnlyCheckedWhenClean(t *testing.T) {
	doc := `{"type":"way","address":{"postcode":"606 25"}}`
	report, err := NewChecker(domain.DefaultRules(), false).CheckFile(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, report.Passed())
}

func TestProblem_String(t *testing.T) {
	assert.Equal(t, "record 2 (id 7): way has pos", Problem{Record: 2, ID: "7", Message: "way has pos"}.String())
	assert.Equal(t, "record 1: type is missing", Problem{Record: 1, Message: "type is missing"}.String())
}
