package v1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToID(t *testing.T) {
	for name, tc := range map[string]struct {
		in   any
		want ID
	}{
		"nil":         {nil, ""},
		"string":      {"abc", "abc"},
		"json number": {json.Number("5"), "5"},
		"float":       {float64(12), "12"},
		"int":         {7, "7"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToID(tc.in))
		})
	}
}

func TestRecordGetNested(t *testing.T) {
	r := Record{"id": json.Number("1"), "company": map[string]any{"name": "Acme"}}
	assert.Equal(t, "Acme", r.Get("company.name"))
	assert.Nil(t, r.Get("company.missing"))
	assert.Nil(t, r.Get("missing.deeper"))

	id, ok := r.Identifier("id")
	assert.True(t, ok)
	assert.Equal(t, ID("1"), id)

	_, ok = Record{}.Identifier("id")
	assert.False(t, ok)
}
