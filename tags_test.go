package transmute_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bjaus/transmute"
)

func TestJSONFieldName(t *testing.T) {
	t.Parallel()

	type sample struct {
		Plain    string
		Renamed  string `json:"renamed"`
		OmitOnly string `json:",omitempty"`
		Skipped  string `json:"-"`
	}
	typ := reflect.TypeFor[sample]()

	tests := map[string]struct {
		field  string
		expect string
	}{
		"no tag":         {field: "Plain", expect: "Plain"},
		"renamed":        {field: "Renamed", expect: "renamed"},
		"options only":   {field: "OmitOnly", expect: "OmitOnly"},
		"skipped marker": {field: "Skipped", expect: "-"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f, ok := typ.FieldByName(tc.field)
			assert.True(t, ok)
			assert.Equal(t, tc.expect, transmute.JSONFieldName(f))
		})
	}
}

func TestTagOptions(t *testing.T) {
	t.Parallel()

	name, opts := transmute.TagOptions("name,omitempty,string")
	assert.Equal(t, "name", name)
	assert.Equal(t, "omitempty,string", opts)

	assert.True(t, transmute.TagContains(opts, "omitempty"))
	assert.True(t, transmute.TagContains(opts, "string"))
	assert.False(t, transmute.TagContains(opts, "omit"))
	assert.False(t, transmute.TagContains("", "omitempty"))
}
