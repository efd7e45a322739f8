package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleStringValue(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"solid overlap with the role"`, "solid overlap with the role"},
		{"integer", `7`, "7"},
		{"float", `0.85`, "0.85"},
		{"bool", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
		{"object falls back to raw", `{"a":1}`, `{"a":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FlexibleStringValue(json.RawMessage(tc.raw)))
		})
	}
}
