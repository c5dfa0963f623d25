package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `[{"a":1}]`, `[{"a":1}]`},
		{"json tagged fence", "```json\n[1,2]\n```", "[1,2]"},
		{"upper-case tag", "```JSON\n[1]\n```", "[1]"},
		{"untagged fence", "```\n[\"x\"]\n```", `["x"]`},
		{"surrounding whitespace", "  \n```json\n{}\n```  \n", "{}"},
		{"missing closing fence", "```json\n[1]", "[1]"},
		{"prose is left alone", "Sure! here you go", "Sure! here you go"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFence(tc.in))
		})
	}
}
