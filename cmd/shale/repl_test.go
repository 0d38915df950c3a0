package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "expression", src: "1 + 2", want: false},
		{name: "open def", src: "def greet", want: true},
		{name: "closed def", src: "def greet\n'hi'\nend", want: false},
		{name: "def in string", src: "'def'", want: false},
		{name: "def in double-quoted string", src: `puts "def"`, want: false},
		{name: "end in string", src: "def f\n'end'", want: true},
		{name: "end in double-quoted string", src: "def f\n\"end\"", want: true},
		{name: "def in comment", src: "# def f", want: false},
		{name: "identifier containing def", src: "defined_name", want: false},
		{name: "nested defs", src: "def a\ndef b\nend", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsMore(tt.src))
		})
	}
}
