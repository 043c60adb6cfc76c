package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyVerifier_Verify(t *testing.T) {
	verifier := NewKeyVerifier("internal-key-0123456789")

	tests := []struct {
		name      string
		presented string
		want      bool
	}{
		{name: "matching key", presented: "internal-key-0123456789", want: true},
		{name: "prefix", presented: "internal-key", want: false},
		{name: "longer", presented: "internal-key-0123456789x", want: false},
		{name: "case differs", presented: "INTERNAL-KEY-0123456789", want: false},
		{name: "empty", presented: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, verifier.Verify(tt.presented))
		})
	}
}

func TestKeyVerifier_EmptyConfiguredKey(t *testing.T) {
	verifier := NewKeyVerifier("")
	assert.False(t, verifier.Verify(""))
}
