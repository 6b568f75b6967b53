package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHandshake(t *testing.T) {
	version, addr, err := ParseHandshake("HEMMER_PROVIDER|1|127.0.0.1:4567\n")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.Equal(t, "127.0.0.1:4567", addr)
}

func TestParseHandshakeRejectsMalformedLines(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"wrong prefix", "KOLUMN_PLUGIN|1|127.0.0.1:4567"},
		{"missing field", "HEMMER_PROVIDER|1"},
		{"extra field", "HEMMER_PROVIDER|1|127.0.0.1:4567|extra"},
		{"non-numeric version", "HEMMER_PROVIDER|one|127.0.0.1:4567"},
		{"negative version", "HEMMER_PROVIDER|-1|127.0.0.1:4567"},
		{"missing address", "HEMMER_PROVIDER|1|"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseHandshake(tc.line)
			assert.Error(t, err)
		})
	}
}

func TestConvertLenientDecode(t *testing.T) {
	assert.Nil(t, decodeValue(nil))
	assert.Nil(t, decodeValue([]byte{}))
	assert.Nil(t, decodeValue([]byte(`{broken`)))
	assert.Equal(t, map[string]any{"a": float64(1)}, decodeValue([]byte(`{"a":1}`)))
}

func TestEncodeValueEmptyForNil(t *testing.T) {
	assert.Nil(t, encodeValue(nil))
	assert.Equal(t, `{"a":1}`, string(encodeValue(map[string]any{"a": 1})))
}
