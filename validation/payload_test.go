package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadValid(t *testing.T) {
	p, err := ParsePayload([]byte(`{"event":"Shipped","batch_id":"B1","location":null,"units":40}`))
	require.NoError(t, err)

	assert.Equal(t, "Shipped", p.Event())
	assert.Equal(t, "B1", p.BatchID())
	assert.Equal(t, "N/A", p.Location())
	assert.Equal(t, "40", p.Field("units"))
}

func TestParsePayloadRejects(t *testing.T) {
	cases := map[string]string{
		"missing event": `{"batch_id":"B1"}`,
		"numeric batch": `{"event":"Shipped","batch_id":7}`,
		"empty event":   `{"event":""}`,
		"not an object": `["Shipped"]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePayload([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParsePayloadMalformed(t *testing.T) {
	_, err := ParsePayload([]byte(`{"event":`))
	assert.Error(t, err)
}
