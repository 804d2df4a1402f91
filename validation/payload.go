// Package validation checks user-supplied event documents before they are
// appended to the ledger.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/luca-patrignani/pharma-ledger/ledger"
)

// PayloadSchema accepts an object whose well-known fields, when present,
// are strings or null. Other keys may hold any JSON value.
const PayloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "event":       {"type": ["string", "null"], "minLength": 1},
    "batch_id":    {"type": ["string", "null"], "minLength": 1},
    "location":    {"type": ["string", "null"]},
    "destination": {"type": ["string", "null"]}
  },
  "required": ["event"]
}`

var schemaLoader = gojsonschema.NewStringLoader(PayloadSchema)

// ParsePayload validates raw against PayloadSchema and decodes it.
func ParsePayload(raw []byte) (ledger.Payload, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("payload failed schema validation: %s", strings.Join(msgs, "; "))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p ledger.Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
