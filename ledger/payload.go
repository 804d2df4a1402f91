package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"
)

// NotAvailable is rendered for payload fields that are absent or null.
const NotAvailable = "N/A"

// Well-known payload keys of a supply-chain event.
const (
	KeyEvent       = "event"
	KeyBatchID     = "batch_id"
	KeyLocation    = "location"
	KeyDestination = "destination"
)

// GenesisEvent is the marker recorded in the genesis block payload.
const GenesisEvent = "Genesis Block"

// Payload is the event data carried by a block. Values are usually strings
// or nil, but any JSON-encodable value is accepted.
type Payload map[string]any

// Field returns the value stored under key, or NotAvailable when the key is
// missing or null.
func (p Payload) Field(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return NotAvailable
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (p Payload) Event() string { return p.Field(KeyEvent) }
func (p Payload) BatchID() string { return p.Field(KeyBatchID) }
func (p Payload) Location() string { return p.Field(KeyLocation) }
func (p Payload) Destination() string { return p.Field(KeyDestination) }

// Clone returns a deep copy of the payload.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

// SupplyEvent is the typed form of the optional fields a supply-chain
// payload carries. Empty fields are treated as absent.
type SupplyEvent struct {
	Event       string
	BatchID     string
	Location    string
	Destination string
}

// Payload converts the event into a block payload, omitting empty fields.
func (e SupplyEvent) Payload() Payload {
	p := Payload{}
	set := func(key, value string) {
		if value != "" {
			p[key] = value
		}
	}
	set(KeyEvent, e.Event)
	set(KeyBatchID, e.BatchID)
	set(KeyLocation, e.Location)
	set(KeyDestination, e.Destination)
	return p
}

// genesisPayload uses the same key casing as every other event.
func genesisPayload() Payload {
	return SupplyEvent{Event: GenesisEvent}.Payload()
}

// normalizePayload round-trips the payload through its canonical encoding.
// The result shares no memory with the caller and only holds JSON types.
func normalizePayload(p Payload) (Payload, error) {
	if p == nil {
		p = Payload{}
	}
	// encoding/json replaces invalid UTF-8 with U+FFFD, which would let
	// distinct payloads share a digest.
	if err := checkUTF8(reflect.ValueOf(p), "data"); err != nil {
		return nil, err
	}
	raw, err := CanonicalJSON(p)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := Payload{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return out, nil
}

// checkUTF8 walks v and fails on the first map key or string that is not
// valid UTF-8.
func checkUTF8(v reflect.Value, path string) error {
	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("%w: invalid UTF-8 at %s", ErrSerialization, path)
		}
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			return checkUTF8(v.Elem(), path)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String && !utf8.ValidString(k.String()) {
				return fmt.Errorf("%w: invalid UTF-8 in key %q under %s", ErrSerialization, k.String(), path)
			}
			if err := checkUTF8(iter.Value(), fmt.Sprintf("%s.%v", path, k)); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkUTF8(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := checkUTF8(v.Field(i), path+"."+t.Field(i).Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case Payload:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
