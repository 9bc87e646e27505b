package store

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document is a JSON object edited in place.
//
// Reads go through gjson and writes through sjson, so keys keep their order
// and fields the tooling does not know about are written back exactly as they
// were read.
type Document struct {
	data []byte
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{data: []byte("{}")}
}

// ParseDocument checks that data holds exactly one JSON object and wraps it.
func ParseDocument(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Wrap(ErrInvalidDocument, "malformed JSON")
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, errors.Wrap(ErrInvalidDocument, "top-level value is not an object")
	}
	return &Document{data: append([]byte(nil), data...)}, nil
}

// keyPath turns a literal key into a gjson/sjson path.
func keyPath(key string) string {
	return gjson.Escape(key)
}

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	var keys []string
	seen := make(map[string]bool)
	gjson.ParseBytes(d.data).ForEach(func(k, _ gjson.Result) bool {
		if !seen[k.Str] {
			seen[k.Str] = true
			keys = append(keys, k.Str)
		}
		return true
	})
	return keys
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	return gjson.GetBytes(d.data, keyPath(key)).Exists()
}

// Get returns the raw value stored under key.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	r := gjson.GetBytes(d.data, keyPath(key))
	if !r.Exists() {
		return nil, false
	}
	return json.RawMessage(r.Raw), true
}

// Set stores v under key. An existing key keeps its position; a new key is
// appended.
func (d *Document) Set(key string, v any) error {
	raw, err := marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %q", key)
	}
	out, err := sjson.SetRawBytes(d.data, keyPath(key), raw)
	if err != nil {
		return errors.Wrapf(err, "failed to set %q", key)
	}
	d.data = out
	return nil
}

// Append adds values to the end of the array stored under key, creating the
// array when the key is missing. Existing elements are left untouched.
func (d *Document) Append(key string, values ...any) error {
	if r := gjson.GetBytes(d.data, keyPath(key)); !r.Exists() {
		if err := d.Set(key, []any{}); err != nil {
			return err
		}
	} else if !r.IsArray() {
		return errors.Errorf("%q is not an array", key)
	}

	for _, v := range values {
		raw, err := marshal(v)
		if err != nil {
			return errors.Wrapf(err, "failed to encode %q element", key)
		}
		out, err := sjson.SetRawBytes(d.data, keyPath(key)+".-1", raw)
		if err != nil {
			return errors.Wrapf(err, "failed to append to %q", key)
		}
		d.data = out
	}
	return nil
}

// Decode unmarshals the whole document into v.
func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.data, v)
}

// MarshalJSON implements json.Marshaler. The output is compact.
func (d *Document) MarshalJSON() ([]byte, error) {
	if !gjson.ValidBytes(d.data) {
		return nil, errors.Wrap(ErrInvalidDocument, "document holds invalid JSON")
	}
	return []byte(gjson.GetBytes(d.data, "@ugly").Raw), nil
}

// Bytes returns the document indented by two spaces with a trailing newline,
// one element per line.
func (d *Document) Bytes() ([]byte, error) {
	compact, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// marshal encodes v without escaping HTML characters, matching how lesson
// files are written by hand.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
