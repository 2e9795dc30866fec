package cryptography

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Canonicalize produces the deterministic byte form a signature is
// computed over. Top-level object keys are sorted lexicographically;
// nested values are kept byte-for-byte as encoding/json emitted them.
//
// This is deliberately not full recursive canonical JSON: the signing
// contract only covers the flat auth payload, where top-level ordering
// is the whole story. Payloads whose nested objects differ only in key
// order may canonicalize to different bytes.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling payload")
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))

	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "reading object start")
	}

	type pair struct {
		key string
		val json.RawMessage
	}

	var pairs []pair
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "reading key")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("unexpected token %v", tok)
		}

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, errors.Wrapf(err, "reading value of %q", key)
		}

		pairs = append(pairs, pair{key, val})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(p.key)
		if err != nil {
			return nil, errors.Wrap(err, "marshalling key")
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(bytes.TrimSpace(p.val))
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
