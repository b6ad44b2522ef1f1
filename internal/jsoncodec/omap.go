package jsoncodec

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// omap is a JSON object that marshals and unmarshals its keys in insertion
// order. encoding/json's map[string]T support sorts keys alphabetically,
// which would scramble the insertion order the database and spec §4.3 both
// require the codec to preserve.
type omap struct {
	keys []string
	vals []json.RawMessage
}

func newOmap() *omap {
	return &omap{}
}

func (m *omap) set(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "jsoncodec: marshal %q", key)
	}
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, b)
	return nil
}

func (m *omap) get(key string, out interface{}) (bool, error) {
	for i, k := range m.keys {
		if k == key {
			return true, json.Unmarshal(m.vals[i], out)
		}
	}
	return false, nil
}

func (m *omap) len() int { return len(m.keys) }

func (m *omap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(m.vals[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *omap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("jsoncodec: expected a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("jsoncodec: expected a string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		m.keys = append(m.keys, key)
		m.vals = append(m.vals, raw)
	}
	return nil
}
