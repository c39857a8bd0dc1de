package userconf

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes the record as a JSON object with keys in document order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range r.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Array) MarshalJSON() ([]byte, error) {
	if a == nil || a.elems == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.elems)
}

func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}
