package experiment

import (
	"bytes"
	"encoding/json"
	"fmt"
)

//MarshalJSON writes the entries as a JSON object in insertion order
func (e *Experiment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		rawKey, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(rawKey)
		buf.WriteByte(':')
		rawValue, err := e.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %v : %w", k, err)
		}
		buf.Write(rawValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.flag)
	case KindSeries:
		if v.series == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.series)
	default:
		return json.Marshal(v.scalar)
	}
}

//UnmarshalJSON reads a JSON object and keeps the order of its keys. Numbers become scalars,
//booleans become bools and arrays of numbers become series
func (e *Experiment) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected json object, got %v", tok)
	}

	parsed := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode value of %v : %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("failed to decode value of %v : %w", key, err)
		}
		parsed.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*e = *parsed
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case 'n':
		return fmt.Errorf("null is not a valid value")
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '[':
		var cells []*float64
		if err := json.Unmarshal(data, &cells); err != nil {
			return err
		}
		s := make([]float64, len(cells))
		for i, cell := range cells {
			if cell == nil {
				return fmt.Errorf("null at index %v is not a valid series value", i)
			}
			s[i] = *cell
		}
		*v = Series(s)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Scalar(f)
	}
	return nil
}
