package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts documents to and from their persisted byte form.
// Both implementations are deterministic: identical values encode to identical bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Extension() string
}

// CodecFor returns the codec registered under a format name ("json" or "msgpack").
func CodecFor(format string) (Codec, error) {
	switch format {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown storage format %q", format)
	}
}

// JSONCodec writes pretty-printed JSON with object keys sorted at every level.
type JSONCodec struct{}

// Marshal encodes v. Struct fields are re-keyed through a generic map so that
// struct keys sort the same way map keys do.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Unmarshal decodes data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Extension returns the file extension for JSON documents.
func (JSONCodec) Extension() string { return ".json" }

// MsgpackCodec writes compact MessagePack keyed by the json struct tags.
type MsgpackCodec struct{}

// Marshal encodes v with sorted map keys at every level. The encoder only
// sorts map[string]any, so typed maps are converted to that form first.
func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(msgpackNumbers(generic)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v through the same generic form Marshal writes.
func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	var generic any
	if err := msgpack.Unmarshal(data, &generic); err != nil {
		return err
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Extension returns the file extension for MessagePack documents.
func (MsgpackCodec) Extension() string { return ".msgpack" }

// toGeneric re-decodes the JSON form of v into maps, slices and json.Number.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// msgpackNumbers replaces json.Number with int64 or float64 in place.
func msgpackNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = msgpackNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = msgpackNumbers(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
