package keychain

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec serializes structured values stored by the Store. Strings and byte
// slices never go through a Codec.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSONCodec is the default codec.
type JSONCodec struct{}

func (JSONCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }

// YAMLCodec stores values as YAML documents.
type YAMLCodec struct{}

func (YAMLCodec) Encode(v any) ([]byte, error) { return yaml.Marshal(v) }

func (YAMLCodec) Decode(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// CodecByName returns the codec for "json" (or empty) and "yaml".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
