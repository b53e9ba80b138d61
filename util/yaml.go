package util

import (
	"io"

	"github.com/jfk9w-go/flu"
	"gopkg.in/yaml.v3"
)

// YAML creates a flu.ValueCodec encoding/decoding the value as YAML.
func YAML(value interface{}) flu.ValueCodec {
	return yamlValue{value}
}

type yamlValue struct {
	value interface{}
}

func (v yamlValue) ContentType() string {
	return "application/yaml"
}

func (v yamlValue) EncodeTo(w io.Writer) error {
	return yaml.NewEncoder(w).Encode(v.value)
}

func (v yamlValue) DecodeFrom(r io.Reader) error {
	return yaml.NewDecoder(r).Decode(v.value)
}
