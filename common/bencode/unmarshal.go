package bencode

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

const tagName = "bencode"

// Unmarshal decodes a dictionary produced by Decode into target, a pointer to
// a struct whose fields carry `bencode:"key"` tags. Byte strings convert to
// string fields; any other type mismatch fails. Keys match tags exactly,
// case included. Every key listed in required must be present. Failures are reported as *DecodeError naming field.
func Unmarshal(dict map[string]any, field string, target any, required ...string) error {
	for _, key := range required {
		if !CheckMapPath(dict, key) {
			return &DecodeError{Field: field, Reason: fmt.Sprintf("missing key %q", key)}
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    tagName,
		Result:     target,
		DecodeHook: bytesToString,
		MatchName:  matchKey,
	})
	if err != nil {
		return &DecodeError{Field: field, Reason: err.Error()}
	}
	err = decoder.Decode(dict)
	if err != nil {
		return &DecodeError{Field: field, Reason: err.Error()}
	}
	return nil
}

func matchKey(mapKey, fieldName string) bool {
	return mapKey == fieldName
}

func bytesToString(src reflect.Kind, target reflect.Kind, from any) (any, error) {
	if target == reflect.String {
		if v, ok := from.([]byte); ok {
			return string(v), nil
		}
	}
	return from, nil
}
