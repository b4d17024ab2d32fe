package svc

import (
	"encoding/base64"
	"strconv"
	"tracker-probe/common/bencode"
	"unicode/utf8"

	"github.com/elliotchance/orderedmap"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// RawDocument decodes a bencoded buffer into a YAML node tree that keeps the
// wire order of dictionary keys. Byte strings that are not valid UTF-8 are
// emitted as !!binary.
func RawDocument(buf []byte) (*yaml.Node, error) {
	v, err := bencode.DecodeOrdered(buf)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return rawNode(v)
}

func rawNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(val, 10)}, nil
	case []byte:
		if utf8.Valid(val) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(val)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(val)}, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			child, err := rawNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case *orderedmap.OrderedMap:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for el := val.Front(); el != nil; el = el.Next() {
			child, err := rawNode(el.Value)
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: el.Key.(string)}
			node.Content = append(node.Content, key, child)
		}
		return node, nil
	default:
		return nil, errors.Errorf("unexpected bencode value %T", v)
	}
}
