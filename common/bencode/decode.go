package bencode

import (
	"fmt"
	"strconv"

	"github.com/elliotchance/orderedmap"
)

// DecodeError reports malformed bencode or a value that does not fit the
// expected shape. Field is the dotted key path being decoded, when known.
type DecodeError struct {
	Pos    int
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if len(e.Field) > 0 {
		return fmt.Sprintf("bencode: decode %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("bencode: decode error at %d: %s", e.Pos, e.Reason)
}

func errorAt(pos int, format string, args ...any) *DecodeError {
	return &DecodeError{Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

type decoder struct {
	buf     []byte
	ordered bool
}

// Decode decodes a single value that must span the whole buffer. Integers
// decode to int64, strings to []byte, lists to []any and dictionaries to
// map[string]any.
func Decode(buf []byte) (any, error) {
	d := &decoder{buf: buf}
	return d.decodeAll()
}

// DecodeOrdered is like Decode, but dictionaries decode to
// *orderedmap.OrderedMap keeping the order keys appear on the wire.
func DecodeOrdered(buf []byte) (any, error) {
	d := &decoder{buf: buf, ordered: true}
	return d.decodeAll()
}

// DecodeDict decodes a dictionary at the start of buf and returns the offset
// right after it. Trailing bytes are left to the caller.
func DecodeDict(buf []byte) (map[string]any, int, error) {
	d := &decoder{buf: buf}
	if len(buf) == 0 || buf[0] != 'd' {
		return nil, 0, errorAt(0, "not a dictionary")
	}
	ret, pos, err := d.decodeDict(0)
	if err != nil {
		return nil, 0, err
	}
	return ret.(map[string]any), pos, nil
}

func (d *decoder) decodeAll() (any, error) {
	ret, pos, err := d.decodeAny(0)
	if err != nil {
		return nil, err
	}
	if pos != len(d.buf) {
		return nil, errorAt(pos, "%d trailing bytes", len(d.buf)-pos)
	}
	return ret, nil
}

func (d *decoder) decodeAny(pos int) (any, int, error) {
	if pos >= len(d.buf) {
		return nil, 0, errorAt(pos, "unexpected end of data")
	}
	switch d.buf[pos] {
	case 'i':
		return d.decodeInt(pos)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9', '0':
		return d.decodeBytes(pos)
	case 'l':
		return d.decodeList(pos)
	case 'd':
		return d.decodeDict(pos)
	default:
		return nil, 0, errorAt(pos, "unsupported type: %q", d.buf[pos])
	}
}

func (d *decoder) decodeList(pos int) ([]any, int, error) {
	ret := make([]any, 0)
	i := pos + 1
	for {
		if i >= len(d.buf) {
			return nil, 0, errorAt(i, "unterminated list")
		}
		if d.buf[i] == 'e' {
			return ret, i + 1, nil
		}
		item, offset, err := d.decodeAny(i)
		if err != nil {
			return nil, 0, err
		}
		ret = append(ret, item)
		i = offset
	}
}

func (d *decoder) decodeDict(pos int) (any, int, error) {
	var (
		plain   map[string]any
		ordered *orderedmap.OrderedMap
	)
	if d.ordered {
		ordered = orderedmap.NewOrderedMap()
	} else {
		plain = make(map[string]any)
	}
	i := pos + 1
	for {
		if i >= len(d.buf) {
			return nil, 0, errorAt(i, "unterminated dictionary")
		}
		if d.buf[i] == 'e' {
			break
		}
		if d.buf[i] < '0' || d.buf[i] > '9' {
			return nil, 0, errorAt(i, "dictionary key must be a string")
		}
		key, offset, err := d.decodeBytes(i)
		if err != nil {
			return nil, 0, err
		}
		value, offset, err := d.decodeAny(offset)
		if err != nil {
			return nil, 0, err
		}
		if d.ordered {
			ordered.Set(string(key), value)
		} else {
			plain[string(key)] = value
		}
		i = offset
	}
	if d.ordered {
		return ordered, i + 1, nil
	}
	return plain, i + 1, nil
}

func (d *decoder) decodeBytes(pos int) ([]byte, int, error) {
	i := pos
	for ; i < len(d.buf) && d.buf[i] != ':'; i++ {
		if d.buf[i] < '0' || d.buf[i] > '9' {
			return nil, 0, errorAt(i, "non-digit %q in string length", d.buf[i])
		}
	}
	if i >= len(d.buf) {
		return nil, 0, errorAt(pos, "unterminated string length")
	}
	l, err := strconv.Atoi(string(d.buf[pos:i]))
	if err != nil {
		return nil, 0, errorAt(pos, "illegal str len: %v", err)
	}
	begin := i + 1
	if l > len(d.buf)-begin {
		return nil, 0, errorAt(pos, "str len %d out of range", l)
	}
	return d.buf[begin : begin+l], begin + l, nil
}

func (d *decoder) decodeInt(pos int) (int64, int, error) {
	begin := pos + 1
	i := begin
	for ; i < len(d.buf) && d.buf[i] != 'e'; i++ {
		c := d.buf[i]
		if c == '-' && i == begin {
			continue
		}
		if c < '0' || c > '9' {
			return 0, 0, errorAt(i, "non-digit %q in integer", c)
		}
	}
	if i >= len(d.buf) {
		return 0, 0, errorAt(pos, "unterminated integer")
	}
	ret, err := strconv.ParseInt(string(d.buf[begin:i]), 10, 64)
	if err != nil {
		return 0, 0, errorAt(pos, "illegal integer: %v", err)
	}
	return ret, i + 1, nil
}
