package bencode

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/elliotchance/orderedmap"
)

// EncodeError is returned for values the encoder has no bencode form for.
type EncodeError struct {
	Value any
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("bencode: unsupported type %T", e.Value)
}

// Writer emits bencode primitives in the order they are called. Callers are
// responsible for dictionary key order.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Int(val int64) {
	w.buf.WriteByte('i')
	w.buf.WriteString(strconv.FormatInt(val, 10))
	w.buf.WriteByte('e')
}

func (w *Writer) Text(val string) {
	w.buf.WriteString(strconv.Itoa(len(val)))
	w.buf.WriteByte(':')
	w.buf.WriteString(val)
}

func (w *Writer) Bytes(data []byte) {
	w.buf.WriteString(strconv.Itoa(len(data)))
	w.buf.WriteByte(':')
	w.buf.Write(data)
}

func (w *Writer) BeginDict() {
	w.buf.WriteByte('d')
}

func (w *Writer) BeginList() {
	w.buf.WriteByte('l')
}

// End closes the innermost open list or dictionary.
func (w *Writer) End() {
	w.buf.WriteByte('e')
}

func (w *Writer) Result() []byte {
	return w.buf.Bytes()
}

// Encode encodes v. map[string]any keys are emitted sorted by raw bytes,
// *orderedmap.OrderedMap keys in insertion order.
func Encode(v any) ([]byte, error) {
	w := NewWriter()
	err := w.encodeAny(v)
	if err != nil {
		return nil, err
	}
	return w.Result(), nil
}

func (w *Writer) encodeAny(item any) error {
	switch v := item.(type) {
	case int:
		w.Int(int64(v))
	case int64:
		w.Int(v)
	case uint16:
		w.Int(int64(v))
	case string:
		w.Text(v)
	case []byte:
		w.Bytes(v)
	case []string:
		w.BeginList()
		for _, s := range v {
			w.Text(s)
		}
		w.End()
	case []any:
		return w.encodeList(v)
	case map[string]any:
		return w.encodeMap(v)
	case *orderedmap.OrderedMap:
		return w.encodeOrderedMap(v)
	default:
		return &EncodeError{Value: item}
	}
	return nil
}

func (w *Writer) encodeList(list []any) error {
	w.BeginList()
	for _, item := range list {
		err := w.encodeAny(item)
		if err != nil {
			return err
		}
	}
	w.End()
	return nil
}

func (w *Writer) encodeMap(m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.BeginDict()
	for _, k := range keys {
		w.Text(k)
		err := w.encodeAny(m[k])
		if err != nil {
			return err
		}
	}
	w.End()
	return nil
}

func (w *Writer) encodeOrderedMap(m *orderedmap.OrderedMap) error {
	w.BeginDict()
	for el := m.Front(); el != nil; el = el.Next() {
		key, ok := el.Key.(string)
		if !ok {
			return &EncodeError{Value: el.Key}
		}
		w.Text(key)
		err := w.encodeAny(el.Value)
		if err != nil {
			return err
		}
	}
	w.End()
	return nil
}
