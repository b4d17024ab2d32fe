package bencode

import (
	"strings"
)

func GetString(dict map[string]any, path string) (string, bool) {
	b, ok := GetBytes(dict, path)
	if !ok {
		return "", false
	}
	return string(b), true
}

func GetBytes(dict map[string]any, path string) ([]byte, bool) {
	r, ok := GetByPath(dict, path).([]byte)
	return r, ok
}

func GetInt(dict map[string]any, path string) (int64, bool) {
	r, ok := GetByPath(dict, path).(int64)
	return r, ok
}

func GetDict(dict map[string]any, path string) (map[string]any, bool) {
	r, ok := GetByPath(dict, path).(map[string]any)
	return r, ok
}

func GetList(dict map[string]any, path string) ([]any, bool) {
	r, ok := GetByPath(dict, path).([]any)
	return r, ok
}

// GetByPath walks nested dictionaries along a dotted path such as
// "info.piece length". It returns nil when any step is missing.
func GetByPath(dict map[string]any, path string) any {
	var m any = dict
	for _, part := range strings.Split(path, ".") {
		d, ok := m.(map[string]any)
		if !ok {
			return nil
		}
		m, ok = d[part]
		if !ok {
			return nil
		}
	}
	return m
}

func CheckMapPath(dict map[string]any, path string) bool {
	return GetByPath(dict, path) != nil
}
