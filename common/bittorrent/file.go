package bittorrent

import (
	"strconv"
	"strings"
	"tracker-probe/common/bencode"

	"github.com/juju/errors"
)

type File struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

func (f *File) String() string {
	return strings.Join(f.Path, "/")
}

func decodeFiles(dict map[string]any) ([]*File, error) {
	list, ok := bencode.GetList(dict, "files")
	if !ok {
		return nil, &bencode.DecodeError{Field: "info.files", Reason: "not a list"}
	}
	files := make([]*File, 0, len(list))
	for i, item := range list {
		field := "info.files." + strconv.Itoa(i)
		fileDict, ok := item.(map[string]any)
		if !ok {
			return nil, &bencode.DecodeError{Field: field, Reason: "not a dictionary"}
		}
		f := &File{}
		err := bencode.Unmarshal(fileDict, field, f, "length", "path")
		if err != nil {
			return nil, errors.Trace(err)
		}
		if f.Length < 0 {
			return nil, &bencode.DecodeError{Field: field + ".length", Reason: "negative length"}
		}
		files = append(files, f)
	}
	return files, nil
}
