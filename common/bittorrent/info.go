package bittorrent

import (
	"crypto/sha1"
	"fmt"
	"tracker-probe/common/bencode"

	"github.com/juju/errors"
)

const PieceHashSize = sha1.Size

type InfoMode int

const (
	SingleFile InfoMode = iota
	MultiFile
)

func (m InfoMode) String() string {
	switch m {
	case SingleFile:
		return "single-file"
	case MultiFile:
		return "multi-file"
	default:
		return "unknown"
	}
}

type SingleFileInfo struct {
	PieceLength int64  `bencode:"piece length"`
	Pieces      []byte `bencode:"pieces"`
	Private     *int64 `bencode:"private"`
	Length      int64  `bencode:"length"`
	Name        string `bencode:"name"`
}

type MultiFileInfo struct {
	PieceLength int64   `bencode:"piece length"`
	Pieces      []byte  `bencode:"pieces"`
	Private     *int64  `bencode:"private"`
	Name        string  `bencode:"name"`
	Files       []*File `bencode:"-"`
}

// Info is the info dictionary of a torrent. Exactly one of Single and Multi
// is set, as selected by Mode.
type Info struct {
	Mode   InfoMode
	Single *SingleFileInfo
	Multi  *MultiFileInfo
}

func NewSingleFileInfo(i *SingleFileInfo) Info {
	return Info{Mode: SingleFile, Single: i}
}

func NewMultiFileInfo(i *MultiFileInfo) Info {
	return Info{Mode: MultiFile, Multi: i}
}

func (i *Info) PieceLength() int64 {
	if i.Mode == MultiFile {
		return i.Multi.PieceLength
	}
	return i.Single.PieceLength
}

func (i *Info) Pieces() []byte {
	if i.Mode == MultiFile {
		return i.Multi.Pieces
	}
	return i.Single.Pieces
}

func (i *Info) Private() *int64 {
	if i.Mode == MultiFile {
		return i.Multi.Private
	}
	return i.Single.Private
}

func (i *Info) Name() string {
	if i.Mode == MultiFile {
		return i.Multi.Name
	}
	return i.Single.Name
}

func (i *Info) PieceCount() int {
	return len(i.Pieces()) / PieceHashSize
}

func (i *Info) TotalLength() int64 {
	if i.Mode == MultiFile {
		var total int64
		for _, f := range i.Multi.Files {
			total += f.Length
		}
		return total
	}
	return i.Single.Length
}

// Files lists the files of the torrent. A single-file torrent reports one
// file whose path is its name.
func (i *Info) Files() []*File {
	if i.Mode == MultiFile {
		return i.Multi.Files
	}
	return []*File{{Length: i.Single.Length, Path: []string{i.Single.Name}}}
}

// Encode returns the canonical bencoding of the info dictionary. Keys are
// written in a fixed order that matches their sorted byte order.
func (i *Info) Encode() []byte {
	w := bencode.NewWriter()
	w.BeginDict()
	if i.Mode == MultiFile {
		w.Text("files")
		w.BeginList()
		for _, f := range i.Multi.Files {
			w.BeginDict()
			w.Text("length")
			w.Int(f.Length)
			w.Text("path")
			w.BeginList()
			for _, p := range f.Path {
				w.Text(p)
			}
			w.End()
			w.End()
		}
		w.End()
	} else {
		w.Text("length")
		w.Int(i.Single.Length)
	}
	w.Text("name")
	w.Text(i.Name())
	w.Text("piece length")
	w.Int(i.PieceLength())
	w.Text("pieces")
	w.Bytes(i.Pieces())
	if private := i.Private(); private != nil {
		w.Text("private")
		w.Int(*private)
	}
	w.End()
	return w.Result()
}

func (i *Info) Hash() [20]byte {
	return sha1.Sum(i.Encode())
}

func (i *Info) validate() error {
	if i.PieceLength() <= 0 {
		return &bencode.DecodeError{Field: "info.piece length", Reason: fmt.Sprintf("must be positive, got %d", i.PieceLength())}
	}
	if n := len(i.Pieces()); n%PieceHashSize != 0 {
		return &bencode.DecodeError{Field: "info.pieces", Reason: fmt.Sprintf("length %d is not a multiple of %d", n, PieceHashSize)}
	}
	if i.Mode == SingleFile && i.Single.Length < 0 {
		return &bencode.DecodeError{Field: "info.length", Reason: "negative length"}
	}
	return nil
}

func decodeSingleFileInfo(dict map[string]any) (*SingleFileInfo, error) {
	info := &SingleFileInfo{}
	err := bencode.Unmarshal(dict, "info", info, "piece length", "pieces", "length", "name")
	if err != nil {
		return nil, err
	}
	return info, nil
}

func decodeMultiFileInfo(dict map[string]any) (*MultiFileInfo, error) {
	info := &MultiFileInfo{}
	err := bencode.Unmarshal(dict, "info", info, "piece length", "pieces", "name", "files")
	if err != nil {
		return nil, err
	}
	info.Files, err = decodeFiles(dict)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// decodeInfo tries the single-file layout first and falls back to the
// multi-file one. The first layout that fits wins.
func decodeInfo(dict map[string]any) (Info, error) {
	single, singleErr := decodeSingleFileInfo(dict)
	if singleErr == nil {
		return NewSingleFileInfo(single), nil
	}
	multi, multiErr := decodeMultiFileInfo(dict)
	if multiErr == nil {
		return NewMultiFileInfo(multi), nil
	}
	return Info{}, errors.Trace(&bencode.DecodeError{
		Field:  "info",
		Reason: fmt.Sprintf("neither single-file (%v) nor multi-file (%v)", singleErr, multiErr),
	})
}
