package bittorrent

import (
	"encoding/hex"
	"fmt"
	"os"
	"tracker-probe/common/bencode"

	"github.com/juju/errors"
)

// IOError reports a torrent file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read torrent %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type Torrent struct {
	Info         Info       `bencode:"-"`
	Announce     string     `bencode:"announce"`
	AnnounceList [][]string `bencode:"announce-list"`
	CreationDate int64      `bencode:"creation date"`
	Comment      string     `bencode:"comment"`
	CreatedBy    string     `bencode:"created by"`
	Encoding     string     `bencode:"encoding"`
}

// Load reads and decodes the torrent file at path.
func Load(path string) (*Torrent, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(&IOError{Path: path, Err: err})
	}
	t, err := Parse(buf)
	if err != nil {
		return nil, errors.Annotatef(err, "torrent %s", path)
	}
	return t, nil
}

// Parse decodes a bencoded torrent held in memory.
func Parse(buf []byte) (*Torrent, error) {
	root, err := bencode.Decode(buf)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dict, ok := root.(map[string]any)
	if !ok {
		return nil, &bencode.DecodeError{Field: "torrent", Reason: "not a dictionary"}
	}
	t := &Torrent{}
	err = bencode.Unmarshal(dict, "torrent", t, "announce", "info")
	if err != nil {
		return nil, errors.Trace(err)
	}
	infoDict, ok := bencode.GetDict(dict, "info")
	if !ok {
		return nil, &bencode.DecodeError{Field: "info", Reason: "not a dictionary"}
	}
	t.Info, err = decodeInfo(infoDict)
	if err != nil {
		return nil, errors.Trace(err)
	}
	err = t.Info.validate()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return t, nil
}

// InfoHash is the SHA-1 of the canonical encoding of the info dictionary.
func (t *Torrent) InfoHash() [20]byte {
	return t.Info.Hash()
}

func (t *Torrent) InfoHashHex() string {
	h := t.InfoHash()
	return hex.EncodeToString(h[:])
}

func (t *Torrent) TotalLength() int64 {
	return t.Info.TotalLength()
}

func (t *Torrent) PieceCount() int {
	return t.Info.PieceCount()
}

func (t *Torrent) PieceLength() int64 {
	return t.Info.PieceLength()
}

func (t *Torrent) Name() string {
	return t.Info.Name()
}

func (t *Torrent) Files() []*File {
	return t.Info.Files()
}

func (t *Torrent) IsPrivate() bool {
	p := t.Info.Private()
	return p != nil && *p == 1
}

func (t *Torrent) PieceHash(i int) ([PieceHashSize]byte, bool) {
	var h [PieceHashSize]byte
	if i < 0 || i >= t.PieceCount() {
		return h, false
	}
	copy(h[:], t.Info.Pieces()[i*PieceHashSize:])
	return h, true
}

// Trackers lists the primary announce URL followed by the announce-list
// tiers, without duplicates.
func (t *Torrent) Trackers() []string {
	seen := map[string]struct{}{t.Announce: {}}
	ret := []string{t.Announce}
	for _, tier := range t.AnnounceList {
		for _, u := range tier {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			ret = append(ret, u)
		}
	}
	return ret
}
