package bittorrent

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"tracker-probe/common/bencode"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

var (
	zeroPieces = strings.Repeat("\x00", 20)
	onePieces  = strings.Repeat("\x01", 20)

	singleFileInfo = "d6:lengthi1024e4:name1:a12:piece lengthi16384e6:pieces20:" + zeroPieces + "e"
	singleFile     = "d8:announce31:http://tracker.example/announce4:info" + singleFileInfo + "e"

	multiFileInfo = "d5:filesld6:lengthi100e4:pathl3:dir5:a.txteed6:lengthi200e4:pathl5:b.bineee" +
		"4:name4:root12:piece lengthi32768e6:pieces20:" + onePieces + "e"
	multiFile = "d8:announce31:http://tracker.example/announce" +
		"13:announce-listll31:http://tracker.example/announceel22:udp://backup.example:1ee" +
		"7:comment5:hello10:created by4:test13:creation datei1700000000e4:info" + multiFileInfo + "e"
)

func writeTorrent(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "test.torrent")
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_SingleFile(t *testing.T) {
	torrent, err := Load(writeTorrent(t, singleFile))
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, SingleFile, torrent.Info.Mode)
	assert.Equal(t, "http://tracker.example/announce", torrent.Announce)
	assert.Equal(t, "a", torrent.Name())
	assert.Equal(t, int64(16384), torrent.PieceLength())
	assert.Equal(t, int64(1024), torrent.TotalLength())
	assert.Equal(t, 1, torrent.PieceCount())
	assert.False(t, torrent.IsPrivate())
	assert.Equal(t, "07f6cb926fa08676965cf0e289849e93da08373e", torrent.InfoHashHex())
	assert.Len(t, torrent.Files(), 1)
	assert.Equal(t, "a", torrent.Files()[0].String())
}

func TestLoad_MultiFile(t *testing.T) {
	torrent, err := Load(writeTorrent(t, multiFile))
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, MultiFile, torrent.Info.Mode)
	assert.Equal(t, "root", torrent.Name())
	assert.Equal(t, int64(300), torrent.TotalLength())
	assert.Equal(t, 1, torrent.PieceCount())
	assert.Equal(t, "hello", torrent.Comment)
	assert.Equal(t, "test", torrent.CreatedBy)
	assert.Equal(t, int64(1700000000), torrent.CreationDate)
	assert.Equal(t, [][]string{
		{"http://tracker.example/announce"},
		{"udp://backup.example:1"},
	}, torrent.AnnounceList)
	assert.Equal(t, []string{"http://tracker.example/announce", "udp://backup.example:1"}, torrent.Trackers())
	if assert.Len(t, torrent.Files(), 2) {
		assert.Equal(t, "dir/a.txt", torrent.Files()[0].String())
		assert.Equal(t, int64(200), torrent.Files()[1].Length)
	}
	assert.Equal(t, "c611ec7499179c0687eebbeade40a8af708debe2", torrent.InfoHashHex())
}

func TestInfo_EncodeMatchesSource(t *testing.T) {
	for _, content := range []string{singleFile, multiFile} {
		torrent, err := Parse([]byte(content))
		if !assert.NoError(t, err) {
			continue
		}
		begin := strings.Index(content, "4:infod") + len("4:info")
		_, end, err := bencode.DecodeDict([]byte(content[begin:]))
		if !assert.NoError(t, err) {
			continue
		}
		assert.Equal(t, content[begin:begin+end], string(torrent.Info.Encode()))
	}
}

func TestInfo_RoundTrip(t *testing.T) {
	private := int64(1)
	infos := []Info{
		NewSingleFileInfo(&SingleFileInfo{
			PieceLength: 262144,
			Pieces:      bytes.Repeat([]byte{0xab}, 40),
			Private:     &private,
			Length:      400000,
			Name:        "movie.mkv",
		}),
		NewMultiFileInfo(&MultiFileInfo{
			PieceLength: 16384,
			Pieces:      bytes.Repeat([]byte{0x00}, 60),
			Name:        "album",
			Files: []*File{
				{Length: 0, Path: []string{"empty"}},
				{Length: 40000, Path: []string{"cd1", "track 01.flac"}},
			},
		}),
	}
	for _, info := range infos {
		content := "d8:announce1:x4:info" + string(info.Encode()) + "e"
		torrent, err := Parse([]byte(content))
		if assert.NoError(t, err) {
			assert.Equal(t, info, torrent.Info)
			assert.Equal(t, info.Hash(), torrent.InfoHash())
		}
	}
}

func TestInfoHash_Deterministic(t *testing.T) {
	torrent, err := Parse([]byte(singleFile))
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, torrent.InfoHash(), torrent.InfoHash())

	changed, err := Parse([]byte(strings.Replace(singleFile, "1:a", "1:b", 1)))
	if assert.NoError(t, err) {
		assert.NotEqual(t, torrent.InfoHash(), changed.InfoHash())
	}
}

func TestPieceHash(t *testing.T) {
	torrent, err := Parse([]byte(multiFile))
	if !assert.NoError(t, err) {
		return
	}
	h, ok := torrent.PieceHash(0)
	assert.True(t, ok)
	assert.Equal(t, strings.Repeat("01", 20), hex.EncodeToString(h[:]))
	_, ok = torrent.PieceHash(1)
	assert.False(t, ok)
	assert.Equal(t, torrent.PieceCount()*PieceHashSize, len(torrent.Info.Pieces()))
}

func TestParse_PiecesNotMultipleOf20(t *testing.T) {
	content := strings.Replace(singleFile, "6:pieces20:"+zeroPieces, "6:pieces19:"+zeroPieces[1:], 1)
	_, err := Parse([]byte(content))
	var decodeErr *bencode.DecodeError
	if assert.True(t, errors.As(err, &decodeErr)) {
		assert.Equal(t, "info.pieces", decodeErr.Field)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"not a dict":        "l4:spame",
		"missing announce":  "d4:info" + singleFileInfo + "e",
		"missing info":      "d8:announce1:xe",
		"info not a dict":   "d8:announce1:x4:infoi1ee",
		"neither layout":    "d8:announce1:x4:infod4:name1:a12:piece lengthi1e6:pieces0:ee",
		"files not a list":  "d8:announce1:x4:infod5:filesi1e4:name1:a12:piece lengthi1e6:pieces0:ee",
		"file missing path": "d8:announce1:x4:infod5:filesld6:lengthi1eee4:name1:a12:piece lengthi1e6:pieces0:ee",
		"negative length":   "d8:announce1:x4:infod6:lengthi-1e4:name1:a12:piece lengthi1e6:pieces0:ee",
		"zero piece length": "d8:announce1:x4:infod6:lengthi1e4:name1:a12:piece lengthi0e6:pieces0:ee",
		"name not a string": "d8:announce1:x4:infod6:lengthi1e4:namei1e12:piece lengthi1e6:pieces0:ee",
		"truncated":         singleFile[:len(singleFile)-3],
	}
	for name, content := range cases {
		_, err := Parse([]byte(content))
		var decodeErr *bencode.DecodeError
		assert.True(t, errors.As(err, &decodeErr), name)
	}
}

func TestParse_SingleFileWinsWhenBothMatch(t *testing.T) {
	content := "d8:announce1:x4:infod5:filesld6:lengthi1e4:pathl1:beee6:lengthi5e4:name1:a12:piece lengthi1e6:pieces0:ee"
	torrent, err := Parse([]byte(content))
	if assert.NoError(t, err) {
		assert.Equal(t, SingleFile, torrent.Info.Mode)
		assert.Equal(t, int64(5), torrent.TotalLength())
	}
}

func TestLoad_IOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.torrent")
	_, err := Load(path)
	var ioErr *IOError
	if assert.True(t, errors.As(err, &ioErr)) {
		assert.Equal(t, path, ioErr.Path)
		assert.True(t, os.IsNotExist(ioErr.Err))
	}
}

func TestLoad_DecodeErrorMentionsPath(t *testing.T) {
	path := writeTorrent(t, "d8:announce")
	_, err := Load(path)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), path)
		var decodeErr *bencode.DecodeError
		assert.True(t, errors.As(err, &decodeErr))
	}
}

func TestGeneratePeerID(t *testing.T) {
	id := GeneratePeerID()
	s := id.String()
	assert.Len(t, s, PeerIDSize)
	assert.True(t, strings.HasPrefix(s, "-MS0000-"))
	for _, c := range s[len("-MS0000-"):] {
		assert.True(t, c >= '0' && c <= '9', s)
	}
}

func TestParse_DifferentlyCasedKeysAreIgnored(t *testing.T) {
	info := "d7:Privatei9e" + singleFileInfo[1:]
	torrent, err := Parse([]byte("d7:Commenti5e8:announce1:x4:info" + info + "e"))
	if !assert.NoError(t, err) {
		return
	}
	assert.Nil(t, torrent.Info.Private())
	assert.False(t, torrent.IsPrivate())
	assert.Equal(t, "", torrent.Comment)
	assert.Equal(t, "07f6cb926fa08676965cf0e289849e93da08373e", torrent.InfoHashHex())
	assert.NotContains(t, string(torrent.Info.Encode()), "private")
}
