package tracker

import (
	"net/url"
	"strconv"
	"strings"
	"tracker-probe/common/bittorrent"

	"github.com/juju/errors"
)

// DefaultPort is announced as our listening port. Nothing actually listens
// on it.
const DefaultPort uint16 = 6888

type Event string

const (
	EventStarted Event = "started"
)

const hexDigits = "0123456789ABCDEF"

type AnnounceRequest struct {
	InfoHash   [20]byte
	PeerID     bittorrent.PeerID
	Uploaded   int64
	Downloaded int64
	Left       int64
	Event      Event
	Port       uint16
}

// NewAnnounceRequest builds the first announce for a torrent nothing has been
// transferred for yet.
func NewAnnounceRequest(peerID bittorrent.PeerID, torrent *bittorrent.Torrent, port uint16) *AnnounceRequest {
	return &AnnounceRequest{
		InfoHash:   torrent.InfoHash(),
		PeerID:     peerID,
		Uploaded:   0,
		Downloaded: 0,
		Left:       torrent.TotalLength(),
		Event:      EventStarted,
		Port:       port,
	}
}

// Query serializes the request. info_hash and peer_id have every byte
// percent-encoded.
func (r *AnnounceRequest) Query() string {
	b := strings.Builder{}
	b.WriteString("info_hash=")
	b.WriteString(escapeBytes(r.InfoHash[:]))
	b.WriteString("&peer_id=")
	b.WriteString(escapeBytes(r.PeerID[:]))
	writeParam(&b, "uploaded", strconv.FormatInt(r.Uploaded, 10))
	writeParam(&b, "downloaded", strconv.FormatInt(r.Downloaded, 10))
	writeParam(&b, "left", strconv.FormatInt(r.Left, 10))
	writeParam(&b, "event", string(r.Event))
	writeParam(&b, "port", strconv.Itoa(int(r.Port)))
	return b.String()
}

// URL appends the query to an announce URL, keeping any query it already has.
// A fragment is dropped.
func (r *AnnounceRequest) URL(announce string) (string, error) {
	announce, _, _ = strings.Cut(announce, "#")
	u, err := url.Parse(announce)
	if err != nil {
		return "", errors.Annotatef(err, "announce url %q", announce)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.NotSupportedf("tracker scheme %q", u.Scheme)
	}
	sep := "?"
	if strings.Contains(announce, "?") {
		sep = "&"
		if strings.HasSuffix(announce, "?") || strings.HasSuffix(announce, "&") {
			sep = ""
		}
	}
	return announce + sep + r.Query(), nil
}

func writeParam(b *strings.Builder, key, value string) {
	b.WriteByte('&')
	b.WriteString(url.QueryEscape(key))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}

func escapeBytes(data []byte) string {
	b := strings.Builder{}
	b.Grow(len(data) * 3)
	for _, c := range data {
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}
