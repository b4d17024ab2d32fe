package tracker

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"tracker-probe/common/bencode"

	"github.com/juju/errors"
)

const compactPeerSize = 6

// Response is what a tracker answered to an announce. Exactly one of Failure
// and Success is set.
type Response struct {
	Failure *Failure
	Success *Success
}

func (r *Response) Failed() bool {
	return r.Failure != nil
}

// Failure is a well-formed rejection from the tracker.
type Failure struct {
	Reason string `bencode:"failure reason" json:"reason" yaml:"reason"`
}

type Success struct {
	Warning     *string `bencode:"warning message" json:"warning,omitempty" yaml:"warning,omitempty"`
	Interval    int64   `bencode:"interval" json:"interval" yaml:"interval"`
	MinInterval *int64  `bencode:"min interval" json:"min_interval,omitempty" yaml:"min_interval,omitempty"`
	TrackerID   *string `bencode:"tracker id" json:"tracker_id,omitempty" yaml:"tracker_id,omitempty"`
	Complete    *int64  `bencode:"complete" json:"complete,omitempty" yaml:"complete,omitempty"`
	Incomplete  *int64  `bencode:"incomplete" json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	Peers       Peers   `bencode:"-" json:"peers" yaml:"peers"`
}

type PeerFormat int

const (
	PeerFormatClassic PeerFormat = iota
	PeerFormatCompact
)

func (f PeerFormat) String() string {
	switch f {
	case PeerFormatClassic:
		return "classic"
	case PeerFormatCompact:
		return "compact"
	default:
		return "unknown"
	}
}

type Peers struct {
	Format PeerFormat `json:"-" yaml:"-"`
	List   []*Peer    `json:"list" yaml:"list"`
}

// HexBytes renders as a hex string in text encodings.
type HexBytes []byte

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

// Peer is one entry of the peer list. ID is empty for compact peers.
type Peer struct {
	ID   HexBytes `json:"id,omitempty" yaml:"id,omitempty"`
	IP   string   `json:"ip" yaml:"ip"`
	Port uint16   `json:"port" yaml:"port"`
}

func (p *Peer) Addr() (netip.AddrPort, error) {
	addr, err := netip.ParseAddr(p.IP)
	if err != nil {
		return netip.AddrPort{}, errors.Trace(err)
	}
	return netip.AddrPortFrom(addr, p.Port), nil
}

func (p *Peer) String() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(int(p.Port)))
}

type classicPeer struct {
	ID   []byte `bencode:"peer id"`
	IP   string `bencode:"ip"`
	Port int64  `bencode:"port"`
}

// DecodeResponse decodes an announce response body. A failure reason is
// returned as Response.Failure, not as an error.
func DecodeResponse(body []byte) (*Response, error) {
	root, err := bencode.Decode(body)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dict, ok := root.(map[string]any)
	if !ok {
		return nil, &bencode.DecodeError{Field: "response", Reason: "not a dictionary"}
	}
	failure := &Failure{}
	failureErr := bencode.Unmarshal(dict, "response", failure, "failure reason")
	if failureErr == nil {
		return &Response{Failure: failure}, nil
	}
	success, successErr := decodeSuccess(dict)
	if successErr == nil {
		return &Response{Success: success}, nil
	}
	return nil, errors.Trace(&bencode.DecodeError{
		Field:  "response",
		Reason: fmt.Sprintf("neither failure (%v) nor success (%v)", failureErr, successErr),
	})
}

func decodeSuccess(dict map[string]any) (*Success, error) {
	s := &Success{}
	err := bencode.Unmarshal(dict, "response", s, "interval", "peers")
	if err != nil {
		return nil, err
	}
	s.Peers, err = decodePeers(dict["peers"])
	if err != nil {
		return nil, err
	}
	return s, nil
}

func decodePeers(v any) (Peers, error) {
	switch raw := v.(type) {
	case []any:
		list, err := decodeClassicPeers(raw)
		if err != nil {
			return Peers{}, err
		}
		return Peers{Format: PeerFormatClassic, List: list}, nil
	case []byte:
		list, err := DecodeCompactPeers(raw)
		if err != nil {
			return Peers{}, err
		}
		return Peers{Format: PeerFormatCompact, List: list}, nil
	default:
		return Peers{}, &bencode.DecodeError{Field: "peers", Reason: "neither a peer list nor a compact string"}
	}
}

func decodeClassicPeers(raw []any) ([]*Peer, error) {
	peers := make([]*Peer, 0, len(raw))
	for i, item := range raw {
		field := "peers." + strconv.Itoa(i)
		dict, ok := item.(map[string]any)
		if !ok {
			return nil, &bencode.DecodeError{Field: field, Reason: "not a dictionary"}
		}
		p := classicPeer{}
		err := bencode.Unmarshal(dict, field, &p, "ip", "port")
		if err != nil {
			return nil, err
		}
		if p.Port < 0 || p.Port > 0xffff {
			return nil, &bencode.DecodeError{Field: field + ".port", Reason: fmt.Sprintf("port %d out of range", p.Port)}
		}
		peers = append(peers, &Peer{ID: p.ID, IP: p.IP, Port: uint16(p.Port)})
	}
	return peers, nil
}

// DecodeCompactPeers decodes the compact peer format: 4 bytes of IPv4 address
// and 2 bytes of port per peer, both big endian.
func DecodeCompactPeers(raw []byte) ([]*Peer, error) {
	if len(raw)%compactPeerSize != 0 {
		return nil, &bencode.DecodeError{
			Field:  "peers",
			Reason: fmt.Sprintf("compact length %d is not a multiple of %d", len(raw), compactPeerSize),
		}
	}
	peers := make([]*Peer, 0, len(raw)/compactPeerSize)
	for i := 0; i < len(raw); i += compactPeerSize {
		addr := netip.AddrFrom4([4]byte(raw[i : i+4]))
		peers = append(peers, &Peer{
			IP:   addr.String(),
			Port: binary.BigEndian.Uint16(raw[i+4 : i+6]),
		})
	}
	return peers, nil
}
