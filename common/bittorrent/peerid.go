package bittorrent

import (
	"fmt"
	"math/rand"
)

const (
	PeerIDSize   = 20
	peerIDPrefix = "-MS0000-"
	peerIDDigits = 1000000000000
)

type PeerID [PeerIDSize]byte

// GeneratePeerID returns a client tag followed by 12 random digits. It is
// meant to be called once per process.
func GeneratePeerID() PeerID {
	var id PeerID
	copy(id[:], fmt.Sprintf("%s%012d", peerIDPrefix, rand.Int63n(peerIDDigits)))
	return id
}

func (p PeerID) String() string {
	return string(p[:])
}
