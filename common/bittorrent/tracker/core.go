package tracker

import (
	"context"
	"tracker-probe/common/bittorrent"
)

type Tracker interface {
	// Announce registers peerID for torrent with the torrent's primary
	// tracker and returns its answer.
	Announce(ctx context.Context, peerID bittorrent.PeerID, torrent *bittorrent.Torrent) (*Response, error)
}
