package svc

import (
	"tracker-probe/announcer/internal/config"
	"tracker-probe/common/bittorrent"
	"tracker-probe/common/bittorrent/tracker"

	"github.com/juju/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config    config.Config
	PeerID    bittorrent.PeerID
	Tracker   tracker.Tracker
	Announcer *Announcer
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	options := tracker.HTTPTrackerOptions{
		Port:            c.Port,
		MaxResponseSize: c.MaxResponseSize,
	}
	if len(c.Socks5Proxy) > 0 {
		dialer, err := proxy.SOCKS5("tcp", c.Socks5Proxy, nil, nil)
		if err != nil {
			logx.Errorf("Failed to create socks5 dialer %s. %v", c.Socks5Proxy, err)
			return nil, errors.Trace(err)
		}
		options.Dialer = dialer
	}
	svcCtx := &ServiceContext{
		Config:  c,
		PeerID:  bittorrent.GeneratePeerID(),
		Tracker: tracker.NewHTTPTracker(options),
	}
	logx.Infof("Peer ID for this run: %s", svcCtx.PeerID)
	InjectAnnouncer(svcCtx)
	return svcCtx, nil
}
