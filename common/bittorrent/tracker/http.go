package tracker

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"tracker-probe/common/bittorrent"

	"github.com/juju/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/net/proxy"
)

const defaultMaxResponseSize = 2 << 20

var _ Tracker = (*HTTPTracker)(nil)

// NetworkError reports an announce that did not produce a response body:
// connection failures, timeouts and non-2xx statuses.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("announce %s: tracker responded with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("announce %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the announce was cut off by a deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

type HTTPTrackerOptions struct {
	// Port is announced as our listening port. Defaults to DefaultPort.
	Port uint16
	// Dialer, when set, carries tracker connections, e.g. a SOCKS5 proxy.
	Dialer proxy.Dialer
	// MaxResponseSize bounds the response body. Defaults to 2 MiB.
	MaxResponseSize int64
}

type HTTPTracker struct {
	client          *http.Client
	port            uint16
	maxResponseSize int64
}

func NewHTTPTracker(options HTTPTrackerOptions) *HTTPTracker {
	t := &HTTPTracker{
		port:            options.Port,
		maxResponseSize: options.MaxResponseSize,
	}
	if t.port == 0 {
		t.port = DefaultPort
	}
	if t.maxResponseSize <= 0 {
		t.maxResponseSize = defaultMaxResponseSize
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if options.Dialer != nil {
		transport.Proxy = nil
		transport.DialContext = dialContext(options.Dialer)
	}
	t.client = &http.Client{Transport: transport}
	return t
}

func dialContext(dialer proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if d, ok := dialer.(proxy.ContextDialer); ok {
		return d.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
}

// Announce sends one started announce to torrent.Announce. Other trackers of
// the announce-list are not contacted.
func (t *HTTPTracker) Announce(ctx context.Context, peerID bittorrent.PeerID, torrent *bittorrent.Torrent) (*Response, error) {
	req := NewAnnounceRequest(peerID, torrent, t.port)
	u, err := req.URL(torrent.Announce)
	if err != nil {
		return nil, errors.Trace(&NetworkError{URL: torrent.Announce, Err: err})
	}
	logx.WithContext(ctx).Debugf("Announcing %x to %s", req.InfoHash, u)
	body, err := t.get(ctx, u)
	if err != nil {
		return nil, errors.Trace(err)
	}
	resp, err := DecodeResponse(body)
	if err != nil {
		return nil, errors.Annotatef(err, "announce %s", torrent.Announce)
	}
	return resp, nil
}

func (t *HTTPTracker) get(ctx context.Context, u string) ([]byte, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &NetworkError{URL: u, StatusCode: httpResp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, t.maxResponseSize+1))
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	if int64(len(body)) > t.maxResponseSize {
		return nil, &NetworkError{URL: u, Err: errors.Errorf("response exceeds %d bytes", t.maxResponseSize)}
	}
	logx.WithContext(ctx).WithDuration(time.Since(start)).Debugf("Tracker returned %d bytes", len(body))
	return body, nil
}
