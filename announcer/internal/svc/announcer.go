package svc

import (
	"context"
	"time"
	"tracker-probe/common/bencode"
	"tracker-probe/common/bittorrent"
	"tracker-probe/common/bittorrent/tracker"
	"tracker-probe/common/executor"

	"github.com/juju/errors"
	"github.com/zeromicro/go-zero/core/logx"
)

// Result is the outcome of loading one torrent file and announcing it.
type Result struct {
	Path     string
	Torrent  *bittorrent.Torrent
	Response *tracker.Response
	Err      error
}

func (r *Result) Outcome() string {
	if r.Torrent == nil {
		return OutcomeLoadError
	}
	if r.Err != nil {
		var netErr *tracker.NetworkError
		if errors.As(r.Err, &netErr) {
			return OutcomeNetworkError
		}
		var decodeErr *bencode.DecodeError
		if errors.As(r.Err, &decodeErr) {
			return OutcomeDecodeError
		}
		return OutcomeNetworkError
	}
	if r.Response.Failed() {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

type Announcer struct {
	tracker tracker.Tracker
	peerID  bittorrent.PeerID
	timeout time.Duration
	workers int
}

func InjectAnnouncer(svcCtx *ServiceContext) {
	svcCtx.Announcer = NewAnnouncer(svcCtx)
}

func NewAnnouncer(svcCtx *ServiceContext) *Announcer {
	return &Announcer{
		tracker: svcCtx.Tracker,
		peerID:  svcCtx.PeerID,
		timeout: svcCtx.Config.Timeout(),
		workers: svcCtx.Config.Workers,
	}
}

// Announce loads the torrent at path and sends it to its primary tracker.
// Every failure is reported through Result.Err.
func (a *Announcer) Announce(ctx context.Context, path string) *Result {
	start := time.Now()
	res := &Result{Path: path}
	defer func() {
		outcome := res.Outcome()
		metricAnnounceCounter.Inc(outcome)
		metricAnnounceDuration.Observe(time.Since(start).Milliseconds(), outcome)
	}()

	res.Torrent, res.Err = bittorrent.Load(path)
	if res.Err != nil {
		logx.WithContext(ctx).Errorf("Failed to load %s. %v", path, res.Err)
		return res
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	res.Response, res.Err = a.tracker.Announce(ctx, a.peerID, res.Torrent)
	if res.Err != nil {
		logx.WithContext(ctx).Errorf("Failed to announce %s to %s. %v", res.Torrent.InfoHashHex(), res.Torrent.Announce, res.Err)
		return res
	}
	if res.Response.Failed() {
		logx.WithContext(ctx).Infof("Tracker %s rejected %s: %s", res.Torrent.Announce, res.Torrent.InfoHashHex(), res.Response.Failure.Reason)
	} else {
		logx.WithContext(ctx).Infof("Tracker %s returned %d peers for %s", res.Torrent.Announce, len(res.Response.Success.Peers.List), res.Torrent.InfoHashHex())
	}
	return res
}

// AnnounceAll announces every path on the worker pool. Results keep the
// order of paths.
func (a *Announcer) AnnounceAll(ctx context.Context, paths []string) []*Result {
	results := make([]*Result, len(paths))
	exec := executor.NewExecutor[int](ctx, a.workers, len(paths), func(ctx context.Context, i int) {
		results[i] = a.Announce(ctx, paths[i])
	})
	exec.Start()
	for i := range paths {
		exec.Commit(i)
	}
	exec.Wait()
	exec.Stop()
	for i, res := range results {
		if res == nil {
			results[i] = &Result{Path: paths[i], Err: errors.Errorf("announce of %s did not complete", paths[i])}
		}
	}
	return results
}
