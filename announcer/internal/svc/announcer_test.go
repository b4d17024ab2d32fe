package svc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"tracker-probe/announcer/internal/config"
	"tracker-probe/common/bencode"
	"tracker-probe/common/bittorrent/tracker"

	"github.com/stretchr/testify/assert"
)

const testInfoHash = "07f6cb926fa08676965cf0e289849e93da08373e"

func writeTorrent(t *testing.T, dir, name, announce string) string {
	buf, err := bencode.Encode(map[string]any{
		"announce": announce,
		"info": map[string]any{
			"length":       1024,
			"name":         "a",
			"piece length": 16384,
			"pieces":       make([]byte, 20),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestServiceContext(t *testing.T) *ServiceContext {
	svcCtx, err := NewServiceContext(config.Config{
		Port:           6888,
		TimeoutSeconds: 5,
		Workers:        2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svcCtx
}

func TestAnnouncer_AnnounceAll(t *testing.T) {
	success := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1024", r.URL.Query().Get("left"))
		_, _ = w.Write([]byte("d8:intervali900e5:peers6:\x7f\x00\x00\x01\x1a\xe1e"))
	}))
	defer success.Close()
	failure := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("d14:failure reason12:unregisterede"))
	}))
	defer failure.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer garbage.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	dir := t.TempDir()
	paths := []string{
		writeTorrent(t, dir, "ok.torrent", success.URL+"/announce"),
		writeTorrent(t, dir, "rejected.torrent", failure.URL),
		filepath.Join(dir, "missing.torrent"),
		writeTorrent(t, dir, "garbage.torrent", garbage.URL),
		writeTorrent(t, dir, "broken.torrent", broken.URL),
	}

	results := newTestServiceContext(t).Announcer.AnnounceAll(context.Background(), paths)
	if !assert.Len(t, results, len(paths)) {
		return
	}
	outcomes := make([]string, 0, len(results))
	for i, res := range results {
		assert.Equal(t, paths[i], res.Path)
		outcomes = append(outcomes, res.Outcome())
	}
	assert.Equal(t, []string{
		OutcomeSuccess,
		OutcomeFailure,
		OutcomeLoadError,
		OutcomeDecodeError,
		OutcomeNetworkError,
	}, outcomes)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, testInfoHash, results[0].Torrent.InfoHashHex())
	assert.Len(t, results[0].Response.Success.Peers.List, 1)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "unregistered", results[1].Response.Failure.Reason)
	assert.Nil(t, results[2].Torrent)
	assert.Error(t, results[2].Err)
}

func TestAnnouncer_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	svcCtx := newTestServiceContext(t)
	a := NewAnnouncer(svcCtx)
	a.timeout = 50 * time.Millisecond
	res := a.Announce(context.Background(), writeTorrent(t, t.TempDir(), "slow.torrent", server.URL))
	assert.Equal(t, OutcomeNetworkError, res.Outcome())
	var netErr *tracker.NetworkError
	if assert.ErrorAs(t, res.Err, &netErr) {
		assert.True(t, netErr.Timeout())
	}
}

func TestNewServiceContext_Socks5(t *testing.T) {
	svcCtx, err := NewServiceContext(config.Config{
		Port:        7000,
		Workers:     1,
		Socks5Proxy: "127.0.0.1:1080",
	})
	if assert.NoError(t, err) {
		assert.NotNil(t, svcCtx.Announcer)
		assert.True(t, strings.HasPrefix(svcCtx.PeerID.String(), "-MS0000-"))
	}
}

func TestWriteReports(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("d8:completei2e8:intervali900e5:peers6:\x7f\x00\x00\x01\x1a\xe1e"))
	}))
	defer server.Close()

	dir := t.TempDir()
	results := newTestServiceContext(t).Announcer.AnnounceAll(context.Background(), []string{
		writeTorrent(t, dir, "ok.torrent", server.URL),
		filepath.Join(dir, "missing.torrent"),
	})
	reports := []*Report{NewReport(results[0]), NewReport(results[1])}

	var out bytes.Buffer
	if !assert.NoError(t, WriteReports(&out, OutputYAML, reports)) {
		return
	}
	text := out.String()
	assert.Contains(t, text, "info_hash: "+testInfoHash)
	assert.Contains(t, text, "outcome: success")
	assert.Contains(t, text, "outcome: load_error")
	assert.Contains(t, text, "ip: 127.0.0.1")
	assert.Contains(t, text, "port: 6881")

	out.Reset()
	if !assert.NoError(t, WriteReports(&out, OutputJSON, reports)) {
		return
	}
	var decoded []map[string]any
	if assert.NoError(t, json.Unmarshal(out.Bytes(), &decoded)) && assert.Len(t, decoded, 2) {
		assert.Equal(t, testInfoHash, decoded[0]["info_hash"])
		assert.Equal(t, float64(1024), decoded[0]["total_length"])
		success := decoded[0]["success"].(map[string]any)
		assert.Equal(t, float64(2), success["complete"])
		assert.NotContains(t, success, "incomplete")
		assert.NotEmpty(t, decoded[1]["error"])
	}

	assert.Error(t, WriteReports(&out, "xml", reports))
}
