package svc

import (
	"encoding/json"
	"io"
	"tracker-probe/announcer/internal/config"
	"tracker-probe/common/bittorrent/tracker"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

const (
	OutputYAML = config.OutputYAML
	OutputJSON = config.OutputJSON
)

type Report struct {
	File        string           `json:"file" yaml:"file"`
	Outcome     string           `json:"outcome" yaml:"outcome"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	InfoHash    string           `json:"info_hash,omitempty" yaml:"info_hash,omitempty"`
	Announce    string           `json:"announce,omitempty" yaml:"announce,omitempty"`
	TotalLength int64            `json:"total_length,omitempty" yaml:"total_length,omitempty"`
	PieceCount  int              `json:"piece_count,omitempty" yaml:"piece_count,omitempty"`
	Private     bool             `json:"private,omitempty" yaml:"private,omitempty"`
	Failure     *tracker.Failure `json:"failure,omitempty" yaml:"failure,omitempty"`
	Success     *tracker.Success `json:"success,omitempty" yaml:"success,omitempty"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func NewReport(res *Result) *Report {
	r := &Report{
		File:    res.Path,
		Outcome: res.Outcome(),
	}
	if t := res.Torrent; t != nil {
		r.Name = t.Name()
		r.InfoHash = t.InfoHashHex()
		r.Announce = t.Announce
		r.TotalLength = t.TotalLength()
		r.PieceCount = t.PieceCount()
		r.Private = t.IsPrivate()
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	} else if res.Response != nil {
		r.Failure = res.Response.Failure
		r.Success = res.Response.Success
	}
	return r
}

func WriteReports(w io.Writer, format string, reports []*Report) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Trace(enc.Encode(reports))
	case OutputYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(enc.Close())
	default:
		return errors.NotSupportedf("output format %q", format)
	}
}
