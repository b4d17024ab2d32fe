package config

import (
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/service"
)

const (
	OutputYAML = "yaml"
	OutputJSON = "json"
)

type Config struct {
	service.ServiceConf
	Port            uint16 `json:",default=6888"`
	TimeoutSeconds  int    `json:",default=15"`
	Workers         int    `json:",default=4"`
	Socks5Proxy     string `json:",optional"`
	MaxResponseSize int64  `json:",default=2097152"`
	Output          string `json:",default=yaml,options=yaml|json"`
	// MetricsLingerSeconds keeps the Prometheus endpoint up after the
	// report is written so the final counts can be scraped.
	MetricsLingerSeconds int `json:",default=0"`
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	switch c.Output {
	case OutputYAML, OutputJSON:
		return nil
	default:
		return errors.NotValidf("output format %q", c.Output)
	}
}

// MustSetUp starts logging and, when Prometheus.Host is set, the metrics
// agent. Console logs go to stderr, stdout carries the report.
func (c *Config) MustSetUp() {
	c.ServiceConf.MustSetUp()
	if c.Log.Mode == "" || c.Log.Mode == "console" {
		logx.SetWriter(logx.NewWriter(os.Stderr))
	}
}
