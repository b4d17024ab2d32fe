package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
	"tracker-probe/announcer/internal/config"
	"tracker-probe/announcer/internal/svc"

	"github.com/juju/errors"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/prometheus"
	"gopkg.in/yaml.v3"
)

var (
	configFile = flag.String("f", "", "the config file")
	output     = flag.String("o", "", "output format, yaml or json")
	raw        = flag.Bool("raw", false, "dump the decoded torrent files instead of announcing")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-f config.yaml] [-o yaml|json] [-raw] file.torrent...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *raw {
		if err := dumpRaw(flag.Args()); err != nil {
			logrus.Errorf("Failed to dump torrent. %v", err)
			os.Exit(1)
		}
		return
	}

	var c config.Config
	if len(*configFile) > 0 {
		conf.MustLoad(*configFile, &c)
	} else if err := conf.FillDefault(&c); err != nil {
		logrus.Fatalf("Failed to fill default config. %v", err)
	}
	if len(*output) > 0 {
		c.Output = *output
	}
	if err := c.Validate(); err != nil {
		logrus.Fatalf("Invalid config. %v", err)
	}
	c.MustSetUp()

	svcCtx, err := svc.NewServiceContext(c)
	if err != nil {
		logrus.Fatalf("Failed to initialize announcer. %v", err)
	}
	results := svcCtx.Announcer.AnnounceAll(context.Background(), flag.Args())
	reports := make([]*svc.Report, 0, len(results))
	failed := false
	for _, res := range results {
		reports = append(reports, svc.NewReport(res))
		if res.Err != nil {
			failed = true
		}
	}
	if err := svc.WriteReports(os.Stdout, c.Output, reports); err != nil {
		logrus.Fatalf("Failed to write report. %v", err)
	}
	if prometheus.Enabled() {
		counts, err := svc.AnnounceCounts(promclient.DefaultGatherer)
		if err != nil {
			logx.Errorf("Failed to gather announce metrics. %v", err)
		} else {
			logx.Infof("Announce outcomes: %s", svc.FormatCounts(counts))
		}
		if c.MetricsLingerSeconds > 0 {
			time.Sleep(time.Duration(c.MetricsLingerSeconds) * time.Second)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func dumpRaw(paths []string) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	for _, path := range paths {
		buf, err := os.ReadFile(path)
		if err != nil {
			return errors.Trace(err)
		}
		doc, err := svc.RawDocument(buf)
		if err != nil {
			return errors.Annotatef(err, "torrent %s", path)
		}
		if err := enc.Encode(doc); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
