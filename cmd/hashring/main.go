// Command hashring builds a consistent hashing ring from configuration and
// prints the owning node of each key given on the command line.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hashring/internal/config"
	"hashring/internal/stats"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logrus.Fatalf("%+v", err)
	}
}

func nodeID(n config.Node) string {
	return n.ID
}

func run(args []string, stdout io.Writer) error {
	v := viper.New()
	fs := pflag.NewFlagSet("hashring", pflag.ContinueOnError)
	if err := config.BindFlags(v, fs); err != nil {
		return err
	}
	successors := fs.Int("successors", 0, "print this many successors per key instead of the owner")
	if err := fs.Parse(args); err != nil {
		return eris.Wrap(err, "parse flags")
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "parse log level")
	}
	logrus.SetLevel(level)

	r, err := cfg.BuildRing()
	if err != nil {
		return err
	}
	logrus.Infof("ring built with %d nodes", r.Len())

	for _, key := range fs.Args() {
		if *successors > 0 {
			nodes, err := r.Successors(key, *successors)
			if err != nil {
				return eris.Wrapf(err, "successors of %s", key)
			}
			ids := make([]string, 0, len(nodes))
			for _, n := range nodes {
				ids = append(ids, n.ID)
			}
			fmt.Fprintf(stdout, "%s\t%s\n", key, strings.Join(ids, ","))
			continue
		}

		owner, err := r.GetNode(key)
		if err != nil {
			return eris.Wrapf(err, "lookup %s", key)
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", key, owner.ID, owner.Addr)
	}

	keys := stats.SampleKeys(cfg.SampleKeys)
	if cfg.SampleKeys > 0 {
		counts, err := stats.Sample(r, keys, nodeID)
		if err != nil {
			return eris.Wrap(err, "sample keys")
		}
		for _, share := range stats.Ownership(r, nodeID) {
			logrus.WithFields(logrus.Fields{
				"node":      share.Node,
				"ownership": fmt.Sprintf("%.2f%%", share.Ratio*100),
				"sampled":   counts[share.Node],
			}).Info("node share")
		}
	}

	if cfg.MetricsFile != "" {
		c := stats.NewCollector(r, nodeID, keys)
		if err := stats.WriteTextfile(cfg.MetricsFile, c); err != nil {
			return eris.Wrapf(err, "write metrics to %s", cfg.MetricsFile)
		}
		logrus.Debugf("wrote metrics to %s", cfg.MetricsFile)
	}
	return nil
}
