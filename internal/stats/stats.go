// Package stats reports how a ring divides its hash space and exports that
// report as prometheus metrics.
package stats

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"hashring/internal/ring"
)

// Share is the fraction of the hash space a node owns.
type Share struct {
	Node  string
	Ratio float64
}

// Ownership returns each node's arc of the hash space, in ring order. A node
// owns the arc from its predecessor's hash (exclusive) to its own hash.
func Ownership[T any](r *ring.Ring[T], label func(T) string) []Share {
	entries := r.Entries()
	shares := make([]Share, 0, len(entries))
	if len(entries) == 1 {
		return append(shares, Share{Node: label(entries[0].Node), Ratio: 1})
	}
	for i, e := range entries {
		pred := entries[(i-1+len(entries))%len(entries)].Hash
		// uint64 subtraction wraps, which is exactly the clockwise distance
		arc := e.Hash - pred
		shares = append(shares, Share{
			Node:  label(e.Node),
			Ratio: float64(arc) / math.Exp2(64),
		})
	}
	return shares
}

// SampleKeys returns n synthetic keys.
func SampleKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	return keys
}

// Sample counts how many of keys each node owns.
func Sample[T any](r *ring.Ring[T], keys []string, label func(T) string) (map[string]int, error) {
	counts := make(map[string]int, r.Len())
	for _, n := range r.Nodes() {
		counts[label(n)] = 0
	}
	for _, key := range keys {
		owner, err := r.GetNode(key)
		if err != nil {
			return nil, err
		}
		counts[label(owner)]++
	}
	return counts, nil
}

// Collector exports ring metrics.
type Collector[T any] struct {
	ring  *ring.Ring[T]
	label func(T) string
	keys  []string

	nodesDesc     *prometheus.Desc
	ownershipDesc *prometheus.Desc
	sampledDesc   *prometheus.Desc
}

// NewCollector creates a collector for r. Sampled key counts are only
// exported when keys is non-empty.
func NewCollector[T any](r *ring.Ring[T], label func(T) string, keys []string) *Collector[T] {
	return &Collector[T]{
		ring:  r,
		label: label,
		keys:  keys,
		nodesDesc: prometheus.NewDesc(
			"hashring_nodes",
			"the number of nodes on the ring",
			nil, nil,
		),
		ownershipDesc: prometheus.NewDesc(
			"hashring_node_ownership_ratio",
			"the fraction of the hash space owned by a node",
			[]string{"node"}, nil,
		),
		sampledDesc: prometheus.NewDesc(
			"hashring_node_sampled_keys",
			"the number of sampled keys owned by a node",
			[]string{"node"}, nil,
		),
	}
}

func (c *Collector[T]) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.nodesDesc
	ch <- c.ownershipDesc
	ch <- c.sampledDesc
}

func (c *Collector[T]) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.nodesDesc, prometheus.GaugeValue, float64(c.ring.Len()))

	for _, s := range Ownership(c.ring, c.label) {
		ch <- prometheus.MustNewConstMetric(c.ownershipDesc, prometheus.GaugeValue, s.Ratio, s.Node)
	}

	if len(c.keys) == 0 || c.ring.Len() == 0 {
		return
	}
	counts, err := Sample(c.ring, c.keys, c.label)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.sampledDesc, err)
		return
	}
	for node, count := range counts {
		ch <- prometheus.MustNewConstMetric(c.sampledDesc, prometheus.GaugeValue, float64(count), node)
	}
}

// WriteTextfile writes the metrics of c to path in the text exposition
// format.
func WriteTextfile(path string, c prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
