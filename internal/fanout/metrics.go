package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Published = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_published_total",
			Help: "Transactions handed to the fanout dispatcher",
		},
		[]string{"mode"},
	)
	Dropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_dropped_total",
			Help: "Transactions dropped because a fanout queue was full",
		},
	)
	MalformedRemote = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_malformed_remote_total",
			Help: "Remote messages dropped because they could not be decoded",
		},
	)
)

func init() {
	prometheus.MustRegister(Published)
	prometheus.MustRegister(Dropped)
	prometheus.MustRegister(MalformedRemote)
}
