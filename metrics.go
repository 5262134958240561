/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	boardsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bankheist",
		Name:      "boards_active",
		Help:      "Number of scoreboards currently held in memory.",
	})

	viewersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bankheist",
		Name:      "viewers_connected",
		Help:      "Number of open scoreboard websockets.",
	})

	roundsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bankheist",
		Name:      "rounds_finished_total",
		Help:      "Number of rounds scored across all boards.",
	})

	pointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bankheist",
		Name:      "points_awarded_total",
		Help:      "Sum of points awarded across all boards.",
	})

	commandsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bankheist",
		Name:      "commands_rejected_total",
		Help:      "Board commands refused, by reason.",
	}, []string{"reason"})
)

func registerMetrics(cfg *Config, mux *httprouter.Router) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.Handler())

	logf(cfg, "START: Serving metrics at %s/metrics", cfg.prefix)
}
