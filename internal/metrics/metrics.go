// Package metrics holds the prometheus collectors for dialog resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversationsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlgview_conversations_loaded_total",
		Help: "Conversations requested, labelled by whether the parse came from cache.",
	}, []string{"source"})

	ConversationLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlgview_conversation_load_errors_total",
		Help: "Conversation documents that failed to parse.",
	})

	TreesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlgview_trees_built_total",
		Help: "Display trees built from a conversation.",
	})

	TreeItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dlgview_tree_items",
		Help:    "Items per built display tree.",
		Buckets: prometheus.ExponentialBuckets(4, 2, 10),
	})

	ReferenceItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlgview_reference_items_total",
		Help: "Reference items produced for revisited nodes.",
	})

	IntegrityIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlgview_integrity_issues_total",
		Help: "Data-integrity problems found while building trees, labelled by kind.",
	}, []string{"kind"})

	OptionsResolved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dlgview_options_resolved",
		Help:    "Options surviving resolution per wheel.",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7},
	})

	ChoicesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlgview_choices_applied_total",
		Help: "Wheel options chosen by a player.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dlgview_active_sessions",
		Help: "Open HTTP sessions.",
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dlgview_websocket_clients",
		Help: "Connected websocket clients.",
	})
)
