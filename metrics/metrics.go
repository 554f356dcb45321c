package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiobot_submission_outcomes_total",
		Help: "Total number of submitted videos, by source and outcome",
	}, []string{"source", "outcome"})

	BatchesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiobot_batches_rejected_total",
		Help: "Total number of submission batches rejected before processing, by reason",
	}, []string{"reason"})

	CatalogRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiobot_catalog_retries_total",
		Help: "Total number of retried catalog calls, by operation",
	}, []string{"operation"})

	FeedEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiobot_feed_entries_total",
		Help: "Total number of feed entries handled, by result",
	}, []string{"result"})
)
