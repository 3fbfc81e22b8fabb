package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters, exposed on /metrics next to the request metrics.
var (
	MessagesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "msgboard_messages_created_total",
			Help: "Total number of messages stored",
		},
	)

	MessagesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "msgboard_messages_deleted_total",
			Help: "Total number of messages removed by id",
		},
	)

	AttachmentsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msgboard_attachments_stored_total",
			Help: "Total number of attachment files stored, by subdirectory",
		},
		[]string{"subdir"},
	)

	AttachmentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msgboard_attachments_rejected_total",
			Help: "Total number of uploads rejected, by reason",
		},
		[]string{"reason"},
	)

	ZipDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "msgboard_zip_downloads_total",
			Help: "Total number of attachment archives streamed",
		},
	)

	ZipAborts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "msgboard_zip_aborts_total",
			Help: "Total number of archive streams aborted after headers were sent",
		},
	)

	GCDirectoriesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "msgboard_gc_directories_removed_total",
			Help: "Total number of orphaned attachment directories removed",
		},
	)
)
