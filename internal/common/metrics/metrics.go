package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_saves_total",
			Help: "Total number of assessment saves",
		},
		[]string{"form_type", "state"},
	)

	SaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assessment_save_duration_seconds",
			Help: "Duration of assessment save operations in seconds",
		},
		[]string{"form_type"},
	)

	CredentialsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_credentials_issued_total",
			Help: "Total number of presigned upload credentials issued",
		},
	)

	UploadsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_registrations_total",
			Help: "Total number of file upload registrations",
		},
		[]string{"form_type"},
	)

	FilesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_files_deleted_total",
			Help: "Total number of uploaded files deleted",
		},
	)

	FallbackActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_activations_total",
			Help: "Total number of writes absorbed by the fallback cache",
		},
		[]string{"component"},
	)

	ReconcileReplays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_reconcile_replays_total",
			Help: "Total number of fallback entries replayed during reconciliation",
		},
		[]string{"result"},
	)

	RegistryInconsistencies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_registry_inconsistencies_total",
			Help: "Total number of orphaned registry entries after partial deletes",
		},
	)
)
