package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		progressUpdatesTotal,
		courseCompletionsTotal,
		certificatesIssuedTotal,
	)
}

var (
	progressUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lesson_progress_updates_total",
			Help: "Total number of accepted lesson progress updates.",
		},
	)

	courseCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "course_completions_total",
			Help: "Enrollments that reached 100% completion.",
		},
	)

	certificatesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Total number of certificates issued.",
		},
	)
)

func IncProgressUpdate()    { progressUpdatesTotal.Inc() }
func IncCourseCompletion()  { courseCompletionsTotal.Inc() }
func IncCertificateIssued() { certificatesIssuedTotal.Inc() }
