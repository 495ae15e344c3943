package metrics

import "github.com/prometheus/client_golang/prometheus"

// ContentMetrics holds Prometheus metrics for user-submitted content.
type ContentMetrics struct {
	ScenariosSubmitted prometheus.Counter
	CommentsAdded      prometheus.Counter
	ContactMessages    prometheus.Counter
	ImageUploads       *prometheus.CounterVec
	Searches           *prometheus.CounterVec
}

// NewContentMetrics creates and registers content metrics on the given registry.
func NewContentMetrics(reg prometheus.Registerer) *ContentMetrics {
	m := &ContentMetrics{
		ScenariosSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_submitted_total",
			Help:      "Total number of submitted scenarios.",
		}),
		CommentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_added_total",
			Help:      "Total number of added comments.",
		}),
		ContactMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_messages_total",
			Help:      "Total number of contact form submissions.",
		}),
		ImageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Total number of image uploads, by result.",
		}, []string{"result"}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of active searches, by whether anything matched.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.ScenariosSubmitted, m.CommentsAdded, m.ContactMessages, m.ImageUploads, m.Searches)
	return m
}
