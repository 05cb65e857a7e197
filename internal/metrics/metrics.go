package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exports chat and simulator activity as Prometheus metrics.
type Recorder struct {
	chatOutcomes *prometheus.CounterVec
	simulations  *prometheus.CounterVec
	modelLatency prometheus.Histogram
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		chatOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policylens_chat_messages_total",
			Help: "Chat submissions by outcome",
		}, []string{"outcome"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policylens_simulations_total",
			Help: "Simulator runs by number of active policy toggles",
		}, []string{"active"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "policylens_model_request_seconds",
			Help:    "Latency of chat-completion calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
	}
	for _, c := range []prometheus.Collector{r.chatOutcomes, r.simulations, r.modelLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ChatOutcome(outcome string) {
	r.chatOutcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ModelLatency(d time.Duration) {
	r.modelLatency.Observe(d.Seconds())
}

// Simulation counts one simulator run with active toggles switched on.
func (r *Recorder) Simulation(active int) {
	r.simulations.WithLabelValues(activeLabel(active)).Inc()
}

func activeLabel(n int) string {
	switch {
	case n <= 0:
		return "0"
	case n == 1:
		return "1"
	case n == 2:
		return "2"
	}
	return "3"
}
