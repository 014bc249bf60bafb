package fogsim

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics is the Prometheus view of one run.  Every simulation owns its own
// registry.  A nil *Metrics accepts every observation and records nothing.
type Metrics struct {
	Registry  *prometheus.Registry
	tasks     *prometheus.CounterVec
	probes    *prometheus.CounterVec
	faults    *prometheus.CounterVec
	penalties prometheus.Counter
	response  prometheus.Histogram
}

// CreateMetrics registers the run's collectors, labelled with the run and policy
func CreateMetrics(runID, policy string) *Metrics {
	labels := prometheus.Labels{"run": runID, "policy": policy}
	m := new(Metrics)
	m.Registry = prometheus.NewRegistry()
	m.tasks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "fogsim",
		Name:        "tasks_total",
		Help:        "Tasks recorded past warm-up, by tier that served them",
		ConstLabels: labels,
	}, []string{"tier"})
	m.probes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "fogsim",
		Name:        "probes_total",
		Help:        "Requests sent to node resources, by role",
		ConstLabels: labels,
	}, []string{"role"})
	m.faults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "fogsim",
		Name:        "fault_transitions_total",
		Help:        "Fault window transitions",
		ConstLabels: labels,
	}, []string{"state"})
	m.penalties = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "fogsim",
		Name:        "fault_penalties_total",
		Help:        "Requests or releases that met a faulted node",
		ConstLabels: labels,
	})
	m.response = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "fogsim",
		Name:        "response_seconds",
		Help:        "Task response time in virtual seconds",
		ConstLabels: labels,
		Buckets:     prometheus.ExponentialBuckets(0.01, 2, 16),
	})
	m.Registry.MustRegister(m.tasks, m.probes, m.faults, m.penalties, m.response)
	return m
}

func (m *Metrics) ObserveTask(tier Tier, response float64) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(TierToStr(tier)).Inc()
	m.response.Observe(response)
}

func (m *Metrics) ObserveProbe(role Role) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(RoleToStr(role)).Inc()
}

func (m *Metrics) ObservePenalty() {
	if m == nil {
		return
	}
	m.penalties.Inc()
}

func (m *Metrics) ObserveFault(fs FaultState) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(FaultStateToStr(fs)).Inc()
}

// WriteToFile writes everything gathered in the text exposition format
func (m *Metrics) WriteToFile(filename string) error {
	mfs, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	f, cerr := os.Create(filename)
	if cerr != nil {
		return cerr
	}
	for _, mf := range mfs {
		if _, werr := expfmt.MetricFamilyToText(f, mf); werr != nil {
			f.Close()
			return werr
		}
	}
	return f.Close()
}

// Record makes Metrics an Observer of a Workload
func (m *Metrics) Record(eng *Engine, out Outcome) {
	m.ObserveTask(out.Tier, out.Response)
}
