package rm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts executor runs. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	commands *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewMetrics creates the executor counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xrctl_runs_total",
			Help: "Resource module runs by module and state.",
		}, []string{"module", "state"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xrctl_commands_total",
			Help: "Commands generated by module.",
		}, []string{"module"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xrctl_errors_total",
			Help: "Failed runs by module and error kind.",
		}, []string{"module", "kind"}),
	}
	reg.MustRegister(m.runs, m.commands, m.errors)
	return m
}

func (m *Metrics) observe(module string, mode Mode, commands int, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(module, string(mode)).Inc()
	m.commands.WithLabelValues(module).Add(float64(commands))
	if err != nil {
		kind := KindOf(err)
		if kind == "" {
			kind = "unknown"
		}
		m.errors.WithLabelValues(module, string(kind)).Inc()
	}
}
