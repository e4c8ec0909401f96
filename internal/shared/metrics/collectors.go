package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement agrupa as métricas da liquidação. Os métodos casam com os
// callbacks do engine e são ligados no main de cada binário.
type Settlement struct {
	resolved  *prometheus.CounterVec
	contended prometheus.Counter
	pending   prometheus.Counter
	recovered prometheus.Counter
	errorsBy  *prometheus.CounterVec
	passes    prometheus.Histogram
}

func NewSettlement(reg prometheus.Registerer) *Settlement {
	m := &Settlement{
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_wagers_resolved_total", Help: "apostas liquidadas por status",
		}, []string{"status"}),
		contended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_claims_contended_total", Help: "reservas perdidas para outro runner",
		}),
		pending: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_wagers_pending_total", Help: "apostas devolvidas a open por leg sem resultado",
		}),
		recovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_stale_claims_recovered_total", Help: "reservas expiradas devolvidas a open",
		}),
		errorsBy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_errors_total", Help: "erros por estágio",
		}, []string{"stage"}),
		passes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlement_pass_duration_seconds",
			Help:    "duração de cada passada de liquidação",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.resolved, m.contended, m.pending, m.recovered, m.errorsBy, m.passes)
	return m
}

func (m *Settlement) Resolved(status string)       { m.resolved.WithLabelValues(status).Inc() }
func (m *Settlement) Contended()                   { m.contended.Inc() }
func (m *Settlement) Pending()                     { m.pending.Inc() }
func (m *Settlement) Recovered(n int)              { m.recovered.Add(float64(n)) }
func (m *Settlement) Error(stage string)           { m.errorsBy.WithLabelValues(stage).Inc() }
func (m *Settlement) PassDuration(d time.Duration) { m.passes.Observe(d.Seconds()) }

// Placement conta apostas aceitas e recusadas na colocação.
type Placement struct {
	placed   *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func NewPlacement(reg prometheus.Registerer) *Placement {
	m := &Placement{
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bet_wagers_placed_total", Help: "apostas aceitas por tipo",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bet_placement_rejected_total", Help: "apostas recusadas por motivo",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.placed, m.rejected)
	return m
}

func (m *Placement) Placed(kind string)     { m.placed.WithLabelValues(kind).Inc() }
func (m *Placement) Rejected(reason string) { m.rejected.WithLabelValues(reason).Inc() }
