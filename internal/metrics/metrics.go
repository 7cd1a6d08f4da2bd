package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultAccepted     = "accepted"
	ResultColumnFull   = "column_full"
	ResultInvalid      = "invalid_column"
	ResultGameOver     = "game_over"
	ResultNotFound     = "table_not_found"
	ResultInternalFail = "error"
)

type Metrics struct {
	TablesCreated prometheus.Counter
	TablesClosed  prometheus.Counter
	Moves         *prometheus.CounterVec
	Undos         *prometheus.CounterVec
	GamesFinished *prometheus.CounterVec
	Subscribers   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the game metrics on a fresh registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		TablesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_created_total",
			Help:      "Number of tables opened",
		}),
		TablesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_closed_total",
			Help:      "Number of tables discarded",
		}),
		Moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Moves by result",
		}, []string{"result"}),
		Undos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undos_total",
			Help:      "Undo requests by whether a move was taken back",
		}, []string{"applied"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by outcome",
		}, []string{"outcome"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_subscribers",
			Help:      "Number of open websocket subscriptions",
		}),
		gatherer: registry,
	}

	registry.MustRegister(
		m.TablesCreated,
		m.TablesClosed,
		m.Moves,
		m.Undos,
		m.GamesFinished,
		m.Subscribers,
		collectors.NewGoCollector(),
	)

	return m
}

func (that *Metrics) ObserveMove(result string) {
	that.Moves.WithLabelValues(result).Inc()
}

func (that *Metrics) ObserveUndo(applied bool) {
	label := "false"
	if applied {
		label = "true"
	}

	that.Undos.WithLabelValues(label).Inc()
}

// ObserveFinished counts a finished game; outcome is a team name or "draw".
func (that *Metrics) ObserveFinished(outcome string) {
	that.GamesFinished.WithLabelValues(outcome).Inc()
}

func (that *Metrics) ObserveTableCreated() {
	that.TablesCreated.Inc()
}

func (that *Metrics) ObserveTableClosed() {
	that.TablesClosed.Inc()
}

func (that *Metrics) IncSubscribers() {
	that.Subscribers.Inc()
}

func (that *Metrics) DecSubscribers() {
	that.Subscribers.Dec()
}

// Handler serves the registry in the Prometheus exposition format.
func (that *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(that.gatherer, promhttp.HandlerOpts{})
}
