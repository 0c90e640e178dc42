// Package metrics expone los contadores Prometheus del motor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MovementsTotal cuenta los asientos del ledger por tipo de movimiento.
	MovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medstock",
		Subsystem: "ledger",
		Name:      "movements_total",
		Help:      "Movimientos de stock registrados, por tipo.",
	}, []string{"type"})

	// LedgerConflictsTotal cuenta los conflictos de concurrencia reintentados.
	LedgerConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medstock",
		Subsystem: "ledger",
		Name:      "conflicts_total",
		Help:      "Conflictos de escritura concurrente que dispararon reintento.",
	})

	// OrderSendsTotal cuenta los envíos de pedidos por canal y desenlace.
	OrderSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medstock",
		Subsystem: "orders",
		Name:      "sends_total",
		Help:      "Intentos de envío de pedidos a proveedor, por canal y resultado.",
	}, []string{"method", "outcome"})

	// AutomationRunsTotal cuenta las corridas de automatización por desenlace.
	AutomationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medstock",
		Subsystem: "automation",
		Name:      "runs_total",
		Help:      "Corridas de reposición automática por organización, por resultado.",
	}, []string{"outcome"})
)
