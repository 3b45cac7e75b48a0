// Package engine is the settlement-to-ledger transformation core: pure
// functions over an in-memory batch of source rows producing journal lines,
// invoice lines, payment records, and reconciliation reports. No I/O, no
// global state; everything a builder needs is carried on the Engine so
// independent batches can run in parallel.
package engine

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine holds the per-batch read-only inputs shared by the builders.
type Engine struct {
	Lookup   PriceLookup
	GLMap    GLMapping
	Balancer Balancer
	Log      *logrus.Logger

	// Now supplies the fallback timestamp for invoice numbers when a row's
	// posted date is unusable. Overridable in tests.
	Now func() time.Time
}

// New builds an Engine with the default deposit-plug balancer.
func New(lookup PriceLookup, glMap GLMapping, log *logrus.Logger) *Engine {
	return &Engine{
		Lookup:   lookup,
		GLMap:    glMap,
		Balancer: DepositPlug{},
		Log:      log,
	}
}

func (e *Engine) logger() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
