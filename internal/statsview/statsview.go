// Package statsview wraps go-echarts/statsview behind the same
// on/off-if-available shape the rest of the project uses for optional
// instrumentation: a single Launch call that starts a background HTTP
// server serving live goroutine/heap/GC charts, and is a no-op to construct
// when the caller never asks for it.
package statsview

import (
	"fmt"

	"github.com/go-echarts/statsview"

	"github.com/cpmpercussion/comp2300-discoserver/internal/logger"
)

// Address is the default bind address of the stats HTTP server, exported so
// the CLI help text can show it without duplicating the constant.
const Address = "localhost:18066"

// Launch starts the statsview HTTP server on its own goroutine and returns
// immediately; it never blocks the caller and never returns an error, since
// a failed bind just means the charts aren't available, not that the
// emulator can't run.
func Launch() {
	mgr := statsview.New()
	go func() {
		if err := mgr.Start(); err != nil {
			logger.Logf(logger.Allow, "statsview", "stats server exited: %v", err)
		}
	}()
	logger.Logf(logger.Allow, "statsview", "serving runtime charts at %s", fmt.Sprintf("http://%s/debug/statsview", Address))
}
