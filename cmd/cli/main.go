// ncplot - Scope Log Plotter
//
// ncplot reads motion-controller scope logs, rebuilds the NC-rate and
// PLC-rate time axes and renders the diagnostic charts.
package main

import (
	"os"

	"github.com/ccollicutt/ncplot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
