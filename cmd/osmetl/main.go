// Command osmetl converts OpenStreetMap XML extracts into newline-delimited
// JSON documents and checks converted output.
//
// Usage:
//
//	osmetl convert chicago.osm --clean
//	osmetl convert chicago.osm.gz --output - --pretty
//	osmetl validate chicago.osm.json --clean
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "osmetl",
		Short: "Convert OpenStreetMap XML into JSON documents",
		Long: `osmetl streams an OpenStreetMap XML extract and writes one JSON document
per node and way, ready for bulk import into a document store.

Logging, batching, metrics, and the optional Kafka sink are configured
through environment variables (LOG_LEVEL, LOG_FORMAT, BATCH_SIZE,
SHAPE_WORKERS, METRICS_ADDR, KAFKA_BROKERS, KAFKA_TOPIC, SHUTDOWN_TIMEOUT).`,
		SilenceUsage: true,
	}
	root.AddCommand(newConvertCmd(), newValidateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
