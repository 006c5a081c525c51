// Command arcgeocode geocodes tables against an ArcGIS GeocodeServer, either
// one file at a time or as a Kafka worker.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
