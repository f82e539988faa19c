// Command hprof-analysis decodes JVM heap dumps in HPROF binary format.
package main

import (
	"github.com/hprof-analysis/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
