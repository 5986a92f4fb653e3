// cmd/pipeline/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"member-pipeline/internal/common/errors"
)

func main() {
	root := RootCmd(afero.NewOsFs(), os.Stdout, nil)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
