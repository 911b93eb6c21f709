package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/platinummonkey/phpsniff/pkg/cli"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	err := cli.NewRootCommand(Version).ExecuteContext(context.Background())
	if err != nil && !errors.Is(err, cli.ErrViolationsFound) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
