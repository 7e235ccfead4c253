package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/codellm-devkit/callchain-go/internal/config"
)

const version = "1.0.0"

// errUsage marks command-line mistakes; they exit with the same code as configuration errors.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run esegue la CLI e restituisce il codice di uscita: 2 per errori di configurazione,
// 1 per errori di analisi.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) || errors.Is(err, errUsage) {
			logError(stderr, "configuration error: %v", err)
			return 2
		}
		logError(stderr, "analysis error: %v", err)
		return 1
	}
	return 0
}

func logError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "[error] "+format+"\n", args...)
}
