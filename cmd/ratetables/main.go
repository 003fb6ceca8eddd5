// Command ratetables builds the actuarial rate-table store: it transforms the
// tab-delimited source tables into intermediate artifacts and loads them into
// a relational database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp(os.Stdout)).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
