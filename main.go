package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/oakwood-commons/kvgrid/cmd"
	"github.com/oakwood-commons/kvgrid/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.ExecuteContext(ctx)
	stop()

	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
