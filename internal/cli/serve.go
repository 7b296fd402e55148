package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/runnerr0/meterreport/internal/server"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	loaded, cfg, err := loadDataset(c.globals)
	if err != nil {
		return err
	}

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	gin.SetMode(cfg.Server.GinMode)
	log.Printf("[serve] %s: %d meters loaded, %d skipped", loaded.Source, loaded.Dataset.Len(), len(loaded.Failures))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := server.NewRouter(loaded.Dataset, reportOptions(cfg), cfg.Server.AllowedOrigins)
	return server.Serve(ctx, cfg.Addr(), router)
}
