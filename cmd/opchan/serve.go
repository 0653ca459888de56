package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/opchan/core/client"
	"github.com/opchan/core/internal/adminapi"
	"github.com/opchan/core/internal/metrics"
	"github.com/opchan/core/transport"
	"github.com/opchan/core/transport/relay"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "storage directory; empty runs in-memory only",
	}
	relayFlag = &cli.StringFlag{
		Name:  "relay",
		Usage: "relay websocket endpoint; empty runs local-only with no transport",
	}
	relayJWTFlag = &cli.StringFlag{
		Name:  "relay-jwt-secret",
		Usage: "file containing the relay's JWT secret",
	}
	adminAddrFlag = &cli.StringFlag{
		Name:  "admin-addr",
		Usage: "address to serve the read-only adminapi on; empty disables it",
	}
)

var commandServe = &cli.Command{
	Name:  "serve",
	Usage: "run an OpChan node",
	Flags: []cli.Flag{dataDirFlag, relayFlag, relayJWTFlag, adminAddrFlag},
	Action: func(c *cli.Context) error {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		var tr transport.Transport
		if endpoint := c.String(relayFlag.Name); endpoint != "" {
			tr = relay.New(relay.Config{Endpoint: endpoint, JWTSecretFile: c.String(relayJWTFlag.Name)})
		}

		cfg := client.Config{
			FileConfig: client.FileConfig{
				StoragePath: c.String(dataDirFlag.Name),
				Metrics:     metrics.Config{Enabled: true, SampleInterval: metrics.DefaultConfig.SampleInterval},
			},
			Transport: tr,
			Logger:    logger,
		}
		cl, err := client.Open(c.Context, cfg)
		if err != nil {
			return fmt.Errorf("opchan: open client: %w", err)
		}
		defer cl.Close()

		if addr := c.String(adminAddrFlag.Name); addr != "" {
			srv := adminapi.New(adminapi.Config{Logger: logger}, cl.Replica, cl.Identity)
			httpSrv := &http.Server{Addr: addr, Handler: srv}
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("adminapi server exited", zap.Error(err))
				}
			}()
			defer httpSrv.Close()
			logger.Info("adminapi listening", zap.String("addr", addr))
		}

		logger.Info("opchan node running", zap.String("datadir", c.String(dataDirFlag.Name)))
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()
		return nil
	},
}
