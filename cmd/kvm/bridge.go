package kvm

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/bridge"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/config"
)

func newBridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Run the WebSocket bridge: lets a browser join as an input client over HTTP(S)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(cmd)
		},
	}
}

func runBridge(cmd *cobra.Command) error {
	cfg, err := config.LoadBridgeConfig()
	if err != nil {
		return fmt.Errorf("bridge: load config: %w", err)
	}

	srv := bridge.NewServer(cfg.MasterAddr)

	mux := http.NewServeMux()
	mux.Handle("/ws", srv)

	addr := ":" + cfg.WSPort
	log.Info().Str("addr", addr).Str("master", cfg.MasterAddr).Msg("bridge: listening for browser connections")

	httpServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-cmd.Context().Done()
		_ = httpServer.Close()
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("bridge: serve: %w", err)
	}
	return nil
}
