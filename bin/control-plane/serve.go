package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaoslab/control-plane/pkg/events"
	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	listenAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the control plane",
	Long: `Start the control plane process. It exposes prometheus collectors and
a health endpoint on the configured listen address and keeps scheduled
runs alive until shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveFlags.listenAddr, "listen", "l", "", "override listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if serveFlags.listenAddr != "" {
		settings.ListenAddr = serveFlags.listenAddr
	}
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.OTLPEndpoint != "" {
		shutdown, err := telemetry.InitOTelSDK(ctx, settings.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Errorf("Unable to shutdown the tracing exporter, err: %v", err)
			}
		}()
	}

	application, err := buildApp(settings)
	if err != nil {
		return err
	}
	defer application.Close()

	application.bus.SubscribeAll(func(event events.Event) {
		log.InfoWithValues("[Event]: "+event.Type, logrus.Fields{
			"Run ID": event.RunID,
			"State":  event.State,
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", application.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("[Serve]: Listening on %v", settings.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("[Serve]: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
