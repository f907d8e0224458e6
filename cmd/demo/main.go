// Command demo drives a fleet of order machines concurrently, exposing
// Prometheus metrics and optional OTLP export while doing so. It exists to
// exercise the full engine surface end to end; run it with OTEL_ENABLED=true
// and a collector endpoint to see spans.
package main

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowstate-dev/flowstate/machine"
	"github.com/flowstate-dev/flowstate/machine/visualizer"
	"github.com/flowstate-dev/flowstate/telemetry"
)

//go:embed demo.yaml
var configFS embed.FS

const (
	metricsAddr   = ":2112"
	instanceCount = 100
	workerCount   = 16
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	provider, err := telemetry.Initialize(ctx, telemetry.LoadConfigFromEnv("demo"))
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	go serveMetrics()

	config, err := machine.LoadConfigFromFS(configFS, "demo.yaml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	diagram, err := visualizer.GenerateMermaid(config)
	if err != nil {
		return fmt.Errorf("render diagram: %w", err)
	}

	fmt.Println(diagram)

	def, err := machine.FromConfig(config, orderRegistry())
	if err != nil {
		return fmt.Errorf("build definition: %w", err)
	}

	logger := machine.NewSlogLogger(provider.Logger("order"))

	return driveFleet(ctx, def, logger)
}

// driveFleet walks instanceCount orders through their full lifecycle on a
// bounded worker pool.
func driveFleet(ctx context.Context, def *machine.Definition, logger machine.Logger) error {
	pool := pond.NewPool(workerCount)

	start := time.Now()

	for i := range instanceCount {
		seed := map[string]any{
			"orderID": fmt.Sprintf("order-%04d", i),
			"address": "12 Main St",
		}

		pool.Submit(func() {
			if err := driveOrder(ctx, def, seed, logger); err != nil {
				slog.Error("order lifecycle failed", "order_id", seed["orderID"], "error", err)
			}
		})
	}

	pool.StopAndWait()

	slog.Info("fleet complete",
		"instances", instanceCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func driveOrder(ctx context.Context, def *machine.Definition, seed map[string]any, logger machine.Logger) error {
	inst, err := def.Start(seed,
		machine.WithLogger(logger),
		machine.WithBaseContext(ctx),
	)
	if err != nil {
		return err
	}

	for _, event := range []string{"PAY", "SHIP", "DELIVER"} {
		if _, err := inst.Send(event).Await(); err != nil {
			return fmt.Errorf("send %s: %w", event, err)
		}
	}

	if state := inst.State(); state != "delivered" {
		return fmt.Errorf("order ended in state %q, want delivered", state) //nolint:err113
	}

	return nil
}

func orderRegistry() *machine.Registry {
	registry := machine.NewRegistry()

	must(registry.RegisterGuard("hasAddress",
		func(_ context.Context, mc *machine.Context, _ machine.Event) (bool, error) {
			addr, ok := mc.GetString("address")

			return ok && addr != "", nil
		}))

	must(registry.RegisterAction("recordPayment", machine.Assign(
		func(_ *machine.Context, _ machine.Event) map[string]any {
			return map[string]any{"paid": true, "paidAt": time.Now().UTC().Format(time.RFC3339)}
		})))

	must(registry.RegisterAction("notifyPaid",
		func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
			orderID, _ := mc.GetString("orderID")
			slog.Debug("payment recorded", "order_id", orderID)

			return nil, nil
		}))

	return registry
}

func serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Warn("metrics server stopped", "error", err)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
