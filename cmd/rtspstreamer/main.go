// Command rtspstreamer captures live audio from the default input device
// and streams it to a remote endpoint, either as an Opus/MPEG-TS push
// stream over SRT or as a PCM session stream over QUIC.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/tonyrewin/rtspstreamer/internal/config"
	"github.com/tonyrewin/rtspstreamer/metrics"
	"github.com/tonyrewin/rtspstreamer/service"
	"github.com/tonyrewin/rtspstreamer/session"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	profile := service.Push()
	if cfg.Profile == config.ProfileSession {
		profile = service.SessionStream()
	}

	slog.Info("rtspstreamer starting",
		"version", version,
		"profile", cfg.Profile,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
	)

	var met *metrics.Metrics
	if cfg.MetricsAddr != "" {
		met = metrics.New(nil)
	}

	sess := session.New(profile, cfg.Endpoint, session.Options{
		SampleRate: cfg.SampleRate,
		BitRate:    cfg.BitRate,
		Metrics:    met,
	})
	defer sess.Close()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		metricsSrv := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.Handler(),
		}
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return capture(ctx, sess, cfg)
	})

	if err := g.Wait(); err != nil {
		slog.Error("streamer error", "error", err)
		os.Exit(1)
	}
}

// capture reads fixed-size blocks from the default input device and feeds
// them to the session until the context is cancelled.
func capture(ctx context.Context, sess *session.Session, cfg *config.Config) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	block := make([]float32, cfg.BlockSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(cfg.SampleRate), cfg.BlockSize, block)
	if err != nil {
		return fmt.Errorf("open capture stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start capture stream: %w", err)
	}
	defer stream.Stop()

	slog.Info("capturing", "sample_rate", cfg.SampleRate, "block_size", cfg.BlockSize)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := stream.Read(); err != nil {
			return fmt.Errorf("read capture block: %w", err)
		}
		sess.ProcessBlock(block)
	}
}
