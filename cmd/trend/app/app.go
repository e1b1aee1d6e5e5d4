package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/healthcarekit/vitalmon/internal/collector"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := collector.NewStore(config.DBPath)
	defer store.Close()

	return renderTrend(ctx, store, config, logger)
}

func renderTrend(ctx context.Context, store *collector.Store, config *Config, logger *slog.Logger) error {
	sessionID := config.SessionID
	if sessionID == "" {
		var err error
		if sessionID, err = store.LatestSession(ctx); err != nil {
			return err
		}
		logger.Info("using latest session", slog.String("session", sessionID))
	}

	readings, err := store.SessionReadings(ctx, sessionID)
	if err != nil {
		return err
	}

	td, err := NewTrendData(sessionID, readings)
	if err != nil {
		return err
	}

	logger.Info("finished reading session",
		slog.Group("stats",
			slog.String("minTimestamp", td.Start.Local().Format(time.DateTime)),
			slog.String("maxTimestamp", td.End.Local().Format(time.DateTime)),
			slog.Int("readings", td.Count),
			slog.String("deviceID", td.DeviceID),
		))

	renderer, err := NewTrendRenderer(RenderConfig{
		FontPath: config.FontPath,
	})
	if err != nil {
		return fmt.Errorf("creating trend renderer: %w", err)
	}

	logger.Info("rendering trend chart",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("panels", len(td.Panels)),
		))

	img, err := renderer.Render(td)
	if err != nil {
		return fmt.Errorf("rendering trend chart: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
