package silentlogin

import (
	"context"
	"log/slog"

	"bazaar/internal/client/eventbus"
	"bazaar/internal/errors"
)

// LocationClient posts location logs to the server.
type LocationClient interface {
	LogLocation(ctx context.Context, pageURL, code string) error
}

// NewLocationLogger returns the bus handler that persists LocationUpdate events.
func NewLocationLogger(client LocationClient, logger *slog.Logger) eventbus.Handler[LocationUpdate] {
	return func(ctx context.Context, update LocationUpdate) error {
		if err := client.LogLocation(ctx, update.URL, update.Code); err != nil {
			logger.Warn("Failed to record location",
				slog.Int64("user_id", update.UserID),
				slog.String("url", update.URL),
				slog.Any("error", err),
			)

			return errors.Wrap(err, "record location")
		}

		return nil
	}
}
