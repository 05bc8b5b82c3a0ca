// Package delivery holds the transports that expose the identity service.
package delivery

import "context"

// Delivery is one long-running transport started by the process entrypoint.
type Delivery interface {
	Serve(ctx context.Context) error
}
