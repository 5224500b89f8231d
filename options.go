package goads

import (
	"log/slog"
	"time"

	"github.com/mrpasztoradam/goads/internal/bufpool"
	"github.com/mrpasztoradam/goads/internal/logger"
)

type options struct {
	readTimeout       time.Duration
	bufPoolCapacity   int
	notifChanCapacity int
	sourcePort        uint16
	logger            *slog.Logger
}

func defaultOptions() options {
	return options{
		readTimeout:       5 * time.Second,
		bufPoolCapacity:   bufpool.DefaultCapacity,
		notifChanCapacity: DefaultNotificationCapacity,
		sourcePort:        0, // 0 means ams.DefaultSourcePort
		logger:            logger.Discard(),
	}
}

// Option configures a Client at Connect time.
type Option func(*options)

// WithReadTimeout bounds how long a request waits for its reply. Zero
// means wait indefinitely.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) { o.readTimeout = d }
}

// WithBufferPoolCapacity overrides the recycling pool's bound.
func WithBufferPoolCapacity(n int) Option {
	return func(o *options) { o.bufPoolCapacity = n }
}

// WithNotificationCapacity overrides the notification channel's bound.
func WithNotificationCapacity(n int) Option {
	return func(o *options) { o.notifChanCapacity = n }
}

// WithSourcePort overrides the client's own AMS source port. The default
// is DefaultSourcePort (58913), matching TwinCAT's auto-generated clients.
func WithSourcePort(port uint16) Option {
	return func(o *options) { o.sourcePort = port }
}

// WithLogger sets the structured logger used for reader restarts and
// reader decode/IO errors. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// DefaultNotificationCapacity bounds the notification fan-out channel.
const DefaultNotificationCapacity = 16384
