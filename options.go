package shardfuse

import "log/slog"

type options struct {
	shardBits uint8
	logger    *Logger
	metrics   MetricsCollector
}

// Option configures sink and source construction.
type Option func(*options)

// WithShardBits configures how many top bits of each key route to a shard,
// giving 2^bits shards. Must not exceed MaxShardBits. A file written with
// one width can only be opened with the same width.
func WithShardBits(bits uint8) Option {
	return func(o *options) {
		o.shardBits = bits
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for build, append and
// load operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		shardBits: DefaultShardBits,
		logger:    NoopLogger(),
		metrics:   NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
