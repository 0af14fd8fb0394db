package texture

import "go.uber.org/zap"

// LoaderBuilderOption is a functional option applied to a loader during NewLoader.
type LoaderBuilderOption func(*loaderImpl)

// WithRetries sets the number of silent retries after a failed decode. Negative values are ignored.
func WithRetries(n int) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if n >= 0 {
			l.retries = n
		}
	}
}

// WithDecoder replaces the file decoder.
func WithDecoder(d Decoder) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if d != nil {
			l.decode = d
		}
	}
}

// WithWorkers sets the maximum number of concurrent decodes.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets the logger for load failures.
func WithLogger(log *zap.Logger) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if log != nil {
			l.log = log
		}
	}
}
