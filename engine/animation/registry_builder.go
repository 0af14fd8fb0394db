package animation

import "go.uber.org/zap"

// RegistryBuilderOption is a functional option applied to a registry during NewRegistry.
type RegistryBuilderOption func(*registryImpl)

// WithLogger sets the logger that receives callback failures.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - RegistryBuilderOption: a function that applies the logger option to a registry
func WithLogger(log *zap.Logger) RegistryBuilderOption {
	return func(r *registryImpl) {
		if log != nil {
			r.log = log
		}
	}
}
