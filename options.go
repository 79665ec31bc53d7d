package rollout

// Option configures a Manager with optional dependencies.
type Option func(*managerOptions)

// managerOptions holds optional Manager configuration.
type managerOptions struct {
	strategy  AssignmentStrategy
	hooks     *Hooks
	metrics   MetricsCollector
	logger    Logger
	provider  ConfigProvider
	subjects  SubjectProvider
	observers []Observer
}

// WithStrategy sets a custom assignment strategy.
//
// Parameters:
//   - strategy: AssignmentStrategy implementation
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	pins := map[string]map[string]string{"checkout": {"qa-user": "B"}}
//	s := strategy.NewOverride(strategy.NewWeighted(), pins)
//	mgr, err := rollout.NewManager(&cfg, rollout.WithStrategy(s))
func WithStrategy(strategy AssignmentStrategy) Option {
	return func(o *managerOptions) {
		o.strategy = strategy
	}
}

// WithHooks sets callbacks for rejected documents and provider failures.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewManager
func WithHooks(hooks *Hooks) Option {
	return func(o *managerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	metrics := rollout.NewPrometheusMetrics(prometheus.DefaultRegisterer, "myapp")
//	mgr, err := rollout.NewManager(&cfg, rollout.WithMetrics(metrics))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *managerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	mgr, err := rollout.NewManager(&cfg, rollout.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithConfigProvider sets the source that Refresh and Watch pull documents from.
//
// Example:
//
//	src := source.NewFile("features.yaml")
//	mgr, err := rollout.NewManager(&cfg, rollout.WithConfigProvider(src))
//	_, err = mgr.Refresh(ctx)
func WithConfigProvider(provider ConfigProvider) Option {
	return func(o *managerOptions) {
		o.provider = provider
	}
}

// WithSubjectProvider sets the provider of the current subject identifier
// used by the *ForCurrent helpers.
//
// Example:
//
//	id, err := identity.OpenFile(filepath.Join(dataDir, "installation-id"))
//	mgr, err := rollout.NewManager(&cfg, rollout.WithSubjectProvider(id))
func WithSubjectProvider(provider SubjectProvider) Option {
	return func(o *managerOptions) {
		o.subjects = provider
	}
}

// WithObserver registers an observer before the first document is loaded,
// so it also sees the initial load.
func WithObserver(observer Observer) Option {
	return func(o *managerOptions) {
		o.observers = append(o.observers, observer)
	}
}
