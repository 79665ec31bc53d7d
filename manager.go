package rollout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/rollout/document"
	"github.com/arloliu/rollout/internal/controller"
	"github.com/arloliu/rollout/internal/hooks"
	"github.com/arloliu/rollout/internal/logging"
	"github.com/arloliu/rollout/internal/metrics"
	"github.com/arloliu/rollout/internal/registry"
	"github.com/arloliu/rollout/strategy"
)

// errWatchClosed is returned by Watch when the provider closes its channel
// while the caller's context is still live.
var errWatchClosed = errors.New("configuration watch closed by provider")

// Manager is the host-facing handle to the active feature configuration.
//
// Manager is the main entry point of the library. It handles:
//   - Parsing and validating configuration documents
//   - Versioned, atomic replacement of the active configuration
//   - Deterministic subject bucketing and label lookups
//   - Pulling and watching documents through a ConfigProvider
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Lookups never lock and never observe a half-applied update
//   - Updates are serialized; each one produces a new version
//
// Lookup Policy:
//   - IsEnabled, VariationName and Label never fail: an unknown feature or an
//     unconfigured manager degrades to disabled / no variation / no label
//   - Evaluate is the strict variant and reports ErrNotConfigured and
//     ErrUnknownFeature
//
// Testing:
// Consumers can define minimal interfaces for mocking:
//
//	type FeatureGate interface {
//	    IsEnabled(feature, subject string) bool
//	}
type Manager struct {
	cfg Config

	// Optional dependencies
	hooks    Hooks
	metrics  MetricsCollector
	logger   Logger
	provider ConfigProvider
	subjects SubjectProvider

	// Internal components
	registry   *registry.Registry
	controller *controller.Controller
}

// NewManager creates a new Manager instance with the provided configuration.
//
// The manager starts Uninitialized: lookups return conservative defaults
// until Load, ApplyUpdate or Refresh succeeds.
//
// Parameters:
//   - cfg: Configuration (nil means DefaultConfig); defaults are applied in place
//   - opts: Optional configuration (strategy, provider, subject provider, hooks, metrics, logger)
//
// Returns:
//   - *Manager: Initialized manager instance
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	cfg := rollout.DefaultConfig()
//	mgr, err := rollout.NewManager(&cfg, rollout.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if _, err := mgr.Load(raw); err != nil {
//	    return err
//	}
//	if mgr.IsEnabled("new-checkout", userID) {
//	    // ...
//	}
func NewManager(cfg *Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		defaults := DefaultConfig()
		cfg = &defaults
	}

	// Fill in missing configuration values with defaults
	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &managerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	assignStrategy := options.strategy
	if assignStrategy == nil {
		assignStrategy = strategy.NewWeighted(
			strategy.WithHashSeed(cfg.HashSeed),
			strategy.WithLogger(loggerInstance),
		)
	}

	reg := registry.New(
		registry.WithStrategy(assignStrategy),
		registry.WithMaxCachedAssignments(cfg.memoLimit()),
		registry.WithMetrics(metricsCollector),
		registry.WithLogger(loggerInstance),
	)

	m := &Manager{
		cfg:      *cfg,
		hooks:    hooks.Fill(options.hooks),
		metrics:  metricsCollector,
		logger:   loggerInstance,
		provider: options.provider,
		subjects: options.subjects,
		registry: reg,
		controller: controller.New(reg,
			controller.WithLogger(loggerInstance),
			controller.WithMetrics(metricsCollector),
		),
	}

	for _, obs := range options.observers {
		m.controller.Subscribe(obs)
	}

	return m, nil
}

// NewPrometheusMetrics creates a Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Registerer for the collectors (nil means prometheus.DefaultRegisterer)
//   - namespace: Metric namespace (empty means "rollout")
//
// Returns:
//   - MetricsCollector: Collector to pass to WithMetrics
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Parse validates raw with the manager's logger and metrics without applying it.
func (m *Manager) Parse(raw []byte) (*Document, error) {
	return document.Parse(raw,
		document.WithLogger(m.logger),
		document.WithMetrics(m.metrics),
	)
}

// Load parses raw and installs it as the first configuration (version 1).
//
// Parameters:
//   - raw: Configuration document bytes (YAML or JSON)
//
// Returns:
//   - *Document: The parsed document, including non-fatal warnings
//   - error: ErrValidation if raw is malformed, ErrAlreadyLoaded if a document is active
func (m *Manager) Load(raw []byte) (*Document, error) {
	doc, err := m.parse(context.Background(), raw)
	if err != nil {
		return nil, err
	}

	if _, err := m.controller.Load(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// LoadDocument installs doc as the first configuration.
//
// The features of doc are validated again and their derived fields (kind,
// effective weights) recomputed, so hand-built documents follow the same
// rules as parsed ones. doc itself is not modified.
//
// Returns:
//   - error: ErrValidation if doc is malformed, ErrAlreadyLoaded if a document is active
func (m *Manager) LoadDocument(doc *Document) error {
	checked, err := m.revalidate(context.Background(), doc)
	if err != nil {
		return err
	}

	_, err = m.controller.Load(checked)

	return err
}

// ApplyUpdate parses raw and atomically replaces the active configuration.
//
// A malformed document is rejected as a whole and the previous configuration
// stays in effect. On a manager with no configuration yet, ApplyUpdate acts
// as Load.
//
// Parameters:
//   - raw: Configuration document bytes (YAML or JSON)
//
// Returns:
//   - UpdateResult: Old and new versions, per-feature changes and warnings
//   - error: ErrValidation if raw is malformed
//
// Example:
//
//	result, err := mgr.ApplyUpdate(raw)
//	if err != nil {
//	    log.Printf("update rejected, still on version %d: %v", mgr.Version(), err)
//	    return
//	}
//	for _, name := range result.Filter(rollout.ChangeBiases) {
//	    log.Printf("%s: weights changed, subjects may move", name)
//	}
func (m *Manager) ApplyUpdate(raw []byte) (UpdateResult, error) {
	return m.applyRaw(context.Background(), raw)
}

// ApplyDocument atomically replaces the active configuration with doc.
//
// doc is validated the same way as in LoadDocument; a malformed document is
// rejected and the previous configuration stays in effect.
func (m *Manager) ApplyDocument(doc *Document) (UpdateResult, error) {
	checked, err := m.revalidate(context.Background(), doc)
	if err != nil {
		return UpdateResult{}, err
	}

	return m.controller.ApplyUpdate(checked)
}

// revalidate rebuilds doc from its features with the document rules.
func (m *Manager) revalidate(ctx context.Context, doc *Document) (*Document, error) {
	if doc == nil {
		return nil, m.rejected(ctx, time.Now(), fmt.Errorf("%w: nil document", ErrValidation))
	}

	start := time.Now()
	checked, err := document.FromFeatures(doc.Features,
		document.WithLogger(m.logger),
		document.WithMetrics(m.metrics),
	)
	if err != nil {
		return nil, m.rejected(ctx, start, err)
	}

	return checked, nil
}

func (m *Manager) applyRaw(ctx context.Context, raw []byte) (UpdateResult, error) {
	doc, err := m.parse(ctx, raw)
	if err != nil {
		return UpdateResult{}, err
	}

	return m.controller.ApplyUpdate(doc)
}

func (m *Manager) parse(ctx context.Context, raw []byte) (*Document, error) {
	start := time.Now()

	doc, err := m.Parse(raw)
	if err != nil {
		return nil, m.rejected(ctx, start, err)
	}

	return doc, nil
}

// rejected records a failed update, runs the OnRejected hook and returns err.
func (m *Manager) rejected(ctx context.Context, start time.Time, err error) error {
	m.metrics.RecordUpdate(false, 0, time.Since(start).Seconds())
	if hookErr := m.hooks.OnRejected(ctx, err); hookErr != nil {
		m.logger.Warn("rejection hook failed", "error", hookErr)
	}

	return err
}

// IsEnabled reports whether feature is on for subject.
//
// Returns false when no configuration is loaded, when the feature is unknown
// or disabled, and, for binary feature tests, when the subject lands in the
// "disabled" bucket.
func (m *Manager) IsEnabled(feature, subject string) bool {
	s := m.registry.Load()
	if s == nil {
		return false
	}

	return s.IsEnabled(feature, subject)
}

// VariationName returns the name of the variation subject lands in.
//
// Returns:
//   - string: Variation name
//   - bool: false when unconfigured, unknown, disabled, or a plain flag
func (m *Manager) VariationName(feature, subject string) (string, bool) {
	s := m.registry.Load()
	if s == nil {
		return "", false
	}

	ref, ok := s.Variation(feature, subject)
	if !ok {
		return "", false
	}

	return ref.Name, true
}

// Label returns the label of the variation subject lands in.
//
// Returns:
//   - string: Label text
//   - bool: false when there is no variation or the feature carries no labels
func (m *Manager) Label(feature, subject string) (string, bool) {
	s := m.registry.Load()
	if s == nil {
		return "", false
	}

	ref, ok := s.Variation(feature, subject)
	if !ok {
		return "", false
	}

	return s.Label(feature, ref.Index)
}

// Assignment returns the raw variation index of subject within feature.
func (m *Manager) Assignment(feature, subject string) Assignment {
	s := m.registry.Load()
	if s == nil {
		return Assignment{SubjectID: subject, Feature: feature, VariationIndex: NoVariation}
	}

	return s.Assignment(feature, subject)
}

// Evaluate returns the full decision for subject within feature.
//
// Returns:
//   - Decision: Enabled state, variation and label, with the version evaluated against
//   - error: ErrNotConfigured before the first load, ErrUnknownFeature for absent features
func (m *Manager) Evaluate(feature, subject string) (Decision, error) {
	s := m.registry.Load()
	if s == nil {
		return Decision{}, ErrNotConfigured
	}

	return s.Evaluate(feature, subject)
}

// Version returns the active configuration version (0 when unconfigured).
func (m *Manager) Version() uint64 {
	s := m.registry.Load()
	if s == nil {
		return 0
	}

	return s.Version()
}

// State returns the configuration lifecycle state.
func (m *Manager) State() State {
	return m.registry.State()
}

// Features returns copies of the active features in configuration order.
func (m *Manager) Features() []Feature {
	s := m.registry.Load()
	if s == nil {
		return nil
	}

	return s.Features()
}

// Subscribe registers an observer notified after every successful update.
//
// Returns:
//   - func(): Unsubscribe function
func (m *Manager) Subscribe(observer Observer) func() {
	return m.controller.Subscribe(observer)
}

// Subject returns the current subject identifier from the subject provider.
//
// Returns:
//   - string: Non-empty subject identifier
//   - error: ErrNoSubjectProvider, ErrEmptySubject, or the provider's error
func (m *Manager) Subject() (string, error) {
	if m.subjects == nil {
		return "", ErrNoSubjectProvider
	}

	id, err := m.subjects.CurrentSubjectID()
	if err != nil {
		return "", fmt.Errorf("current subject: %w", err)
	}
	if id == "" {
		return "", ErrEmptySubject
	}

	return id, nil
}

// IsEnabledForCurrent is IsEnabled for the current subject.
//
// Returns false if the subject cannot be determined.
func (m *Manager) IsEnabledForCurrent(feature string) bool {
	subject, ok := m.currentSubject(feature)
	if !ok {
		return false
	}

	return m.IsEnabled(feature, subject)
}

// VariationNameForCurrent is VariationName for the current subject.
func (m *Manager) VariationNameForCurrent(feature string) (string, bool) {
	subject, ok := m.currentSubject(feature)
	if !ok {
		return "", false
	}

	return m.VariationName(feature, subject)
}

// LabelForCurrent is Label for the current subject.
func (m *Manager) LabelForCurrent(feature string) (string, bool) {
	subject, ok := m.currentSubject(feature)
	if !ok {
		return "", false
	}

	return m.Label(feature, subject)
}

func (m *Manager) currentSubject(feature string) (string, bool) {
	subject, err := m.Subject()
	if err != nil {
		m.logger.Debug("current subject unavailable", "feature", feature, "error", err)
		return "", false
	}

	return subject, true
}

// Refresh pulls the latest document from the configuration provider and applies it.
//
// The call is bounded by Config.RefreshTimeout.
//
// Parameters:
//   - ctx: Context for cancellation and deadline
//
// Returns:
//   - UpdateResult: Result of the applied update
//   - error: ErrNoProvider, a provider error, ErrEmptyPayload, or ErrValidation
func (m *Manager) Refresh(ctx context.Context) (UpdateResult, error) {
	if m.provider == nil {
		return UpdateResult{}, ErrNoProvider
	}

	fetchCtx, cancel := context.WithTimeout(ctx, m.cfg.RefreshTimeout)
	defer cancel()

	raw, err := m.provider.FetchLatest(fetchCtx)
	if err != nil {
		err = fmt.Errorf("fetch configuration: %w", err)
		m.reportProviderError(ctx, err)

		return UpdateResult{}, err
	}

	if len(raw) == 0 {
		m.reportProviderError(ctx, ErrEmptyPayload)
		return UpdateResult{}, ErrEmptyPayload
	}

	return m.applyRaw(ctx, raw)
}

// Watch applies every payload the provider delivers until ctx is done.
//
// The provider must implement WatchableProvider. Once the watch is
// established the current document is fetched and applied, then every
// streamed payload follows. Invalid payloads are logged,
// counted and reported to the OnRejected hook; the previous configuration
// stays active and the loop continues. Watch runs on the caller's goroutine.
//
// Parameters:
//   - ctx: Context controlling the lifetime of the watch
//
// Returns:
//   - error: nil when ctx is done, ErrNoProvider / ErrWatchUnsupported up front,
//     or an error if the provider ends the watch on its own
//
// Example:
//
//	go func() {
//	    if err := mgr.Watch(ctx); err != nil {
//	        log.Printf("config watch stopped: %v", err)
//	    }
//	}()
func (m *Manager) Watch(ctx context.Context) error {
	if m.provider == nil {
		return ErrNoProvider
	}

	watchable, ok := m.provider.(WatchableProvider)
	if !ok {
		return ErrWatchUnsupported
	}

	updates, err := watchable.Watch(ctx)
	if err != nil {
		err = fmt.Errorf("start configuration watch: %w", err)
		m.reportProviderError(ctx, err)

		return err
	}

	m.logger.Info("configuration watch started")
	defer m.logger.Info("configuration watch stopped")

	// Providers only stream changes. Fetching after the watch is established
	// leaves no window in which an update could be missed.
	if _, err := m.Refresh(ctx); err != nil {
		m.logger.Warn("initial configuration fetch failed", "error", err, "version", m.Version())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				m.reportProviderError(ctx, errWatchClosed)

				return errWatchClosed
			}

			if len(raw) == 0 {
				m.logger.Warn("empty configuration payload skipped")
				continue
			}

			result, err := m.applyRaw(ctx, raw)
			if err != nil {
				m.logger.Warn("configuration update skipped", "error", err, "version", m.Version())
				continue
			}

			m.logger.Debug("configuration update applied from watch",
				"version", result.Version,
				"changes", len(result.Changes),
			)
		}
	}
}

func (m *Manager) reportProviderError(ctx context.Context, err error) {
	m.logger.Error("configuration provider failed", "error", err)
	if hookErr := m.hooks.OnError(ctx, err); hookErr != nil {
		m.logger.Warn("error hook failed", "error", hookErr)
	}
}
