// Package rollout provides deterministic subject bucketing for feature flags,
// A/B tests and multivariate tests, driven by a remotely updatable
// configuration document.
//
// A subject (a user, a device, an installation) is identified by a stable
// string. For every feature the subject is hashed to a position in [0, 100)
// and that position falls into one of the feature's weighted variation
// buckets. The same subject, feature and weights always produce the same
// variation, on any host, without storing assignments anywhere.
//
// # Quick Start
//
//	import "github.com/arloliu/rollout"
//
//	cfg := rollout.DefaultConfig()
//	mgr, err := rollout.NewManager(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := mgr.Load(raw); err != nil {
//	    log.Fatal(err)
//	}
//
//	if mgr.IsEnabled("new-checkout", userID) {
//	    // ...
//	}
//	variation, _ := mgr.VariationName("checkout-copy", userID)
//	label, _ := mgr.Label("checkout-copy", userID)
//
// # Configuration Document
//
// Documents are YAML or JSON:
//
//	features:
//	  - name: new-checkout
//	    enabled: true
//	  - name: checkout-copy
//	    enabled: true
//	    test-variations: [control, urgent]
//	    test-biases: [80, 20]
//	    labels: ["Buy now", "Only 3 left!"]
//
// A feature without variations is a plain flag. Two variations named
// "enabled" and "disabled" form a feature test: IsEnabled is true only for
// subjects in the "enabled" bucket. Biases must sum to exactly 100; otherwise
// the feature falls back to uniform weights and the document carries a
// warning. Structural problems (missing names, duplicates, label count
// mismatches) reject the whole document.
//
// # Updates
//
// Every successful update produces a new immutable snapshot with the next
// version number. Lookups read the current snapshot without locking and never
// observe a half-applied update. A rejected document leaves the previous
// snapshot in place.
//
// Documents can be pushed by the host (ApplyUpdate) or pulled from a
// ConfigProvider (Refresh, Watch). The source package provides in-memory,
// file and NATS JetStream key-value providers:
//
//	src := source.NewFile("/etc/myapp/features.yaml")
//	mgr, err := rollout.NewManager(&cfg,
//	    rollout.WithConfigProvider(src),
//	    rollout.WithObserver(rollout.ObserverFunc(func(r rollout.UpdateResult) {
//	        log.Printf("features now at version %d", r.Version)
//	    })),
//	)
//	go mgr.Watch(ctx)
//
// # Current Subject
//
// With a SubjectProvider the *ForCurrent helpers resolve the subject
// themselves. The identity package persists a generated identifier:
//
//	subjects, err := identity.OpenFile(filepath.Join(stateDir, "subject-id"))
//	mgr, err := rollout.NewManager(&cfg, rollout.WithSubjectProvider(subjects))
//	if mgr.IsEnabledForCurrent("new-checkout") {
//	    // ...
//	}
//
// See the examples/ directory for complete working examples.
package rollout
