// Package document parses and validates feature configuration documents.
//
// A document is a record with a "features" list. Each feature has a name,
// an enabled switch and optionally ordered test variations with parallel
// biases and labels:
//
//	features:
//	  - name: new-checkout
//	    enabled: true
//	    test-variations: [Enabled, Disabled]
//	    test-biases: [20, 80]
//	  - name: hero-color
//	    enabled: true
//	    test-variations: [red, green, blue]
//	    labels: [Red hero, Green hero, Blue hero]
//
// JSON input is accepted as well, since the YAML decoder reads JSON.
//
// # Validation
//
// Structural problems reject the whole document with a *ValidationError:
// empty or duplicated feature names, empty or duplicated variation names,
// and labels whose length differs from the variations. Nothing from a
// rejected document is ever applied.
//
// Bias problems never reject a document. A feature whose biases have the
// wrong length, contain a negative or non-integer value, or do not sum to
// exactly 100 falls back to a uniform split and the parser records a
// types.Warning, logs it and counts it. Biases on a feature without
// variations are ignored with a warning.
package document
