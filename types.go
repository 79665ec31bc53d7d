package rollout

import "github.com/arloliu/rollout/types"

// Re-export types from the types package.
//
// Internal packages depend on types rather than on the root package, which
// avoids import cycles while still offering rollout.Feature, rollout.Logger
// and friends to callers.
type (
	State         = types.State
	Kind          = types.Kind
	Feature       = types.Feature
	Document      = types.Document
	Assignment    = types.Assignment
	VariationRef  = types.VariationRef
	Decision      = types.Decision
	Warning       = types.Warning
	WarningCode   = types.WarningCode
	ChangeKind    = types.ChangeKind
	FeatureChange = types.FeatureChange
	UpdateResult  = types.UpdateResult
	ObserverFunc  = types.ObserverFunc
	Hooks         = types.Hooks
)

// Re-export interfaces from the types package for convenience.
type (
	AssignmentStrategy = types.AssignmentStrategy
	ConfigProvider     = types.ConfigProvider
	WatchableProvider  = types.WatchableProvider
	SubjectProvider    = types.SubjectProvider
	Observer           = types.Observer
	MetricsCollector   = types.MetricsCollector
	Logger             = types.Logger
)

// Re-export State constants.
const (
	StateUninitialized = types.StateUninitialized
	StateActive        = types.StateActive
)

// Re-export Kind constants.
const (
	KindFlag        = types.KindFlag
	KindFeatureTest = types.KindFeatureTest
	KindABTest      = types.KindABTest
	KindMVT         = types.KindMVT
)

// Re-export ChangeKind constants.
const (
	ChangeAdded      = types.ChangeAdded
	ChangeRemoved    = types.ChangeRemoved
	ChangeEnabled    = types.ChangeEnabled
	ChangeBiases     = types.ChangeBiases
	ChangeVariations = types.ChangeVariations
	ChangeLabels     = types.ChangeLabels
)

// NoVariation is the variation index of a subject that received no assignment.
const NoVariation = types.NoVariation
