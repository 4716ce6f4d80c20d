package probe

import "time"

// Defaults applied by Normalize.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultRequests = 200
	DefaultTimeout  = 30 * time.Second
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Calls cycled through by the workers, one per instance.
const (
	CallPredict  = "predict"
	CallShap     = "shap"
	CallLime     = "lime"
	CallRules    = "rules"
	CallCombined = "combined"
)

// Calls is the round-robin order.
var Calls = []string{CallPredict, CallShap, CallLime, CallRules, CallCombined}

// Tolerances for float comparisons on decoded JSON.
const (
	sumTolerance      = 1e-6
	rulesBasePercent  = 50.0
	maxViolationsKept = 20
)
