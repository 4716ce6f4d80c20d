package types

// FeatureAttribution is one feature's normalized attribution. Value and
// Contribution are in percentage points; Importance is |Contribution|.
// Index is the feature's schema position.
type FeatureAttribution struct {
	Index        int     `json:"-"`
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Importance   float64 `json:"importance"`
}

// Explanation is the single-strategy response record.
type Explanation struct {
	Strategy          string               `json:"strategy"`
	Prediction        float64              `json:"prediction"`
	BaseValue         *float64             `json:"baseValue,omitempty"`
	AttributionValues []float64            `json:"attributionValues"`
	Contributions     []float64            `json:"contributions"`
	Features          []FeatureAttribution `json:"features"`
	Explanation       string               `json:"explanation"`
}

// CombinedExplanation pairs the global and local explanations of one instance.
type CombinedExplanation struct {
	SHAP      Explanation `json:"shap"`
	LIME      Explanation `json:"lime"`
	Agreement float64     `json:"agreement"`
	Message   string      `json:"message"`
}

// Importance is the compact per-feature summary.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Impact     string  `json:"impact"`
}

// RetrainResult reports the outcome of a retrain.
type RetrainResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ModelVersion string `json:"modelVersion,omitempty"`
}

// Health describes service readiness.
type Health struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version,omitempty"`
}
