package domain

// Region is the persisted form of one labeled region.
// Value is opaque to the controller; only the reference model looks inside.
type Region struct {
	ID     string         `json:"id" yaml:"id" mapstructure:"id"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Value  map[string]any `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Hidden bool           `json:"hidden,omitempty" yaml:"hidden,omitempty" mapstructure:"hidden"`
}

// CompletionInput is a persisted annotation as handed over by the host.
type CompletionInput struct {
	ID     string   `json:"id" yaml:"id" mapstructure:"id"`
	Result []Region `json:"result" yaml:"result" mapstructure:"result"`
	Draft  []Region `json:"draft,omitempty" yaml:"draft,omitempty" mapstructure:"draft"`
}

// PredictionInput is a pre-computed annotation candidate.
type PredictionInput struct {
	ID     string   `json:"id" yaml:"id" mapstructure:"id"`
	Model  string   `json:"model_version,omitempty" yaml:"model_version,omitempty" mapstructure:"model_version"`
	Result []Region `json:"result" yaml:"result" mapstructure:"result"`
}

// StoreInput groups what is needed to populate an annotation collection.
type StoreInput struct {
	Completions []CompletionInput `json:"completions" yaml:"completions" mapstructure:"completions"`
	Predictions []PredictionInput `json:"predictions" yaml:"predictions" mapstructure:"predictions"`
}

// AnnotationRecord is the serializable form of an annotation inside a Snapshot.
type AnnotationRecord struct {
	ID            string   `json:"id"`
	Prediction    bool     `json:"prediction,omitempty"`
	Result        []Region `json:"result"`
	Draft         []Region `json:"draft,omitempty"`
	UserGenerated bool     `json:"user_generated,omitempty"`
}
