package loam

// TaskMetadata is the frontmatter of a task document.
// Completions and predictions stay loosely typed until LoadTask decodes them.
type TaskMetadata struct {
	ID          string           `json:"id" mapstructure:"id"`
	Data        any              `json:"data" mapstructure:"data"`
	Config      string           `json:"config" mapstructure:"config"`
	Project     map[string]any   `json:"project,omitempty" mapstructure:"project"`
	Interfaces  []string         `json:"interfaces,omitempty" mapstructure:"interfaces"`
	Completions []map[string]any `json:"completions,omitempty" mapstructure:"completions"`
	Predictions []map[string]any `json:"predictions,omitempty" mapstructure:"predictions"`
}
