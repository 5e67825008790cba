package domain

import (
	"encoding/json"
	"fmt"
)

// Task is a labeling task as stored by a session. Data is always the string form of the payload.
type Task struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	ProjectID string `json:"project_id,omitempty"`
}

// TaskInput is a task as supplied by a host. Data may be a string or any JSON-serializable value.
type TaskInput struct {
	ID        string `json:"id" yaml:"id" mapstructure:"id"`
	Data      any    `json:"data" yaml:"data" mapstructure:"data"`
	ProjectID string `json:"project_id,omitempty" yaml:"project_id,omitempty" mapstructure:"project_id"`
}

// Project describes the project a task belongs to.
type Project struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// NormalizeTaskData returns data unchanged when it is already a string, otherwise its JSON form.
func NormalizeTaskData(data any) (string, error) {
	if s, ok := data.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize task data: %w", err)
	}
	return string(b), nil
}

// NewTask builds a Task from host input, normalizing its data.
func NewTask(in TaskInput) (*Task, error) {
	data, err := NormalizeTaskData(in.Data)
	if err != nil {
		return nil, err
	}
	return &Task{ID: in.ID, Data: data, ProjectID: in.ProjectID}, nil
}

// TaskBundle is everything a task source knows about one task: the task itself, the labeling
// config, its project, and whatever was already persisted for it.
type TaskBundle struct {
	Task        TaskInput  `json:"task"`
	Config      string     `json:"config"`
	Project     *Project   `json:"project,omitempty"`
	Description string     `json:"description,omitempty"`
	Interfaces  []string   `json:"interfaces,omitempty"`
	Store       StoreInput `json:"store"`
}
