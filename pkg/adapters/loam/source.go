// Package loam loads task bundles from a directory of Markdown, YAML or JSON documents.
//
// A task document carries the task in its frontmatter and the task description in its body:
//
//	---
//	data: {text: "Barack Obama was born in Hawaii."}
//	config: <View><Text name="text" value="$text"/></View>
//	interfaces: [submit, skip]
//	completions:
//	  - id: c1
//	    result: [{id: r1, label: PER}]
//	---
//	Tag every person in the sentence.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Source adapts a Loam repository to ports.TaskSource.
type Source struct {
	Repo *loam.TypedRepository[TaskMetadata]
}

// New creates a new Loam task source.
func New(repo *loam.TypedRepository[TaskMetadata]) *Source {
	return &Source{Repo: repo}
}

// Open initializes a read-only Loam repository rooted at dir.
func Open(dir string) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numbers as json.Number across Markdown, YAML and JSON documents.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TaskMetadata](repo)), nil
}

// LoadTask reads the task document with the given id.
// The id may be given with or without its file extension.
func (s *Source) LoadTask(ctx context.Context, id string) (*domain.TaskBundle, error) {
	id = trimExtension(id)

	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		if ids, lerr := s.ListTasks(ctx); lerr == nil && !slices.Contains(ids, id) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	meta := doc.Data
	taskID := meta.ID
	if taskID == "" {
		taskID = doc.ID
	}

	bundle := &domain.TaskBundle{
		Task:        domain.TaskInput{ID: trimExtension(taskID), Data: meta.Data},
		Config:      meta.Config,
		Description: strings.TrimSpace(doc.Content),
		Interfaces:  meta.Interfaces,
	}

	if meta.Project != nil {
		var project domain.Project
		if err := decode(meta.Project, &project); err != nil {
			return nil, fmt.Errorf("task %s: project: %w", id, err)
		}
		bundle.Project = &project
		bundle.Task.ProjectID = project.ID
	}

	for i, raw := range meta.Completions {
		var c domain.CompletionInput
		if err := decode(raw, &c); err != nil {
			return nil, fmt.Errorf("task %s: completions[%d]: %w", id, i, err)
		}
		bundle.Store.Completions = append(bundle.Store.Completions, c)
	}
	for i, raw := range meta.Predictions {
		var p domain.PredictionInput
		if err := decode(raw, &p); err != nil {
			return nil, fmt.Errorf("task %s: predictions[%d]: %w", id, i, err)
		}
		bundle.Store.Predictions = append(bundle.Store.Predictions, p)
	}

	return bundle, nil
}

// ListTasks lists every task document, by normalized id.
func (s *Source) ListTasks(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: task '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// decode maps a loosely-typed frontmatter value onto out.
// Strings such as "true" or "1" are accepted where booleans or numbers are expected.
func decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func trimExtension(id string) string {
	if ext := filepath.Ext(id); ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
