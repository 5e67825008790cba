package annotation

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/google/uuid"
)

// Validator decides whether an annotation may be sent to the host.
type Validator func(a *Annotation) bool

// NonEmpty accepts annotations with at least one region.
func NonEmpty(a *Annotation) bool {
	return a.Len() > 0
}

// Collection implements ports.AnnotationCollection in memory.
// Safe for concurrent use.
type Collection struct {
	mu          sync.RWMutex
	config      string
	annotations []*Annotation
	predictions []*Annotation
	selected    *Annotation
	validator   Validator
}

// Option configures a Collection.
type Option func(*Collection)

// WithValidator replaces the default NonEmpty validator.
func WithValidator(v Validator) Option {
	return func(c *Collection) {
		c.validator = v
	}
}

// NewCollection creates an empty collection with no selection.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{validator: NonEmpty}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory returns a ports.CollectionFactory producing collections with the given options.
func Factory(opts ...Option) ports.CollectionFactory {
	return func() ports.AnnotationCollection {
		return NewCollection(opts...)
	}
}

// InitRoot binds the collection to a labeling config. The config must be well-formed XML or empty.
func (c *Collection) InitRoot(config string) error {
	if err := checkConfig(config); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = config
	return nil
}

// Root returns the config the collection was initialized with.
func (c *Collection) Root() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Selected returns the selected annotation or nil.
func (c *Collection) Selected() ports.Annotation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return nil
	}
	return c.selected
}

// Current is Selected with the concrete type.
func (c *Collection) Current() *Annotation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Select makes the annotation or prediction with the given id the selection.
func (c *Collection) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, list := range [][]*Annotation{c.annotations, c.predictions} {
		for _, a := range list {
			if a.id == id {
				c.selected = a
				return nil
			}
		}
	}
	return fmt.Errorf("annotation %q not found", id)
}

// AddCompletion adds a persisted annotation, loading its draft when present and its result otherwise.
func (c *Collection) AddCompletion(in domain.CompletionInput) (ports.Annotation, error) {
	regions := in.Result
	if len(in.Draft) > 0 {
		regions = in.Draft
	}
	a, err := c.add(in.ID, false, regions)
	if err != nil {
		return nil, err
	}
	if len(in.Draft) > 0 {
		a.setDraft(in.Draft)
	}
	return a, nil
}

// RestoreRecord adds an annotation exactly as a snapshot recorded it: the result becomes the
// regions and the draft, if any, is kept aside.
func (c *Collection) RestoreRecord(rec domain.AnnotationRecord) (ports.Annotation, error) {
	a, err := c.add(rec.ID, rec.Prediction, rec.Result)
	if err != nil {
		return nil, err
	}
	if len(rec.Draft) > 0 {
		a.setDraft(rec.Draft)
	}
	if rec.UserGenerated {
		a.SendUserGenerate()
	}
	return a, nil
}

// AddPrediction adds a read-only candidate computed ahead of time.
func (c *Collection) AddPrediction(in domain.PredictionInput) (ports.Annotation, error) {
	a, err := c.add(in.ID, true, in.Result)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create adds an empty annotation on behalf of the user and selects it.
func (c *Collection) Create() *Annotation {
	a, _ := c.add("", false, nil)
	c.mu.Lock()
	c.selected = a
	c.mu.Unlock()
	return a
}

func (c *Collection) add(id string, prediction bool, regions []domain.Region) (*Annotation, error) {
	if id == "" {
		id = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, list := range [][]*Annotation{c.annotations, c.predictions} {
		for _, existing := range list {
			if existing.id == id {
				return nil, fmt.Errorf("annotation %q already exists", id)
			}
		}
	}

	a := newAnnotation(id, prediction, c.validator)
	a.load(regions)
	if prediction {
		c.predictions = append(c.predictions, a)
	} else {
		c.annotations = append(c.annotations, a)
	}
	return a, nil
}

// Annotations returns the completed or in-progress annotations, in insertion order.
func (c *Collection) Annotations() []*Annotation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Annotation(nil), c.annotations...)
}

// Predictions returns the predictions, in insertion order.
func (c *Collection) Predictions() []*Annotation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Annotation(nil), c.predictions...)
}

// Records serializes predictions first, then annotations.
func (c *Collection) Records() []domain.AnnotationRecord {
	c.mu.RLock()
	all := append(append([]*Annotation(nil), c.predictions...), c.annotations...)
	c.mu.RUnlock()

	records := make([]domain.AnnotationRecord, 0, len(all))
	for _, a := range all {
		records = append(records, a.Record())
	}
	return records
}

func checkConfig(config string) error {
	if strings.TrimSpace(config) == "" {
		return nil
	}
	dec := xml.NewDecoder(strings.NewReader(config))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid labeling config: %w", err)
		}
	}
}
