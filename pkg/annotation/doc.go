/*
Package annotation is a small reference implementation of the annotation model consumed by the
session controller.

It implements ports.AnnotationCollection and ports.Annotation with ordered regions, a highlighted
region looked up by id, relation mode, autosave drafts, and a snapshot based undo/redo history.
Hosts with a richer model only need to satisfy the same ports.
*/
package annotation
