/*
Package ports defines the driven ports (interfaces) of the annotation session controller.

These interfaces decouple the controller from the host: the environment bridge that persists
results, the annotation model it manipulates, the collaborators that present notifications and
bind keys, and the storage backends that keep session snapshots.

# Key Interfaces

  - EnvironmentBridge: Host callbacks for load, submit, update, skip and draft submission.
  - AnnotationCollection / Annotation: The minimal annotation model the controller consumes.
  - Notifier / HotkeyBinder: Presentation collaborators.
  - SnapshotStore / DistributedLocker: Persistence of session snapshots across replicas.
*/
package ports
