/*
Package domain contains the core models shared by every part of the annotation session controller.

It defines the session flags, task and project records, capability names, persisted completion
and prediction payloads, session snapshots, and the lifecycle hooks used for observability.
This package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Flags / FlagPatch: The fixed set of UI flags and the structured partial update over them.
  - Task / TaskInput: The labeling task; task data is always stored in its string form.
  - StoreInput: Persisted completions and predictions used to populate an annotation collection.
  - Snapshot: A serializable picture of a session, used by stores and inspection tools.
*/
package domain
