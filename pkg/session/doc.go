/*
Package session holds the per-task session state and its persistence orchestration.

State carries the labeling config, the task and project, the enabled capabilities ("interfaces"),
the fixed set of UI flags, and the current annotation collection. Manager serializes snapshot
writes per session, optionally across replicas through a distributed locker.
*/
package session
