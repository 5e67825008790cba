package session

import "github.com/aretw0/annotate/pkg/domain"

// SnapshotFromBundle builds the snapshot a new session for the task bundle starts from.
// interfaces replace the bundle's own when given.
func SnapshotFromBundle(sessionID string, b *domain.TaskBundle, interfaces ...string) (*domain.Snapshot, error) {
	if len(interfaces) == 0 {
		interfaces = b.Interfaces
	}
	s := NewState(WithID(sessionID), WithInterfaces(interfaces...))
	if err := s.AssignConfig(b.Config); err != nil {
		return nil, err
	}
	if err := s.AssignTask(b.Task); err != nil {
		return nil, err
	}
	s.SetProject(b.Project)
	s.SetDescription(b.Description)
	if err := s.InitializeStore(b.Store); err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	return &snap, nil
}
