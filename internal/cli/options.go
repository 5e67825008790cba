package cli

import (
	"fmt"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/internal/config"
	"github.com/aretw0/annotate/pkg/router"
)

// SessionOptions maps configuration onto session options.
// Configured interfaces apply only when the task does not name its own.
func SessionOptions(cfg config.Config, taskInterfaces []string) ([]annotate.Option, error) {
	policy, err := cfg.LatePolicy()
	if err != nil {
		return nil, err
	}

	opts := []annotate.Option{
		annotate.WithGuardTimings(cfg.Guard.MinHold, cfg.Guard.MaxHold),
		annotate.WithLatePolicy(policy),
	}
	if cfg.Guard.UnguardedUpdate {
		opts = append(opts, annotate.WithUnguardedUpdate())
	}
	if len(taskInterfaces) == 0 {
		opts = append(opts, annotate.WithInterfaces(cfg.Session.Interfaces...))
	}
	if cfg.Session.Keymap != "" {
		keymap, err := router.LoadKeymap(cfg.Session.Keymap)
		if err != nil {
			return nil, fmt.Errorf("failed to load keymap: %w", err)
		}
		opts = append(opts, annotate.WithKeymap(keymap))
	}
	return opts, nil
}
