package opts

import (
	"github.com/walteh/repotree/pkg/config"
	"github.com/walteh/repotree/pkg/render"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config   *config.Config
	Feedback *render.Feedback
}
