// Package dependencies provides the dependencies of the relay worker.
package dependencies

import (
	"github.com/benbjohnson/clock"

	"github.com/keboola/kv-relay/internal/pkg/env"
	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/service/common/servicectx"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/config"
)

// ForService interface is implemented by the container below,
// consumers define their own subset of the interface.
type ForService interface {
	Logger() log.Logger
	Clock() clock.Clock
	Envs() env.Provider
	Process() *servicectx.Process
	Config() config.Config
}

type forService struct {
	logger log.Logger
	clock  clock.Clock
	envs   env.Provider
	proc   *servicectx.Process
	cfg    config.Config
}

func NewServiceDeps(proc *servicectx.Process, cfg config.Config, envs env.Provider, logger log.Logger) ForService {
	return &forService{
		logger: logger,
		clock:  clock.New(),
		envs:   envs,
		proc:   proc,
		cfg:    cfg,
	}
}

func (v *forService) Logger() log.Logger {
	return v.logger
}

func (v *forService) Clock() clock.Clock {
	return v.clock
}

func (v *forService) Envs() env.Provider {
	return v.envs
}

func (v *forService) Process() *servicectx.Process {
	return v.proc
}

func (v *forService) Config() config.Config {
	return v.cfg
}
