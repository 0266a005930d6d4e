package unit

import (
	"context"

	"github.com/ethereum/go-ethereum/log"

	"github.com/unitlab/unit/runner"
	"github.com/unitlab/unit/types"
)

// SessionExecutor is responsible for running sessions.
type SessionExecutor interface {
	RunSession(ctx context.Context) (*types.SessionResult, error)
}

// DefaultSessionExecutor implements the SessionExecutor interface.
type DefaultSessionExecutor struct {
	runner runner.SessionRunner
	logger log.Logger
}

// NewDefaultSessionExecutor creates a new DefaultSessionExecutor.
func NewDefaultSessionExecutor(runner runner.SessionRunner, logger log.Logger) *DefaultSessionExecutor {
	return &DefaultSessionExecutor{
		runner: runner,
		logger: logger,
	}
}

// RunSession runs every registered unit and returns the session result.
func (e *DefaultSessionExecutor) RunSession(ctx context.Context) (*types.SessionResult, error) {
	e.logger.Info("Running all registered units...")
	result, err := e.runner.Run(ctx)
	if err != nil {
		e.logger.Error("Error running session", "error", err)
		return nil, err
	}
	e.logger.Info("Session run completed", "run_id", result.RunID, "status", result.Status)
	return result, nil
}
