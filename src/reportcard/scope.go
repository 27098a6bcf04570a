package reportcard

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	agent "github.com/Protocol-Lattice/report-card-validator"
	"github.com/Protocol-Lattice/report-card-validator/src/artifacts"
	"github.com/Protocol-Lattice/report-card-validator/src/runner"
	"github.com/Protocol-Lattice/report-card-validator/src/session"
)

// callScope owns everything one Validate call creates.
type callScope struct {
	agent     *agent.Agent
	sessions  *session.InMemoryService
	artifacts *artifacts.InMemoryService
	runner    *runner.Runner
	session   *session.Session
}

func (v *Validator) openScope(ctx context.Context, apiKey string) (*callScope, error) {
	a, err := agent.New(ctx, agent.Options{
		Name:        AgentName,
		Description: AgentDescription,
		Instruction: Instruction,
		ModelLoader: v.modelLoader(apiKey),
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	scope := &callScope{
		agent:     a,
		sessions:  session.NewInMemoryService(),
		artifacts: artifacts.NewInMemoryService(),
	}

	scope.runner, err = runner.New(a,
		runner.WithAppName(AgentName),
		runner.WithSessionService(scope.sessions),
		runner.WithArtifactService(scope.artifacts),
		runner.WithLogger(v.logger),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create runner: %w", err)
	}

	scope.session, err = scope.sessions.Create(ctx, AgentName, v.userID, "")
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return scope, nil
}

// close tears the scope down; failures are logged, not returned.
func (s *callScope) close(ctx context.Context, log logrus.FieldLogger) {
	info := artifacts.SessionInfo{AppName: AgentName, UserID: s.session.UserID(), SessionID: s.session.ID()}
	if err := s.artifacts.DeleteSession(ctx, info); err != nil {
		log.WithError(err).Warn("could not delete session artifacts")
	}
	_ = s.artifacts.Close()
	if err := s.sessions.Delete(ctx, AgentName, s.session.UserID(), s.session.ID()); err != nil {
		log.WithError(err).Warn("could not delete session")
	}
	_ = s.sessions.Close()
	if err := s.agent.Close(); err != nil {
		log.WithError(err).Warn("could not close model client")
	}
}
