// Package runner drives an agent for one message and reports its progress as events.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	agent "github.com/Protocol-Lattice/report-card-validator"
	"github.com/Protocol-Lattice/report-card-validator/src/artifacts"
	"github.com/Protocol-Lattice/report-card-validator/src/models"
	"github.com/Protocol-Lattice/report-card-validator/src/session"
)

// SessionService resolves sessions and records their events.
type SessionService interface {
	Get(ctx context.Context, appName, userID, sessionID string) (*session.Session, error)
	AppendEvent(ctx context.Context, s *session.Session, ev session.Event) error
}

// ArtifactService stores the binary parts of incoming messages.
type ArtifactService interface {
	Save(ctx context.Context, info artifacts.SessionInfo, name string, art artifacts.Artifact) (int, error)
}

// Option configures runner construction.
type Option func(*config)

type config struct {
	appName   string
	sessions  SessionService
	artifacts ArtifactService
	logger    logrus.FieldLogger
}

// WithAppName overrides the application name; the agent name is used by default.
func WithAppName(name string) Option {
	return func(c *config) {
		c.appName = strings.TrimSpace(name)
	}
}

// WithSessionService supplies the session backend.
func WithSessionService(svc SessionService) Option {
	return func(c *config) {
		if svc != nil {
			c.sessions = svc
		}
	}
}

// WithArtifactService stores incoming attachments as session artifacts.
func WithArtifactService(svc ArtifactService) Option {
	return func(c *config) {
		if svc != nil {
			c.artifacts = svc
		}
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Runner executes an agent against session-scoped messages.
type Runner struct {
	agent     *agent.Agent
	appName   string
	sessions  SessionService
	artifacts ArtifactService
	logger    logrus.FieldLogger
}

// New builds a runner for the agent.
func New(a *agent.Agent, opts ...Option) (*Runner, error) {
	if a == nil {
		return nil, errors.New("runner requires an agent")
	}
	cfg := &config{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.appName == "" {
		cfg.appName = a.Name()
	}
	if cfg.sessions == nil {
		cfg.sessions = session.NewInMemoryService()
	}
	if cfg.logger == nil {
		cfg.logger = logrus.StandardLogger()
	}

	return &Runner{
		agent:     a,
		appName:   cfg.appName,
		sessions:  cfg.sessions,
		artifacts: cfg.artifacts,
		logger:    cfg.logger,
	}, nil
}

// AppName returns the application name sessions are scoped under.
func (r *Runner) AppName() string { return r.appName }

// Run submits msg to the agent within an existing session. The returned channel
// yields partial events followed by one terminal event, then closes. A model
// failure is reported as a terminal event with Err set.
func (r *Runner) Run(ctx context.Context, userID, sessionID string, msg session.Content) (<-chan session.Event, error) {
	s, err := r.sessions.Get(ctx, r.appName, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(msg.Parts) == 0 {
		return nil, errors.New("message has no parts")
	}
	if msg.Role == "" {
		msg.Role = session.RoleUser
	}

	invocationID := "e-" + uuid.NewString()
	log := r.logger.WithFields(logrus.Fields{
		"app":           r.appName,
		"session_id":    s.ID(),
		"invocation_id": invocationID,
	})

	prompt, files, err := r.prepare(ctx, s, msg)
	if err != nil {
		return nil, err
	}

	if err := r.sessions.AppendEvent(ctx, s, session.Event{
		ID:           uuid.NewString(),
		InvocationID: invocationID,
		Author:       session.RoleUser,
		Content:      &msg,
	}); err != nil {
		return nil, fmt.Errorf("record user event: %w", err)
	}

	log.WithField("attachments", len(files)).Debug("invoking agent")
	stream, err := r.agent.GenerateStream(ctx, prompt, files)
	if err != nil {
		return nil, err
	}

	out := make(chan session.Event)
	go r.forward(ctx, log, s, invocationID, stream, out)
	return out, nil
}

// prepare splits the message into the prompt text and model attachments,
// saving every binary part as a session artifact.
func (r *Runner) prepare(ctx context.Context, s *session.Session, msg session.Content) (string, []models.File, error) {
	info := artifacts.SessionInfo{AppName: r.appName, UserID: s.UserID(), SessionID: s.ID()}

	var files []models.File
	for i, part := range msg.Parts {
		if !part.IsBinary() {
			continue
		}
		name := strings.TrimSpace(part.Name)
		if name == "" {
			name = fmt.Sprintf("attachment_%d", i)
		}
		if r.artifacts != nil {
			if _, err := r.artifacts.Save(ctx, info, name, artifacts.Artifact{MIMEType: part.MIMEType, Data: part.Data}); err != nil {
				return "", nil, fmt.Errorf("save artifact %s: %w", name, err)
			}
		}
		files = append(files, models.File{Name: name, MIME: part.MIMEType, Data: part.Data})
	}
	return msg.Text(), files, nil
}

func (r *Runner) forward(ctx context.Context, log logrus.FieldLogger, s *session.Session, invocationID string, stream <-chan models.StreamChunk, out chan<- session.Event) {
	defer close(out)
	defer func() {
		for range stream {
		}
	}()

	started := time.Now()
	emit := func(ev session.Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	newEvent := func() session.Event {
		return session.Event{
			ID:           uuid.NewString(),
			InvocationID: invocationID,
			Author:       r.agent.Name(),
			Timestamp:    time.Now().UTC(),
		}
	}

	var full strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			ev := newEvent()
			ev.Err = chunk.Err
			ev.TurnComplete = true
			if err := r.sessions.AppendEvent(ctx, s, ev); err != nil {
				log.WithError(err).Warn("could not record error event")
			}
			log.WithError(chunk.Err).Warn("agent run failed")
			emit(ev)
			return
		}
		if chunk.Done {
			text := chunk.FullText
			if text == "" {
				text = full.String()
			}
			ev := newEvent()
			ev.TurnComplete = true
			ev.Content = &session.Content{Role: session.RoleModel, Parts: []session.Part{{Text: text}}}
			if err := r.sessions.AppendEvent(ctx, s, ev); err != nil {
				log.WithError(err).Warn("could not record final event")
			}
			log.WithFields(logrus.Fields{
				"chars":   len(text),
				"elapsed": time.Since(started).String(),
			}).Debug("agent run complete")
			emit(ev)
			return
		}
		if chunk.Delta == "" {
			continue
		}
		full.WriteString(chunk.Delta)
		ev := newEvent()
		ev.Partial = true
		ev.Content = &session.Content{Role: session.RoleModel, Parts: []session.Part{{Text: chunk.Delta}}}
		if !emit(ev) {
			return
		}
	}
	log.Warn("agent stream ended without a terminal event")
}
