// Package reportcard compares two report card PDFs by delegating the analysis
// to a remote model agent and decoding its JSON verdict.
package reportcard

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	agent "github.com/Protocol-Lattice/report-card-validator"
	"github.com/Protocol-Lattice/report-card-validator/src/config"
	"github.com/Protocol-Lattice/report-card-validator/src/models"
)

const defaultUserID = "user_1"

// Validator runs one comparison per Validate call. Calls share no state.
type Validator struct {
	cfg    config.Config
	loader agent.ModelLoader
	logger logrus.FieldLogger
	userID string
}

// Option configures a Validator.
type Option func(*Validator)

// WithModelLoader replaces the provider selected by the configuration.
func WithModelLoader(loader agent.ModelLoader) Option {
	return func(v *Validator) {
		v.loader = loader
	}
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithUserID sets the user the per-call sessions belong to.
func WithUserID(id string) Option {
	return func(v *Validator) {
		if id = strings.TrimSpace(id); id != "" {
			v.userID = id
		}
	}
}

func NewValidator(cfg config.Config, opts ...Option) *Validator {
	v := &Validator{cfg: cfg, userID: defaultUserID}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	if v.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		v.logger = l
	}
	return v
}

// Validate compares file1 and file2.
//
// Configuration and file-access failures are returned as errors, as is a failed
// remote run. A missing or undecodable reply is not an error: it comes back as
// an error record in the Result.
func (v *Validator) Validate(ctx context.Context, file1, file2 string) (Result, error) {
	apiKey, err := v.cfg.Credential()
	if err != nil {
		return nil, err
	}

	msg, err := BuildRequest(file1, file2)
	if err != nil {
		return nil, err
	}

	log := v.logger.WithFields(logrus.Fields{
		"file_1": filepath.Base(file1),
		"file_2": filepath.Base(file2),
	})
	started := time.Now()

	scope, err := v.openScope(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	defer scope.close(ctx, log)

	log = log.WithField("session_id", scope.session.ID())
	log.Debug("submitting validation request")

	fut, err := scope.runner.Submit(ctx, v.userID, scope.session.ID(), msg)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	final, err := fut.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent run: %w", err)
	}

	var result Result
	if final == nil {
		result = noResponse()
	} else {
		result = Decode(final.Content.Text())
	}

	log = log.WithField("elapsed", time.Since(started).String())
	if reason, ok := result.ErrorMessage(); ok {
		log.WithField("reason", reason).Warn("validation returned an error record")
	} else {
		log.Info("validation complete")
	}
	return result, nil
}

func (v *Validator) modelLoader(apiKey string) agent.ModelLoader {
	if v.loader != nil {
		return v.loader
	}
	return func(ctx context.Context, instruction string) (models.Agent, error) {
		return models.NewLLMProvider(ctx, v.cfg.Provider, apiKey, v.cfg.Model, instruction)
	}
}
