package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Protocol-Lattice/report-card-validator/src/models"
)

const defaultInstruction = "You are a precise document analysis agent. Answer only with what the user asks for."

// ModelLoader constructs the language model for an agent. It receives the
// agent's instruction so providers can install it as the system prompt.
type ModelLoader func(ctx context.Context, instruction string) (models.Agent, error)

// Agent is a named, model-backed responder. It carries no tools.
type Agent struct {
	name        string
	description string
	instruction string
	model       models.Agent
}

// Options configure a new Agent.
type Options struct {
	Name        string
	Description string
	Instruction string

	// Model is used as-is when set; otherwise ModelLoader builds one.
	Model       models.Agent
	ModelLoader ModelLoader
}

// New creates an Agent with the provided options.
func New(ctx context.Context, opts Options) (*Agent, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, errors.New("agent requires a name")
	}

	instruction := opts.Instruction
	if strings.TrimSpace(instruction) == "" {
		instruction = defaultInstruction
	}

	model := opts.Model
	if model == nil && opts.ModelLoader != nil {
		loaded, err := opts.ModelLoader(ctx, instruction)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		model = loaded
	}
	if model == nil {
		return nil, errors.New("agent requires a language model")
	}

	return &Agent{
		name:        name,
		description: strings.TrimSpace(opts.Description),
		instruction: instruction,
		model:       model,
	}, nil
}

func (a *Agent) Name() string { return a.name }

func (a *Agent) Description() string { return a.description }

func (a *Agent) Instruction() string { return a.instruction }

// Model exposes the underlying language model.
func (a *Agent) Model() models.Agent { return a.model }

// Generate sends the prompt and attachments to the model in one shot.
func (a *Agent) Generate(ctx context.Context, prompt string, files []models.File) (string, error) {
	if strings.TrimSpace(prompt) == "" && len(files) == 0 {
		return "", errors.New("user input is empty")
	}
	completion, err := a.model.GenerateWithFiles(ctx, prompt, files)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(completion), nil
}

// Close releases the model's client when it holds one.
func (a *Agent) Close() error {
	if closer, ok := a.model.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
