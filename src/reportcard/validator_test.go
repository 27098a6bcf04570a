package reportcard

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	agent "github.com/Protocol-Lattice/report-card-validator"
	"github.com/Protocol-Lattice/report-card-validator/src/config"
	"github.com/Protocol-Lattice/report-card-validator/src/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedModel replies without streaming and counts Close calls.
type scriptedModel struct {
	reply  string
	err    error
	closed atomic.Int32
}

func (m *scriptedModel) GenerateWithFiles(context.Context, string, []models.File) (any, error) {
	return m.reply, m.err
}

func (m *scriptedModel) Close() error {
	m.closed.Add(1)
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// loaderFor returns a loader handing out model and counting invocations.
func loaderFor(model models.Agent, calls *int, instruction *string) agent.ModelLoader {
	return func(_ context.Context, in string) (models.Agent, error) {
		*calls++
		if instruction != nil {
			*instruction = in
		}
		return model, nil
	}
}

func dummyConfig() config.Config {
	return config.Config{Provider: config.ProviderDummy}
}

func TestValidateSameFileTwice(t *testing.T) {
	path := writeFile(t, t.TempDir(), "Ananya Sharma - 1.pdf", []byte("%PDF-1.7 same bytes"))
	model := models.NewDummyLLM("")
	model.Reply = fence(`{"validation_summary": {"files_are_duplicates": true}}`)

	var calls int
	var instruction string
	v := NewValidator(dummyConfig(), WithModelLoader(loaderFor(model, &calls, &instruction)), WithLogger(quietLogger()))

	got, err := v.Validate(context.Background(), path, path)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Instruction, instruction)

	files := model.LastFiles()
	require.Len(t, files, 2)
	assert.Equal(t, files[0].Data, files[1].Data)
	assert.Equal(t, PDFMIMEType, files[0].MIME)
	assert.Equal(t, "Ananya Sharma - 1.pdf", files[1].Name)

	summary := got["validation_summary"].(map[string]any)
	assert.Equal(t, true, summary["files_are_duplicates"])
}

func TestValidateMissingCredentialComesFirst(t *testing.T) {
	dir := t.TempDir()
	var calls int
	model := models.NewDummyLLM("")
	v := NewValidator(config.Config{Provider: config.ProviderGemini},
		WithModelLoader(loaderFor(model, &calls, nil)),
		WithLogger(quietLogger()),
	)

	// Neither file exists: the credential error must win.
	_, err := v.Validate(context.Background(), filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingCredential), "got %v", err)
	assert.False(t, errors.Is(err, ErrFileAccess))
	assert.Zero(t, calls)
	assert.Zero(t, model.Calls())
}

func TestValidateMissingFile(t *testing.T) {
	dir := t.TempDir()
	present := writeFile(t, dir, "a.pdf", []byte("%PDF"))
	var calls int
	v := NewValidator(dummyConfig(), WithModelLoader(loaderFor(models.NewDummyLLM(""), &calls, nil)), WithLogger(quietLogger()))

	_, err := v.Validate(context.Background(), present, filepath.Join(dir, "gone.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileAccess), "got %v", err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
	assert.Zero(t, calls, "no agent is built when a file is unreadable")
}

func TestValidateReplies(t *testing.T) {
	cases := map[string]struct {
		reply string
		check func(t *testing.T, got Result)
	}{
		"fenced object": {
			reply: fence(sampleVerdict),
			check: func(t *testing.T, got Result) {
				assert.Equal(t, Decode(sampleVerdict), got)
			},
		},
		"empty": {
			reply: "",
			check: func(t *testing.T, got Result) {
				assert.Equal(t, noResponse(), got)
			},
		},
		"whitespace": {
			reply: " \n ",
			check: func(t *testing.T, got Result) {
				assert.Equal(t, noResponse(), got)
			},
		},
		"malformed": {
			reply: "```json\n{\"file_1\": \n```",
			check: func(t *testing.T, got Result) {
				_, ok := got.ErrorMessage()
				assert.True(t, ok)
				raw, _ := got.RawResponse()
				assert.Equal(t, "```json\n{\"file_1\": \n```", raw)
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			a := writeFile(t, dir, "a.pdf", []byte("%PDF-a"))
			b := writeFile(t, dir, "b.pdf", []byte("%PDF-b"))

			model := &scriptedModel{reply: tc.reply}
			var calls int
			v := NewValidator(dummyConfig(), WithModelLoader(loaderFor(model, &calls, nil)), WithLogger(quietLogger()))

			got, err := v.Validate(context.Background(), a, b)
			require.NoError(t, err)
			tc.check(t, got)
			assert.EqualValues(t, 1, model.closed.Load(), "model is released after the call")
		})
	}
}

func TestValidateRemoteFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("%PDF-a"))
	b := writeFile(t, dir, "b.pdf", []byte("%PDF-b"))

	boom := errors.New("503 service unavailable")
	model := &scriptedModel{err: boom}
	var calls int
	v := NewValidator(dummyConfig(), WithModelLoader(loaderFor(model, &calls, nil)), WithLogger(quietLogger()))

	got, err := v.Validate(context.Background(), a, b)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, boom), "got %v", err)
	assert.EqualValues(t, 1, model.closed.Load())
}

func TestValidateLoaderFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("%PDF-a"))

	boom := errors.New("bad model name")
	v := NewValidator(dummyConfig(), WithLogger(quietLogger()), WithModelLoader(func(context.Context, string) (models.Agent, error) {
		return nil, boom
	}))

	_, err := v.Validate(context.Background(), a, a)
	assert.True(t, errors.Is(err, boom), "got %v", err)
}

func TestValidateCallsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("%PDF-a"))
	b := writeFile(t, dir, "b.pdf", []byte("%PDF-b"))

	model := models.NewDummyLLM("")
	model.Reply = `{"ok": true}`
	var calls int
	v := NewValidator(dummyConfig(), WithModelLoader(loaderFor(model, &calls, nil)), WithLogger(quietLogger()))

	for i := 0; i < 3; i++ {
		got, err := v.Validate(context.Background(), a, b)
		require.NoError(t, err)
		assert.Equal(t, Result{"ok": true}, got)
	}
	assert.Equal(t, 3, calls, "every call builds its own agent")
	assert.Equal(t, 3, model.Calls())
}

func TestValidateDefaultDummyProvider(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("%PDF-a"))

	got, err := NewValidator(dummyConfig()).Validate(context.Background(), a, a)
	require.NoError(t, err)

	// The offline model echoes its prompt, which is not JSON.
	msg, ok := got.ErrorMessage()
	require.True(t, ok)
	assert.Contains(t, msg, "Failed to parse JSON response")
}

func TestValidateCanceledContext(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("%PDF-a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := models.NewDummyLLM("")
	model.Reply = `{"ok": true}`
	var calls int
	v := NewValidator(dummyConfig(), WithModelLoader(loaderFor(model, &calls, nil)), WithLogger(quietLogger()))

	_, err := v.Validate(ctx, a, a)
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	}
}
