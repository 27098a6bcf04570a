package runner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	agent "github.com/Protocol-Lattice/report-card-validator"
	"github.com/Protocol-Lattice/report-card-validator/src/artifacts"
	"github.com/Protocol-Lattice/report-card-validator/src/models"
	"github.com/Protocol-Lattice/report-card-validator/src/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type failingModel struct{ err error }

func (m failingModel) GenerateWithFiles(context.Context, string, []models.File) (any, error) {
	return nil, m.err
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRunner(t *testing.T, model models.Agent) (*Runner, *session.InMemoryService, *artifacts.InMemoryService) {
	t.Helper()
	a, err := agent.New(context.Background(), agent.Options{Name: "validator", Model: model})
	require.NoError(t, err)

	sessions := session.NewInMemoryService()
	store := artifacts.NewInMemoryService()
	r, err := New(a,
		WithAppName("report_card_validator"),
		WithSessionService(sessions),
		WithArtifactService(store),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	return r, sessions, store
}

func pdfMessage(a, b []byte) session.Content {
	return session.Content{Parts: []session.Part{
		{Text: "compare a.pdf and b.pdf"},
		{Name: "a.pdf", MIMEType: "application/pdf", Data: a},
		{Name: "b.pdf", MIMEType: "application/pdf", Data: b},
	}}
}

func TestNewRequiresAgent(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewDefaultsAppNameToAgentName(t *testing.T) {
	a, err := agent.New(context.Background(), agent.Options{Name: "validator", Model: models.NewDummyLLM("")})
	require.NoError(t, err)
	r, err := New(a)
	require.NoError(t, err)
	assert.Equal(t, "validator", r.AppName())
}

func TestRunUnknownSession(t *testing.T) {
	r, _, _ := newTestRunner(t, models.NewDummyLLM(""))
	_, err := r.Run(context.Background(), "user", "missing", pdfMessage([]byte("a"), []byte("b")))
	assert.True(t, errors.Is(err, session.ErrSessionNotFound), "got %v", err)
}

func TestRunRejectsEmptyMessage(t *testing.T) {
	r, sessions, _ := newTestRunner(t, models.NewDummyLLM(""))
	s, err := sessions.Create(context.Background(), r.AppName(), "user", "")
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "user", s.ID(), session.Content{})
	assert.Error(t, err)
}

func TestRunEmitsPartialsThenTerminal(t *testing.T) {
	model := models.NewDummyLLM("")
	model.Reply = `{"file_1": "a.pdf", "file_2": "b.pdf"}`
	r, sessions, store := newTestRunner(t, model)
	ctx := context.Background()

	s, err := sessions.Create(ctx, r.AppName(), "user", "")
	require.NoError(t, err)

	events, err := r.Run(ctx, "user", s.ID(), pdfMessage([]byte("%PDF-a"), []byte("%PDF-b")))
	require.NoError(t, err)

	var all []session.Event
	for ev := range events {
		all = append(all, ev)
	}
	require.NotEmpty(t, all)

	last := all[len(all)-1]
	require.True(t, last.IsFinalResponse())
	assert.Equal(t, model.Reply, last.Content.Text())
	assert.Equal(t, "validator", last.Author)
	for _, ev := range all[:len(all)-1] {
		assert.True(t, ev.Partial)
		assert.Equal(t, last.InvocationID, ev.InvocationID)
	}

	recorded := s.Events()
	require.Len(t, recorded, 2, "user event and terminal event are recorded")
	assert.Equal(t, session.RoleUser, recorded[0].Author)
	assert.True(t, recorded[1].IsFinalResponse())

	info := artifacts.SessionInfo{AppName: r.AppName(), UserID: "user", SessionID: s.ID()}
	keys, err := store.ListKeys(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, keys)

	files := model.LastFiles()
	require.Len(t, files, 2)
	assert.Equal(t, []byte("%PDF-a"), files[0].Data)
	assert.Equal(t, "application/pdf", files[1].MIME)
}

func TestRunNamesUnnamedAttachments(t *testing.T) {
	model := models.NewDummyLLM("")
	model.Reply = "{}"
	r, sessions, store := newTestRunner(t, model)
	ctx := context.Background()
	s, err := sessions.Create(ctx, r.AppName(), "user", "")
	require.NoError(t, err)

	msg := session.Content{Parts: []session.Part{
		{Text: "compare"},
		{MIMEType: "application/pdf", Data: []byte("x")},
	}}
	fut, err := r.Submit(ctx, "user", s.ID(), msg)
	require.NoError(t, err)
	_, err = fut.Await(ctx)
	require.NoError(t, err)

	keys, err := store.ListKeys(ctx, artifacts.SessionInfo{AppName: r.AppName(), UserID: "user", SessionID: s.ID()})
	require.NoError(t, err)
	assert.Equal(t, []string{"attachment_1"}, keys)
}

func TestSubmitSurfacesModelFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	r, sessions, _ := newTestRunner(t, failingModel{err: boom})
	ctx := context.Background()
	s, err := sessions.Create(ctx, r.AppName(), "user", "")
	require.NoError(t, err)

	fut, err := r.Submit(ctx, "user", s.ID(), pdfMessage([]byte("a"), []byte("b")))
	require.NoError(t, err)

	ev, err := fut.Await(ctx)
	assert.Nil(t, ev)
	assert.True(t, errors.Is(err, boom), "got %v", err)

	recorded := s.Events()
	require.Len(t, recorded, 2)
	assert.Error(t, recorded[1].Err)
}

func TestFinalResolvesOnFirstTerminalAndDrains(t *testing.T) {
	events := make(chan session.Event)
	fut := Final(events)

	go func() {
		defer close(events)
		events <- session.Event{Partial: true}
		events <- session.Event{ID: "first", TurnComplete: true, Content: &session.Content{Parts: []session.Part{{Text: "one"}}}}
		events <- session.Event{ID: "second", TurnComplete: true}
	}()

	ev, err := fut.Await(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "first", ev.ID)
	assert.Equal(t, "one", ev.Content.Text())
}

func TestFinalWithoutTerminalEvent(t *testing.T) {
	events := make(chan session.Event, 2)
	events <- session.Event{Partial: true}
	close(events)

	ev, err := Final(events).Await(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, ev)
}

func TestAwaitHonoursContext(t *testing.T) {
	events := make(chan session.Event)
	fut := Final(events)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fut.Await(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	close(events)
	<-fut.Done()
}
