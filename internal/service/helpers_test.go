package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"advisor-command-centre-be/internal/pkg/filestore"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/pkg/database/dbtest"
	"advisor-command-centre-be/pkg/events"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// capturePublisher records everything instead of hitting a bus.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	notes  map[string][]interface{}
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{notes: make(map[string][]interface{})}
}

func (p *capturePublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) Notify(topic string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes[topic] = append(p.notes[topic], payload)
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *capturePublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

type testEnv struct {
	db        *gorm.DB
	factory   unitofwork.RepositoryFactory
	publisher *capturePublisher
	store     *filestore.LocalStore
	log       logger.ILogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	store, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return &testEnv{
		db:        db,
		factory:   unitofwork.NewRepositoryFactory(db),
		publisher: newCapturePublisher(),
		store:     store,
		log:       logger.NewNopLogger(),
	}
}

// fileHeader builds a real multipart file header the way Fiber hands it
// to controllers.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}
