package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"advisor-command-centre-be/internal/pkg/filestore"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/ratelimit"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/repository/memory"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/internal/service"
	"advisor-command-centre-be/pkg/database/dbtest"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testApp struct {
	app     *fiber.App
	db      *gorm.DB
	factory unitofwork.RepositoryFactory
	store   *filestore.LocalStore
	demoID  uuid.UUID
}

// newTestApp wires every controller against an in-memory database. A
// nil limiter disables rate limiting.
func newTestApp(t *testing.T, limiter *ratelimit.FixedWindowLimiter) *testApp {
	t.Helper()
	log := logger.NewNopLogger()
	db := dbtest.New(t)
	factory := unitofwork.NewRepositoryFactory(db)
	store, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger.NewWatermillAdapter(log))
	t.Cleanup(func() { _ = pubSub.Close() })
	publisher := service.NewEventPublisher(pubSub, nil, log)

	demoID := uuid.New()
	principal := serverutils.PrincipalMiddleware(serverutils.PrincipalOptions{JwtSecret: testSecret, DemoUserID: demoID})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return serverutils.WriteError(ctx, log, err)
		},
	})
	api := app.Group("/api")

	NewHealthController(factory, log).RegisterRoutes(api)
	NewAuthController(service.NewAuthService(factory, testSecret, time.Hour, log), principal).RegisterRoutes(api)
	NewMessageController(
		service.NewMessageService(factory, publisher, log),
		principal,
		ratelimit.Middleware(limiter, "messages"),
	).RegisterRoutes(api)
	NewSettingsController(
		service.NewSettingsService(factory, memory.NewSettingsCache(time.Minute), publisher, log),
		principal,
	).RegisterRoutes(api)
	NewRecordingController(
		service.NewRecordingService(factory, store, publisher, service.RecordingServiceOptions{
			MaxBytes:        1024,
			ProcessingDelay: time.Hour,
		}, log),
		principal,
		ratelimit.Middleware(limiter, "recordings"),
	).RegisterRoutes(api)

	return &testApp{app: app, db: db, factory: factory, store: store, demoID: demoID}
}

func (a *testApp) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (a *testApp) doJSON(t *testing.T, method, path string, payload interface{}, headers ...string) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.do(t, req)
}

type uploadFile struct {
	name        string
	contentType string
	content     []byte
}

func uploadRequest(t *testing.T, fields map[string]string, file *uploadFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/recordings", &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func decode(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v), string(body))
}
