package serverutils

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"advisor-command-centre-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newPrincipalApp(opts PrincipalOptions) *fiber.App {
	app := fiber.New()
	app.Use(PrincipalMiddleware(opts))
	app.Get("/whoami", func(ctx *fiber.Ctx) error {
		userID, ok := CurrentUserID(ctx)
		if !ok {
			return ctx.SendStatus(fiber.StatusTeapot)
		}
		return ctx.SendString(userID.String())
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *httptestRequest) (int, string) {
	t.Helper()
	r := httptest.NewRequest(req.method, req.path, nil)
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	resp, err := app.Test(r)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

type httptestRequest struct {
	method  string
	path    string
	headers map[string]string
}

func TestPrincipalMiddleware_BearerToken(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(testSecret, userID, "advisor", time.Hour)
	require.NoError(t, err)

	app := newPrincipalApp(PrincipalOptions{JwtSecret: testSecret, DemoUserID: uuid.New()})
	code, got := doRequest(t, app, &httptestRequest{method: "GET", path: "/whoami", headers: map[string]string{"Authorization": "Bearer " + token}})

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, userID.String(), got)
}

func TestPrincipalMiddleware_DemoFallback(t *testing.T) {
	demoID := uuid.New()
	app := newPrincipalApp(PrincipalOptions{JwtSecret: testSecret, DemoUserID: demoID})

	code, got := doRequest(t, app, &httptestRequest{method: "GET", path: "/whoami"})

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, demoID.String(), got)
}

func TestPrincipalMiddleware_RejectsBadToken(t *testing.T) {
	token, err := IssueToken("other-secret", uuid.New(), "advisor", time.Hour)
	require.NoError(t, err)

	app := newPrincipalApp(PrincipalOptions{JwtSecret: testSecret, DemoUserID: uuid.New()})
	code, got := doRequest(t, app, &httptestRequest{method: "GET", path: "/whoami", headers: map[string]string{"Authorization": "Bearer " + token}})

	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, got)
}

func TestPrincipalMiddleware_NoDemoNoToken(t *testing.T) {
	app := newPrincipalApp(PrincipalOptions{JwtSecret: testSecret})

	code, _ := doRequest(t, app, &httptestRequest{method: "GET", path: "/whoami"})

	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := IssueToken(testSecret, uuid.New(), "advisor", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	app.Get("/not-found", func(ctx *fiber.Ctx) error {
		return NewNotFound("Recording not found")
	})
	app.Get("/wrapped", func(ctx *fiber.Ctx) error {
		return NewInternal("Failed to fetch messages", errors.New("connection refused"))
	})
	app.Get("/plain", func(ctx *fiber.Ctx) error {
		return errors.New("secret detail")
	})

	code, got := doRequest(t, app, &httptestRequest{method: "GET", path: "/not-found"})
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Recording not found"}`, got)

	code, got = doRequest(t, app, &httptestRequest{method: "GET", path: "/wrapped"})
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.JSONEq(t, `{"error":"Failed to fetch messages"}`, got)

	code, got = doRequest(t, app, &httptestRequest{method: "GET", path: "/plain"})
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.NotContains(t, got, "secret detail")
}

func TestBodyLimitMiddleware(t *testing.T) {
	app := fiber.New(fiber.Config{StreamRequestBody: true})
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	app.Use(BodyLimitMiddleware(16, "File too large"))
	app.Post("/echo", func(ctx *fiber.Ctx) error {
		return ctx.Send(ctx.Body())
	})

	small := httptest.NewRequest("POST", "/echo", strings.NewReader("short"))
	resp, err := app.Test(small)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "short", string(body))

	big := httptest.NewRequest("POST", "/echo", strings.NewReader(strings.Repeat("x", 64)))
	big.Close = true
	resp, err = app.Test(big)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.JSONEq(t, `{"error":"File too large"}`, string(body))
	assert.True(t, resp.Close, "the unread body must not be parsed as a next request")
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Sender string `validate:"required,oneof=user assistant"`
	}

	assert.NoError(t, ValidateRequest(req{Sender: "user"}))

	err := ValidateRequest(req{Sender: "robot"})
	require.Error(t, err)
	assert.Equal(t, []string{"req.Sender:oneof"}, ValidationFields(err))
}
