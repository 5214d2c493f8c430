package webhook

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/slashgw/internal/commands"
	"github.com/mattjoyce/slashgw/internal/dispatch"
	"github.com/mattjoyce/slashgw/internal/interaction"
	"github.com/mattjoyce/slashgw/internal/storage"
)

const testTimestamp = "1700000000"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	priv    ed25519.PrivateKey
	server  *Server
	handler http.Handler
}

func newFixture(t *testing.T, dispatcher Dispatcher, recorder Recorder, mutate ...func(*Config)) *fixture {
	t.Helper()
	pub, priv := generateKey(t)
	v, err := NewVerifier(pub)
	require.NoError(t, err)

	if dispatcher == nil {
		reg, err := dispatch.NewRegistry(commands.Builtin()...)
		require.NoError(t, err)
		dispatcher = dispatch.NewRouter(reg, testLogger())
	}

	cfg := Config{Listen: "127.0.0.1:0"}
	for _, m := range mutate {
		m(&cfg)
	}
	s := New(cfg, v, dispatcher, recorder, testLogger())
	return &fixture{priv: priv, server: s, handler: s.Handler()}
}

func (f *fixture) signedRequest(body string) *http.Request {
	req := httptest.NewRequest("POST", "/entry", strings.NewReader(body))
	req.Header.Set(HeaderTimestamp, testTimestamp)
	req.Header.Set(HeaderSignature, signHex(f.priv, testTimestamp, []byte(body)))
	return req
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// failingDispatcher fails the test if the request ever reaches dispatch.
type failingDispatcher struct{ t *testing.T }

func (d failingDispatcher) Dispatch(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
	d.t.Fatal("Dispatch should not be called")
	return interaction.Response{}, nil
}

func (d failingDispatcher) Definitions() []interaction.CommandDefinition { return nil }

type dispatcherFunc func(ctx context.Context, env *interaction.Envelope) (interaction.Response, error)

func (f dispatcherFunc) Dispatch(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
	return f(ctx, env)
}

func (f dispatcherFunc) Definitions() []interaction.CommandDefinition { return nil }

func TestHandleEntry_Responses(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "handshake",
			body:       `{"type":1}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"type":1}`,
		},
		{
			name:       "ping",
			body:       `{"type":2,"data":{"name":"ping"}}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"type":3,"data":{"content":"Pong!","flags":64}}`,
		},
		{
			name:       "echo",
			body:       `{"type":2,"data":{"name":"echo","options":[{"value":"hello"}]}}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"type":4,"data":{"content":"hello"}}`,
		},
		{
			name:       "unknown command",
			body:       `{"type":2,"data":{"name":"frobnicate"}}`,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"unknown command"}`,
		},
		{
			name:       "unsupported interaction type",
			body:       `{"type":99}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"unsupported interaction type"}`,
		},
		{
			name:       "malformed JSON",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"malformed interaction payload"}`,
		},
		{
			name:       "echo without options",
			body:       `{"type":2,"data":{"name":"echo","options":[]}}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"malformed interaction payload"}`,
		},
	}

	f := newFixture(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(f.signedRequest(tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandleEntry_HandshakeIsExact(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(f.signedRequest(`{"type":1}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{\"type\":1}\n", rec.Body.String())
}

func TestHandleEntry_MissingHeadersSkipParsing(t *testing.T) {
	tests := []struct {
		name      string
		signature bool
		timestamp bool
	}{
		{name: "no headers"},
		{name: "signature only", signature: true},
		{name: "timestamp only", timestamp: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, failingDispatcher{t}, nil)

			// Not JSON: a 400 here would mean the body was parsed before authentication.
			body := "definitely not json"
			req := httptest.NewRequest("POST", "/entry", strings.NewReader(body))
			if tt.signature {
				req.Header.Set(HeaderSignature, signHex(f.priv, testTimestamp, []byte(body)))
			}
			if tt.timestamp {
				req.Header.Set(HeaderTimestamp, testTimestamp)
			}

			rec := f.do(req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
		})
	}
}

func TestHandleEntry_InvalidSignature(t *testing.T) {
	f := newFixture(t, failingDispatcher{t}, nil)
	_, otherPriv := generateKey(t)

	body := `{"type":1}`
	req := httptest.NewRequest("POST", "/entry", strings.NewReader(body))
	req.Header.Set(HeaderTimestamp, testTimestamp)
	req.Header.Set(HeaderSignature, signHex(otherPriv, testTimestamp, []byte(body)))

	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "unauthorized", resp.Error, "error should be generic")
}

func TestHandleEntry_MalformedSignatureHex(t *testing.T) {
	f := newFixture(t, failingDispatcher{t}, nil)

	req := httptest.NewRequest("POST", "/entry", strings.NewReader(`{"type":1}`))
	req.Header.Set(HeaderTimestamp, testTimestamp)
	req.Header.Set(HeaderSignature, "xyz")

	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestHandleEntry_BodyTooLarge(t *testing.T) {
	f := newFixture(t, failingDispatcher{t}, nil, func(c *Config) { c.MaxBodySize = 16 })

	body := `{"type":1,"padding":"` + strings.Repeat("a", 64) + `"}`
	rec := f.do(f.signedRequest(body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleEntry_OnlyPost(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(httptest.NewRequest("GET", "/entry", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleEntry_CustomPath(t *testing.T) {
	f := newFixture(t, nil, nil, func(c *Config) { c.EntryPath = "/interactions" })

	req := f.signedRequest(`{"type":1}`)
	req.URL.Path = "/interactions"
	assert.Equal(t, http.StatusOK, f.do(req).Code)

	assert.Equal(t, http.StatusNotFound, f.do(f.signedRequest(`{"type":1}`)).Code)
}

func TestHandleEntry_HandlerErrorIs500(t *testing.T) {
	d := dispatcherFunc(func(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
		return interaction.Response{}, errors.New("database unavailable")
	})
	f := newFixture(t, d, nil)

	rec := f.do(f.signedRequest(`{"type":2,"data":{"name":"x"}}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "database")
}

func TestHandleEntry_HandlerGetsDeadline(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	d := dispatcherFunc(func(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
		deadline, hasDeadline = ctx.Deadline()
		return interaction.Acknowledge(), nil
	})
	f := newFixture(t, d, nil, func(c *Config) { c.RequestTimeout = 2 * time.Second })

	before := time.Now()
	rec := f.do(f.signedRequest(`{"type":1}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, hasDeadline)
	assert.WithinDuration(t, before.Add(2*time.Second), deadline, time.Second)
}

func TestHandleEntry_RecordsVerifiedInteractions(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := NewMockRecorder(ctrl)

	var got []storage.Record
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).
		Do(func(ctx context.Context, rec storage.Record) { got = append(got, rec) }).
		Return(nil).
		Times(2)

	f := newFixture(t, nil, recorder)

	assert.Equal(t, http.StatusOK, f.do(f.signedRequest(`{"id":"111","type":2,"data":{"name":"ping"}}`)).Code)
	assert.Equal(t, http.StatusNotFound, f.do(f.signedRequest(`{"id":"222","type":2,"data":{"name":"frobnicate"}}`)).Code)

	// Unauthenticated requests leave no trace.
	unsigned := httptest.NewRequest("POST", "/entry", strings.NewReader(`{"type":1}`))
	assert.Equal(t, http.StatusUnauthorized, f.do(unsigned).Code)

	require.Len(t, got, 2)
	assert.Equal(t, storage.Record{InteractionID: "111", Type: 2, Command: "ping", Status: 200}, got[0])
	assert.Equal(t, storage.Record{InteractionID: "222", Type: 2, Command: "frobnicate", Status: 404, ErrorKind: "unknown_command"}, got[1])
}

func TestHandleEntry_RecorderFailureDoesNotChangeReply(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := NewMockRecorder(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	f := newFixture(t, nil, recorder)
	rec := f.do(f.signedRequest(`{"type":1}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":1}`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(httptest.NewRequest("GET", "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthzResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Commands)
}

func TestNew_AppliesDefaults(t *testing.T) {
	f := newFixture(t, nil, nil)

	assert.Equal(t, DefaultEntryPath, f.server.config.EntryPath)
	assert.Equal(t, int64(DefaultMaxBodySize), f.server.config.MaxBodySize)
	assert.Equal(t, DefaultRequestTimeout, f.server.config.RequestTimeout)
}

func TestServe_AnswersAndShutsDown(t *testing.T) {
	f := newFixture(t, nil, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, ln) }()

	body := []byte(`{"type":2,"data":{"name":"ping"}}`)
	req, err := http.NewRequest("POST", "http://"+ln.Addr().String()+"/entry", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(HeaderTimestamp, testTimestamp)
	req.Header.Set(HeaderSignature, signHex(f.priv, testTimestamp, body))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	respBody, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"type":3,"data":{"content":"Pong!","flags":64}}`, string(respBody))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
