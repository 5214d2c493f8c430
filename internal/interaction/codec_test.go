package interaction

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind Kind
		wantErr  bool
		checkFn  func(t *testing.T, env *Envelope)
	}{
		{
			name: "handshake",
			body: `{"type":1}`,
			checkFn: func(t *testing.T, env *Envelope) {
				assert.Equal(t, TypeHandshake, env.Type)
				assert.Nil(t, env.Data)
			},
		},
		{
			name: "command with options",
			body: `{"id":"42","type":2,"data":{"name":"echo","options":[{"name":"text","type":3,"value":"hello"}]}}`,
			checkFn: func(t *testing.T, env *Envelope) {
				assert.Equal(t, TypeCommand, env.Type)
				assert.Equal(t, "42", env.ID)
				assert.Equal(t, "echo", env.CommandName())
				require.Len(t, env.Data.Options, 1)
				assert.Equal(t, "text", env.Data.Options[0].Name)
				assert.Equal(t, OptionString, env.Data.Options[0].Type)
				assert.Equal(t, "hello", env.Data.Options[0].Text())
			},
		},
		{
			name: "unknown fields ignored",
			body: `{"type":2,"version":1,"member":{"user":{"id":"1"}},"data":{"name":"ping"}}`,
			checkFn: func(t *testing.T, env *Envelope) {
				assert.Equal(t, "ping", env.CommandName())
			},
		},
		{
			name: "unsupported type still decodes",
			body: `{"type":99}`,
			checkFn: func(t *testing.T, env *Envelope) {
				assert.Equal(t, Type(99), env.Type)
			},
		},
		{
			name:     "invalid JSON",
			body:     `{"type":`,
			wantErr:  true,
			wantKind: KindMalformedPayload,
		},
		{
			name:     "missing type",
			body:     `{"data":{"name":"ping"}}`,
			wantErr:  true,
			wantKind: KindMalformedPayload,
		},
		{
			name:     "type is not a number",
			body:     `{"type":"ping"}`,
			wantErr:  true,
			wantKind: KindMalformedPayload,
		},
		{
			name:     "null body",
			body:     `null`,
			wantErr:  true,
			wantKind: KindMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				assert.True(t, errors.Is(err, ErrMalformedPayload))
				return
			}
			require.NoError(t, err)
			if tt.checkFn != nil {
				tt.checkFn(t, env)
			}
		})
	}
}

func TestEncodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    Response
		want    string
		wantErr bool
	}{
		{
			name: "acknowledge",
			resp: Acknowledge(),
			want: `{"type":1}`,
		},
		{
			name: "ephemeral message",
			resp: Message("Pong!").Ephemeral(),
			want: `{"type":3,"data":{"content":"Pong!","flags":64}}`,
		},
		{
			name: "message with source",
			resp: MessageWithSource("hello"),
			want: `{"type":4,"data":{"content":"hello"}}`,
		},
		{
			name:    "missing type",
			resp:    Response{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EncodeResponse(&buf, tt.resp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, buf.String())
		})
	}
}

func TestEphemeralDoesNotMutateOriginal(t *testing.T) {
	base := Message("hi")
	eph := base.Ephemeral()

	assert.Equal(t, 0, base.Data.Flags)
	assert.Equal(t, FlagEphemeral, eph.Data.Flags)
	assert.Equal(t, Acknowledge(), Acknowledge().Ephemeral())
}

func TestOptionText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `"hello"`, want: "hello"},
		{raw: `"with \"quotes\""`, want: `with "quotes"`},
		{raw: `42`, want: "42"},
		{raw: `true`, want: "true"},
		{raw: ``, want: ""},
	}
	for _, tt := range tests {
		opt := Option{Value: []byte(tt.raw)}
		if got := opt.Text(); got != tt.want {
			t.Errorf("Option{%s}.Text() = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnauthenticated, 401},
		{KindMalformedPayload, 400},
		{KindUnknownCommand, 404},
		{KindUnsupportedInteraction, 400},
		{KindInternal, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.HTTPStatus(), tt.kind.String())
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(KindUnknownCommand, `command "frobnicate" is not registered`, cause)

	assert.True(t, errors.Is(err, ErrUnknownCommand))
	assert.False(t, errors.Is(err, ErrUnauthenticated))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindUnknownCommand, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Contains(t, err.Error(), "boom")
}
