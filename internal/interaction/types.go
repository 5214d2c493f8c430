// Package interaction defines the inbound envelope and outbound response
// shapes exchanged with the interaction platform, and the error kinds used to
// classify request-handling failures.
package interaction

import (
	"encoding/json"
	"strings"
)

// Type identifies the kind of interaction the platform is delivering.
type Type int

const (
	// TypeHandshake is the platform's liveness check; it must be answered with a pong.
	TypeHandshake Type = 1
	// TypeCommand is a slash command invocation.
	TypeCommand Type = 2
)

// Envelope is the inbound interaction payload.
// Only the fields the gateway reads are decoded; everything else is ignored.
type Envelope struct {
	ID            string       `json:"id,omitempty"`
	ApplicationID string       `json:"application_id,omitempty"`
	Type          Type         `json:"type"`
	Token         string       `json:"token,omitempty"`
	GuildID       string       `json:"guild_id,omitempty"`
	ChannelID     string       `json:"channel_id,omitempty"`
	Data          *CommandData `json:"data,omitempty"`
}

// CommandData is the invocation part of a command envelope.
type CommandData struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Options []Option `json:"options,omitempty"`
}

// Option is a single argument supplied with a command invocation.
type Option struct {
	Name  string          `json:"name"`
	Type  OptionType      `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Text returns the option value as text. JSON strings are unquoted; numbers
// and booleans keep their JSON spelling.
func (o Option) Text() string {
	if len(o.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(o.Value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(o.Value))
}

// CommandName returns the invoked command name, or "" for non-command envelopes.
func (e *Envelope) CommandName() string {
	if e == nil || e.Data == nil {
		return ""
	}
	return e.Data.Name
}

// OptionType is the platform's parameter type tag.
type OptionType int

const (
	OptionSubCommand      OptionType = 1
	OptionSubCommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
)

// CommandDefinition is the schema published to the platform for one command.
type CommandDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Options     []OptionDefinition `json:"options"`
}

// OptionDefinition declares one command parameter.
type OptionDefinition struct {
	Type        OptionType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Required    bool       `json:"required"`
}

// ResponseType tells the platform how to treat a reply.
type ResponseType int

const (
	// ResponsePong acknowledges a handshake.
	ResponsePong ResponseType = 1
	// ResponseMessage posts a message without echoing the invocation.
	ResponseMessage ResponseType = 3
	// ResponseMessageWithSource posts a message and shows the invocation.
	ResponseMessageWithSource ResponseType = 4
)

// FlagEphemeral limits a message to the invoking user.
const FlagEphemeral = 1 << 6

// Response is the outbound reply body.
type Response struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData carries message content and flag bits.
type ResponseData struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// Acknowledge returns the handshake reply.
func Acknowledge() Response {
	return Response{Type: ResponsePong}
}

// Message returns a reply that does not show the original invocation.
func Message(content string) Response {
	return Response{Type: ResponseMessage, Data: &ResponseData{Content: content}}
}

// MessageWithSource returns a reply shown together with the invocation.
func MessageWithSource(content string) Response {
	return Response{Type: ResponseMessageWithSource, Data: &ResponseData{Content: content}}
}

// Ephemeral returns a copy of r visible only to the invoking user.
// Responses without data are returned unchanged.
func (r Response) Ephemeral() Response {
	if r.Data == nil {
		return r
	}
	data := *r.Data
	data.Flags |= FlagEphemeral
	r.Data = &data
	return r
}
