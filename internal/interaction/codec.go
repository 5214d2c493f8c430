package interaction

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeEnvelope parses a verified request body.
// It must only be called on bytes whose signature has already been checked.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var probe struct {
		Type *Type `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, NewError(KindMalformedPayload, "invalid interaction JSON", err)
	}
	if probe.Type == nil {
		return nil, NewError(KindMalformedPayload, "interaction missing required field: type", nil)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, NewError(KindMalformedPayload, "invalid interaction envelope", err)
	}
	return &env, nil
}

// EncodeResponse writes resp as JSON to w.
func EncodeResponse(w io.Writer, resp Response) error {
	if resp.Type == 0 {
		return fmt.Errorf("response missing required field: type")
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}
