// Package webhook implements the signed interactions endpoint.
//
// The interaction platform POSTs every event to a single URL and signs it
// with the application's Ed25519 key. This package verifies that signature,
// hands the parsed envelope to a Dispatcher, and writes the reply.
//
// # Security Model
//
// - Ed25519 signature over timestamp || raw body, checked before any JSON is parsed
// - The body is kept byte-for-byte until verification completes
// - Body size limits enforced (413 when exceeded)
// - No verification details leaked in error responses (always generic 401)
// - Request logging and the audit trail exclude payloads
//
// # Request Flow
//
//  1. HTTP POST arrives at the entry path (default /entry)
//  2. Body size checked
//  3. X-Signature-Ed25519 and X-Signature-Timestamp extracted
//  4. Signature verified against the configured public key (401 on failure)
//  5. Envelope decoded (400 on malformed JSON)
//  6. Dispatcher answers: handshake pong, command reply, or a classified error
//  7. Reply written as JSON with 200, or the error kind's status
//
// # Error Responses
//
// - 400 Bad Request: malformed payload or unsupported interaction type
// - 401 Unauthorized: missing, malformed, or invalid signature
// - 404 Not Found: command name not registered
// - 413 Payload Too Large: body exceeds max_body_size
// - 500 Internal Server Error: handler failure
//
// # Ops Routes
//
// GET /healthz is always served. When admin access is enabled, GET
// /admin/commands and GET /admin/interactions require a bearer token.
package webhook
