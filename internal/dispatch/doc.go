// Package dispatch routes verified interactions to command handlers.
//
// A Registry is built once at startup from a fixed list of Commands and is
// never modified afterwards, so a single Registry is shared by every request
// goroutine without locking.
//
// Routing:
//   - Handshake (type 1) is answered with a pong without consulting the registry
//   - Command invocation (type 2) is looked up by data.name
//   - Any other type is rejected as unsupported
//
// Error handling:
//   - Missing data.name → malformed payload
//   - Name not registered → unknown command
//   - Handler errors keep their kind; unclassified errors become internal
package dispatch
