// Package server is a small reference implementation of the question API the
// board talks to.
//
// Routes:
//
//	GET   /health           {"status":"ok","presence":<open sockets>}
//	GET   /questions        newest first
//	POST  /questions        {"content":"..."} -> 201 with the record
//	PATCH /questions/{id}   {"is_resolved":bool} -> updated record, 404 if unknown
//	GET   /presence         WebSocket that answers pings
//
// Request bodies are checked against JSON schemas and rejected with 422.
// Error bodies carry a "detail" field. Every response allows any origin.
//
// Questions belong to one day in the configured timezone. Anything created
// before local midnight is pruned before each list and create and again at
// every midnight; pruned rows go to the archive when one is configured.
// By default the store is cleared when the server starts.
package server
