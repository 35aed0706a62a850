// Package gateway provides the HTTP client for the question API.
//
// # Overview
//
// The board never talks to the network directly. Everything goes through the
// narrow interfaces defined here (Lister, Creator, Resolver, Pinger), which
// *Client implements against the REST surface:
//
//   - GET /questions: every question, in any order
//   - POST /questions {"content": ...}: create a question
//   - PATCH /questions/{id} {"is_resolved": ...}: set the resolved flag
//   - GET /health: liveness probe
//
// # Records
//
// Question mirrors one server record. Identifiers are opaque: the server may
// send numbers or strings and both decode to the same ID. Timestamps are UTC;
// values serialized without a zone (as Python's datetime.utcnow produces) are
// read as UTC rather than local time.
//
// Create accepts either the full created record or a short acknowledgement
// carrying only the id. Missing content is filled in from the request so the
// caller always gets a usable record.
//
// # Errors
//
// Every failure maps onto one kind, matched with errors.Is:
//
//   - ErrNetwork (*NetworkError): no response, or a body that could not be read
//   - ErrServer (*ServerError): any other non-success status
//   - ErrValidation (*ValidationError): 400/422 on POST or PATCH
//   - ErrNotFound (*NotFoundError): 404 on PATCH
//
// Each request carries an X-Request-Id header; network and server errors
// include it so a failing call can be found in the server log.
//
// # Usage Example
//
//	client, err := gateway.NewClient("http://localhost:8000")
//	if err != nil {
//		log.Fatalf("init gateway: %v", err)
//	}
//	questions, err := client.ListQuestions(ctx)
//	if errors.Is(err, gateway.ErrNetwork) {
//		log.Printf("api unreachable: %v", err)
//	}
package gateway
