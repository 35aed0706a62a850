// Package health publishes the board's connection indicator.
//
// A Monitor samples a Sampler on a fixed five second cadence and republishes
// the result as a boolean. Start resets the status to connected; Stop
// cancels the timer. The indicator is informational: nothing in the board
// blocks a submission or a toggle because of it.
//
// Three samplers exist:
//
//   - RandomSampler simulates a flaky link, reporting disconnected about one
//     sample in ten. It is the default and matches the hosted board.
//   - HTTPSampler pings the API health endpoint.
//   - PresenceSampler holds a WebSocket to the server's presence endpoint
//     and counts a sample as healthy when a ping is answered in time.
package health
