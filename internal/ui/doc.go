// Package ui provides the terminal presenter view of a question board.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. The update loop is the only place view
// state changes; everything that blocks (gateway calls, cache fetches,
// clipboard access) runs in a tea.Cmd and reports back with a message.
//
// The model holds no authoritative data. It reads:
//
//   - state.Cache: the question list and its loading/error/ready status
//   - health.Monitor: the connection indicator in the header
//   - highlight.Tracker: whether the newest question carries a NEW badge
//   - mutation.Coordinator: submissions and resolution toggles
//
// Each of these exposes a Changes channel. The model keeps one waiting
// command per channel and re-reads the component when it fires.
//
// # Layout
//
//	┌ header: session name, sync spinner, ● Live / Disconnected ┐
//	│ input: multi-line question box                            │
//	│ feed: newest first, time, status, NEW badge               │
//	│ toast line                                                │
//	└ footer: question count, resolved count, key hints         ┘
//
// # Feed States
//
//   - loading: nothing fetched yet
//   - error: the last fetch failed; r retries
//   - empty: fetched, no questions
//   - list: one block per question
//
// # Key Bindings
//
//   - tab: Switch between input and feed
//   - ctrl+s: Submit the typed question
//   - j/k, g/G: Move the selection
//   - enter or space: Resolve / undo the selected question
//   - r: Reload questions
//   - c: Show the join link and QR code
//   - y: Copy the join link
//   - T: Cycle theme
//   - ?: Help
//   - ctrl+c: Quit
//
// A submission clears the input only when the server accepted it; on failure
// the text stays so nothing typed is lost. While a submission or toggle is in
// flight the matching control ignores further presses.
package ui
