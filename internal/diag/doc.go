// Package diag defines the diagnostic model shared by the translator, the
// preprocessing passes and the batch driver.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: Info, Warning, Error or Critical (severity.go). Error and
//     Critical fail a translation; Critical is reserved for internal wiring
//     bugs such as a chunk referencing an operand that was never emitted.
//   - Code: compact numeric identifier (codes.go) with a stable string form
//     such as GRF1003.
//   - Message: human oriented text, kept short.
//   - Primary anchor: the graph, node and pin the problem belongs to, so an
//     editor can highlight it.
//   - Notes: optional secondary anchors with context (a call stack, the
//     variable that was being resolved).
//   - Fixes: optional manual suggestions.
//
// # Emitting diagnostics
//
// Phases use a Reporter to decouple emission from storage. ReportError,
// ReportWarning and friends build a ReportBuilder that can carry notes
// before Emit. BagReporter stores into a Bag bounded by the configured
// maximum; DedupReporter filters repeats; Counter tracks fatal entries.
//
// The translator never sorts its bag: diagnostics keep emission order so
// two translations of the same script report byte-identical lists.
// Rendering lives in internal/diagfmt.
package diag
