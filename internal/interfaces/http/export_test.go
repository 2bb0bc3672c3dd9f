package http

// WriteSnapshotEvent expone el framing SSE a los tests externos.
var WriteSnapshotEvent = writeSnapshotEvent
