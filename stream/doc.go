// Package stream adapts byte sources and flow-controlled sinks to the
// transfer orchestrators.
//
// A Source exposes random-access slices of an upload payload. A Sink accepts
// downloaded chunks and reports backpressure: Write always keeps the bytes,
// but returns accepted=false once its internal queue reaches the high-water
// mark, after which the writer should wait for OnDrained before writing again.
package stream
