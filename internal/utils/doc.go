// Package utils holds small helpers shared by the transport, adapters and
// middleware: [ReadLimited] and [CloseWithLog] for response bodies,
// [TruncateString] for log previews, [Ptr] for optional request fields and
// [Timer] for call latency.
package utils
