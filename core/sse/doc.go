// Package sse decodes Server-Sent Events from an arbitrarily fragmented byte
// stream. A network read may end anywhere (mid-line, mid-field, mid-rune), so
// the [Decoder] keeps an internal buffer and only emits an [Event] once the
// blank line that terminates its record has been seen. The output is the same
// no matter how the input bytes were split across chunks.
//
// Most callers use [Decode], which turns a lazy chunk sequence into a lazy
// event sequence:
//
//	for event, err := range sse.Decode(chunks) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(event.Event, event.Data)
//	}
package sse
