// Package stream decodes the request and response capture artifacts into records.
//
// Both artifacts interleave every real test record with a synchronization ("dummy") record that
// the capture tool sends to keep the server log aligned. The scanners in this package tag each
// record as Genuine or Dummy; GenuineOnly, ReadRequests and ReadResponses drop the dummies so
// that nothing downstream ever sees them.
package stream
