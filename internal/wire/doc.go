// Package wire defines the messages carried on the realtime channel.
//
// Every frame is a JSON object with a required "type" discriminator. Two
// types are control messages handled by the connection core itself:
//   - "ping": server-initiated liveness probe
//   - "pong": acknowledgment, also sent periodically as the client keep-alive
//
// All other types are application messages produced by the analysis backend.
// The known ones are modeled as concrete variants; anything else decodes to
// Unknown with the raw bytes preserved, so new server-side types never break
// older clients.
package wire
