// Package recorder archives dispatched stream events into Postgres. Events
// flow through a growable queue so slow database writes never back-pressure
// the realtime channel.
package recorder
