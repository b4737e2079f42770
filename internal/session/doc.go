// Package session bootstraps realtime sessions against the Polisight REST
// API. A session id is required to open the streaming channel; the Refresher
// keeps one fresh for long-running watchers.
package session
