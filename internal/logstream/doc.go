// Package logstream relays a child process's combined output line by line.
//
// A Streamer is attached to a single process session and is never reused:
// each engine start gets a fresh one, so output from an earlier session
// cannot leak into a later one.
package logstream
