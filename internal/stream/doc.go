// Package stream serves a running layout over websockets.
//
// A Hub owns one System and steps it on a fixed tick. Connected clients get
// a welcome message describing the bodies and springs, then periodic state
// snapshots. Clients drive the layout by sending command envelopes whose
// payload is an automation.Event; the event is applied on the next hub
// iteration, so the System is only ever touched by the hub goroutine.
package stream
