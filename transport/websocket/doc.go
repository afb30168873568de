// Package websocket is the persistent-connection transport.
//
// A single Hub goroutine (Run) owns every connection, the room tags and,
// through its Handler, all session state. Registrations, departures, inbound
// frames and tasks submitted with Do are processed strictly one at a time, so
// a handler never observes a half-applied operation.
//
// Frames are JSON envelopes in both directions:
//
//	{"event": "tictactoe:move", "data": {"index": 4}}
//
// Each connection gets a random id on upgrade. Outbound frames are queued per
// client; a client that cannot keep up is dropped.
//
// Usage:
//
//	hub := websocket.NewHub(logger, []string{"http://localhost:5173"})
//	go hub.Run(ctx, coordinator)
//	router.HandleFunc("/ws", hub.ServeWS)
package websocket
