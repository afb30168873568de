// Package api provides the HTTP surface of the party host.
//
// Endpoints:
//
// Health:
//   - GET /api/health - Room, connection and minefield counters
//
// Rooms:
//   - GET /api/rooms - List live tic-tac-toe rooms
//   - GET /api/rooms/{code} - One room's board and status
//
// Minefield:
//   - GET /api/minefield - Current shared field
//   - POST /api/minefield/reveal - Reveal {row, col}
//   - POST /api/minefield/flag - Toggle a flag at {row, col}
//   - POST /api/minefield/reset - Regenerate the field
//   - GET /api/presets - Available field presets
//
// WebSocket:
//   - GET /ws - Upgrade to the event socket
//
// Minefield changes made over HTTP are broadcast to every socket, the same
// as changes made over the socket.
//
// Errors are JSON objects with a single "error" field.
package api
