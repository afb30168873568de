// Package mcp exposes the party host to AI agents over the Model Context Protocol.
//
// The client is a thin proxy: every tool calls the REST API, so agents see
// exactly what browser players see and their minefield changes are pushed to
// every open socket.
//
// MCP Tools:
//   - list_rooms: List live tic-tac-toe rooms
//   - get_room: Board and status of one room
//   - minefield_state: The shared minefield as a character grid
//   - reveal_cell: Reveal a minefield cell
//   - flag_cell: Toggle a flag on a hidden cell
//   - reset_minefield: Regenerate the minefield
//   - list_presets: Available minefield presets
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp on the main server
package mcp
