package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/partyhost/api"
	"github.com/wricardo/partyhost/game/engine"
	"github.com/wricardo/partyhost/game/minefield"
	"github.com/wricardo/partyhost/game/service"
	"github.com/wricardo/partyhost/game/session"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Party Host",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Party Host - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The host runs tic-tac-toe rooms for pairs of players and one minefield
shared by everybody connected. Changes you make to the minefield are pushed
live to every player.

AVAILABLE TOOLS:
- list_rooms: List live tic-tac-toe rooms
- get_room: Show one room's board
- minefield_state: Show the shared minefield
- reveal_cell: Reveal a minefield cell (row, col)
- flag_cell: Toggle a flag on a hidden cell (row, col)
- reset_minefield: Start a fresh minefield
- list_presets: List minefield presets
- save_preset: Save a new minefield preset (id, name, rows, cols, mines)

Minefield legend: # hidden, F flagged, * mine, . empty, 1-8 neighbouring mines.`),
	)

	c.registerTools()
}

func cellSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"row": map[string]interface{}{
				"type":        "integer",
				"description": "Zero-based row",
			},
			"col": map[string]interface{}{
				"type":        "integer",
				"description": "Zero-based column",
			},
		},
		Required: []string{"row", "col"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Rooms
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all live tic-tac-toe rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get the board and status of a tic-tac-toe room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Room code",
				},
			},
			Required: []string{"code"},
		},
	}, c.handleGetRoom)

	// Minefield
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "minefield_state",
		Description: "Get the shared minefield",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleFieldState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reveal_cell",
		Description: "Reveal a cell of the shared minefield",
		InputSchema: cellSchema(),
	}, c.handleReveal)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flag_cell",
		Description: "Toggle a flag on a hidden cell of the shared minefield",
		InputSchema: cellSchema(),
	}, c.handleFlag)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_minefield",
		Description: "Replace the shared minefield with a fresh one",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleResetField)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List available minefield presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_preset",
		Description: "Save a minefield preset to the server's preset directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "File id (letters, digits, - and _); defaults to name",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Preset name",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Short description",
				},
				"rows": map[string]interface{}{
					"type":        "integer",
					"description": "Rows (2-50)",
				},
				"cols": map[string]interface{}{
					"type":        "integer",
					"description": "Columns (2-50)",
				},
				"mines": map[string]interface{}{
					"type":        "integer",
					"description": "Mine count, at least 1 and fewer than rows*cols",
				},
			},
			Required: []string{"name", "rows", "cols", "mines"},
		},
	}, c.handleSavePreset)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// intArg reads an integer argument, accepting JSON numbers.
func intArg(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(n), nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

func cellArgs(request mcp.CallToolRequest) (map[string]int, error) {
	args := request.GetArguments()
	row, err := intArg(args, "row")
	if err != nil {
		return nil, err
	}
	col, err := intArg(args, "col")
	if err != nil {
		return nil, err
	}
	return map[string]int{"row": row, "col": col}, nil
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                `json:"count"`
		Rooms []session.RoomInfo `json:"rooms"`
	}

	if err := c.apiCall(ctx, "GET", "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Live Rooms (%d):\n\n", response.Count)
	for _, r := range response.Rooms {
		result += fmt.Sprintf("- %s (Players: %d/2, Status: %s, Created: %s)\n",
			r.Code, r.Players, r.Status, r.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := request.GetString("code", "")
	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}

	var room session.RoomInfo
	if err := c.apiCall(ctx, "GET", "/api/rooms/"+url.PathEscape(code), nil, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&room)), nil
}

func (c *Client) handleFieldState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var view api.FieldView
	if err := c.apiCall(ctx, "GET", "/api/minefield", nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatField(&view)), nil
}

func (c *Client) handleReveal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result api.RevealResult
	if err := c.apiCall(ctx, "POST", "/api/minefield/reveal", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var header string
	if result.Detonated {
		header = fmt.Sprintf("💥 Mine hit at (%d,%d)!\n\n", body["row"], body["col"])
	} else {
		header = fmt.Sprintf("✓ Revealed %d cell(s) from (%d,%d)\n\n", result.Revealed, body["row"], body["col"])
	}
	return mcp.NewToolResultText(header + formatField(&result.Field)), nil
}

func (c *Client) handleFlag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var view api.FieldView
	if err := c.apiCall(ctx, "POST", "/api/minefield/flag", body, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state := "removed"
	if view.Cells[body["row"]][body["col"]].IsFlagged {
		state = "placed"
	}
	header := fmt.Sprintf("Flag %s at (%d,%d)\n\n", state, body["row"], body["col"])
	return mcp.NewToolResultText(header + formatField(&view)), nil
}

func (c *Client) handleResetField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Message string        `json:"message"`
		Field   api.FieldView `json:"field"`
	}
	if err := c.apiCall(ctx, "POST", "/api/minefield/reset", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatField(&response.Field)), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []service.PresetInfo
	if err := c.apiCall(ctx, "GET", "/api/presets", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Minefield Presets (%d):\n\n", len(presets)))
	for _, p := range presets {
		result.WriteString(fmt.Sprintf("- %s: %dx%d, %d mines (%.0f%%) - %s\n",
			p.PresetID, p.Rows, p.Cols, p.Mines, p.Density*100, p.Description))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleSavePreset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	args := request.GetArguments()
	body := map[string]interface{}{
		"id":          request.GetString("id", ""),
		"name":        name,
		"description": request.GetString("description", ""),
	}
	for _, key := range []string{"rows", "cols", "mines"} {
		n, err := intArg(args, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body[key] = n
	}

	var response struct {
		Message  string `json:"message"`
		PresetID string `json:"preset_id"`
	}
	if err := c.apiCall(ctx, "POST", "/api/presets", body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s: %s (%dx%d, %d mines)",
		response.Message, response.PresetID, body["rows"], body["cols"], body["mines"])), nil
}

// Formatting

func markChar(m engine.Mark) string {
	if m == engine.NoMark {
		return "."
	}
	return string(m)
}

func formatRoom(room *session.RoomInfo) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Room: %s | Players: %d/2 | Status: %s\n\n", room.Code, room.Players, room.Status))

	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			result.WriteString(markChar(room.Board[row*3+col]))
		}
		result.WriteString("\n")
	}
	result.WriteString(fmt.Sprintf("\nMoves: %d", room.Moves))

	switch room.Status {
	case session.StatusWon:
		result.WriteString(fmt.Sprintf("\nWinner: %s", room.Winner))
	case session.StatusFullBoard:
		result.WriteString("\nBoard full, no winner")
	default:
		next := engine.MarkO
		if room.XNext {
			next = engine.MarkX
		}
		result.WriteString(fmt.Sprintf("\nNext: %s", next))
	}

	return result.String()
}

func cellChar(cell minefield.Cell) string {
	switch {
	case cell.IsFlagged:
		return "F"
	case !cell.IsRevealed:
		return "#"
	case cell.IsMine:
		return "*"
	case cell.NeighborCount == 0:
		return "."
	default:
		return fmt.Sprintf("%d", cell.NeighborCount)
	}
}

func formatField(view *api.FieldView) string {
	var result strings.Builder
	s := view.Stats
	result.WriteString(fmt.Sprintf("Preset: %s | %dx%d | Mines: %d | Revealed: %d | Flags: %d\n\n",
		view.Preset, s.Rows, s.Cols, s.Mines, s.Revealed, s.Flagged))

	for _, row := range view.Cells {
		for _, cell := range row {
			result.WriteString(cellChar(cell))
		}
		result.WriteString("\n")
	}

	switch {
	case s.Detonated:
		result.WriteString("\n💀 MINE DETONATED")
	case s.Cleared:
		result.WriteString("\n🎉 FIELD CLEARED!")
	}

	return result.String()
}
