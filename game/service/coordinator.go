package service

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/wricardo/partyhost/game/minefield"
	"github.com/wricardo/partyhost/game/session"
	"github.com/wricardo/partyhost/game/stroke"
)

var (
	// ErrNoCatalog is returned by Presets when no catalog is attached.
	ErrNoCatalog = errors.New("no preset catalog configured")

	errMalformed = errors.New("malformed payload")
)

// Coordinator routes inbound events to the room directory, the minefield and
// the stroke relay, and emits the results through its Transport.
type Coordinator struct {
	rooms     *session.Manager
	field     *minefield.Game
	transport Transport
	presets   PresetCatalog
	logger    *zap.Logger
}

// NewCoordinator creates a coordinator over the given state. A nil logger is
// replaced with a no-op one.
func NewCoordinator(rooms *session.Manager, field *minefield.Game, transport Transport, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		rooms:     rooms,
		field:     field,
		transport: transport,
		logger:    logger,
	}
}

// SetPresets attaches the catalog behind Presets.
func (c *Coordinator) SetPresets(catalog PresetCatalog) {
	c.presets = catalog
}

// HandleConnect sends the current minefield to a newly connected participant.
func (c *Coordinator) HandleConnect(connID string) {
	c.logger.Info("participant connected", zap.String("conn", connID))
	c.transport.SendTo(connID, EventFieldUpdate, c.field.Field().Cells)
}

// HandleDisconnect releases the departing participant's seat.
func (c *Coordinator) HandleDisconnect(connID string) {
	c.logger.Info("participant disconnected", zap.String("conn", connID))
	if d, ok := c.rooms.Release(connID); ok {
		c.depart(connID, d)
	}
}

// HandleEvent applies one inbound event. Unknown events and malformed payloads
// are dropped.
func (c *Coordinator) HandleEvent(connID, event string, payload json.RawMessage) {
	switch event {
	case EventCreateRoom:
		c.createRoom(connID)
	case EventJoinRoom:
		c.joinRoom(connID, payload)
	case EventMove:
		c.move(connID, payload)
	case EventResetRoom:
		c.resetRoom(connID)

	case EventReveal:
		if row, col, ok := decodeCell(payload); ok {
			c.RevealCell(row, col)
		} else {
			c.reject(connID, event, errMalformed)
		}
	case EventFlag:
		if row, col, ok := decodeCell(payload); ok {
			c.FlagCell(row, col)
		} else {
			c.reject(connID, event, errMalformed)
		}
	case EventResetField:
		c.ResetField()

	default:
		if stroke.IsStrokeEvent(event) {
			c.relayStroke(connID, event, payload)
			return
		}
		c.logger.Debug("unknown event", zap.String("conn", connID), zap.String("event", event))
	}
}

func (c *Coordinator) reject(connID, event string, err error) {
	c.logger.Debug("event rejected",
		zap.String("conn", connID),
		zap.String("event", event),
		zap.Error(err),
	)
}

func (c *Coordinator) createRoom(connID string) {
	seat, departure, err := c.rooms.Create(connID)
	if err != nil {
		c.logger.Warn("room creation failed", zap.String("conn", connID), zap.Error(err))
		c.transport.SendTo(connID, EventRoomError, ErrorPayload{Message: "Could not create room"})
		return
	}
	if departure != nil {
		c.depart(connID, *departure)
	}

	c.transport.Join(connID, seat.Code)
	c.transport.SendTo(connID, EventRoomCreated, seatPayload(seat))
	c.transport.SendToRoom(seat.Code, EventPlayerCount, seat.Players)

	c.logger.Info("room created", zap.String("conn", connID), zap.String("room", seat.Code))
}

func (c *Coordinator) joinRoom(connID string, payload json.RawMessage) {
	var req joinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.reject(connID, EventJoinRoom, errMalformed)
		return
	}
	code, ok := req.code()
	if !ok {
		c.transport.SendTo(connID, EventRoomError, ErrorPayload{Message: "Room not found"})
		return
	}

	seat, departure, err := c.rooms.Join(connID, code)
	switch {
	case errors.Is(err, session.ErrRoomNotFound):
		c.transport.SendTo(connID, EventRoomError, ErrorPayload{Message: "Room not found"})
		return
	case errors.Is(err, session.ErrRoomFull):
		c.transport.SendTo(connID, EventRoomError, ErrorPayload{Message: "Room is full"})
		return
	case err != nil:
		c.reject(connID, EventJoinRoom, err)
		return
	}
	if departure != nil {
		c.depart(connID, *departure)
	}

	c.transport.Join(connID, seat.Code)
	c.transport.SendTo(connID, EventJoined, seatPayload(seat))
	c.transport.SendToRoom(seat.Code, EventPlayerCount, seat.Players)

	c.logger.Info("room joined",
		zap.String("conn", connID),
		zap.String("room", seat.Code),
		zap.String("mark", string(seat.Mark)),
	)
}

func (c *Coordinator) move(connID string, payload json.RawMessage) {
	var req moveRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Index == nil {
		c.reject(connID, EventMove, errMalformed)
		return
	}

	update, err := c.rooms.Move(connID, *req.Index)
	if err != nil {
		c.reject(connID, EventMove, err)
		return
	}
	c.transport.SendToRoom(update.Code, EventUpdate, updatePayload(update))
}

func (c *Coordinator) resetRoom(connID string) {
	update, err := c.rooms.Reset(connID)
	if err != nil {
		c.reject(connID, EventResetRoom, err)
		return
	}
	c.transport.SendToRoom(update.Code, EventUpdate, updatePayload(update))
}

// depart untags connID from the room it left and tells whoever remains.
func (c *Coordinator) depart(connID string, d session.Departure) {
	c.transport.Leave(connID, d.Code)
	if d.Closed {
		c.logger.Info("room closed", zap.String("room", d.Code))
		return
	}
	c.transport.SendToRoom(d.Code, EventPlayerCount, d.Remaining)
}

func (c *Coordinator) relayStroke(connID, event string, payload json.RawMessage) {
	out, err := stroke.Relay(event, connID, payload)
	if err != nil {
		c.reject(connID, event, err)
		return
	}

	switch out.Audience {
	case stroke.Everyone:
		c.transport.Broadcast(out.Event, out.Data)
	default:
		c.transport.BroadcastExcept(connID, out.Event, out.Data)
	}
}

// RevealCell reveals a cell on the shared field and broadcasts the field.
func (c *Coordinator) RevealCell(row, col int) (minefield.Outcome, error) {
	out, err := c.field.Reveal(row, col)
	if err != nil {
		c.logger.Debug("reveal rejected", zap.Int("row", row), zap.Int("col", col), zap.Error(err))
		return out, err
	}
	if out.Detonated {
		c.logger.Info("mine hit", zap.Int("row", row), zap.Int("col", col))
	}
	c.broadcastField()
	return out, nil
}

// FlagCell toggles a flag on the shared field and broadcasts the field.
func (c *Coordinator) FlagCell(row, col int) error {
	if err := c.field.ToggleFlag(row, col); err != nil {
		c.logger.Debug("flag rejected", zap.Int("row", row), zap.Int("col", col), zap.Error(err))
		return err
	}
	c.broadcastField()
	return nil
}

// ResetField regenerates the shared field and broadcasts it.
func (c *Coordinator) ResetField() error {
	if err := c.field.Reset(); err != nil {
		c.logger.Error("minefield reset failed", zap.Error(err))
		return err
	}
	c.logger.Info("minefield reset", zap.String("preset", c.field.Preset().Name))
	c.broadcastField()
	return nil
}

func (c *Coordinator) broadcastField() {
	c.transport.Broadcast(EventFieldUpdate, c.field.Field().Cells)
}

// FieldSnapshot returns a copy of the shared field.
func (c *Coordinator) FieldSnapshot() *minefield.Field {
	return c.field.Field().Clone()
}

// Rooms returns snapshots of every live room.
func (c *Coordinator) Rooms() []session.RoomInfo {
	return c.rooms.List()
}

// Room returns a snapshot of one room.
func (c *Coordinator) Room(code string) (session.RoomInfo, error) {
	return c.rooms.Get(code)
}

// Presets lists the available minefield presets.
func (c *Coordinator) Presets() ([]*PresetInfo, error) {
	if c.presets == nil {
		return nil, ErrNoCatalog
	}
	return c.presets.ListPresets()
}

// SavePreset writes a preset to the catalog and reloads the catalog from disk.
// The running field keeps its current preset.
func (c *Coordinator) SavePreset(id string, p *minefield.Preset) error {
	if c.presets == nil {
		return ErrNoCatalog
	}
	if err := c.presets.SavePreset(id, p); err != nil {
		return err
	}
	c.presets.RefreshCache()

	c.logger.Info("preset saved",
		zap.String("preset", id),
		zap.Int("rows", p.Rows),
		zap.Int("cols", p.Cols),
		zap.Int("mines", p.Mines),
	)
	return nil
}

// Stats summarises rooms and the field.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Rooms:         c.rooms.Count(),
		SeatedPlayers: c.rooms.Connections(),
		Preset:        c.field.Preset().Name,
		Field:         c.field.Field().Stats(),
	}
}

func seatPayload(s session.Seating) SeatPayload {
	return SeatPayload{Code: s.Code, Symbol: s.Mark, Board: s.Board, XNext: s.XNext}
}

func updatePayload(u session.Update) UpdatePayload {
	return UpdatePayload{Board: u.Board, XNext: u.XNext, Winner: u.Winner}
}

func decodeCell(payload json.RawMessage) (int, int, bool) {
	var req cellRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Row == nil || req.Col == nil {
		return 0, 0, false
	}
	return *req.Row, *req.Col, true
}
