package hub

import (
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errProfilesDisabled = errors.New("display profiles are not available")

// ProfileSwitcher applies a named display profile on behalf of a client.
type ProfileSwitcher interface {
	ApplyProfile(name string) error
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		c.conn.Close()
	}()

	for msg := range c.send {
		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPumpWithHandler reads messages from the WebSocket and handles client commands.
// switcher may be nil, in which case profile requests are refused.
func (c *Client) ReadPumpWithHandler(switcher ProfileSwitcher) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Warn().Err(err).Msg("error parsing client message")
			continue
		}

		switch clientMsg.Type {
		case "apply_profile":
			c.reply(c.applyProfile(switcher, clientMsg.Profile))
		default:
			log.Debug().Str("type", clientMsg.Type).Msg("ignoring unknown client message")
		}
	}
}

func (c *Client) applyProfile(switcher ProfileSwitcher, profile string) *WSMessage {
	if switcher == nil {
		return NewErrorMessage(errProfilesDisabled)
	}
	if err := switcher.ApplyProfile(profile); err != nil {
		log.Error().Err(err).Str("profile", profile).Msg("failed to apply display profile")
		return NewErrorMessage(err)
	}
	return NewProfileAppliedMessage(profile)
}

func (c *Client) reply(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("error marshaling reply")
		return
	}
	c.hub.SendTo(c, data)
}
