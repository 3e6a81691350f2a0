package mcpserver

import (
	"encoding/json"
	"net/http"

	"onemcp/internal/onemcp/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type consoleMessage struct {
	Prompt string `json:"prompt"`
}

type consoleEvent struct {
	RequestID string `json:"requestId,omitempty"`
	State     string `json:"state"`
	Summary   string `json:"summary,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DevConsole upgrades a single HTTP connection to a WebSocket and relays
// prompts straight into the orchestrator, one in flight at a time — a
// development aid for exercising onemcp.run without an MCP client.
type DevConsole struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

func NewDevConsole(orch *orchestrator.Orchestrator, logger *zap.Logger) *DevConsole {
	return &DevConsole{orch: orch, logger: logger}
}

func (d *DevConsole) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.logger.Warn("dev console: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				return
			}
			d.logger.Warn("dev console: read failed", zap.Error(err))
			return
		}

		var msg consoleMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			d.writeEvent(conn, consoleEvent{State: "FAILED", Error: "invalid message: expected {\"prompt\": \"...\"}"})
			continue
		}

		resp := d.orch.HandleRequest(ctx, msg.Prompt)
		event := consoleEvent{RequestID: resp.RequestID, State: string(resp.State), Summary: resp.Summary}
		if resp.Error != nil {
			event.Error = resp.Error.Error()
		}
		d.writeEvent(conn, event)
	}
}

func (d *DevConsole) writeEvent(conn *websocket.Conn, event consoleEvent) {
	if err := conn.WriteJSON(event); err != nil {
		d.logger.Warn("dev console: write failed", zap.Error(err))
	}
}
