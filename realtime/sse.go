package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexandrevicenzi/go-sse"
)

// SSEPrefix - путь, под которым монтируется поток событий.
const SSEPrefix = "/events/"

// Broadcaster - получатель событий диспетчера.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message Message)
}

var (
	_ Broadcaster = (*Hub)(nil)
	_ Broadcaster = (*SSEBroadcaster)(nil)
)

// SSEBroadcaster отдаёт те же комнаты через Server-Sent Events для клиентов без websocket.
// Канал = путь запроса: /events/landing, /events/matches/{id}.
type SSEBroadcaster struct {
	server *sse.Server
	logger *slog.Logger
}

func NewSSEBroadcaster(logger *slog.Logger) *SSEBroadcaster {
	return &SSEBroadcaster{
		server: sse.NewServer(&sse.Options{
			Headers: map[string]string{
				"Cache-Control": "no-cache",
			},
			Logger: slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		}),
		logger: logger,
	}
}

// SSEChannel maps a hub room to its SSE channel path.
func SSEChannel(roomID string) string {
	if id, ok := strings.CutPrefix(roomID, "match:"); ok {
		return SSEPrefix + "matches/" + id
	}
	return SSEPrefix + roomID
}

func (b *SSEBroadcaster) BroadcastToRoom(roomID string, message Message) {
	channel := SSEChannel(roomID)
	if !b.server.HasChannel(channel) {
		return
	}
	message.RoomID = roomID
	data, err := json.Marshal(message)
	if err != nil {
		b.logger.Error("Failed to marshal SSE message", slog.String("room", roomID), slog.Any("error", err))
		return
	}
	b.server.SendMessage(channel, sse.SimpleMessage(string(data)))
}

func (b *SSEBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.server.ServeHTTP(w, r)
}

func (b *SSEBroadcaster) Shutdown() {
	b.server.Shutdown()
}
