package config

import (
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
}

// NewWebSocket reads WS_ALLOWED_ORIGINS, a comma separated list of origins.
// Without it every origin is accepted.
func NewWebSocket() (*WebSocket, error) {
	var origins []string
	if s, ok := os.LookupEnv("WS_ALLOWED_ORIGINS"); ok && s != "" {
		origins = strings.Split(s, ",")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			return slices.Contains(origins, r.Header.Get("Origin"))
		},
	}

	return &WebSocket{Upgrader: upgrader}, nil
}
