package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/unifi-tools/threatwatch/pkg/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// observers authenticate at the proxy layer, not here
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebsocket upgrades the connection and registers it as an observer.
// The handler blocks reading until the client goes away; the read loop is
// only there to notice the disconnect.
func (c *Controller) ServeWebsocket(gctx *gin.Context) {
	conn, err := upgrader.Upgrade(gctx.Writer, gctx.Request, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %s", err)
		return
	}

	observer := broadcast.NewWSConn(conn, c.WriteTimeout)
	c.Broadcaster.Register(observer)

	defer c.Broadcaster.Unregister(observer)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
