package game

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type GameHandler struct {
	router        *Router
	tickerCreator PeriodicTickerChannelCreator
	sendBuffer    int
	upgrader      websocket.Upgrader
}

func NewGameHandler(router *Router, tickerCreator PeriodicTickerChannelCreator, sendBuffer int, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		router:        router,
		tickerCreator: tickerCreator,
		sendBuffer:    sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// WebsocketHandler upgrades the request and runs the session until the client
// goes away.
func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	session := NewSession(uuid.NewString(), h.sendBuffer)
	pings, stopPings := h.tickerCreator.Create(pingInterval)

	go func() {
		defer stopPings()
		session.WritePump(socket, pings)
	}()

	log.Info().Str("player", session.ID()).Str("ip", ctx.ClientIP()).Msg("session connected")
	h.router.Connect(session)
	go session.ReadPump(socket, h.router)
}

func (h *GameHandler) Register(r gin.IRouter) {
	r.GET("/ws", h.WebsocketHandler)
}
