package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/investlink/commission_backend/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks happen in the global CORS middleware
		return true
	},
}

// HandleWebSocket upgrades an authenticated request to a WebSocket
// connection and registers it with the hub. The route sits behind the JWT
// middleware, so the user id comes from the token claims.
func HandleWebSocket(hub *Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := middleware.GetUserFromToken(c)
		if claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID in token")
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return err
		}

		client := &Client{
			UserID: userID,
			Conn:   conn,
		}
		hub.register <- client

		conn.WriteJSON(Event{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID.Hex(),
		})

		// Read loop. Clients do not send application messages; this only
		// detects disconnects so the hub can drop the client.
		go func() {
			defer func() {
				hub.unregister <- client
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()

		return nil
	}
}
