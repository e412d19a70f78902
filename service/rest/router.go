package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mid "github.com/ideatoapp/chatgateway/middleware/security"
	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/security"
)

// NewRouter builds the full HTTP surface: health, auth, messages, and the
// websocket endpoint.
func NewRouter(gw *gateway.Server, store storage.AccountStore, jwt security.Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running"})
	})

	authAPI := NewAuthAPI(store, jwt)
	r.POST("/api/auth/register", authAPI.Register)
	r.POST("/api/auth/login", authAPI.Login)

	msgAPI := NewMessageAPI(store)
	authed := r.Group("/api/messages", mid.Middleware(jwt))
	authed.GET("/conversation/:userId", msgAPI.GetConversation)
	authed.GET("/contacts", msgAPI.ListContacts)
	authed.POST("/contacts", msgAPI.AddContact)

	// websocket handshake carries the bearer token; the gateway gates it
	r.GET("/ws", gw.HandleWS)

	return r
}
