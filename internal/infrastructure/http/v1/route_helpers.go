package v1

import (
	"github.com/gin-gonic/gin"
)

// DocumentRouteHandler defines the routes every document handler serves.
type DocumentRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// RegisterDocumentRoutes registers the create and read routes of a document.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
}
