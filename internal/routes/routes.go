package routes

import (
	"github.com/damoang/angple-pages/internal/handler"
	"github.com/damoang/angple-pages/internal/middleware"
	"github.com/damoang/angple-pages/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	pageHandler *handler.PageHandler,
	editorHandler *handler.EditorHandler,
	templateHandler *handler.TemplateHandler,
	wsHandler *handler.WSHandler,
	jwtManager *jwt.Manager,
	redisClient *redis.Client,
) {
	auth := middleware.JWTAuth(jwtManager)
	canEdit := middleware.RequireLevel(middleware.EditorLevel)

	api := router.Group("/api/v1")

	// 블록 팔레트 (공개)
	api.GET("/blocks/templates", templateHandler.List)

	// Pages
	pages := api.Group("/pages")
	pages.GET("", pageHandler.List)                // 페이지 목록 (공개)
	pages.GET("/:id", pageHandler.Get)             // 페이지 조회 (공개)
	pages.GET("/:id/preview", pageHandler.Preview) // 저장된 문서 렌더링 (공개)
	pages.POST("", auth, canEdit, pageHandler.Create)
	pages.DELETE("/:id", auth, canEdit, pageHandler.Delete)
	pages.GET("/:id/revisions", auth, canEdit, pageHandler.Revisions)
	pages.GET("/:id/revisions/:version", auth, canEdit, pageHandler.Revision)

	// Editor session (편집 권한 필요)
	editor := pages.Group("/:id/editor", auth, canEdit,
		middleware.RateLimitPerUser(redisClient, middleware.EditorRateLimitConfig()))
	editor.POST("", editorHandler.Open)
	editor.DELETE("", editorHandler.Close)
	editor.GET("/snapshot", editorHandler.Snapshot)
	editor.GET("/preview", editorHandler.Preview)

	editor.POST("/blocks", editorHandler.AddBlock)
	editor.PATCH("/blocks/:blockId", editorHandler.UpdateField)
	editor.DELETE("/blocks/:blockId", editorHandler.DeleteBlock)
	editor.POST("/blocks/:blockId/duplicate", editorHandler.DuplicateBlock)
	editor.POST("/blocks/:blockId/reorder", editorHandler.Reorder)
	editor.POST("/blocks/:blockId/move", editorHandler.Move)
	editor.POST("/drag", editorHandler.Drag)

	editor.POST("/undo", editorHandler.Undo)
	editor.POST("/redo", editorHandler.Redo)
	editor.POST("/save", editorHandler.Save)
	editor.POST("/keys", editorHandler.Key)
	editor.PUT("/selection", editorHandler.Select)
	editor.PUT("/mode", editorHandler.SetMode)
	editor.POST("/inline", editorHandler.Inline)

	// 실시간 미리보기 (WebSocket)
	router.GET("/ws/pages/:id", auth, canEdit, wsHandler.Connect)
}
