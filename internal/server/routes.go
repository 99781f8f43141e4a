package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes(staticDir string) {
	r := s.engine

	r.GET("/healthz", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	r.GET("/body", s.getBody)
	r.GET("/todos", s.getTodos)
	r.POST("/todo", s.postTodo)
	r.DELETE("/todo", s.deleteCompleted)
	r.DELETE("/todo/:id", s.deleteTodo)
	r.PATCH("/todo/:id", s.patchTodo)
	r.POST("/toggle-completed", s.toggleCompleted)

	if staticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(gin.Dir(staticDir, false))))
	}
}
