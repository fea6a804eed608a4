// Package web is the browser surface of the study: a small fiber app
// rendering the landing page, the chat view and the survey handoff.
// All state decisions are delegated to the study engine; handlers only
// read session state and translate form posts into engine calls.
package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"

	"github.com/mkosmas1/LLM-Alignment/internal/study"
)

type Server struct {
	app    *fiber.App
	engine *study.Engine
	port   int
}

func NewServer(engine *study.Engine, viewsDir string, port int) *Server {
	views := html.New(viewsDir, ".html")
	app := fiber.New(fiber.Config{Views: views})
	app.Use(logger.New())

	s := &Server{app: app, engine: engine, port: port}

	app.Get("/", s.handleHome)
	app.Post("/continue", s.handleContinue)
	app.Get("/chat", s.handleChat)
	app.Post("/message", s.handleMessage)
	app.Post("/advance", s.handleAdvance)
	app.Post("/quiz", s.handleQuiz)
	app.Post("/survey", s.handleSurvey)

	return s
}

func (s *Server) Start() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
