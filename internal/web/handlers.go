package web

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/mkosmas1/LLM-Alignment/internal/session"
	"github.com/mkosmas1/LLM-Alignment/internal/tasks"
)

const sessionCookie = "study_session"

// sess resolves the participant session for this browser, creating a
// fresh one (and its cookie) on first contact or after a restart.
func (s *Server) sess(c *fiber.Ctx) *session.Session {
	if id := c.Cookies(sessionCookie); id != "" {
		if st, ok := s.engine.Sessions().Get(id); ok {
			return st
		}
	}
	st := s.engine.StartSession(c.Context())
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    st.UserID(),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return st
}

func (s *Server) handleHome(c *fiber.Ctx) error {
	st := s.sess(c)
	if st.LandingDismissed() {
		return c.Redirect("/chat")
	}
	return c.Render("index", fiber.Map{
		"TaskTotal": len(s.engine.Tasks()),
	})
}

func (s *Server) handleContinue(c *fiber.Ctx) error {
	s.sess(c).DismissLanding()
	return c.Redirect("/chat")
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	st := s.sess(c)
	if !st.LandingDismissed() {
		return c.Redirect("/")
	}
	return s.renderChat(c, st, "")
}

func (s *Server) handleMessage(c *fiber.Ctx) error {
	st := s.sess(c)
	prompt := c.FormValue("prompt")
	if _, err := s.engine.HandlePrompt(c.Context(), st, prompt); err != nil {
		log.Printf("turn for %s failed: %v", st.UserID(), err)
		return s.renderChat(c, st, "The assistant could not answer that message. Please try again.")
	}
	return c.Redirect("/chat")
}

func (s *Server) handleAdvance(c *fiber.Ctx) error {
	st := s.sess(c)
	if err := s.engine.Advance(c.Context(), st); err != nil {
		if errors.Is(err, session.ErrTaskIncomplete) {
			return s.renderChat(c, st, "Please interact with the chatbot before moving on.")
		}
		return s.renderChat(c, st, "Could not move to the next task.")
	}
	return c.Redirect("/chat")
}

func (s *Server) handleQuiz(c *fiber.Ctx) error {
	st := s.sess(c)
	if err := s.engine.SubmitQuiz(c.Context(), st); err != nil {
		log.Printf("quiz submission for %s failed: %v", st.UserID(), err)
		return s.renderChat(c, st, "Could not submit the quiz.")
	}
	return c.Redirect("/chat")
}

func (s *Server) handleSurvey(c *fiber.Ctx) error {
	st := s.sess(c)
	if _, err := s.engine.RequestSurvey(c.Context(), st); err != nil {
		if errors.Is(err, session.ErrStudyIncomplete) {
			return s.renderChat(c, st, "Please complete all tasks before taking the survey.")
		}
		log.Printf("survey handoff for %s failed: %v", st.UserID(), err)
		return s.renderChat(c, st, "Could not prepare the survey link.")
	}
	return c.Redirect("/chat")
}

type turnView struct {
	Prompt   string
	Response string
}

func (s *Server) renderChat(c *fiber.Ctx, st *session.Session, notice string) error {
	idx := st.TaskIndex()
	task, ok := s.engine.Task(idx)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString("task index out of range")
	}

	var turns []turnView
	for _, t := range st.TaskTurns(idx) {
		turns = append(turns, turnView{Prompt: t.Prompt, Response: t.Response})
	}

	surveyURL := ""
	if st.SurveyRequested() {
		u, err := s.engine.SurveyURL(st)
		if err != nil {
			log.Printf("survey url for %s: %v", st.UserID(), err)
		} else {
			surveyURL = u
		}
	}

	return c.Render("chat", fiber.Map{
		"TaskNumber":      idx + 1,
		"TaskTotal":       len(s.engine.Tasks()),
		"Description":     task.Description,
		"IsQuiz":          task.Kind == tasks.KindQuiz,
		"Questions":       task.Questions,
		"Turns":           turns,
		"CanAdvance":      st.CanAdvance() && !st.AtFinalTask(),
		"AtFinalTask":     st.AtFinalTask(),
		"CanSurvey":       st.CanRequestSurvey(),
		"SurveyRequested": st.SurveyRequested(),
		"SurveyURL":       surveyURL,
		"Notice":          notice,
	})
}
