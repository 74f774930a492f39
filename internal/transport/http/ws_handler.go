package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Response string `json:"response"`
}

// questionView is the client-facing question shape. The canonical answer is
// never included.
type questionView struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Prompt   string   `json:"prompt"`
	Choices  []string `json:"choices,omitempty"`
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Response *string  `json:"response,omitempty"`
	Correct  *bool    `json:"correct,omitempty"`
	Score    *int     `json:"score,omitempty"`
	Feedback string   `json:"feedback,omitempty"`
	Deadline string   `json:"deadline"`
}

type feedbackView struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Score      *int   `json:"score,omitempty"`
	Feedback   string `json:"feedback"`
}

type resultView struct {
	QuizID         string `json:"quizId"`
	Score          int    `json:"score"`
	Passed         bool   `json:"passed"`
	CorrectCount   int    `json:"correctCount"`
	TotalQuestions int    `json:"totalQuestions"`
	UnlockedLevel  int    `json:"unlockedLevel"`
	AverageScore   int    `json:"averageScore"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz attempt
// over the connection: a question is pushed on connect, answer/next/prev
// messages move through the quiz, and the final result arrives either after
// the last question or when the time limit fires.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learnerId")
	subject := r.URL.Query().Get("subject")
	educationLevel := r.URL.Query().Get("level")
	if learnerID == "" || subject == "" {
		http.Error(w, "missing learnerId or subject", http.StatusBadRequest)
		return
	}
	difficulty, _ := strconv.Atoi(r.URL.Query().Get("difficulty"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartQuiz(r.Context(), learnerID, educationLevel, subject, difficulty)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	timerDone := make(chan struct{})

	// Single writer goroutine; everything else funnels through send.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The deadline timer performs the timeout transition. Expiry waits on the
	// session mutex, so a verdict in flight lands before questions are filled.
	timer := time.NewTimer(time.Until(session.Deadline()))
	defer timer.Stop()
	go func() {
		defer close(timerDone)
		select {
		case <-timer.C:
			if session.ExpireByTimeout() {
				h.finalize(r.Context(), session, send, closeSignals)
			}
		case <-closeSignals:
		}
	}()

	h.pushQuestion(session, send, closeSignals)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			q, err := session.SubmitAnswer(r.Context(), payload.Response)
			if err != nil {
				trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			trySend(send, closeSignals, outboundMessage[any]{Type: "feedback", Payload: feedbackView{
				QuestionID: q.ID,
				Correct:    q.Correct != nil && *q.Correct,
				Score:      q.Score,
				Feedback:   q.Feedback,
			}})
		case "next":
			done, err := session.Advance()
			if err != nil {
				trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			if done {
				h.finalize(r.Context(), session, send, closeSignals)
				continue
			}
			h.pushQuestion(session, send, closeSignals)
		case "prev":
			session.Retreat()
			h.pushQuestion(session, send, closeSignals)
		default:
			trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-timerDone
	close(send)
	<-writerDone
}

func (h *WSHandler) pushQuestion(session *app.Session, send chan outboundMessage[any], closeSignals chan struct{}) {
	if session.Completed() {
		return
	}
	q, idx := session.Current()
	view := questionView{
		ID:       q.ID,
		Type:     string(q.Type),
		Prompt:   q.Prompt,
		Choices:  q.Choices,
		Index:    idx,
		Total:    session.Quiz().TotalQuestions,
		Response: q.Response,
		Correct:  q.Correct,
		Score:    q.Score,
		Feedback: q.Feedback,
		Deadline: session.Deadline().Format(time.RFC3339),
	}
	trySend(send, closeSignals, outboundMessage[any]{Type: "question", Payload: view})
}

// finalize hands the completed quiz to the progression engine and pushes the
// result. A persistence failure is reported as a warning alongside the result,
// never instead of it.
func (h *WSHandler) finalize(ctx context.Context, session *app.Session, send chan outboundMessage[any], closeSignals chan struct{}) {
	rec, progress, err := h.service.CompleteQuiz(ctx, session)
	if err != nil && !errors.Is(err, domain.ErrPersistenceFailed) {
		return // already finalized elsewhere
	}
	if errors.Is(err, domain.ErrPersistenceFailed) {
		log.Printf("persist quiz result for learner %s: %v", session.LearnerID(), err)
		trySend(send, closeSignals, outboundMessage[any]{Type: "warning", Payload: errorPayload{Message: "your result could not be saved"}})
	}
	trySend(send, closeSignals, outboundMessage[any]{Type: "result", Payload: resultView{
		QuizID:         session.Quiz().ID,
		Score:          rec.Score,
		Passed:         rec.Passed,
		CorrectCount:   rec.CorrectCount,
		TotalQuestions: rec.TotalQuestions,
		UnlockedLevel:  progress.UnlockedLevel,
		AverageScore:   progress.AverageScore,
	}})
}

func trySend(send chan outboundMessage[any], closeSignals chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-closeSignals:
	}
}
