package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"prep-quiz-service/internal/app"
	"prep-quiz-service/internal/domain"
)

// WSHandler exposes the practice-session protocol over a websocket. It is
// also the submission boundary: a finish message that carries client-computed
// scores is re-validated against the engine's own grading before anything is
// persisted.
type WSHandler struct {
	service  *app.PracticeService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.PracticeService) *WSHandler {
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type configurePayload struct {
	Lectures []int `json:"lectures"`
}

type questionRefPayload struct {
	QuestionID string `json:"questionId"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
}

type finishPayload struct {
	SimpleScore  *float64 `json:"simpleScore"`
	DynamicScore *float64 `json:"dynamicScore"`
}

// lectureView is the setup-screen listing of a practiceable lecture.
type lectureView struct {
	Number        int    `json:"lectureNumber"`
	Title         string `json:"title"`
	Topics        string `json:"topics"`
	QuestionCount int    `json:"questionCount"`
}

// questionView is a pool question with the correct option and explanation
// stripped; those are only revealed in the post-grading review.
type questionView struct {
	ID      string            `json:"id"`
	Lecture int               `json:"lecture"`
	Section string            `json:"section"`
	Prompt  string            `json:"question"`
	Options map[string]string `json:"options"`
}

type reviewItem struct {
	QuestionID    string  `json:"questionId"`
	Correct       bool    `json:"correct"`
	Skipped       bool    `json:"skipped"`
	Answer        string  `json:"answer"`
	CorrectAnswer string  `json:"correctAnswer"`
	Explanation   string  `json:"explanation"`
	Seconds       float64 `json:"seconds"`
	SpeedBonus    float64 `json:"speedBonus"`
}

type finishedPayload struct {
	Breakdown         domain.ScoreBreakdown `json:"breakdown"`
	Review            []reviewItem          `json:"review"`
	NewlyMastered     []string              `json:"newlyMastered"`
	CompletedLectures []int                 `json:"completedLectures"`
	MasteryPersisted  bool                  `json:"masteryPersisted"`
}

// ServeWS upgrades the request and drives one learner's practice protocol.
// The protocol is request/response on a single read loop, so writes never
// race.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learnerId")
	displayName := r.URL.Query().Get("name")
	if learnerID == "" || displayName == "" {
		http.Error(w, "missing learnerId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.service.Join(learnerID, displayName)
	defer h.service.Leave(learnerID)

	lectures, err := h.service.AvailableLectures(r.Context())
	if err != nil {
		writeError(conn, err)
		return
	}
	views := make([]lectureView, 0, len(lectures))
	for _, l := range lectures {
		views = append(views, lectureView{
			Number:        l.Number,
			Title:         l.Title,
			Topics:        l.Topics,
			QuestionCount: l.QuestionCount(),
		})
	}
	writeJSON(conn, "lectures", views)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "configure":
			var payload configurePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, errInvalidPayload)
				continue
			}
			if err := h.service.Configure(learnerID, payload.Lectures); err != nil {
				writeError(conn, err)
				continue
			}
			writeJSON(conn, "configured", payload)
		case "start":
			pool, err := h.service.Start(r.Context(), learnerID)
			if err != nil {
				writeError(conn, err)
				continue
			}
			sanitized := make([]questionView, 0, len(pool))
			for _, q := range pool {
				sanitized = append(sanitized, questionView{
					ID:      q.ID,
					Lecture: q.Lecture,
					Section: q.Section,
					Prompt:  q.Prompt,
					Options: q.Options,
				})
			}
			writeJSON(conn, "started", sanitized)
		case "view":
			var payload questionRefPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, errInvalidPayload)
				continue
			}
			if err := h.service.View(learnerID, payload.QuestionID); err != nil {
				writeError(conn, err)
				continue
			}
			writeJSON(conn, "viewing", payload)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, errInvalidPayload)
				continue
			}
			if err := h.service.Answer(learnerID, payload.QuestionID, payload.Option); err != nil {
				writeError(conn, err)
				continue
			}
			writeJSON(conn, "answerAck", payload)
		case "finish":
			h.handleFinish(r, conn, learnerID, inbound.Payload)
		case "leaderboard":
			boards, err := h.service.ShowLeaderboard(r.Context(), learnerID)
			if err != nil {
				writeError(conn, err)
				continue
			}
			writeJSON(conn, "leaderboard", boards)
		case "reset":
			if err := h.service.Reset(learnerID); err != nil {
				writeError(conn, err)
				continue
			}
			writeJSON(conn, "setup", struct{}{})
		default:
			writeError(conn, errUnsupportedType)
		}
	}
}

func (h *WSHandler) handleFinish(r *http.Request, conn *websocket.Conn, learnerID string, raw json.RawMessage) {
	var payload finishPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			writeError(conn, errInvalidPayload)
			return
		}
	}
	var claim *app.ScoreClaim
	if payload.SimpleScore != nil || payload.DynamicScore != nil {
		if payload.SimpleScore == nil || payload.DynamicScore == nil {
			writeError(conn, errIncompleteClaim)
			return
		}
		claim = &app.ScoreClaim{
			SimpleScore:  *payload.SimpleScore,
			DynamicScore: *payload.DynamicScore,
		}
	}

	pool, err := h.service.Pool(learnerID)
	if err != nil {
		writeError(conn, err)
		return
	}
	byID := make(map[string]domain.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}

	result, err := h.service.Finish(r.Context(), learnerID, claim)
	if err != nil {
		writeError(conn, err)
		return
	}

	review := make([]reviewItem, 0, len(result.Attempt.Breakdown.Results))
	for _, res := range result.Attempt.Breakdown.Results {
		item := reviewItem{
			QuestionID: res.QuestionID,
			Correct:    res.Correct,
			Skipped:    res.Skipped,
			Answer:     res.Answer,
			Seconds:    res.Seconds,
			SpeedBonus: res.SpeedBonus,
		}
		if q, ok := byID[res.QuestionID]; ok {
			item.CorrectAnswer = q.CorrectOption
			item.Explanation = q.Explanation
		}
		review = append(review, item)
	}

	writeJSON(conn, "finished", finishedPayload{
		Breakdown:         result.Attempt.Breakdown,
		Review:            review,
		NewlyMastered:     result.Mastery.NewlyMastered,
		CompletedLectures: result.Mastery.CompletedLectures,
		MasteryPersisted:  result.MasteryPersisted,
	})
}

var (
	errInvalidPayload  = errors.New("invalid payload")
	errUnsupportedType = errors.New("unsupported message type")
	errIncompleteClaim = errors.New("score claim requires both simpleScore and dynamicScore")
)

func writeJSON[T any](conn *websocket.Conn, msgType string, payload T) {
	if err := conn.WriteJSON(outboundMessage[T]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func writeError(conn *websocket.Conn, err error) {
	writeJSON(conn, "error", errorPayload{Message: err.Error()})
}
