package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"plume/plume/config"
	"plume/plume/controllers"
	"plume/plume/middlewares"
	"plume/plume/services/llm"
	"plume/plume/sources/mongo/models"
	"plume/plume/utils/types"
)

// streamInput is the single frame the client sends after connecting: its
// session token plus the prompt. The image, when present, carries both the
// stored file path and the inline payload for the generation call.
type streamInput struct {
	Token    string `json:"token"`
	Question string `json:"question"`
	Img      *struct {
		FilePath string `json:"filePath"`
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"img,omitempty"`
}

// streamHandler relays generation chunks over a websocket and appends the
// finished exchange to the transcript once the stream ends. It lets
// deployments keep the generation key off the browser entirely.
func streamHandler(ctrl *controllers.ChatController, gen llm.Generator, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input streamInput
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}
		userID, err := middlewares.ParseSessionToken(cfg, input.Token)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}
		input.Question = strings.TrimSpace(input.Question)
		if input.Question == "" {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"empty question"}`))
			return
		}

		chatID, err := types.ParseChatID(chi.URLParam(r, "id"))
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid chat id"}`))
			return
		}
		chat, err := ctrl.GetChat(ctx, userID, chatID)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"chat not found"}`))
			conn.Close(websocket.StatusPolicyViolation, "chat not found")
			return
		}

		contents := historyContents(chat)
		next := llm.Content{Role: models.RoleUser}
		imgPath := ""
		if input.Img != nil {
			imgPath = input.Img.FilePath
			if input.Img.Data != "" {
				next.Parts = append(next.Parts, llm.Part{
					InlineData: &llm.Blob{MIMEType: input.Img.MIMEType, Data: input.Img.Data},
				})
			}
		}
		next.Parts = append(next.Parts, llm.Part{Text: input.Question})
		contents = append(contents, next)

		ch, errCh := gen.RunStream(ctx, contents)
		var answer strings.Builder
		for chunk := range ch {
			answer.WriteString(chunk)
			if err := conn.Write(ctx, websocket.MessageText, []byte(chunk)); err != nil {
				return
			}
		}
		if err := <-errCh; err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"`+err.Error()+`"}`))
			conn.Close(websocket.StatusInternalError, "stream error")
			return
		}

		// Persist even if the socket drops from here on; the exchange is
		// complete.
		persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		answerText := answer.String()
		req := types.AppendTurnRequest{
			Question: &input.Question,
			Answer:   &answerText,
			Img:      imgPath,
		}
		if err := ctrl.AppendTurn(persistCtx, userID, chatID, req); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"persist failed"}`))
			conn.Close(websocket.StatusInternalError, "persist error")
			return
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func historyContents(chat *models.Chat) []llm.Content {
	var contents []llm.Content
	for _, turn := range chat.History {
		c := llm.Content{Role: turn.Role}
		for _, part := range turn.Parts {
			c.Parts = append(c.Parts, llm.Part{Text: part.Text})
		}
		contents = append(contents, c)
	}
	return contents
}
