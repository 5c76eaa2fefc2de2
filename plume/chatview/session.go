package chatview

import (
	"context"
	"strings"

	"plume/plume/client"
	"plume/plume/services/llm"
	"plume/plume/sources/mongo/models"
	"plume/plume/utils/types"
)

// Message is one finished question/answer exchange accumulated locally
// before the persisted transcript is re-read.
type Message struct {
	Question    string
	Answer      string
	ImgFilePath string
}

// UploadedImage describes an image already uploaded to the image host:
// FilePath is what gets persisted on the user turn, the inline payload (if
// any) is what the generation service sees.
type UploadedImage struct {
	FilePath string
	MIMEType string
	Data     string // base64
}

// Session drives one chat: it streams completions for submitted prompts,
// accumulates the chunks, and persists the finished exchange. Rendering
// happens only after a stream ends; partial buffers are never exposed.
type Session struct {
	api      *client.Client
	gen      llm.Generator
	chat     *models.Chat
	messages []Message
}

func NewSession(api *client.Client, gen llm.Generator, chat *models.Chat) *Session {
	return &Session{api: api, gen: gen, chat: chat}
}

// Init auto-triggers generation when the loaded transcript holds exactly one
// turn: the initial user prompt nothing has answered yet.
func (s *Session) Init(ctx context.Context) error {
	if len(s.chat.History) != 1 {
		return nil
	}
	text := ""
	if len(s.chat.History[0].Parts) > 0 {
		text = s.chat.History[0].Parts[0].Text
	}
	return s.send(ctx, text, true, nil)
}

// Send submits a new user prompt, optionally with an uploaded image.
func (s *Session) Send(ctx context.Context, text string, img *UploadedImage) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.send(ctx, text, false, img)
}

func (s *Session) send(ctx context.Context, text string, initial bool, img *UploadedImage) error {
	contents := s.promptContents(text, initial, img)

	ch, errCh := s.gen.RunStream(ctx, contents)
	var answer strings.Builder
	for chunk := range ch {
		answer.WriteString(chunk)
	}
	if err := <-errCh; err != nil {
		return err
	}

	msg := Message{Question: text, Answer: answer.String()}
	if img != nil {
		msg.ImgFilePath = img.FilePath
	}

	// Guard against double invocation: an identical question/answer pair is
	// not appended to local state a second time.
	if !s.hasMessage(msg) {
		s.messages = append(s.messages, msg)
	}

	return s.persist(ctx, msg, initial)
}

// promptContents assembles the role-tagged history for the generation call:
// stored turns, locally accumulated exchanges, then the new message. For the
// initial prompt the stored history already ends with the user turn.
func (s *Session) promptContents(text string, initial bool, img *UploadedImage) []llm.Content {
	var contents []llm.Content
	for _, turn := range s.chat.History {
		c := llm.Content{Role: turn.Role}
		for _, part := range turn.Parts {
			c.Parts = append(c.Parts, llm.Part{Text: part.Text})
		}
		contents = append(contents, c)
	}
	for _, msg := range s.messages {
		contents = append(contents,
			llm.Content{Role: models.RoleUser, Parts: []llm.Part{{Text: msg.Question}}},
			llm.Content{Role: models.RoleModel, Parts: []llm.Part{{Text: msg.Answer}}},
		)
	}
	if initial {
		return contents
	}

	next := llm.Content{Role: models.RoleUser}
	if img != nil && img.Data != "" {
		next.Parts = append(next.Parts, llm.Part{
			InlineData: &llm.Blob{MIMEType: img.MIMEType, Data: img.Data},
		})
	}
	next.Parts = append(next.Parts, llm.Part{Text: text})
	return append(contents, next)
}

func (s *Session) hasMessage(msg Message) bool {
	for _, m := range s.messages {
		if m.Question == msg.Question && m.Answer == msg.Answer {
			return true
		}
	}
	return false
}

// persist appends the finished exchange to the stored transcript. The
// initial prompt's user turn already exists from chat creation, so only the
// model turn is sent for it.
func (s *Session) persist(ctx context.Context, msg Message, initial bool) error {
	req := types.AppendTurnRequest{Answer: &msg.Answer, Img: msg.ImgFilePath}
	if !initial {
		question := msg.Question
		req.Question = &question
	}
	return s.api.AppendTurn(ctx, s.chat.ID.Hex(), req)
}

// Messages returns the exchanges accumulated since the transcript was
// loaded.
func (s *Session) Messages() []Message {
	return s.messages
}
