// internal/app/features/chatbot/handler.go
package chatbot

import (
	"context"

	experiencestore "github.com/Saravanans7/PlaceMate/internal/app/store/experiences"
	"github.com/sashabaranov/go-openai"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Completer is the part of the OpenAI client the chatbot uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config selects the chat model. An empty APIKey disables the chatbot.
type Config struct {
	APIKey         string
	BaseURL        string // OpenAI-compatible endpoint; empty means api.openai.com
	Model          string
	MaxExperiences int
	DefaultCompany string
}

// Handler answers questions about a company from approved interview
// experiences.
type Handler struct {
	Experiences *experiencestore.Store
	Client      Completer // nil when no API key is configured
	Cfg         Config
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, cfg Config, logger *zap.Logger) *Handler {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxExperiences <= 0 {
		cfg.MaxExperiences = 10
	}
	if cfg.DefaultCompany == "" {
		cfg.DefaultCompany = "presidio"
	}
	h := &Handler{
		Experiences: experiencestore.New(db),
		Cfg:         cfg,
		Log:         logger,
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		h.Client = openai.NewClientWithConfig(oc)
	}
	return h
}
