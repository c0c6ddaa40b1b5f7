package chatbot_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Saravanans7/PlaceMate/internal/app/features/chatbot"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/sashabaranov/go-openai"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	reply string
	err   error
	got   []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
	}}, nil
}

func TestCompanyFrom(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
		ok     bool
	}{
		{"Tell me about Vel.ai interview", "vel.ai", true},
		{"tips FOR Zoho please", "zoho", true},
		{"how hard is it?", "", false},
	}
	for _, tt := range tests {
		got, ok := chatbot.CompanyFrom(tt.prompt)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CompanyFrom(%q) = %q, %v; want %q, %v", tt.prompt, got, ok, tt.want, tt.ok)
		}
	}
}

func seedExperience(t *testing.T, db *mongo.Database, company, status, content string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err := db.Collection("interview_experiences").InsertOne(ctx, models.Experience{
		ID:                primitive.NewObjectID(),
		Student:           primitive.NewObjectID(),
		CompanyNameCached: company,
		CompanyNameCI:     strings.ToLower(company),
		Title:             "Drive",
		Content:           content,
		Status:            status,
	})
	if err != nil {
		t.Fatalf("seed experience: %v", err)
	}
}

func newRouter(t *testing.T, db *mongo.Database, c chatbot.Completer) chi.Router {
	t.Helper()
	h := chatbot.NewHandler(db, chatbot.Config{}, zap.NewNop())
	if c != nil {
		h.Client = c
	}
	return chatbot.Routes(h, testutil.NewSessionManager(t))
}

func TestAsk(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedExperience(t, db, "Zoho", models.ExperienceApproved, "<p>Three rounds: aptitude, coding, HR.</p>")
	seedExperience(t, db, "Zoho", models.ExperiencePending, "<p>secret pending text</p>")
	user := testutil.StudentUser()

	fake := &fakeCompleter{reply: "Expect **three** rounds.\n<script>x()</script>"}
	r := newRouter(t, db, fake)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/",
		map[string]any{"userPrompt": "Tell me about Zoho"}, user))
	rec.AssertStatus(t, http.StatusOK)

	var got struct {
		Company     string `json:"company"`
		Experiences int    `json:"experiences"`
		Response    string `json:"response"`
	}
	rec.DecodeData(t, &got)
	if got.Company != "zoho" || got.Experiences != 1 {
		t.Errorf("answer = %+v", got)
	}
	if strings.Contains(got.Response, "<script>") || !strings.Contains(got.Response, "three") {
		t.Errorf("response not sanitized: %q", got.Response)
	}
	if len(fake.got) != 1 {
		t.Fatalf("completions = %d, want 1", len(fake.got))
	}
	prompt := fake.got[0].Messages[1].Content
	if !strings.Contains(prompt, "aptitude, coding, HR") || strings.Contains(prompt, "secret pending") {
		t.Errorf("prompt = %q", prompt)
	}

	// No experiences: answered without calling the model.
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/",
		map[string]any{"userPrompt": "what about Infosys"}, user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "No approved interview experiences")
	if len(fake.got) != 1 {
		t.Errorf("completions = %d, want 1", len(fake.got))
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/", map[string]any{}, user))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/", map[string]any{"userPrompt": "about Zoho"}))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestAsk_Failures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedExperience(t, db, "Zoho", models.ExperienceApproved, "<p>Two rounds.</p>")
	user := testutil.StudentUser()
	body := map[string]any{"userPrompt": "about zoho"}

	rec := testutil.NewRecorder()
	newRouter(t, db, nil).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/", body, user))
	rec.AssertStatus(t, http.StatusServiceUnavailable)

	rec = testutil.NewRecorder()
	newRouter(t, db, &fakeCompleter{err: errors.New("upstream 500")}).
		ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/", body, user))
	rec.AssertStatus(t, http.StatusInternalServerError)
	if strings.Contains(rec.Body.String(), "upstream") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}
