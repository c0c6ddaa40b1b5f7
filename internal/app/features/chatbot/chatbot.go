// internal/app/features/chatbot/chatbot.go
package chatbot

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/htmlsanitize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/normalize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var companyPattern = regexp.MustCompile(`(?i)(?:about|for)\s+([a-zA-Z.]+)`)

// CompanyFrom pulls the company out of prompts like "tell me about Zoho".
func CompanyFrom(prompt string) (string, bool) {
	m := companyPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

type askInput struct {
	UserPrompt string `json:"userPrompt" validate:"required,max=2000"`
}

type answerView struct {
	Company     string `json:"company"`
	Experiences int    `json:"experiences"`
	Response    string `json:"response"` // sanitized HTML
}

// Ask handles POST /api/chatbot.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil {
		respond.Fail(w, http.StatusServiceUnavailable, "The interview assistant is not configured")
		return
	}
	var in askInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	company, ok := CompanyFrom(in.UserPrompt)
	if !ok {
		company = h.Cfg.DefaultCompany
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "chatbot")
	defer cancel()

	exps, err := h.Experiences.ApprovedForCompany(ctx, normalize.NameCI(company), h.Cfg.MaxExperiences)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if len(exps) == 0 {
		respond.OK(w, answerView{
			Company:  company,
			Response: htmlsanitize.PlainTextToHTML(fmt.Sprintf("No approved interview experiences found for %q.", company)),
		})
		return
	}

	resp, err := h.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: h.Cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(in.UserPrompt, exps)},
		},
		MaxTokens: 800,
	})
	if err != nil {
		h.Log.Warn("chat completion failed", zap.String("company", company), zap.Error(err))
		respond.Error(w, h.Log, apperr.Internal(err, "chat completion"))
		return
	}

	reply := "Sorry, I couldn't find a clear answer."
	if len(resp.Choices) > 0 && strings.TrimSpace(resp.Choices[0].Message.Content) != "" {
		reply = resp.Choices[0].Message.Content
	}
	respond.OK(w, answerView{
		Company:     company,
		Experiences: len(exps),
		Response:    htmlsanitize.Sanitize(htmlsanitize.PlainTextToHTML(reply)),
	})
}

const systemPrompt = `You are a helpful and friendly assistant that summarizes real interview experiences shared by students.
Answer in a clear, student-friendly manner:
1. Mention how many rounds occurred and their types.
2. Highlight important technical or HR questions and topics.
3. Add useful preparation tips for that company.`

func buildPrompt(question string, exps []models.Experience) string {
	var b strings.Builder
	for i, e := range exps {
		fmt.Fprintf(&b, "Experience %d (Company: %s):\n%s\n", i+1, e.CompanyNameCached, htmlsanitize.StripTags(e.Content))
		if len(e.Questions) > 0 {
			fmt.Fprintf(&b, "Questions asked: %s\n", strings.Join(e.Questions, "; "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "---\nUser asked: %q", question)
	return b.String()
}
