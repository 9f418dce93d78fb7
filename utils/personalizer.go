package utils

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

// Personalizer writes the drip email for one lead and one step through the
// OpenAI API. It implements scheduler.ContentGenerator; callers fall back
// to the stock template whenever it errors.
type Personalizer struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

func NewPersonalizer(apiKey, model string, logger *logrus.Logger) *Personalizer {
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Personalizer{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

const personalizerSystemPrompt = `Tu es l'assistant commercial d'une agence ` +
	`immobilière de prestige. Rédige un court email de relance en français, ` +
	`chaleureux et professionnel, sans inventer de biens précis. Réponds ` +
	`uniquement au format:
SUJET: <sujet>
CORPS: <corps HTML>`

func (p *Personalizer) Personalize(ctx context.Context, lead *models.Lead, day int) (string, string, error) {
	prompt := fmt.Sprintf(
		"Contact: %s\nStatut: %s\nBudget annoncé: %s\nRelance automatique J+%d de la séquence de suivi.",
		lead.Name, lead.Status, lead.Budget, day,
	)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.7,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: personalizerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("chat completion returned no choices")
	}

	subject, body, err := parsePersonalization(resp.Choices[0].Message.Content)
	if err != nil {
		return "", "", err
	}

	p.logger.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"day":     day,
		"tokens":  resp.Usage.TotalTokens,
	}).Debug("personalized drip email")
	return subject, body, nil
}

func parsePersonalization(content string) (string, string, error) {
	subjectIdx := strings.Index(content, "SUJET:")
	bodyIdx := strings.Index(content, "CORPS:")
	if subjectIdx == -1 || bodyIdx == -1 || bodyIdx < subjectIdx {
		return "", "", fmt.Errorf("unexpected completion format")
	}
	subject := strings.TrimSpace(content[subjectIdx+len("SUJET:") : bodyIdx])
	body := strings.TrimSpace(content[bodyIdx+len("CORPS:"):])
	if subject == "" || body == "" {
		return "", "", fmt.Errorf("empty subject or body in completion")
	}
	return subject, body, nil
}
