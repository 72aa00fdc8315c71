package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

const openAIProviderName = "openai"

// OpenAIChat sends each prompt as a single user message.
type OpenAIChat struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIChat(apiKey, model string) *OpenAIChat {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIChat{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   400,
		temperature: 0.4,
	}
}

func (o *OpenAIChat) Name() string { return openAIProviderName }

func (o *OpenAIChat) Close() error { return nil }

func (o *OpenAIChat) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", Wrap(openAIProviderName, err, classifyOpenAI)
	}
	if len(resp.Choices) == 0 {
		return "", &RemoteCallFailure{Kind: KindMalformed, Provider: openAIProviderName, Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAI(err error) (FailureKind, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return KindForHTTPStatus(apiErr.HTTPStatusCode), true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return KindForHTTPStatus(reqErr.HTTPStatusCode), true
	}
	return "", false
}
