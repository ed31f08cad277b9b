package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// IAM tokens are valid for up to 12h; Yandex asks clients to renew hourly.
const iamRefreshEvery = time.Hour

type YandexClient struct {
	ya yagpt.YaGPTFace

	mu       sync.Mutex
	issue    func() (string, error)
	iamToken string
	issuedAt time.Time
	now      func() time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	c := &YandexClient{
		ya: ya,
		issue: func() (string, error) {
			resp, err := iam.Create()
			if err != nil {
				return "", err
			}
			return resp.IamToken, nil
		},
		now: time.Now,
	}
	if _, err := c.token(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *YandexClient) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.iamToken != "" && c.now().Sub(c.issuedAt) < iamRefreshEvery {
		return c.iamToken, nil
	}
	tok, err := c.issue()
	if err != nil {
		if c.iamToken != "" {
			// the previous token outlives the refresh point by hours
			return c.iamToken, nil
		}
		return "", fmt.Errorf("failed to create iam token: %w", err)
	}
	c.iamToken, c.issuedAt = tok, c.now()
	return tok, nil
}

// Generate sends the conversation as is. The yagpt completion call has no
// sampling knobs, so params are not forwarded.
func (c *YandexClient) Generate(ctx context.Context, messages []Message, _ Params) (Response, error) {
	tok, err := c.token()
	if err != nil {
		return Response{}, &StatusError{StatusCode: 401, Err: err}
	}

	msgs := make([]yagpt.Message, len(messages))
	for i, m := range messages {
		msgs[i] = yagpt.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := c.ya.CompletionWithCtx(ctx, tok, msgs)
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, errors.New("yagpt returned no alternatives")
	}
	return Response{
		Content:          resp.Alternatives[0].Message.Content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}
