package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/pkg/utils"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// send posts one message to the Send API.
func (t *Transport) send(ctx context.Context, recipientID string, msg *OutMessage) (*SendResult, error) {
	proof, err := utils.GetMessageDigestOrSignature([]byte(t.cfg.PageAccessToken), []byte(t.cfg.AppSecret))
	if err != nil {
		return nil, fmt.Errorf("appsecret_proof: %w", err)
	}

	query := url.Values{}
	query.Set("access_token", t.cfg.PageAccessToken)
	query.Set("appsecret_proof", proof)
	endpoint := t.cfg.URL + t.cfg.Version + "/me/messages?" + query.Encode()

	body, err := json.Marshal(SendRequest{
		MessagingType: "RESPONSE",
		Recipient:     Party{ID: recipientID},
		Message:       msg,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, pkgError.WebhookError(fmt.Sprintf("send api request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgError.WebhookError(fmt.Sprintf("send api returned status %d: %s", resp.StatusCode, string(raw)))
	}

	var result SendResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, pkgError.WebhookError(fmt.Sprintf("send api returned invalid body: %v", err))
		}
	}
	return &result, nil
}
