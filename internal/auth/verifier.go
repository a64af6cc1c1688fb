package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// HTTPVerifier calls the identity provider's token-verification endpoint
// (AUTH_VERIFY_URL). The provider owns credentials and sessions; we only
// exchange an opaque token for a uid and a verified email.
type HTTPVerifier struct {
	verifyURL  string
	httpClient *http.Client
}

func NewHTTPVerifier() *HTTPVerifier {
	return &HTTPVerifier{
		verifyURL: os.Getenv("AUTH_VERIFY_URL"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, string, error) {
	if v.verifyURL == "" {
		return "", "", fmt.Errorf("AUTH_VERIFY_URL not set")
	}
	if token == "" {
		return "", "", fmt.Errorf("empty token")
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewBuffer(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var verifyResp struct {
		UID   string `json:"uid"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return "", "", fmt.Errorf("failed to decode verify response: %w", err)
	}
	if verifyResp.UID == "" || verifyResp.Email == "" {
		return "", "", fmt.Errorf("identity provider returned an incomplete identity")
	}
	return verifyResp.UID, verifyResp.Email, nil
}
