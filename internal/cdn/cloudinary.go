// Package cdn uploads cover images to Cloudinary and returns their public
// URL. Uploads are unsigned, scoped by an upload preset.
package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// Uploader is a Cloudinary unsigned-upload client.
type Uploader struct {
	uploadURL  string
	preset     string
	httpClient *http.Client
}

// NewUploaderFromEnv builds an uploader from CLOUDINARY_CLOUD_NAME and
// CLOUDINARY_UPLOAD_PRESET, or returns nil when they are not set; cover
// uploads are optional.
func NewUploaderFromEnv() *Uploader {
	cloud := os.Getenv("CLOUDINARY_CLOUD_NAME")
	preset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	if cloud == "" || preset == "" {
		return nil
	}
	return &Uploader{
		uploadURL: fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cloud),
		preset:    preset,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload pushes the image and returns its public HTTPS URL.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write upload payload: %w", err)
	}
	if err := form.WriteField("upload_preset", u.preset); err != nil {
		return "", fmt.Errorf("failed to write upload preset: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call CDN: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("CDN returned status %d: %s", resp.StatusCode, string(body))
	}

	var uploadResp struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode CDN response: %w", err)
	}
	if uploadResp.SecureURL == "" {
		return "", fmt.Errorf("CDN response missing secure_url")
	}
	return uploadResp.SecureURL, nil
}
