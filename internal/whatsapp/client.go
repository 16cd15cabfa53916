// Package whatsapp connects the intake conversation to the WhatsApp Cloud API:
// outbound text replies, media downloads and the inbound webhook.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/platform/config"
	"nirvana_backend/platform/logger"
	"nirvana_backend/platform/phone"
)

// MaxMediaBytes caps a single media download. WhatsApp allows up to 16 MB
// for audio and 5 MB for images.
const MaxMediaBytes = 16 << 20

// maxTextRunes is the Cloud API limit for a text message body.
const maxTextRunes = 4096

type Client struct {
	graphURL      string
	accessToken   string
	phoneNumberID string
	http          *http.Client
	log           *logger.Logger
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type mediaInfo struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// NewClient returns nil when the Cloud API is not configured; a nil client
// accepts sends as no-ops.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppAccessToken() == "" || cfg.GetWhatsAppPhoneNumberID() == "" {
		return nil
	}

	return &Client{
		graphURL:      strings.TrimRight(cfg.GetWhatsAppGraphURL(), "/"),
		accessToken:   cfg.GetWhatsAppAccessToken(),
		phoneNumberID: cfg.GetWhatsAppPhoneNumberID(),
		http:          &http.Client{Timeout: 30 * time.Second},
		log:           log,
	}
}

// SendMessage sends a text message. Bodies longer than the API limit are
// split on line boundaries.
func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	to := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")
	for _, part := range splitMessage(message, maxTextRunes) {
		if err := c.sendText(ctx, to, part); err != nil {
			return err
		}
	}

	c.log.Debug("whatsapp reply sent", "to", logger.MaskSender(to))
	return nil
}

func (c *Client) sendText(ctx context.Context, to, text string) error {
	payload := sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return responseError("send message", resp)
	}
	return nil
}

// Resolve downloads a media attachment: the media ID is exchanged for a
// short-lived URL, which is then fetched with the same bearer token.
func (c *Client) Resolve(ctx context.Context, mediaID string) (ports.Media, error) {
	if c == nil {
		return ports.Media{}, ports.ErrNotConfigured
	}
	if mediaID == "" {
		return ports.Media{}, fmt.Errorf("media id is empty")
	}

	info, err := c.mediaInfo(ctx, mediaID)
	if err != nil {
		return ports.Media{}, err
	}
	if info.FileSize > MaxMediaBytes {
		return ports.Media{}, fmt.Errorf("media %s is %d bytes, limit is %d", mediaID, info.FileSize, MaxMediaBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return ports.Media{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.Media{}, fmt.Errorf("download media: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusBadRequest {
		return ports.Media{}, responseError("download media", resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxMediaBytes+1))
	if err != nil {
		return ports.Media{}, fmt.Errorf("read media: %w", err)
	}
	if len(data) > MaxMediaBytes {
		return ports.Media{}, fmt.Errorf("media %s exceeds %d bytes", mediaID, MaxMediaBytes)
	}

	mimeType := info.MIMEType
	if mimeType == "" {
		mimeType = resp.Header.Get("Content-Type")
	}
	return ports.Media{Data: data, MIMEType: mimeType}, nil
}

func (c *Client) mediaInfo(ctx context.Context, mediaID string) (mediaInfo, error) {
	url := fmt.Sprintf("%s/%s", c.graphURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return mediaInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return mediaInfo{}, fmt.Errorf("media lookup failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusBadRequest {
		return mediaInfo{}, responseError("media lookup", resp)
	}

	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return mediaInfo{}, fmt.Errorf("decode media info: %w", err)
	}
	if info.URL == "" {
		return mediaInfo{}, fmt.Errorf("media %s has no download url", mediaID)
	}
	return info, nil
}

func responseError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ge graphError
	if json.Unmarshal(data, &ge) == nil && ge.Error.Message != "" {
		return fmt.Errorf("whatsapp %s returned %d: %s (code %d)", op, resp.StatusCode, ge.Error.Message, ge.Error.Code)
	}
	return fmt.Errorf("whatsapp %s returned %d: %s", op, resp.StatusCode, strings.TrimSpace(string(data)))
}

// splitMessage breaks text into chunks of at most limit runes, preferring
// newline boundaries.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if rest := strings.TrimRight(string(runes), "\n"); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
