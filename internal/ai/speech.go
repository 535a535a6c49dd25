package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-meeting/pkg/logger"
)

const (
	speechBaseURL = "https://speech.googleapis.com/v1"
	pollInterval  = 5 * time.Second
)

// SpeechClient transcribes recorded meeting audio through the Google
// Speech-to-Text long-running recognize REST API. Recordings are webm/opus at
// 48kHz, the format browsers produce from MediaRecorder.
type SpeechClient struct {
	apiKey       string
	languageCode string
	httpClient   *http.Client
	baseURL      string
}

func NewSpeechClient(apiKey, languageCode string) *SpeechClient {
	return &SpeechClient{
		apiKey:       apiKey,
		languageCode: languageCode,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		baseURL:      speechBaseURL,
	}
}

type recognizeRequest struct {
	Config recognizeConfig `json:"config"`
	Audio  recognizeAudio  `json:"audio"`
}

type recognizeConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type recognizeAudio struct {
	Content string `json:"content"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		Results []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"results"`
	} `json:"response"`
}

// Transcribe starts a long-running recognition job and polls it until it
// completes or ctx expires. The caller bounds the wait; jobs routinely take
// minutes for long recordings.
func (c *SpeechClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	req := recognizeRequest{
		Config: recognizeConfig{
			Encoding:                   "WEBM_OPUS",
			SampleRateHertz:            48000,
			LanguageCode:               c.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: recognizeAudio{Content: base64.StdEncoding.EncodeToString(audio)},
	}

	var op operation
	url := fmt.Sprintf("%s/speech:longrunningrecognize?key=%s", c.baseURL, c.apiKey)
	if err := c.post(ctx, url, req, &op); err != nil {
		return "", fmt.Errorf("failed to start transcription: %w", err)
	}

	logger.Info("Started transcription operation %s", op.Name)

	for !op.Done {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("transcription timed out: %w", ctx.Err())
		case <-time.After(pollInterval):
		}

		pollURL := fmt.Sprintf("%s/operations/%s?key=%s", c.baseURL, op.Name, c.apiKey)
		name := op.Name
		op = operation{Name: name}
		if err := c.get(ctx, pollURL, &op); err != nil {
			return "", fmt.Errorf("failed to poll transcription: %w", err)
		}
	}

	if op.Error != nil {
		return "", fmt.Errorf("transcription failed: %s", op.Error.Message)
	}
	if op.Response == nil {
		return "", nil
	}

	var parts []string
	for _, result := range op.Response.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

func (c *SpeechClient) post(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *SpeechClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *SpeechClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("speech API returned %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
