// Package gemini implements the video-understanding collaborator: it
// uploads a video to the Gemini Files API, waits for it to become
// active, and asks the model for the time codes of scenes matching a
// user query. The returned time codes are untrusted text; parsing and
// validation happen downstream.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var (
	// ErrProcessingTimeout is returned when the uploaded file never
	// left the PROCESSING state within the retry budget.
	ErrProcessingTimeout = errors.New("gemini: file processing timed out")

	// ErrFileFailed is returned when the service rejected the upload.
	ErrFileFailed = errors.New("gemini: file processing failed")

	// ErrEmptyResponse is returned when the model produced no usable
	// text.
	ErrEmptyResponse = errors.New("gemini: empty model response")
)

const scenePromptTemplate = `You are a video search engine. Analyze the given video and identify the best scenes matching the user input in this video.
Provide the results ONLY in the following JSON format with NO explanation at all:
['00:10.105', '00:20.030']
Make sure:
1. return only the list of frames
2. Give unique and clear frames.
3. Keep at least 0.5 seconds between frames.
4. times are within the video duration (%.3f seconds).
5. Try to avoid blurry images, black screens, or frames with poor visibility.
User input: %s`

type Locator struct {
	client       *genai.Client
	model        string
	maxPolls     int
	pollInterval time.Duration
	logger       *zap.Logger
}

type Config struct {
	APIKey       string
	Model        string
	MaxPolls     int
	PollInterval time.Duration
}

func NewLocator(ctx context.Context, cfg Config, logger *zap.Logger) (*Locator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: missing API key")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Locator{
		client:       client,
		model:        cfg.Model,
		maxPolls:     cfg.MaxPolls,
		pollInterval: cfg.PollInterval,
		logger:       logger,
	}, nil
}

func (l *Locator) Close() error {
	return l.client.Close()
}

// LocateScenes uploads the video, waits for it to become ACTIVE, and
// returns the model's list of time-code strings.
func (l *Locator) LocateScenes(ctx context.Context, videoPath, query string, duration float64) ([]string, error) {
	file, err := l.uploadAndAwait(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	model := l.client.GenerativeModel(l.model)
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(400)

	prompt := fmt.Sprintf(scenePromptTemplate, duration, query)

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.FileData{URI: file.URI, MIMEType: file.MIMEType},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	timestamps, err := DecodeTimestamps(text)
	if err != nil {
		return nil, err
	}

	l.logger.Info("model returned scene timestamps",
		zap.Int("count", len(timestamps)),
		zap.String("query", query),
	)
	return timestamps, nil
}

// uploadAndAwait pushes the video through the Files API state machine:
// upload, then poll at a fixed interval until ACTIVE, FAILED, or the
// retry budget runs out.
func (l *Locator) uploadAndAwait(ctx context.Context, videoPath string) (*genai.File, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	file, err := l.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		MIMEType: "video/mp4",
	})
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}
	l.logger.Info("video uploaded", zap.String("file", file.Name))

	for attempt := 0; file.State == genai.FileStateProcessing; attempt++ {
		if attempt >= l.maxPolls {
			return nil, fmt.Errorf("%w after %d polls", ErrProcessingTimeout, l.maxPolls)
		}

		l.logger.Debug("waiting for file to become active",
			zap.Any("state", file.State),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", l.maxPolls),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}

		file, err = l.client.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("poll file state: %w", err)
		}
	}

	if file.State != genai.FileStateActive {
		return nil, fmt.Errorf("%w: state %v", ErrFileFailed, file.State)
	}
	return file, nil
}

// responseText flattens the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// DecodeTimestamps converts the model's reply into a list of time-code
// strings. The model is asked for a bare JSON array but routinely
// wraps it in markdown fences and uses single quotes; both are
// normalized before decoding.
func DecodeTimestamps(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.ReplaceAll(cleaned, "'", `"`)
	cleaned = strings.TrimSpace(cleaned)

	var timestamps []string
	if err := json.Unmarshal([]byte(cleaned), &timestamps); err != nil {
		return nil, fmt.Errorf("decode model response %q: %w", raw, err)
	}
	return timestamps, nil
}
