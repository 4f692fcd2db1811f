package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/yegors/batchscribe/internal/config"
	"github.com/yegors/batchscribe/pkg/logger"
)

// geminiEngine transcribes by sending the audio inline to the Gemini API and
// asking for a strict JSON segment array. The model provides no confidence
// values, so every segment passes the confidence check downstream.
type geminiEngine struct {
	client *genai.Client
	cfg    config.EngineConfig
	model  string
	logger *logger.Logger
}

func newGemini(cfg config.EngineConfig, model string, log *logger.Logger) (*geminiEngine, error) {
	apiKey := cfg.GeminiAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini backend requires an API key (gemini_api_key or GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiEngine{
		client: client,
		cfg:    cfg,
		model:  model,
		logger: log.Named("gemini"),
	}, nil
}

func (e *geminiEngine) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	prompt := fmt.Sprintf(
		"Transcribe this %s audio exactly. Respond with only a JSON array of objects "+
			`with keys "start", "end" (seconds as numbers) and "text", one object per `+
			"spoken segment, in time order. No commentary, no markdown.",
		e.cfg.Language)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(data, audioMIMEType(audioPath)),
		}, genai.RoleUser),
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(e.cfg.Temperature)),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini transcription failed: %w", err)
	}

	segments, err := parseSegmentArray(resp.Text())
	if err != nil {
		return nil, err
	}

	result := &Result{Language: e.cfg.Language, Segments: segments}
	if len(segments) > 0 {
		// The API reports no audio duration; the last segment end is the
		// closest available stand-in.
		result.Duration = segments[len(segments)-1].End
	}
	return result, nil
}

func (e *geminiEngine) Model() string { return e.model }

func (e *geminiEngine) Close() error { return nil }

// parseSegmentArray extracts the JSON array from the model response, which
// may be wrapped in prose or code fences despite the prompt.
func parseSegmentArray(content string) ([]Segment, error) {
	startIdx := strings.Index(content, "[")
	endIdx := strings.LastIndex(content, "]")
	if startIdx == -1 || endIdx == -1 || startIdx >= endIdx {
		return nil, fmt.Errorf("response does not contain a JSON array: %s", content)
	}

	var segments []Segment
	if err := json.Unmarshal([]byte(content[startIdx:endIdx+1]), &segments); err != nil {
		return nil, fmt.Errorf("failed to parse segment JSON: %w", err)
	}
	return segments, nil
}

func audioMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".opus":
		return "audio/opus"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
