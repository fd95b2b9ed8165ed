package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/wikilens/wikilens/internal/model"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := openai.ChatCompletionResponse{
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testLLMConfig(baseURL string) model.LLMConfig {
	return model.LLMConfig{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Timeout:  5 * time.Second,
	}
}

func TestOpenAIProvider_VerifyClaim(t *testing.T) {
	srv := chatServer(t, `{
		"verdict": "supports",
		"confidence": 0.85,
		"content_summary": "The article reports the treaty signing in detail.",
		"explanation": "The source states the same date and parties."
	}`)
	defer srv.Close()

	p, err := NewOpenAIProvider("openai", testLLMConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	res, err := p.VerifyClaim(context.Background(), VerifyRequest{
		Claim:     "The treaty was signed in 1848.",
		SourceURL: "https://history.example.com/treaty",
	})
	if err != nil {
		t.Fatalf("VerifyClaim: %v", err)
	}
	if res.Verdict != model.VerdictSupports {
		t.Errorf("verdict = %q", res.Verdict)
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v", res.Confidence)
	}
	if res.Summary == "" || res.Explanation == "" {
		t.Errorf("missing summary or explanation: %+v", res)
	}
}

func TestOpenAIProvider_VerifyClaim_OffMenuVerdict(t *testing.T) {
	srv := chatServer(t, `{"verdict": "partially_supports", "confidence": 0.6, "explanation": "mixed"}`)
	defer srv.Close()

	p, err := NewOpenAIProvider("openai", testLLMConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	res, err := p.VerifyClaim(context.Background(), VerifyRequest{Claim: "x"})
	if err != nil {
		t.Fatalf("VerifyClaim: %v", err)
	}
	if res.Verdict != model.VerdictInsufficient {
		t.Errorf("off-menu verdict mapped to %q, want insufficient_evidence", res.Verdict)
	}
}

func TestOpenAIProvider_DetectBias_FencedJSON(t *testing.T) {
	srv := chatServer(t, "```json\n{\"findings\": [{\"type\": \"loaded_language\", \"text\": \"brutal regime\", \"start\": 10, \"end\": 23, \"confidence\": 0.9, \"lean\": \"left\", \"explanation\": \"charged wording\"}]}\n```")
	defer srv.Close()

	p, err := NewOpenAIProvider("openai", testLLMConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	findings, err := p.DetectBias(context.Background(), BiasRequest{Topic: "t", Text: "some text"})
	if err != nil {
		t.Fatalf("DetectBias: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %+v", findings)
	}
	f := findings[0]
	if f.Type != model.BiasLoadedLanguage || f.Lean != model.LeanLeft || f.Confidence != 0.9 {
		t.Errorf("finding = %+v", f)
	}
}

func TestOpenAIProvider_DetectBias_EmptyFindings(t *testing.T) {
	srv := chatServer(t, `{"findings": []}`)
	defer srv.Close()

	p, err := NewOpenAIProvider("openai", testLLMConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	findings, err := p.DetectBias(context.Background(), BiasRequest{Text: "neutral text"})
	if err != nil {
		t.Fatalf("DetectBias: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
}

func TestOpenAIProvider_NonJSONResponse(t *testing.T) {
	srv := chatServer(t, "I could not analyze this text.")
	defer srv.Close()

	p, err := NewOpenAIProvider("openai", testLLMConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	if _, err := p.VerifyClaim(context.Background(), VerifyRequest{Claim: "x"}); err == nil {
		t.Error("expected error for non-JSON verification response")
	}
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	raw := `Here is the result you asked for: {"verdict": "supports", "confidence": 1.0} Hope that helps!`
	body, err := extractJSON(raw)
	if err != nil {
		t.Fatalf("extractJSON: %v", err)
	}
	var payload verifyPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Verdict != "supports" {
		t.Errorf("verdict = %q", payload.Verdict)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"openai", false},
		{"ollama", false},
		{"lmstudio", false},
		{"", true},
		{"claude", true},
	}
	for _, tt := range tests {
		cfg := model.LLMConfig{Provider: tt.provider, Model: "m", APIKey: "k"}
		_, err := NewProvider(cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewProvider(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
		}
	}
}

func TestNewOpenAIProvider_RequiresKeyAndModel(t *testing.T) {
	if _, err := NewOpenAIProvider("openai", model.LLMConfig{Model: "m"}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewOpenAIProvider("openai", model.LLMConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without model")
	}
}
