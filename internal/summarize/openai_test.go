package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"clipnote/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func fakeClient(fn roundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestParseKeyPoints(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "numbered list",
			in:   "1. First point\n2. Second point\n3. Third point",
			want: []string{"First point", "Second point", "Third point"},
		},
		{
			name: "bullets and blanks",
			in:   "- alpha\n\n* beta\n• gamma",
			want: []string{"alpha", "beta", "gamma"},
		},
		{
			name: "caps at five",
			in:   "1) a\n2) b\n3) c\n4) d\n5) e\n6) f",
			want: []string{"a", "b", "c", "d", "e"},
		},
		{
			name: "plain lines pass through",
			in:   "no markers here",
			want: []string{"no markers here"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseKeyPoints(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseKeyPoints(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSummarizeRunsThreeCalls(t *testing.T) {
	var calls int32
	client := NewOpenAIClient(OpenAIOptions{
		APIKey: "test-key",
		HTTPClient: fakeClient(func(r *http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Authorization = %q", got)
			}
			body, _ := io.ReadAll(r.Body)
			var req chatRequest
			if err := json.Unmarshal(body, &req); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			switch req.MaxTokens {
			case summaryMaxTokens:
				return jsonResponse(200, completionBody("A long summary.")), nil
			case oneLineMaxTokens:
				return jsonResponse(200, completionBody("One line.")), nil
			case keyPointsMaxTokens:
				return jsonResponse(200, completionBody("1. first\n2. second")), nil
			default:
				t.Errorf("unexpected max_tokens %d", req.MaxTokens)
				return jsonResponse(200, completionBody("x")), nil
			}
		}),
	})

	src := Source{Title: "T", URL: "https://example.com", Text: "body", Kind: domain.MemoKindWebsite}
	res, err := client.Summarize(context.Background(), src, domain.LanguageEnglish)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Summary != "A long summary." || res.OneLineSummary != "One line." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if want := []string{"first", "second"}; !reflect.DeepEqual(res.KeyPoints, want) {
		t.Fatalf("KeyPoints = %v, want %v", res.KeyPoints, want)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestChatCompletionRetriesWithOutputTokensParam(t *testing.T) {
	var requests []chatRequest
	client := NewOpenAIClient(OpenAIOptions{
		APIKey: "test-key",
		HTTPClient: fakeClient(func(r *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(r.Body)
			var req chatRequest
			_ = json.Unmarshal(body, &req)
			requests = append(requests, req)
			if req.MaxTokens != 0 {
				return jsonResponse(400, `{"error":{"message":"Unsupported parameter: 'max_tokens'. Use 'max_output_tokens' instead."}}`), nil
			}
			return jsonResponse(200, completionBody("answer text")), nil
		}),
	})

	got, err := client.Answer(context.Background(), "ctx", "question")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "answer text" {
		t.Fatalf("Answer = %q", got)
	}
	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(requests))
	}
	if requests[1].MaxOutputTokens != answerMaxTokens || requests[1].MaxTokens != 0 {
		t.Fatalf("retry did not swap token parameter: %+v", requests[1])
	}
}

func TestSummarizeWithoutAPIKey(t *testing.T) {
	client := NewOpenAIClient(OpenAIOptions{})
	_, err := client.Summarize(context.Background(), Source{Text: "x"}, domain.LanguageEnglish)
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestUnauthorizedMapsToMissingKey(t *testing.T) {
	client := NewOpenAIClient(OpenAIOptions{
		APIKey: "bad-key",
		HTTPClient: fakeClient(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(401, `{"error":{"message":"invalid api key"}}`), nil
		}),
	})
	_, err := client.Answer(context.Background(), "ctx", "q")
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestServerErrorMapsToProviderFailure(t *testing.T) {
	client := NewOpenAIClient(OpenAIOptions{
		APIKey: "test-key",
		HTTPClient: fakeClient(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(500, `{"error":{"message":"internal"}}`), nil
		}),
	})
	_, err := client.Answer(context.Background(), "ctx", "q")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
}
