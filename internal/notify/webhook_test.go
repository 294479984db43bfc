package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/domainkeeper/internal/metrics"
)

func newTestClient(endpoints []string) *WebhookClient {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewWebhookClient(http.DefaultClient, endpoints, metrics.Nop{}, logger)
}

func TestBroadcastSlackPayload(t *testing.T) {
	var received map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("リクエストボディのパースに失敗: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := newTestClient([]string{ts.URL})
	sent, err := c.Broadcast(context.Background(), "expiring soon")
	if err != nil {
		t.Fatalf("配信が失敗した: %v", err)
	}
	if sent != 1 {
		t.Errorf("成功数が不正: got %d, want 1", sent)
	}
	if received["text"] != "expiring soon" {
		t.Errorf("Slack形式のペイロードになっていない: %v", received)
	}
	if _, ok := received["content"]; ok {
		t.Error("Slackエンドポイントにcontentキーが含まれている")
	}
}

func TestBroadcastContinuesAfterFailure(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	var okCalls int
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okCalls++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ok.Close()

	c := newTestClient([]string{failing.URL, ok.URL})
	sent, err := c.Broadcast(context.Background(), "msg")
	if err == nil {
		t.Error("失敗したエンドポイントのエラーが返されなかった")
	}
	if sent != 1 {
		t.Errorf("成功数が不正: got %d, want 1", sent)
	}
	if okCalls != 1 {
		t.Errorf("失敗後のエンドポイントへ配信されていない: calls=%d", okCalls)
	}
}

func TestBroadcastNoEndpoints(t *testing.T) {
	c := newTestClient(nil)
	sent, err := c.Broadcast(context.Background(), "msg")
	if err != nil {
		t.Fatalf("エンドポイントなしでエラーが返された: %v", err)
	}
	if sent != 0 {
		t.Errorf("成功数が不正: got %d, want 0", sent)
	}
}

func TestPayloadFor(t *testing.T) {
	tests := []struct {
		endpoint string
		wantKey  string
	}{
		{"https://discord.com/api/webhooks/123/abc", "content"},
		{"https://discordapp.com/api/webhooks/123/abc", "content"},
		{"https://hooks.slack.com/services/T00/B00/xxx", "text"},
		{"https://chat.example.com/hooks/incoming", "text"},
	}
	for _, tt := range tests {
		p := payloadFor(tt.endpoint, "hello")
		if _, ok := p[tt.wantKey]; !ok {
			t.Errorf("payloadFor(%s) にキー %q が含まれていない: %v", tt.endpoint, tt.wantKey, p)
		}
		if len(p) != 1 {
			t.Errorf("payloadFor(%s) のキー数が不正: %v", tt.endpoint, p)
		}
	}
}
