package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.porkbun.com/api/json/v3"
	// porkbunDateLayout はPorkbun APIが返す日時の形式。
	porkbunDateLayout = "2006-01-02 15:04:05"
)

// PorkbunClient はPorkbun APIのクライアント。
// APIのレート制限は公表されていないため、リクエスト間隔を1.5秒に制限する。
type PorkbunClient struct {
	httpClient *http.Client
	apiKey     string
	secretKey  string
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewPorkbunClient はPorkbunClientの新しいインスタンスを生成する。
// APIキーは "pk"、シークレットキーは "sk" で始まる必要がある。
func NewPorkbunClient(apiKey, secretKey string, logger *slog.Logger) (*PorkbunClient, error) {
	if apiKey == "" || secretKey == "" {
		return nil, fmt.Errorf("レジストラAPIキーが設定されていません")
	}
	if !strings.HasPrefix(apiKey, "pk") || !strings.HasPrefix(secretKey, "sk") {
		return nil, fmt.Errorf("レジストラAPIキーの形式が不正です")
	}

	return &PorkbunClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		secretKey:  secretKey,
		limiter:    rate.NewLimiter(rate.Every(time.Second*3/2), 1),
		logger:     logger,
		baseURL:    defaultBaseURL,
	}, nil
}

// Name はレジストラの名称を返す。
func (c *PorkbunClient) Name() string {
	return "Porkbun"
}

type porkbunListAllRequest struct {
	SecretAPIKey string `json:"secretapikey"`
	APIKey       string `json:"apikey"`
	Start        string `json:"start"`
}

type porkbunListAllResponse struct {
	Status  string `json:"status"`
	Domains []struct {
		Domain       string `json:"domain"`
		Status       string `json:"status"`
		CreateDate   string `json:"createDate"`
		ExpireDate   string `json:"expireDate"`
		SecurityLock string `json:"securityLock"`
		AutoRenew    int    `json:"autoRenew"`
	} `json:"domains"`
}

// ListDomains はPorkbunに登録されている全ドメインを取得する。
func (c *PorkbunClient) ListDomains(ctx context.Context) ([]Record, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(porkbunListAllRequest{
		SecretAPIKey: c.secretKey,
		APIKey:       c.apiKey,
		Start:        "0",
	})
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/domain/listAll", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("レジストラAPIの呼び出しに失敗しました",
			slog.String("registrar", c.Name()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レジストラAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("レジストラAPIがステータス %d を返しました", resp.StatusCode)
	}

	var response porkbunListAllResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if response.Status != "SUCCESS" {
		return nil, fmt.Errorf("レジストラAPIがエラーを返しました: %s", response.Status)
	}

	records := make([]Record, 0, len(response.Domains))
	for _, d := range response.Domains {
		record := Record{
			Name:      d.Domain,
			AutoRenew: d.AutoRenew == 1,
			IsLocked:  d.SecurityLock == "1",
		}
		if d.CreateDate != "" {
			record.PurchasedAt, err = time.Parse(porkbunDateLayout, d.CreateDate)
			if err != nil {
				return nil, fmt.Errorf("登録日のパースに失敗しました (%s): %w", d.Domain, err)
			}
		}
		if d.ExpireDate != "" {
			record.ExpiresAt, err = time.Parse(porkbunDateLayout, d.ExpireDate)
			if err != nil {
				return nil, fmt.Errorf("有効期限のパースに失敗しました (%s): %w", d.Domain, err)
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// wait はレート制限の解除を待つ。
func (c *PorkbunClient) wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("レート制限の待機に失敗しました: %w", err)
	}
	return nil
}

var _ Provider = (*PorkbunClient)(nil)
