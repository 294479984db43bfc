// Package model はドメインモデルを定義する。
package model

import "time"

// Project はフィッシング訓練キャンペーンを表す。
// 完了時に割り当て済みドメインの解放が行われる。
type Project struct {
	ID         string
	Name       string
	Notes      string // 保存前にHTMLサニタイズ済み
	Completed  bool
	EmailsSent int
	Clicks     int
	Submits    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectStats はキャンペーンの集計結果を表す。
// パーセンテージは送信数を分母とした四捨五入値。
type ProjectStats struct {
	ProjectID     string
	EmailsSent    int
	Clicks        int
	Submits       int
	ClickPercent  int
	SubmitPercent int
}

// Percentage は分母totalに対するnumの割合（四捨五入した整数パーセント）を返す。
// totalが0の場合は0を返す。
func Percentage(total, num int) int {
	if total == 0 {
		return 0
	}
	return int(float64(num)/float64(total)*100 + 0.5)
}
