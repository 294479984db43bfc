package hook

// Result はハンドラの判定結果を表すタグ付きの値。
// 暗黙のnext()呼び出しではなく、明示的な値としてチェーン継続可否を伝える。
type Result struct {
	suppressed bool
	reason     string
}

// Continue はチェーン継続を表す結果を返す。
func Continue() Result {
	return Result{}
}

// Suppress はデフォルト動作の抑止を表す結果を返す。
// reasonにはログに残す抑止理由を指定する。
func Suppress(reason string) Result {
	return Result{suppressed: true, reason: reason}
}

// Suppressed は抑止結果かどうかを返す。
func (r Result) Suppressed() bool {
	return r.suppressed
}

// Reason は抑止理由を返す。Continueの場合は空文字列。
func (r Result) Reason() string {
	return r.reason
}
