// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はジャーナル本文をサニタイズし、
// 保存データを経由したXSSからユーザーを保護する。
// ジャーナル本文はプレーンテキストとして扱うため、bluemondayの
// 厳格ポリシーで全てのHTMLタグを除去する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストコンテンツのサニタイズ機能のインターフェースを定義する。
// ジャーナルエントリの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力からHTMLタグを全て除去したテキストを返す。
	// scriptタグ、イベント属性を含むあらゆるマークアップが対象。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ジャーナル本文にマークアップは不要なため、許可タグなしの
// StrictPolicyを使用する。タグは除去され、テキストのみが残る。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグを全て除去したテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
