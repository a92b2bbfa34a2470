// Package authz はリクエスト単位の認可判定を提供する。
//
// 匿名許可モード、共有トークン（平文またはソルト付きハッシュ）、
// SSOセッションの3つの信頼機構を、厳密な順序で評価する
// 単一の純粋な判定関数として実装する。判定は状態を持たず、
// リクエストごとに新しく生成される。
package authz
