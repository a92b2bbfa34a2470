// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// CORSヘッダーの付与とOPTIONSプリフライトの打ち切り、
// パニックからの回復と500エンベロープへの変換を含む。
package middleware
