// Package httpclient は外部コラボレーターとのHTTP通信を行うクライアントを提供する。
//
// SSOプロバイダへのトークン交換・ユーザー情報取得、
// 共有コンテンツ提供元へのリスト・ダウンロード要求の転送に使用する。
package httpclient
