// Package session はSSOログインに紐づくセッションの発行と検証を提供する。
//
// セッションCookieはHS256署名のJWTで、jtiクレームがSQLite上の
// セッション行を指す。行を削除すればCookieの有効期限内でも失効する。
package session
