// Package gateway は認可ゲートウェイとリクエストルーターの内部実装を提供する。
//
// すべてのリクエストを認可フロー・API・静的ページのいずれかに分類し、
// APIへのディスパッチ前に必ず認可判定を通す。外部からアクセス可能な
// 唯一のサービスであり、セキュリティの境界線として機能する。
// 未捕捉のエラーは一律に { success: false, message } 形式の
// 500レスポンスへ変換される。
package gateway
