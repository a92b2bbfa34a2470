package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// allowMethods はゲートウェイが受け付けるメソッドの固定リスト。
const allowMethods = "GET, POST, OPTIONS"

// allowHeaders は許可するリクエストヘッダーの固定リスト。
// X-Auth-Saltはハッシュ認証モードでソルトを運ぶカスタムヘッダー。
const allowHeaders = "Content-Type, Cookie, Authorization, X-Auth-Salt"

// CORS はクロスオリジンリクエストを許可するGinミドルウェアを返す。
// Originヘッダーがあればその値を、無ければワイルドカードを設定する。
// OPTIONSリクエストはルーティングに進まず、ここで204を返して打ち切る。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
