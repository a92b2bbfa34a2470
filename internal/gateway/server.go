package gateway

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/sharegate/internal/authz"
	"github.com/nao1215/sharegate/internal/config"
	"github.com/nao1215/sharegate/internal/session"
	"github.com/nao1215/sharegate/internal/share"
	"github.com/nao1215/sharegate/internal/sso"
	"github.com/nao1215/sharegate/pkg/middleware"
)

// ctxKeyDecision は認可判定をGinコンテキストに格納するキー。
const ctxKeyDecision = "authz_decision"

// Server は認可ゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はプロセス全体の設定。起動後は変更されない。
	cfg *config.Config
	// sessions はセッションストア。
	sessions *session.Store
	// sso はSSOクライアント。SSOが構成されていない場合はnil。
	sso *sso.Client
	// share は共有コンテンツ操作のコラボレーター。
	share share.Service
}

// NewServer は新しいゲートウェイサーバーを生成する。
// ssoClientはSSOが構成されていない場合nilを渡す。
func NewServer(cfg *config.Config, sessions *session.Store, ssoClient *sso.Client, shareService share.Service) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	s := &Server{
		router:   router,
		cfg:      cfg,
		sessions: sessions,
		sso:      ssoClient,
		share:    shareService,
	}
	s.setupRoutes()

	return s
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はリクエストの分類を設定する。
// 分類は登録順に依存せず、認可フロー・API・ページのいずれかに決まる。
func (s *Server) setupRoutes() {
	// ログアウトは認可判定なしで常に成功する
	s.router.GET("/auth/logout", s.handleLogout())

	// SSOが構成されている場合のみログイン・コールバックを受け付ける
	if s.sso != nil {
		s.router.GET("/auth/login", s.handleLogin())
		s.router.Any("/auth/callback", s.handleCallback())
	}

	// APIは必ず認可判定を通す。/api/userのみ判定結果に関わらず到達できる
	api := s.router.Group("/api", s.authMiddleware())
	{
		api.Any("/user", s.handleUser())
		api.Any("/list", s.handleList())
		api.Any("/download", s.handleDownload())
	}

	// ページシェルと静的アセットは認可なしで返す（シェル自体は秘密を含まない）
	s.router.GET("/", s.handleIndex())
	s.router.GET("/index.html", s.handleIndex())
	s.router.GET("/favicon.svg", s.handleFavicon())

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "sharegate"})
	})

	s.router.NoRoute(s.handleNoRoute())
}

// authorize は1リクエスト分の認可判定を行う。
func (s *Server) authorize(c *gin.Context) authz.Decision {
	cookie, _ := c.Cookie(session.CookieName)
	req := authz.Request{
		Authorization: c.GetHeader("Authorization"),
		Salt:          c.GetHeader("X-Auth-Salt"),
		SessionCookie: cookie,
	}
	cfg := authz.Config{
		Required:    s.cfg.Auth.Required,
		StaticToken: s.cfg.Auth.StaticToken,
	}
	return authz.Authorize(c.Request.Context(), req, cfg, s.sessions)
}

// authMiddleware は認可判定を行い、結果をコンテキストに格納するミドルウェアを返す。
// 不許可の場合は/api/userを除き401で打ち切る。
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := s.authorize(c)
		c.Set(ctxKeyDecision, d)

		if !d.Authorized && c.Request.URL.Path != "/api/user" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized",
			})
			return
		}
		c.Next()
	}
}

// decision はミドルウェアが格納した認可判定を取り出す。
func decision(c *gin.Context) authz.Decision {
	if v, ok := c.Get(ctxKeyDecision); ok {
		if d, ok := v.(authz.Decision); ok {
			return d
		}
	}
	return authz.Decision{}
}

// fail は失敗エンベロープを返す。
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// handleUser は認可状態の自己照会ハンドラーを返す。
// 認可の成否に関わらず常に200で内部判定をそのまま返す。
func (s *Server) handleUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := decision(c)
		c.JSON(http.StatusOK, gin.H{
			"success": d.Authorized,
			"user":    d.Identity,
		})
	}
}

// handleList はファイル一覧APIのハンドラーを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			fail(c, http.StatusInternalServerError, "Method not allowed")
			return
		}

		var req share.ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		result, err := s.share.List(c.Request.Context(), req)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleDownload はダウンロードAPIのハンドラーを返す。
// クライアントIPとUser-Agentを副入力としてコラボレーターに渡す。
func (s *Server) handleDownload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			fail(c, http.StatusInternalServerError, "Method not allowed")
			return
		}

		var req share.DownloadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		info := share.ClientInfo{
			IP:        clientIP(c),
			UserAgent: c.Request.UserAgent(),
		}
		result, err := s.share.Download(c.Request.Context(), req, info)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleLogout はセッションを失効させてトップへリダイレクトするハンドラーを返す。
// ログアウトは資格情報の有無に関わらず常に成功する。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(session.CookieName); err == nil && cookie != "" {
			if err := s.sessions.Delete(c.Request.Context(), cookie); err != nil {
				log.Printf("ログアウト時のセッション削除に失敗: %v", err)
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, "", -1, "/", "", isSecure(c), true)
		c.Redirect(http.StatusFound, "/")
	}
}

// handleLogin はIDプロバイダの認可エンドポイントへリダイレクトするハンドラーを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := uuid.New().String()
		c.Redirect(http.StatusFound, s.sso.AuthorizeURL(requestOrigin(c), state))
	}
}

// handleCallback はIDプロバイダからのコールバックを処理するハンドラーを返す。
// 認可コードをトークンに交換し、ユーザーを登録してセッションCookieを発行する。
func (s *Server) handleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			fail(c, http.StatusInternalServerError, "認可コードがありません")
			return
		}

		ctx := c.Request.Context()
		redirectURI := requestOrigin(c) + "/auth/callback"

		accessToken, err := s.sso.Exchange(ctx, code, redirectURI)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		profile, err := s.sso.Userinfo(ctx, accessToken)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		userID, err := s.sessions.UpsertUser(ctx, sso.ProviderName,
			strconv.FormatInt(profile.ID, 10), profile.DisplayName(), profile.AvatarURL)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		cookie, err := s.sessions.Create(ctx, userID, profile.DisplayName())
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, cookie, int(s.cfg.Session.TTL.Seconds()), "/", "", isSecure(c), true)
		c.Redirect(http.StatusFound, "/")
	}
}

// handleIndex はページシェルを返すハンドラーを返す。
// 注入する設定フラグメントは公開可能な真偽値のみで、トークンは含めない。
func (s *Server) handleIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		fragment := fmt.Sprintf(`{"authEnabled":%t,"ssoEnabled":%t}`,
			s.cfg.Auth.Required, s.cfg.SSOAvailable())
		page := strings.Replace(indexHTML, serverConfigMarker, fragment, 1)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	}
}

// handleFavicon はサイトアイコンを返すハンドラーを返す。
func (s *Server) handleFavicon() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "image/svg+xml", []byte(faviconSVG))
	}
}

// handleNoRoute は未登録パスのハンドラーを返す。
// /api配下は認可 → メソッド検査 → ボディ解析 → 404 の順に応答する。
func (s *Server) handleNoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			if d := s.authorize(c); !d.Authorized {
				fail(c, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if c.Request.Method != http.MethodPost {
				fail(c, http.StatusInternalServerError, "Method not allowed")
				return
			}
			var body map[string]any
			if err := c.ShouldBindJSON(&body); err != nil {
				fail(c, http.StatusInternalServerError, err.Error())
				return
			}
			fail(c, http.StatusNotFound, "Not Found")
			return
		}
		c.String(http.StatusNotFound, "Not Found")
	}
}

// clientIP はクライアントIPを返す。CDN経由のCF-Connecting-IPを優先する。
func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// isSecure はリクエストがHTTPS経由かどうかを返す。
func isSecure(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
}

// requestOrigin はリクエストのオリジン（スキーム + ホスト）を返す。
func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if isSecure(c) {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
