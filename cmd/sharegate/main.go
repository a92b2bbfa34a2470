// 認可ゲートウェイサービスのエントリポイント。
// 静的トークン・SSOセッションによる認可、共有コンテンツAPIへの振り分け、
// 失効セッションの定期クリーンアップを担当する。
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/nao1215/sharegate/internal/config"
	"github.com/nao1215/sharegate/internal/gateway"
	"github.com/nao1215/sharegate/internal/session"
	"github.com/nao1215/sharegate/internal/share"
	"github.com/nao1215/sharegate/internal/sso"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	db, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		log.Fatalf("セッションDBのオープンに失敗: %v", err)
	}
	defer db.Close()

	store := session.NewStore(db, cfg.Session.TTL, cfg.Session.CookieSecret)

	var ssoClient *sso.Client
	if cfg.SSOAvailable() {
		ssoClient = sso.NewClient(cfg.SSO)
	} else {
		log.Print("SSOが構成されていないため、ログイン経路を無効化します")
	}

	srv := gateway.NewServer(cfg, store, ssoClient, share.NewUpstreamService(cfg.Share.UpstreamURL))

	go share.RunScheduler(ctx, cfg.Cleanup.Interval, share.NewStoreCleaner(store))

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(srv.Handler(), &http2.Server{}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("サーバーの停止に失敗: %v", err)
		}
	}()

	log.Printf("ゲートウェイサービスを起動します: %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("ゲートウェイサービスの起動に失敗: %v", err)
	}
}
