// Package config はゲートウェイの設定を管理する。
//
// 設定は「デフォルト値 → YAML設定ファイル（任意） → 環境変数」の順に
// 重ね合わせて読み込み、起動後は不変の値として各コンポーネントに注入する。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// defaultConfigPaths は設定ファイルを探索するパス。先に見つかったものを使う。
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sharegate/config.yaml",
}

// configPathEnvVar は設定ファイルパスを上書きする環境変数名。
const configPathEnvVar = "CONFIG_PATH"

// Config はプロセス全体の設定。起動時に一度だけ読み込み、以降は変更しない。
type Config struct {
	// Server はHTTPサーバーの設定。
	Server ServerConfig `koanf:"server"`
	// Auth は認可ゲートウェイの設定。
	Auth AuthConfig `koanf:"auth"`
	// SSO は外部IDプロバイダ連携の設定。
	SSO SSOConfig `koanf:"sso"`
	// Session はセッションストアの設定。
	Session SessionConfig `koanf:"session"`
	// Share は共有コンテンツ提供元の設定。
	Share ShareConfig `koanf:"share"`
	// Cleanup は定期クリーンアップの設定。
	Cleanup CleanupConfig `koanf:"cleanup"`
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Host はリッスンするホスト。
	Host string `koanf:"host"`
	// Port はリッスンするポート。
	Port string `koanf:"port"`
}

// AuthConfig は認可ゲートウェイの設定。
type AuthConfig struct {
	// Required がfalseの場合、すべてのリクエストを匿名で許可する。
	Required bool `koanf:"required"`
	// StaticToken は非対話クライアント向けの共有シークレット。
	// レスポンスにもログにも出力してはならない。
	StaticToken string `koanf:"static_token"`
}

// SSOConfig は外部IDプロバイダ（OAuth2）連携の設定。
type SSOConfig struct {
	// ClientID はIDプロバイダが発行したクライアント識別子。
	ClientID string `koanf:"client_id"`
	// ClientSecret はIDプロバイダが発行したクライアントシークレット。
	ClientSecret string `koanf:"client_secret"`
	// AuthorizeURL は認可エンドポイントのURL。
	AuthorizeURL string `koanf:"authorize_url"`
	// TokenURL はトークン交換エンドポイントのURL。
	TokenURL string `koanf:"token_url"`
	// UserinfoURL はユーザー情報エンドポイントのURL。
	UserinfoURL string `koanf:"userinfo_url"`
}

// SessionConfig はセッションストアの設定。
type SessionConfig struct {
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string `koanf:"db_path"`
	// TTL はセッションの有効期間。
	TTL time.Duration `koanf:"ttl"`
	// CookieSecret はセッションCookie（JWT）の署名鍵。
	CookieSecret string `koanf:"cookie_secret"`
}

// ShareConfig は共有コンテンツ提供元の設定。
type ShareConfig struct {
	// UpstreamURL はリスト取得・ダウンロード要求の転送先ベースURL。
	UpstreamURL string `koanf:"upstream_url"`
}

// CleanupConfig は定期クリーンアップの設定。
type CleanupConfig struct {
	// Interval はクリーンアップ実行間隔。
	Interval time.Duration `koanf:"interval"`
}

// defaultConfig はすべてのデフォルト値を持つConfigを返す。
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Auth: AuthConfig{
			Required:    true,
			StaticToken: "",
		},
		SSO: SSOConfig{
			ClientID:     "",
			ClientSecret: "",
			AuthorizeURL: "https://connect.linux.do/oauth2/authorize",
			TokenURL:     "https://connect.linux.do/oauth2/token",
			UserinfoURL:  "https://connect.linux.do/api/user",
		},
		Session: SessionConfig{
			DBPath:       "/data/sharegate.db",
			TTL:          7 * 24 * time.Hour,
			CookieSecret: "dev-secret-key",
		},
		Share: ShareConfig{
			UpstreamURL: "http://localhost:8090",
		},
		Cleanup: CleanupConfig{
			Interval: 6 * time.Hour,
		},
	}
}

// envMappings は環境変数名から設定パスへの対応表。
// 対応表にない環境変数は設定に取り込まない。
var envMappings = map[string]string{
	"host":               "server.host",
	"port":               "server.port",
	"enable_auth":        "auth.required",
	"auth_token":         "auth.static_token",
	"sso_client_id":      "sso.client_id",
	"sso_client_secret":  "sso.client_secret",
	"sso_authorize_url":  "sso.authorize_url",
	"sso_token_url":      "sso.token_url",
	"sso_userinfo_url":   "sso.userinfo_url",
	"session_db_path":    "session.db_path",
	"session_ttl":        "session.ttl",
	"session_secret":     "session.cookie_secret",
	"share_upstream_url": "share.upstream_url",
	"cleanup_interval":   "cleanup.interval",
}

// Load は設定を読み込む。優先順位は 環境変数 > 設定ファイル > デフォルト値。
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("デフォルト設定の読み込みに失敗: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("設定の展開に失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port が空です")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl は正の値でなければなりません: %v", c.Session.TTL)
	}
	if c.Cleanup.Interval <= 0 {
		return fmt.Errorf("cleanup.interval は正の値でなければなりません: %v", c.Cleanup.Interval)
	}
	return nil
}

// SSOAvailable はSSOログインが利用可能かどうかを返す。
// クライアントIDとシークレットの両方が設定されている場合のみ利用可能とする。
func (c *Config) SSOAvailable() bool {
	return c.SSO.ClientID != "" && c.SSO.ClientSecret != ""
}

// findConfigFile は設定ファイルを探索し、最初に見つかったパスを返す。
func findConfigFile() string {
	if envPath := os.Getenv(configPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform は環境変数名を設定パスへ変換する。
// 例: SSO_CLIENT_ID -> sso.client_id
func envTransform(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
