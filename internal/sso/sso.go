// Package sso は外部IDプロバイダ（OAuth2）との連携を提供する。
//
// 認可URLの構築、認可コードのトークン交換、ユーザー情報の取得を担当する。
// セッションの発行自体はsessionパッケージが行う。
package sso

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nao1215/sharegate/internal/config"
	"github.com/nao1215/sharegate/pkg/httpclient"
)

// ProviderName はローカルユーザーに紐づけるIDプロバイダの識別子。
const ProviderName = "linuxdo"

// Profile はIDプロバイダから取得したユーザー情報。
type Profile struct {
	// ID はIDプロバイダ上のユーザーID。
	ID int64 `json:"id"`
	// Username はログイン名。
	Username string `json:"username"`
	// Name は表示名。空の場合はUsernameを使う。
	Name string `json:"name"`
	// AvatarURL はアバター画像のURL。
	AvatarURL string `json:"avatar_url"`
}

// DisplayName はセッションに記録する表示名を返す。
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// Client はIDプロバイダとの通信クライアント。
type Client struct {
	// clientID はIDプロバイダが発行したクライアント識別子。
	clientID string
	// clientSecret はIDプロバイダが発行したクライアントシークレット。
	clientSecret string
	// authorizeURL は認可エンドポイントのURL。
	authorizeURL string
	// tokenURL はトークン交換エンドポイントのURL。
	tokenURL string
	// userinfoURL はユーザー情報エンドポイントのURL。
	userinfoURL string
	// http は外部通信用のHTTPクライアント。各エンドポイントの完全なURLを渡す。
	http *httpclient.Client
}

// NewClient は新しいSSOクライアントを生成する。
func NewClient(cfg config.SSOConfig) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authorizeURL: cfg.AuthorizeURL,
		tokenURL:     cfg.TokenURL,
		userinfoURL:  cfg.UserinfoURL,
		http:         httpclient.New(""),
	}
}

// AuthorizeURL はIDプロバイダの認可エンドポイントへのリダイレクトURLを構築する。
// コールバックURIはリクエスト元のオリジンから組み立てる。
func (c *Client) AuthorizeURL(origin, state string) string {
	return fmt.Sprintf("%s?client_id=%s&response_type=code&redirect_uri=%s&state=%s",
		c.authorizeURL, url.QueryEscape(c.clientID), url.QueryEscape(origin+"/auth/callback"), url.QueryEscape(state))
}

// Exchange は認可コードをアクセストークンに交換する。
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", redirectURI)

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.http.PostForm(ctx, c.tokenURL, form, &result); err != nil {
		return "", fmt.Errorf("トークン交換に失敗: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("トークン交換のレスポンスにaccess_tokenがありません")
	}
	return result.AccessToken, nil
}

// Userinfo はアクセストークンを使ってユーザー情報を取得する。
func (c *Client) Userinfo(ctx context.Context, accessToken string) (*Profile, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	profile := &Profile{}
	if err := c.http.Do(ctx, http.MethodGet, c.userinfoURL, header, nil, profile); err != nil {
		return nil, fmt.Errorf("ユーザー情報の取得に失敗: %w", err)
	}
	if profile.ID == 0 {
		return nil, fmt.Errorf("ユーザー情報のレスポンスが不正です")
	}
	return profile, nil
}
