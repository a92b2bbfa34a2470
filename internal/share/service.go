// Package share は共有コンテンツのリスト取得・ダウンロードと
// 定期クリーンアップのコラボレーターを提供する。
//
// ゲートウェイ本体は認可と振り分けのみを行い、実際のコンテンツ操作は
// このパッケージ経由で上流の提供元サービスに委譲する。
package share

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nao1215/sharegate/pkg/httpclient"
)

// ListRequest は共有リンク内のファイル一覧要求。
type ListRequest struct {
	// URL は共有リンクのURL。
	URL string `json:"url"`
	// Password は共有リンクのパスワード（任意）。
	Password string `json:"password,omitempty"`
	// Path は共有リンク内のディレクトリパス（任意、省略時はルート）。
	Path string `json:"path,omitempty"`
}

// FileInfo は共有リンク内の1ファイル。
type FileInfo struct {
	// ID はファイルの識別子。
	ID string `json:"id"`
	// Name はファイル名。
	Name string `json:"name"`
	// Size はファイルサイズ（バイト）。ディレクトリの場合は0。
	Size int64 `json:"size"`
	// IsDir はディレクトリかどうか。
	IsDir bool `json:"is_dir"`
}

// ListResult はファイル一覧要求の結果。
type ListResult struct {
	// Success は要求が成功したかどうか。
	Success bool `json:"success"`
	// Files はファイル一覧。
	Files []FileInfo `json:"files"`
	// Message は失敗時の理由。
	Message string `json:"message,omitempty"`
}

// DownloadRequest はダウンロードリンクの取得要求。
type DownloadRequest struct {
	// URL は共有リンクのURL。
	URL string `json:"url"`
	// Password は共有リンクのパスワード（任意）。
	Password string `json:"password,omitempty"`
	// FileID は対象ファイルの識別子。
	FileID string `json:"file_id"`
}

// DownloadResult はダウンロードリンク取得要求の結果。
type DownloadResult struct {
	// Success は要求が成功したかどうか。
	Success bool `json:"success"`
	// DownloadURL は取得した直接ダウンロードURL。
	DownloadURL string `json:"download_url,omitempty"`
	// Message は失敗時の理由。
	Message string `json:"message,omitempty"`
}

// ClientInfo はダウンロード要求に付随するクライアント情報。
// 上流の提供元がアクセス元の偽装検知やUA差し替えに使用する。
type ClientInfo struct {
	// IP はクライアントのIPアドレス。
	IP string
	// UserAgent はクライアントのUser-Agent。
	UserAgent string
}

// Service は共有コンテンツ操作のコラボレーター境界。
type Service interface {
	// List は共有リンク内のファイル一覧を取得する。
	List(ctx context.Context, req ListRequest) (*ListResult, error)
	// Download はダウンロードリンクを取得する。
	Download(ctx context.Context, req DownloadRequest, info ClientInfo) (*DownloadResult, error)
}

// UpstreamService は上流の提供元サービスへ要求を転送するService実装。
type UpstreamService struct {
	// http は上流との通信クライアント。
	http *httpclient.Client
}

// NewUpstreamService は新しいUpstreamServiceを生成する。
func NewUpstreamService(baseURL string) *UpstreamService {
	return &UpstreamService{http: httpclient.New(baseURL)}
}

// List は一覧要求を上流に転送する。
func (s *UpstreamService) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	result := &ListResult{}
	if err := s.http.PostJSON(ctx, "/api/list", req, result); err != nil {
		return nil, fmt.Errorf("一覧要求の転送に失敗: %w", err)
	}
	return result, nil
}

// Download はダウンロード要求を上流に転送する。
// クライアントIPとUser-Agentをヘッダーで引き継ぐ。
func (s *UpstreamService) Download(ctx context.Context, req DownloadRequest, info ClientInfo) (*DownloadResult, error) {
	header := http.Header{}
	if info.IP != "" {
		header.Set("X-Forwarded-For", info.IP)
	}
	if info.UserAgent != "" {
		header.Set("User-Agent", info.UserAgent)
	}

	result := &DownloadResult{}
	if err := s.http.Do(ctx, http.MethodPost, "/api/download", header, req, result); err != nil {
		return nil, fmt.Errorf("ダウンロード要求の転送に失敗: %w", err)
	}
	return result, nil
}
