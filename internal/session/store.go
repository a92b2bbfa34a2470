package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session は検証に成功したセッションを表す。
type Session struct {
	// ID はセッションの一意識別子（UUID）。
	ID string
	// UserID はセッションを所有するユーザーのID。
	UserID string
	// UserName はログインユーザーの表示名。
	UserName string
	// ExpiresAt はセッションの失効日時。
	ExpiresAt time.Time
}

// Store はSQLiteを使ったセッション・ユーザーストア。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// ttl はセッションの有効期間。
	ttl time.Duration
	// secret はセッションCookie（JWT）の署名鍵。
	secret string
}

// NewStore は新しいセッションストアを生成する。
// dbはOpenで開いた接続を渡す。
func NewStore(db *sql.DB, ttl time.Duration, secret string) *Store {
	return &Store{db: db, ttl: ttl, secret: secret}
}

// UpsertUser はIDプロバイダ上のユーザーをローカルに登録し、ユーザーIDを返す。
// 既存ユーザーの場合は表示名と最終ログイン日時を更新する。
func (s *Store) UpsertUser(ctx context.Context, provider, providerUserID, name, avatarURL string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE provider = ? AND provider_user_id = ?`,
		provider, providerUserID).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = uuid.New().String()
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, provider, provider_user_id, name, avatar_url) VALUES (?, ?, ?, ?, ?)`,
			id, provider, providerUserID, name, avatarURL); err != nil {
			return "", fmt.Errorf("ユーザーの登録に失敗: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("ユーザーの検索に失敗: %w", err)
	default:
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET name = ?, avatar_url = ?, last_login_at = datetime('now') WHERE id = ?`,
			name, avatarURL, id); err != nil {
			return "", fmt.Errorf("ユーザーの更新に失敗: %w", err)
		}
	}
	return id, nil
}

// Create は新しいセッション行を作成し、Cookieに設定するトークンを返す。
func (s *Store) Create(ctx context.Context, userID, userName string) (string, error) {
	sessionID := uuid.New().String()
	expiresAt := time.Now().Add(s.ttl)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, user_name, expires_at) VALUES (?, ?, ?, ?)`,
		sessionID, userID, userName, expiresAt.Unix()); err != nil {
		return "", fmt.Errorf("セッションの作成に失敗: %w", err)
	}

	return signSessionToken(s.secret, sessionID, userName, expiresAt)
}

// Verify はCookieの値からセッションを検証する。
// セッションが無い・無効な場合は (nil, nil) を返す。エラーはストア障害のみ。
func (s *Store) Verify(ctx context.Context, cookieValue string) (*Session, error) {
	if cookieValue == "" {
		return nil, nil
	}

	claims, err := parseSessionToken(s.secret, cookieValue)
	if err != nil {
		// 署名不正・期限切れは「セッション無し」として扱う
		return nil, nil
	}

	session := &Session{}
	var expiresAt int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, user_name, expires_at FROM sessions WHERE id = ?`,
		claims.ID).Scan(&session.ID, &session.UserID, &session.UserName, &expiresAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("セッションの検索に失敗: %w", err)
	}

	session.ExpiresAt = time.Unix(expiresAt, 0)
	if time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	return session, nil
}

// Delete はCookieの値に対応するセッション行を削除する。
// トークンが不正な場合は何もしない。ログアウトは常に成功しなければならない。
func (s *Store) Delete(ctx context.Context, cookieValue string) error {
	if cookieValue == "" {
		return nil
	}
	claims, err := parseSessionToken(s.secret, cookieValue)
	if err != nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, claims.ID); err != nil {
		return fmt.Errorf("セッションの削除に失敗: %w", err)
	}
	return nil
}

// PurgeExpired は失効したセッション行を削除し、削除件数を返す。
// 定期クリーンアップから呼び出される。
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("失効セッションの削除に失敗: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return count, nil
}
