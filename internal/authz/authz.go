package authz

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"strings"

	"github.com/nao1215/sharegate/internal/session"
)

// Kind は認可された身元の種別。
type Kind string

const (
	// KindTokenPlain は共有トークンの平文一致による認可。
	// ハッシュ計算を実行できない非対話クライアント向けの互換モードで、
	// TLS等で秘匿された経路を前提とする。ソルトヘッダーを省略すれば
	// 常にこの弱いモードに落ちるため、ハッシュモードの併存は
	// リプレイ耐性の上積みであって平文トークンの保護にはならない。
	KindTokenPlain Kind = "token-plain"
	// KindTokenHashed は共有トークンのソルト付きハッシュ一致による認可。
	KindTokenHashed Kind = "token-hashed"
	// KindSession はSSOログインに紐づくセッションによる認可。
	KindSession Kind = "session"
)

// Identity は認可された身元。Decision.Authorizedがtrueの場合のみ存在する。
type Identity struct {
	// Name は身元の表示名。
	Name string `json:"name"`
	// Kind は認可に使われた信頼機構の種別。
	Kind Kind `json:"kind"`
}

// Decision は1リクエストに対する認可判定の結果。
// リクエストごとに生成し、使い回してはならない。
type Decision struct {
	// Authorized はリクエストが許可されたかどうか。
	Authorized bool
	// Identity は認可された身元。匿名許可モードではnil。
	Identity *Identity
}

// Request は判定に必要なリクエスト情報の抜粋。
type Request struct {
	// Authorization はAuthorizationヘッダーの値（"Bearer xxx"形式）。
	Authorization string
	// Salt はX-Auth-Saltヘッダーの値。空ならば平文モードで比較する。
	Salt string
	// SessionCookie はセッションCookieの値。
	SessionCookie string
}

// Config は判定に必要な設定の抜粋。
type Config struct {
	// Required がfalseの場合、すべてのリクエストを匿名で許可する。
	Required bool
	// StaticToken は共有トークン。空ならばトークン認証は無効。
	StaticToken string
}

// SessionVerifier はセッションCookieを検証する外部コラボレーター。
type SessionVerifier interface {
	// Verify はCookieの値からセッションを検証する。
	// セッションが無い・無効な場合は (nil, nil) を返す。
	Verify(ctx context.Context, cookieValue string) (*session.Session, error)
}

// strategy は1つの信頼機構による判定。許可できない場合はnilを返して
// 次の機構にフォールスルーする。
type strategy func(ctx context.Context, req Request) *Decision

// Authorize はリクエストを認可するかどうかを判定する。
// 匿名許可 → 共有トークン → セッション の順に評価し、最初に許可した
// 機構の判定を返す。どの機構も許可しなければ不許可を返す。
func Authorize(ctx context.Context, req Request, cfg Config, verifier SessionVerifier) Decision {
	strategies := []strategy{
		anonymousStrategy(cfg),
		tokenStrategy(cfg),
		sessionStrategy(verifier),
	}
	for _, s := range strategies {
		if d := s(ctx, req); d != nil {
			return *d
		}
	}
	return Decision{Authorized: false}
}

// anonymousStrategy は認証が不要な構成で全リクエストを匿名許可する。
func anonymousStrategy(cfg Config) strategy {
	return func(_ context.Context, _ Request) *Decision {
		if cfg.Required {
			return nil
		}
		return &Decision{Authorized: true}
	}
}

// tokenStrategy は共有トークンによる認可を行う。
// ソルトヘッダーの有無だけでハッシュモードと平文モードを選択する。
// 片方で不一致でももう片方を再試行せず、セッション検証にフォールスルーする。
func tokenStrategy(cfg Config) strategy {
	return func(_ context.Context, req Request) *Decision {
		if cfg.StaticToken == "" || req.Authorization == "" {
			return nil
		}

		bearer := strings.TrimPrefix(req.Authorization, "Bearer ")

		if req.Salt != "" {
			if equalToken(bearer, Digest(cfg.StaticToken+req.Salt)) {
				return &Decision{Authorized: true, Identity: &Identity{Name: "token", Kind: KindTokenHashed}}
			}
			return nil
		}

		if equalToken(bearer, cfg.StaticToken) {
			return &Decision{Authorized: true, Identity: &Identity{Name: "token", Kind: KindTokenPlain}}
		}
		return nil
	}
}

// sessionStrategy はセッションCookieによる認可を行う。
// ストア障害は「セッション無し」として扱い、判定自体は常に結果を返す。
func sessionStrategy(verifier SessionVerifier) strategy {
	return func(ctx context.Context, req Request) *Decision {
		if verifier == nil {
			return nil
		}
		sess, err := verifier.Verify(ctx, req.SessionCookie)
		if err != nil {
			log.Printf("セッション検証でストア障害: %v", err)
			return nil
		}
		if sess == nil {
			return nil
		}
		return &Decision{Authorized: true, Identity: &Identity{Name: sess.UserName, Kind: KindSession}}
	}
}

// Digest は入力文字列のSHA-256ダイジェストを小文字16進数で返す。
// クライアントは Digest(共有トークン + ソルト) を計算してBearer値として送る。
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// equalToken はトークンを比較する。長さの差が漏れないよう
// 両辺をハッシュしてから定数時間比較する。
func equalToken(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
