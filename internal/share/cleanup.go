package share

import (
	"context"
	"log"
	"time"
)

// Report はクリーンアップ1回分の実行結果。
type Report struct {
	// ExpiredSessions は削除した失効セッションの件数。
	ExpiredSessions int64
	// Elapsed は実行にかかった時間。
	Elapsed time.Duration
}

// Cleaner は定期クリーンアップのコラボレーター境界。
type Cleaner interface {
	// Clean はクリーンアップを1回実行する。
	Clean(ctx context.Context) (*Report, error)
}

// sessionPurger は失効セッションを削除できるストア。
type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StoreCleaner はセッションストアの失効行を削除するCleaner実装。
type StoreCleaner struct {
	// store は対象のセッションストア。
	store sessionPurger
}

// NewStoreCleaner は新しいStoreCleanerを生成する。
func NewStoreCleaner(store sessionPurger) *StoreCleaner {
	return &StoreCleaner{store: store}
}

// Clean は失効セッションを削除する。
func (c *StoreCleaner) Clean(ctx context.Context) (*Report, error) {
	start := time.Now()
	count, err := c.store.PurgeExpired(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{ExpiredSessions: count, Elapsed: time.Since(start)}, nil
}

// RunScheduler はintervalごとにcleanerを起動するループを実行する。
// クリーンアップの失敗はログに残すだけで、ループ自体は止めない。
// ctxのキャンセルで終了する。
func RunScheduler(ctx context.Context, interval time.Duration, cleaner Cleaner) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := cleaner.Clean(ctx)
			if err != nil {
				log.Printf("[Cleanup] クリーンアップに失敗: %v", err)
				continue
			}
			log.Printf("[Cleanup] 失効セッション %d 件を削除 (%v)", report.ExpiredSessions, report.Elapsed)
		}
	}
}
