package repository

import (
	"context"

	"boothpos/internal/domain/model"
)

type BoothRepository interface {
	FindByID(ctx context.Context, boothID int64) (model.Booth, error)
	//行ロックを取って取得（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, boothID int64) (model.Booth, error)
	// 売上に delta を加算。0未満にはしない。更新後の値を返す。
	AddRevenue(ctx context.Context, boothID int64, delta int64) (int64, error)
	SetRevenue(ctx context.Context, boothID int64, total int64) error
	// イベント連番を1進めて返す。行ロックはコミットまで残るので、同じブースではコミット順になる
	NextEventSeq(ctx context.Context, boothID int64) (int64, error)
	// booth_id → 最後に振った連番
	EventSeqs(ctx context.Context) (map[int64]int64, error)
}
