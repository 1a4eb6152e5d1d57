package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 配信先（websocket / kafka / rabbitmq）
type Sink interface {
	Name() string
	Send(ctx context.Context, evt Event) error
}

// 1回の Publish 分（同じTxで出たイベント）
type batch struct {
	events []Event
	since  time.Time
}

func (b batch) boothID() int64 { return b.events[0].BoothID }
func (b batch) seq() int64     { return b.events[0].Seq }

// コミット後のイベントを受け取ってキューに積む。キューは上限なしで、Publish は待たない。
// 1本のgoroutineが取り出して全Sinkへ流す。Seq 付きのイベントはブースごとに Seq 順で流し、
// 先に届いた後続の Seq は前の番号が来るまで保留する。
type Publisher struct {
	mu      sync.Mutex
	pending []batch
	wake    chan struct{}

	sinks       []Sink
	logger      *zap.Logger
	sendTimeout time.Duration
	// 欠番をあきらめるまでの時間（Publish される前にプロセスが落ちた等）
	gapTimeout time.Duration

	// 以下は Run のgoroutineだけが触る
	next map[int64]int64           // booth_id → 次に流す Seq
	held map[int64]map[int64]batch // booth_id → Seq → 保留中
}

// bufferSize はキューの初期容量。超えても伸びるだけで捨てない
func NewPublisher(logger *zap.Logger, bufferSize int, sinks ...Sink) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Publisher{
		pending:     make([]batch, 0, bufferSize),
		wake:        make(chan struct{}, 1),
		sinks:       sinks,
		logger:      logger,
		sendTimeout: 5 * time.Second,
		gapTimeout:  3 * time.Second,
		next:        map[int64]int64{},
		held:        map[int64]map[int64]batch{},
	}
}

// 起動時に、各ブースで最後にコミットされた Seq を渡す。Run より前に呼ぶ
func (p *Publisher) Resume(lastSeqs map[int64]int64) {
	for boothID, seq := range lastSeqs {
		p.next[boothID] = seq + 1
	}
}

// ブロックしない。events は同じTxのもので、同じ Seq を持つ
func (p *Publisher) Publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	b := batch{events: append([]Event(nil), events...), since: time.Now()}

	p.mu.Lock()
	p.pending = append(p.pending, b)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// ctx が終わるまで配信する。終了時はキューと保留分を流してから戻る
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.gapTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-p.wake:
			p.flush(ctx)
		case now := <-ticker.C:
			p.releaseStale(ctx, now)
		case <-ctx.Done():
			p.drain()
			return nil
		}
	}
}

func (p *Publisher) take() []batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

func (p *Publisher) flush(ctx context.Context) {
	for _, b := range p.take() {
		p.accept(ctx, b)
	}
}

func (p *Publisher) accept(ctx context.Context, b batch) {
	if b.seq() == 0 {
		p.dispatchBatch(ctx, b)
		return
	}

	boothID := b.boothID()
	next := p.nextSeq(boothID)
	switch {
	case b.seq() == next:
		p.dispatchBatch(ctx, b)
		p.next[boothID] = next + 1
		p.releaseReady(ctx, boothID)
	case b.seq() < next:
		// 欠番をあきらめた後に届いた分。順序は崩れるが捨てない
		p.logger.Warn("late event delivered out of order",
			zap.Int64("booth_id", boothID),
			zap.Int64("seq", b.seq()),
			zap.Int64("next_seq", next),
		)
		p.dispatchBatch(ctx, b)
	default:
		if p.held[boothID] == nil {
			p.held[boothID] = map[int64]batch{}
		}
		p.held[boothID][b.seq()] = b
	}
}

// Resume されていないブースは 1 から
func (p *Publisher) nextSeq(boothID int64) int64 {
	if n, ok := p.next[boothID]; ok {
		return n
	}
	return 1
}

func (p *Publisher) releaseReady(ctx context.Context, boothID int64) {
	held := p.held[boothID]
	for {
		next := p.nextSeq(boothID)
		b, ok := held[next]
		if !ok {
			break
		}
		delete(held, next)
		p.dispatchBatch(ctx, b)
		p.next[boothID] = next + 1
	}
	if len(held) == 0 {
		delete(p.held, boothID)
	}
}

// gapTimeout を過ぎても埋まらない欠番は飛ばす
func (p *Publisher) releaseStale(ctx context.Context, now time.Time) {
	for boothID, held := range p.held {
		for len(held) > 0 {
			first := minSeq(held)
			if now.Sub(held[first].since) < p.gapTimeout {
				break
			}
			p.logger.Warn("event seq gap skipped",
				zap.Int64("booth_id", boothID),
				zap.Int64("missing_from", p.nextSeq(boothID)),
				zap.Int64("resume_at", first),
			)
			p.next[boothID] = first
			p.releaseReady(ctx, boothID)
		}
	}
}

// 終了時。保留分も Seq 順に全部流す
func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
	defer cancel()

	p.flush(ctx)
	for boothID, held := range p.held {
		seqs := make([]int64, 0, len(held))
		for s := range held {
			seqs = append(seqs, s)
		}
		sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
		for _, s := range seqs {
			p.dispatchBatch(ctx, held[s])
		}
		delete(p.held, boothID)
	}
}

func minSeq(held map[int64]batch) int64 {
	first := int64(-1)
	for s := range held {
		if first < 0 || s < first {
			first = s
		}
	}
	return first
}

func (p *Publisher) dispatchBatch(ctx context.Context, b batch) {
	for _, evt := range b.events {
		p.dispatch(ctx, evt)
	}
}

// 失敗はログのみ。リトライしない
func (p *Publisher) dispatch(ctx context.Context, evt Event) {
	for _, s := range p.sinks {
		sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
		err := s.Send(sendCtx, evt)
		cancel()
		if err != nil {
			p.logger.Warn("event sink failed",
				zap.String("sink", s.Name()),
				zap.String("event_id", evt.ID),
				zap.String("type", string(evt.Type)),
				zap.Int64("booth_id", evt.BoothID),
				zap.Int64("seq", evt.Seq),
				zap.Error(err),
			)
		}
	}
}
