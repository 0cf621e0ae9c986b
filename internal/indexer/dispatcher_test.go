package indexer_test

import (
	"context"
	"fmt"
	"testing"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/event"
	fp "PerpIndexer/internal/fixedpoint"
	"PerpIndexer/internal/indexer"
	"PerpIndexer/internal/store"
)

type testEnv struct {
	dispatcher *indexer.Dispatcher
	db         *indexer.StateDB
	mem        *store.MemoryStore
	seq        int64
}

func newTestEnv(window indexer.CompetitionWindow) *testEnv {
	mem := store.NewMemoryStore()
	db := indexer.NewStateDB(mem)
	return &testEnv{
		dispatcher: indexer.NewDispatcher(db, nil, window, nil),
		db:         db,
		mem:        mem,
	}
}

// meta stamps each event with a fresh txHash and log index so log rows
// never collide unless a test replays deliberately.
func (env *testEnv) meta(timestamp int64) event.Meta {
	env.seq++
	return event.Meta{
		BlockNumber: env.seq,
		LogIndex:    0,
		TxHash:      fmt.Sprintf("0xtx%d", env.seq),
		Timestamp:   timestamp,
		Address:     "0xexchange",
	}
}

func (env *testEnv) apply(t *testing.T, ev event.Event) {
	t.Helper()
	if err := env.dispatcher.Apply(context.Background(), ev); err != nil {
		t.Fatalf("apply %s: %v", ev.Kind(), err)
	}
}

func (env *testEnv) trader(t *testing.T, address string) *entity.Trader {
	t.Helper()
	tr, err := env.db.GetOrCreateTrader(context.Background(), address)
	if err != nil {
		t.Fatalf("load trader: %v", err)
	}
	return tr
}

func TestDepositThenWithdraw(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	env.apply(t, &event.Deposited{Meta: env.meta(1000), Trader: "0xt1", Amount: fp.New(1000)})
	env.apply(t, &event.Withdrawn{Meta: env.meta(1010), Trader: "0xt1", Amount: fp.New(400)})

	tr := env.trader(t, "0xt1")
	if !tr.CollateralBalance.Equal(fp.New(600)) {
		t.Errorf("collateral: got %s, want 600", tr.CollateralBalance)
	}
	if tr.Timestamp != 1010 {
		t.Errorf("timestamp: got %d, want 1010", tr.Timestamp)
	}
}

func TestWithdrawBelowZeroIsRepresentable(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	env.apply(t, &event.Withdrawn{Meta: env.meta(1), Trader: "0xt1", Amount: fp.New(50)})

	tr := env.trader(t, "0xt1")
	if !tr.CollateralBalance.Equal(fp.New(-50)) {
		t.Errorf("collateral: got %s, want -50", tr.CollateralBalance)
	}
}

func TestCollateralBalanceSetAppliesDelta(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	env.apply(t, &event.Deposited{Meta: env.meta(1), Trader: "0xt1", Amount: fp.New(100)})
	env.apply(t, &event.CollateralBalanceSet{
		Meta: env.meta(2), Trader: "0xt1",
		BeforeBalance: fp.New(100), AfterBalance: fp.New(30),
	})

	tr := env.trader(t, "0xt1")
	if !tr.CollateralBalance.Equal(fp.New(30)) {
		t.Errorf("collateral: got %s, want 30", tr.CollateralBalance)
	}
}

func TestCollateralCompensatedMovesInsuranceFund(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	env.apply(t, &event.CollateralCompensated{Meta: env.meta(5), Trader: "0xt1", Amount: fp.New(70)})

	protocol, err := env.db.GetOrCreateProtocol(context.Background())
	if err != nil {
		t.Fatalf("load protocol: %v", err)
	}
	if !protocol.InsuranceFundBalance.Equal(fp.New(-70)) {
		t.Errorf("insurance fund: got %s, want -70", protocol.InsuranceFundBalance)
	}
	if !env.trader(t, "0xt1").CollateralBalance.Equal(fp.New(70)) {
		t.Errorf("trader collateral: got %s, want 70", env.trader(t, "0xt1").CollateralBalance)
	}
}

func TestProtocolFeeTransferred(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{StartedAt: 1, FinishedAt: 100})

	env.apply(t, &event.ProtocolFeeTransferred{Meta: env.meta(50), Trader: "0xt1", Amount: fp.New(9)})

	protocol, err := env.db.GetOrCreateProtocol(context.Background())
	if err != nil {
		t.Fatalf("load protocol: %v", err)
	}
	if !protocol.ProtocolFee.Equal(fp.New(-9)) {
		t.Errorf("protocol fee: got %s, want -9", protocol.ProtocolFee)
	}

	// The transfer is profit, not deposit, for the competition.
	pr, err := env.db.GetOrCreateProfitRatio(context.Background(), "0xt1", 1, 100)
	if err != nil {
		t.Fatalf("load profit ratio: %v", err)
	}
	if !pr.Profit.Equal(fp.New(9)) {
		t.Errorf("profit: got %s, want 9", pr.Profit)
	}
	if !pr.Deposit.IsZero() {
		t.Errorf("deposit: got %s, want 0", pr.Deposit)
	}
}

func TestCompetitionWindowClosedInterval(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{StartedAt: 100, FinishedAt: 200})

	tests := []struct {
		timestamp int64
		counted   bool
	}{
		{99, false},
		{100, true},
		{200, true},
		{201, false},
	}
	for _, tt := range tests {
		env.apply(t, &event.Deposited{Meta: env.meta(tt.timestamp), Trader: "0xt1", Amount: fp.New(10)})
	}

	pr, err := env.db.GetOrCreateProfitRatio(context.Background(), "0xt1", 100, 200)
	if err != nil {
		t.Fatalf("load profit ratio: %v", err)
	}
	if !pr.Deposit.Equal(fp.New(20)) {
		t.Errorf("deposit: got %s, want 20 (only in-window events)", pr.Deposit)
	}
}

func TestZeroWindowDisablesCompetition(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	env.apply(t, &event.Deposited{Meta: env.meta(50), Trader: "0xt1", Amount: fp.New(10)})

	if n := env.mem.Len(entity.KindProfitRatio); n != 0 {
		t.Errorf("profit ratio entities: got %d, want 0", n)
	}
}

func TestProfitRatioTruncatesTowardZero(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{StartedAt: 1, FinishedAt: 100})

	env.apply(t, &event.Deposited{Meta: env.meta(10), Trader: "0xt1", Amount: fp.New(3)})
	env.apply(t, &event.MarketClosed{Meta: env.meta(20), Trader: "0xt1", Market: "0xm1", RealizedPnl: fp.New(-2)})

	pr, err := env.db.GetOrCreateProfitRatio(context.Background(), "0xt1", 1, 100)
	if err != nil {
		t.Fatalf("load profit ratio: %v", err)
	}
	// -2/3 truncates to 0, not -1.
	if !pr.ProfitRatio.IsZero() {
		t.Errorf("profit ratio: got %s, want 0", pr.ProfitRatio)
	}
}

func TestEventLogRowWritten(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	m := env.meta(7)
	env.apply(t, &event.Deposited{Meta: m, Trader: "0xt1", Amount: fp.New(5)})

	logKind := indexer.LogKind(event.KindDeposited)
	if _, err := env.mem.Load(context.Background(), logKind, m.ID()); err != nil {
		t.Fatalf("log row %s missing: %v", m.ID(), err)
	}
}

func TestReplaySameEventConverges(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	ev := &event.CollateralBalanceSet{
		Meta: env.meta(10), Trader: "0xt1",
		BeforeBalance: fp.New(0), AfterBalance: fp.New(40),
	}
	env.apply(t, ev)
	before := env.mem.Len(indexer.LogKind(event.KindCollateralBalanceSet))

	env.apply(t, ev)
	after := env.mem.Len(indexer.LogKind(event.KindCollateralBalanceSet))

	if before != 1 || after != 1 {
		t.Errorf("log rows: got %d then %d, want 1 and 1", before, after)
	}
}

func TestApplyRejectsInvalidMeta(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	ev := &event.Deposited{
		Meta:   event.Meta{BlockNumber: 1, LogIndex: 0, TxHash: "", Timestamp: 1},
		Trader: "0xt1", Amount: fp.New(5),
	}
	if err := env.dispatcher.Apply(context.Background(), ev); err == nil {
		t.Fatal("expected validation error for empty txHash")
	}
	if n := env.mem.Len(entity.KindTrader); n != 0 {
		t.Errorf("trader entities after rejected event: got %d, want 0", n)
	}
}

func TestProtocolConfigChanges(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	env.apply(t, &event.MaxMarketsPerAccountChanged{Meta: env.meta(1), Value: 16})
	env.apply(t, &event.MaxOrdersPerAccountChanged{Meta: env.meta(2), Value: 40})
	env.apply(t, &event.ImRatioChanged{Meta: env.meta(3), Value: 50_000})
	env.apply(t, &event.MmRatioChanged{Meta: env.meta(4), Value: 25_000})
	env.apply(t, &event.LiquidationRewardConfigChanged{Meta: env.meta(5), RewardRatio: 2_000, SmoothEmaTime: 600})
	env.apply(t, &event.ProtocolFeeRatioChanged{Meta: env.meta(6), Value: 1_000})

	protocol, err := env.db.GetOrCreateProtocol(context.Background())
	if err != nil {
		t.Fatalf("load protocol: %v", err)
	}
	if protocol.MaxMarketsPerAccount != 16 || protocol.MaxOrdersPerAccount != 40 {
		t.Errorf("limits: got %d/%d", protocol.MaxMarketsPerAccount, protocol.MaxOrdersPerAccount)
	}
	if protocol.ImRatio != 50_000 || protocol.MmRatio != 25_000 {
		t.Errorf("margin ratios: got %d/%d", protocol.ImRatio, protocol.MmRatio)
	}
	if protocol.RewardRatio != 2_000 || protocol.SmoothEmaTime != 600 {
		t.Errorf("liquidation reward config: got %d/%d", protocol.RewardRatio, protocol.SmoothEmaTime)
	}
	if protocol.ProtocolFeeRatio != 1_000 {
		t.Errorf("protocol fee ratio: got %d", protocol.ProtocolFeeRatio)
	}
	if protocol.Timestamp != 6 {
		t.Errorf("timestamp: got %d, want 6", protocol.Timestamp)
	}
}

type recordingRegistrar struct {
	calls []string
}

func (r *recordingRegistrar) RegisterMarket(_ context.Context, address string) error {
	r.calls = append(r.calls, address)
	return nil
}

func TestMarketStatusChangedRegistersMarket(t *testing.T) {
	mem := store.NewMemoryStore()
	db := indexer.NewStateDB(mem)
	reg := &recordingRegistrar{}
	d := indexer.NewDispatcher(db, reg, indexer.CompetitionWindow{}, nil)

	ev := &event.MarketStatusChanged{
		Meta:   event.Meta{BlockNumber: 1, LogIndex: 0, TxHash: "0xa", Timestamp: 10, Address: "0xexchange"},
		Market: "0xm1",
		Status: 1,
	}
	if err := d.Apply(context.Background(), ev); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(reg.calls) != 1 || reg.calls[0] != "0xm1" {
		t.Fatalf("registrar calls: got %v, want [0xm1]", reg.calls)
	}

	market, err := db.GetOrCreateMarket(context.Background(), "0xm1")
	if err != nil {
		t.Fatalf("load market: %v", err)
	}
	if market.Status != 1 {
		t.Errorf("status: got %d, want 1", market.Status)
	}
}

func TestTraderMarketsDeduplicated(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	for i := 0; i < 3; i++ {
		env.apply(t, &event.LiquidityAddedExchange{
			Meta: env.meta(int64(10 + i)), Trader: "0xt1", Market: "0xm1",
			Base: fp.New(1), Quote: fp.New(1), Liquidity: fp.New(1),
		})
	}
	env.apply(t, &event.LiquidityAddedExchange{
		Meta: env.meta(20), Trader: "0xt1", Market: "0xm2",
		Base: fp.New(1), Quote: fp.New(1), Liquidity: fp.New(1),
	})

	tr := env.trader(t, "0xt1")
	want := []string{"0xm1", "0xm2"}
	if len(tr.Markets) != len(want) {
		t.Fatalf("markets: got %v, want %v", tr.Markets, want)
	}
	for i := range want {
		if tr.Markets[i] != want[i] {
			t.Errorf("markets[%d]: got %s, want %s", i, tr.Markets[i], want[i])
		}
	}
}

func TestDaySummaryBuckets(t *testing.T) {
	env := newTestEnv(indexer.CompetitionWindow{})

	dayOne := int64(86400 + 100)
	dayTwo := int64(2*86400 + 100)
	env.apply(t, &event.LimitOrderSettled{Meta: env.meta(dayOne), Trader: "0xt1", Market: "0xm1", RealizedPnl: fp.New(5)})
	env.apply(t, &event.LimitOrderSettled{Meta: env.meta(dayOne + 50), Trader: "0xt1", Market: "0xm1", RealizedPnl: fp.New(3)})
	env.apply(t, &event.LimitOrderSettled{Meta: env.meta(dayTwo), Trader: "0xt1", Market: "0xm1", RealizedPnl: fp.New(-1)})

	ctx := context.Background()
	first, err := env.db.GetOrCreateDaySummary(ctx, "0xt1", dayOne)
	if err != nil {
		t.Fatalf("load day summary: %v", err)
	}
	if !first.RealizedPnl.Equal(fp.New(8)) {
		t.Errorf("day one pnl: got %s, want 8", first.RealizedPnl)
	}

	second, err := env.db.GetOrCreateDaySummary(ctx, "0xt1", dayTwo)
	if err != nil {
		t.Fatalf("load day summary: %v", err)
	}
	if !second.RealizedPnl.Equal(fp.New(-1)) {
		t.Errorf("day two pnl: got %s, want -1", second.RealizedPnl)
	}
}
