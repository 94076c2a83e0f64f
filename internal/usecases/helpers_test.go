package usecases_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/internal/domain/repositories"
	repoimpl "p2p-ramp.backend/internal/infrastructure/repositories"
	"p2p-ramp.backend/internal/usecases"
	"p2p-ramp.backend/pkg/keylock"
	"p2p-ramp.backend/pkg/metrics"
	"p2p-ramp.backend/pkg/money"
	"p2p-ramp.backend/pkg/utils"
)

const testWallet = "0x00000000000000000000000000000000000000a1"

// recordingPublisher keeps every published event in order. gate, when
// set, runs before an event is recorded and may block.
type recordingPublisher struct {
	mu     sync.Mutex
	events []repositories.TransactionEvent
	err    error
	gate   func(repositories.TransactionEvent)
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, event repositories.TransactionEvent) error {
	if p.gate != nil {
		p.gate(event)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) statuses() []entities.TransactionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entities.TransactionStatus, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Status)
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	users     *repoimpl.UserRepository
	traders   *repoimpl.TraderRepository
	cards     *repoimpl.CardRepository
	txs       *repoimpl.TransactionRepository
	metrics   *metrics.Metrics
	publisher *recordingPublisher

	settings  *usecases.SettingsStore
	guard     *usecases.AccountGuard
	ledger    *usecases.LedgerService
	registry  *usecases.CardRegistry
	engine    *usecases.AllocationEngine
	sm        *usecases.TransactionStateMachine
	traderUC  *usecases.TraderUsecase
	reporting *usecases.ReportingUsecase
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	createTables(t, db)
	return db
}

func createTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			is_blocked BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE traders (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			nickname TEXT NOT NULL,
			usdt_address TEXT NOT NULL,
			phone TEXT,
			balance TEXT NOT NULL,
			is_blocked BOOLEAN NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE cards (
			id TEXT PRIMARY KEY,
			trader_id TEXT NOT NULL,
			card_number TEXT NOT NULL,
			bank_name TEXT NOT NULL,
			holder_name TEXT NOT NULL,
			card_limit TEXT NOT NULL,
			current_usage TEXT NOT NULL,
			status TEXT NOT NULL,
			currency TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			trader_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			crypto_amount TEXT NOT NULL,
			fiat_amount TEXT NOT NULL,
			commission_amount TEXT NOT NULL,
			exchange_rate TEXT NOT NULL,
			commission_rate TEXT NOT NULL,
			settings_version INTEGER NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			cancel_reason TEXT,
			expires_at DATETIME NOT NULL,
			user_confirmed_at DATETIME,
			completed_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE UNIQUE INDEX ux_transactions_open_per_user_currency
			ON transactions (user_id, currency) WHERE status IN ('pending', 'user_confirmed');`,
		`CREATE TABLE settings (
			version INTEGER PRIMARY KEY,
			commission_rate TEXT NOT NULL,
			exchange_rate TEXT NOT NULL,
			deposit_wallet_address TEXT NOT NULL,
			updated_at DATETIME
		);`,
	}
	for _, q := range stmts {
		require.NoError(t, db.Exec(q).Error, "exec failed: query=%s", q)
	}
}

// newTestEnv wires the real repositories on sqlite with settings seeded
// at the given commission and exchange rates.
func newTestEnv(t *testing.T, commission, rate string, policy usecases.AllocationPolicy) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return newTestEnvOn(t, db, commission, rate, policy)
}

func newTestEnvOn(t *testing.T, db *gorm.DB, commission, rate string, policy usecases.AllocationPolicy) *testEnv {
	t.Helper()
	e := &testEnv{
		db:        db,
		users:     repoimpl.NewUserRepository(db),
		traders:   repoimpl.NewTraderRepository(db),
		cards:     repoimpl.NewCardRepository(db),
		txs:       repoimpl.NewTransactionRepository(db),
		metrics:   metrics.New(),
		publisher: &recordingPublisher{},
	}
	uow := repoimpl.NewUnitOfWork(db)
	locks := keylock.New()

	e.settings = usecases.NewSettingsStore(repoimpl.NewSettingsRepository(db), e.metrics)
	require.NoError(t, e.settings.Load(context.Background(), entities.Settings{
		CommissionRate:       decimal.RequireFromString(commission),
		ExchangeRate:         decimal.RequireFromString(rate),
		DepositWalletAddress: testWallet,
	}))

	e.guard = usecases.NewAccountGuard(e.users, e.traders)
	e.ledger = usecases.NewLedgerService(e.traders, uow, locks, e.metrics)
	e.registry = usecases.NewCardRegistry(e.cards, e.txs, e.guard, uow, locks)
	e.engine = usecases.NewAllocationEngine(e.settings, e.registry, e.guard, e.cards, e.traders, e.txs, uow, locks, e.publisher, e.metrics, policy)
	e.sm = usecases.NewTransactionStateMachine(e.txs, e.cards, e.guard, e.ledger, uow, locks, e.publisher, e.metrics)
	e.traderUC = usecases.NewTraderUsecase(e.users, e.traders, e.guard, uow)
	e.reporting = usecases.NewReportingUsecase(e.users, e.traders, e.cards, e.txs, e.guard)
	return e
}

func defaultPolicy() usecases.AllocationPolicy {
	return usecases.AllocationPolicy{ReservationTTL: 30 * time.Minute, OneOpenPerCurrency: true}
}

func (e *testEnv) seedUser(t *testing.T, role entities.UserRole) *entities.User {
	t.Helper()
	now := time.Now().UTC()
	u := &entities.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "unused",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

// seedTrader registers a trader through the usecase and credits balance
// through the ledger when it is positive.
func (e *testEnv) seedTrader(t *testing.T, balance string) (entities.Actor, *entities.Trader) {
	t.Helper()
	ctx := context.Background()
	u := e.seedUser(t, entities.UserRoleUser)
	trader, err := e.traderUC.Register(ctx, u.Actor(), &entities.RegisterTraderInput{
		Name:        "Trader",
		Nickname:    "t-" + u.ID.String()[:8],
		USDTAddress: "0x00000000000000000000000000000000000000b2",
	})
	require.NoError(t, err)

	if b := decimal.RequireFromString(balance); b.IsPositive() {
		admin := e.seedUser(t, entities.UserRoleAdmin)
		trader, err = e.ledger.CreditTrader(ctx, admin.Actor(), trader.ID, balance)
		require.NoError(t, err)
	}
	return entities.Actor{UserID: u.ID, Role: entities.UserRoleTrader}, trader
}

func (e *testEnv) seedCard(t *testing.T, trader entities.Actor, limit, currency string) *entities.Card {
	t.Helper()
	card, err := e.registry.AddCard(context.Background(), trader, &entities.AddCardInput{
		CardNumber: "4111 1111 1111 1111",
		BankName:   "Mono",
		HolderName: "Ivan Petrenko",
		Limit:      money.Amount(limit),
		Currency:   currency,
	})
	require.NoError(t, err)
	return card
}

func (e *testEnv) card(t *testing.T, id uuid.UUID) *entities.Card {
	t.Helper()
	c, err := e.cards.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (e *testEnv) transaction(t *testing.T, id uuid.UUID) *entities.Transaction {
	t.Helper()
	tx, err := e.txs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return tx
}

func (e *testEnv) balance(t *testing.T, traderID uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), traderID)
	require.NoError(t, err)
	return b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func paging() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 50}
}
