package usecases_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/internal/usecases"
	"p2p-ramp.backend/pkg/money"
)

type flowFixture struct {
	e           *testEnv
	user        *entities.User
	admin       *entities.User
	traderActor entities.Actor
	trader      *entities.Trader
	card        *entities.Card
}

func newFlow(t *testing.T, balance string, policy usecases.AllocationPolicy) *flowFixture {
	t.Helper()
	e := newTestEnv(t, "1", "40", policy)
	traderActor, trader := e.seedTrader(t, balance)
	return &flowFixture{
		e:           e,
		user:        e.seedUser(t, entities.UserRoleUser),
		admin:       e.seedUser(t, entities.UserRoleAdmin),
		traderActor: traderActor,
		trader:      trader,
		card:        e.seedCard(t, traderActor, "10000", "UAH"),
	}
}

func (f *flowFixture) request(t *testing.T, amount string) *entities.Transaction {
	t.Helper()
	alloc, err := f.e.engine.RequestCard(context.Background(), f.user.Actor(), &entities.RequestCardInput{Amount: money.Amount(amount), Currency: "UAH"})
	require.NoError(t, err)
	return alloc.Transaction
}

func TestStateMachine_HappyPathSettles(t *testing.T) {
	f := newFlow(t, "500", defaultPolicy())
	ctx := context.Background()
	tx := f.request(t, "100")

	confirmed, err := f.e.sm.ConfirmByUser(ctx, f.user.Actor(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusUserConfirmed, confirmed.Status)
	assert.True(t, confirmed.UserConfirmedAt.Valid)

	settled, err := f.e.sm.ConfirmByTrader(ctx, f.traderActor, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusCompleted, settled.Status)
	assert.True(t, settled.CompletedAt.Valid)

	stored := f.e.transaction(t, tx.ID)
	assert.Equal(t, entities.TransactionStatusCompleted, stored.Status)
	assert.True(t, stored.CompletedAt.Valid)
	assert.Equal(t, "400", f.e.balance(t, f.trader.ID).String())
	// settled deposits keep counting against the card limit
	assert.Equal(t, "4040.00", f.e.card(t, f.card.ID).CurrentUsage.StringFixed(2))

	assert.Equal(t, []entities.TransactionStatus{
		entities.TransactionStatusPending,
		entities.TransactionStatusUserConfirmed,
		entities.TransactionStatusCompleted,
	}, f.e.publisher.statuses())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.e.metrics.LedgerMovements.WithLabelValues("debit")))
}

func TestStateMachine_ConfirmByUser_Guards(t *testing.T) {
	f := newFlow(t, "0", defaultPolicy())
	ctx := context.Background()
	tx := f.request(t, "1")

	stranger := f.e.seedUser(t, entities.UserRoleUser)
	_, err := f.e.sm.ConfirmByUser(ctx, stranger.Actor(), tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition, "only the owning user confirms")
	assert.Equal(t, entities.TransactionStatusPending, f.e.transaction(t, tx.ID).Status)

	_, err = f.e.sm.ConfirmByUser(ctx, f.traderActor, tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = f.e.sm.ConfirmByTrader(ctx, f.traderActor, tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition, "trader cannot settle before the user confirms")

	_, err = f.e.sm.ConfirmByUser(ctx, f.user.Actor(), tx.ID)
	require.NoError(t, err)
	_, err = f.e.sm.ConfirmByUser(ctx, f.user.Actor(), tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
}

func TestStateMachine_ConfirmByUser_AfterExpiry(t *testing.T) {
	f := newFlow(t, "0", usecases.AllocationPolicy{ReservationTTL: time.Millisecond})
	tx := f.request(t, "1")
	time.Sleep(10 * time.Millisecond)

	_, err := f.e.sm.ConfirmByUser(context.Background(), f.user.Actor(), tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	assert.Equal(t, entities.TransactionStatusPending, f.e.transaction(t, tx.ID).Status)
}

func TestStateMachine_ConfirmByTrader_InsufficientBalanceIsAtomic(t *testing.T) {
	f := newFlow(t, "50", defaultPolicy())
	ctx := context.Background()
	tx := f.request(t, "60")

	_, err := f.e.sm.ConfirmByUser(ctx, f.user.Actor(), tx.ID)
	require.NoError(t, err)

	_, err = f.e.sm.ConfirmByTrader(ctx, f.traderActor, tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInsufficientBalance)

	stored := f.e.transaction(t, tx.ID)
	assert.Equal(t, entities.TransactionStatusUserConfirmed, stored.Status)
	assert.False(t, stored.CompletedAt.Valid)
	assert.Equal(t, "50", f.e.balance(t, f.trader.ID).String())

	_, err = f.e.ledger.CreditTrader(ctx, f.admin.Actor(), f.trader.ID, "10")
	require.NoError(t, err)
	_, err = f.e.sm.ConfirmByTrader(ctx, f.traderActor, tx.ID)
	require.NoError(t, err)
	assert.True(t, f.e.balance(t, f.trader.ID).IsZero())
}

func TestStateMachine_ConfirmByTrader_OtherTraderAndBlocked(t *testing.T) {
	f := newFlow(t, "100", defaultPolicy())
	ctx := context.Background()
	tx := f.request(t, "1")
	_, err := f.e.sm.ConfirmByUser(ctx, f.user.Actor(), tx.ID)
	require.NoError(t, err)

	otherActor, _ := f.e.seedTrader(t, "100")
	_, err = f.e.sm.ConfirmByTrader(ctx, otherActor, tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition, "only the owning trader settles")
	assert.Equal(t, entities.TransactionStatusUserConfirmed, f.e.transaction(t, tx.ID).Status)

	blocked := true
	_, err = f.e.guard.BlockTrader(ctx, f.admin.Actor(), f.trader.ID, &blocked)
	require.NoError(t, err)
	_, err = f.e.sm.ConfirmByTrader(ctx, f.traderActor, tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrBlocked)
	assert.Equal(t, entities.TransactionStatusUserConfirmed, f.e.transaction(t, tx.ID).Status)
}

func TestStateMachine_Cancel_ReleasesExactReservation(t *testing.T) {
	f := newFlow(t, "0", defaultPolicy())
	ctx := context.Background()

	other := f.e.seedUser(t, entities.UserRoleUser)
	_, err := f.e.engine.RequestCard(ctx, other.Actor(), &entities.RequestCardInput{Amount: "10", Currency: "UAH"})
	require.NoError(t, err)
	tx := f.request(t, "100")
	assert.Equal(t, "4444.00", f.e.card(t, f.card.ID).CurrentUsage.StringFixed(2))

	rate, commission := money.Amount("55"), money.Amount("3")
	_, err = f.e.settings.Update(ctx, f.admin.Actor(), &entities.UpdateSettingsInput{ExchangeRate: &rate, CommissionRate: &commission})
	require.NoError(t, err)

	cancelled, err := f.e.sm.Cancel(ctx, f.admin.Actor(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusCancelled, cancelled.Status)
	assert.Equal(t, entities.CancelReasonAdmin, cancelled.CancelReason)
	assert.Equal(t, "404.00", f.e.card(t, f.card.ID).CurrentUsage.StringFixed(2))

	_, err = f.e.sm.Cancel(ctx, f.admin.Actor(), tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	assert.Equal(t, "404.00", f.e.card(t, f.card.ID).CurrentUsage.StringFixed(2))
}

func TestStateMachine_Cancel_UserConfirmedAndCompleted(t *testing.T) {
	f := newFlow(t, "1000", defaultPolicy())
	ctx := context.Background()
	tx := f.request(t, "1")
	_, err := f.e.sm.ConfirmByUser(ctx, f.user.Actor(), tx.ID)
	require.NoError(t, err)

	_, err = f.e.sm.Cancel(ctx, f.user.Actor(), tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = f.e.sm.Cancel(ctx, f.admin.Actor(), tx.ID)
	require.NoError(t, err)
	assert.True(t, f.e.card(t, f.card.ID).CurrentUsage.IsZero())

	_, err = f.e.sm.ConfirmByTrader(ctx, f.traderActor, tx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)

	settledTx := f.request(t, "1")
	_, err = f.e.sm.ConfirmByUser(ctx, f.user.Actor(), settledTx.ID)
	require.NoError(t, err)
	_, err = f.e.sm.ConfirmByTrader(ctx, f.traderActor, settledTx.ID)
	require.NoError(t, err)
	_, err = f.e.sm.Cancel(ctx, f.admin.Actor(), settledTx.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
}

func TestStateMachine_ExpireStale(t *testing.T) {
	f := newFlow(t, "0", usecases.AllocationPolicy{ReservationTTL: time.Minute})
	ctx := context.Background()

	stale := f.request(t, "10")
	confirmed := f.request(t, "20")
	_, err := f.e.sm.ConfirmByUser(ctx, f.user.Actor(), confirmed.ID)
	require.NoError(t, err)

	n, err := f.e.sm.ExpireStale(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing has expired yet")

	n, err = f.e.sm.ExpireStale(ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := f.e.transaction(t, stale.ID)
	assert.Equal(t, entities.TransactionStatusCancelled, got.Status)
	assert.Equal(t, entities.CancelReasonExpired, got.CancelReason)
	assert.Equal(t, entities.TransactionStatusUserConfirmed, f.e.transaction(t, confirmed.ID).Status)
	assert.Equal(t, "808.00", f.e.card(t, f.card.ID).CurrentUsage.StringFixed(2))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.e.metrics.ExpiredTotal))

	_, err = f.e.sm.Cancel(ctx, entities.SystemActor(), confirmed.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition, "the sweep never cancels confirmed deposits")
}

// holdOn blocks publishing of events with the given status until the
// returned release func runs; entered closes once such an event arrives.
func holdOn(p *recordingPublisher, status entities.TransactionStatus) (entered <-chan struct{}, release func()) {
	in := make(chan struct{})
	out := make(chan struct{})
	var once sync.Once
	p.gate = func(ev repositories.TransactionEvent) {
		if ev.Status != status {
			return
		}
		once.Do(func() { close(in) })
		<-out
	}
	return in, func() { close(out) }
}

func TestStateMachine_Cancel_SlowPublishKeepsCardAvailable(t *testing.T) {
	f := newFlow(t, "0", defaultPolicy())
	ctx := context.Background()
	tx := f.request(t, "100")

	entered, release := holdOn(f.e.publisher, entities.TransactionStatusCancelled)
	cancelled := make(chan error, 1)
	go func() {
		_, err := f.e.sm.Cancel(ctx, f.admin.Actor(), tx.ID)
		cancelled <- err
	}()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		release()
		t.Fatal("cancel event never published")
	}

	// 200 * 40 * 1.01 = 8080 fits only once the 4040 reservation is back
	other := f.e.seedUser(t, entities.UserRoleUser)
	allocated := make(chan error, 1)
	go func() {
		_, err := f.e.engine.RequestCard(ctx, other.Actor(), &entities.RequestCardInput{Amount: "200", Currency: "UAH"})
		allocated <- err
	}()
	select {
	case err := <-allocated:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("allocation on the card waited for the cancel event publish")
	}

	release()
	require.NoError(t, <-cancelled)
	assert.Equal(t, "8080.00", f.e.card(t, f.card.ID).CurrentUsage.StringFixed(2))
}

func TestStateMachine_ConfirmByTrader_SlowPublishKeepsLedgerAvailable(t *testing.T) {
	f := newFlow(t, "100", defaultPolicy())
	ctx := context.Background()
	tx := f.request(t, "1")
	_, err := f.e.sm.ConfirmByUser(ctx, f.user.Actor(), tx.ID)
	require.NoError(t, err)

	entered, release := holdOn(f.e.publisher, entities.TransactionStatusCompleted)
	settled := make(chan error, 1)
	go func() {
		_, err := f.e.sm.ConfirmByTrader(ctx, f.traderActor, tx.ID)
		settled <- err
	}()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		release()
		t.Fatal("settlement event never published")
	}

	credited := make(chan error, 1)
	go func() {
		_, err := f.e.ledger.CreditTrader(ctx, f.admin.Actor(), f.trader.ID, "5")
		credited <- err
	}()
	select {
	case err := <-credited:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("credit waited for the settlement event publish")
	}

	release()
	require.NoError(t, <-settled)
	assert.Equal(t, "104", f.e.balance(t, f.trader.ID).String())
}
