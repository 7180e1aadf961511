package cartsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-cart/internal/client"
	"github.com/xenking/storefront-cart/internal/localstore"
	"github.com/xenking/storefront-cart/internal/session"
)

// seedGuestCart builds a guest manager with lines already persisted, then
// returns the fixture still in guest mode.
func seedGuestCart(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, false)
	ctx := t.Context()
	require.NoError(t, f.manager.AddItem(ctx, waffle, 2, "", ""))
	require.NoError(t, f.manager.AddItem(ctx, tea, 1, "", ""))
	return f
}

func TestMergeOnLoginMigratesGuestLines(t *testing.T) {
	f := seedGuestCart(t)
	ctx := t.Context()

	// Login fires the merge synchronously through the session subscription.
	f.session.Authenticate("u1", "tok-1")

	report := f.manager.LastMergeReport()
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Attempted)
	assert.ElementsMatch(t, []string{"p1", "p2"}, report.Migrated)
	assert.Empty(t, report.Failed)

	// The authenticated cart was refetched and is now the source of truth.
	snap := f.manager.Snapshot()
	assert.Equal(t, "cart-1", snap.ID)
	assert.Equal(t, 2, f.manager.ItemQuantity("p1"))
	assert.Equal(t, 1, f.manager.ItemQuantity("p2"))

	// The guest storage entry is gone.
	stored, err := localstore.LoadCart(ctx, f.store, localstore.KeyGuestCart)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMergePartialFailureIsAccepted(t *testing.T) {
	f := seedGuestCart(t)
	f.remote.failProduct = "p2"

	f.session.Authenticate("u1", "tok-1")

	report := f.manager.LastMergeReport()
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, []string{"p1"}, report.Migrated)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "p2", report.Failed[0].ProductID)

	// Line failures are swallowed, not surfaced as user notifications.
	for _, msg := range f.notifier.messages {
		assert.NotContains(t, msg, "p2")
	}
}

func TestMergeAllFailuresStillDeletesGuestCartAndRefetches(t *testing.T) {
	f := seedGuestCart(t)
	ctx := t.Context()
	f.remote.failAllAdds = true

	fetchesBefore := f.remote.fetchCalls
	f.session.Authenticate("u1", "tok-1")

	report := f.manager.LastMergeReport()
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Attempted)
	assert.Empty(t, report.Migrated)
	assert.Len(t, report.Failed, 2)

	// Guest storage deleted unconditionally, authenticated cart refetched.
	stored, err := localstore.LoadCart(ctx, f.store, localstore.KeyGuestCart)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Greater(t, f.remote.fetchCalls, fetchesBefore)
}

func TestMergeNeverRerunsAutomatically(t *testing.T) {
	f := seedGuestCart(t)

	f.session.Authenticate("u1", "tok-1")
	first := f.manager.LastMergeReport()
	require.NotNil(t, first)
	addsAfterMerge := f.remote.addCalls

	// Subsequent login ticks must not re-run the merge.
	f.session.Authenticate("u1", "tok-2")
	assert.Same(t, first, f.manager.LastMergeReport())
	assert.Equal(t, addsAfterMerge, f.remote.addCalls)

	report, err := f.manager.MergeCarts(t.Context())
	require.NoError(t, err)
	assert.Same(t, first, report)
}

func TestMergeRequiresAuthenticatedSession(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.manager.MergeCarts(t.Context())
	assert.Error(t, err)
}

func TestMergeBeforeHydrationDeferred(t *testing.T) {
	// Login before hydration must not trigger the merge; the cart subsystem
	// has no state to migrate yet.
	remote := newFakeRemote(waffle, tea)
	store := localstore.NewMemStore()
	sess := session.New()
	m := New(Config{
		Remote:   remote,
		Store:    store,
		Session:  sess,
		Notifier: &fakeNotifier{},
	})

	sess.Authenticate("u1", "tok-1")
	assert.Nil(t, m.LastMergeReport())
	assert.Zero(t, remote.addCalls)
}

func TestMergeRefetchFailureStillCompletesMerge(t *testing.T) {
	f := seedGuestCart(t)
	f.remote.failWith = client.ErrUnauthorized

	// Merge runs on login; every call, including the refetch, fails.
	f.session.Authenticate("u1", "tok-1")

	report := f.manager.LastMergeReport()
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Attempted)
	assert.Len(t, report.Failed, 2)

	// The merge is still marked done: it never re-runs automatically.
	f.session.Authenticate("u1", "tok-2")
	assert.Same(t, report, f.manager.LastMergeReport())
}
