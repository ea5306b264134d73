package store

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redops/internal/domain"
	redopssdk "redops/sdk/go"
)

type fakeGateway struct {
	list   func(context.Context) ([]domain.Operation, error)
	create func(context.Context, domain.OperationDraft) (domain.Operation, error)
	update func(context.Context, string, domain.OperationPatch) (domain.Operation, error)
	del    func(context.Context, string) error
}

func (f *fakeGateway) List(ctx context.Context) ([]domain.Operation, error) { return f.list(ctx) }
func (f *fakeGateway) Create(ctx context.Context, d domain.OperationDraft) (domain.Operation, error) {
	return f.create(ctx, d)
}
func (f *fakeGateway) Update(ctx context.Context, id string, p domain.OperationPatch) (domain.Operation, error) {
	return f.update(ctx, id, p)
}
func (f *fakeGateway) Delete(ctx context.Context, id string) error { return f.del(ctx, id) }

type opStore = Store[domain.Operation, domain.OperationDraft, domain.OperationPatch]

func seeded(t *testing.T, gw *fakeGateway, opts ...Option) *opStore {
	t.Helper()
	if gw.list == nil {
		gw.list = func(context.Context) ([]domain.Operation, error) {
			return []domain.Operation{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Bravo"}, {ID: "c", Name: "Charlie"}}, nil
		}
	}
	s := New[domain.Operation, domain.OperationDraft, domain.OperationPatch]("operations", gw, opts...)
	require.NoError(t, s.FetchAll(context.Background()))
	return s
}

func ids(items []domain.Operation) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestCreateAppendsServerEntity(t *testing.T) {
	gw := &fakeGateway{create: func(_ context.Context, d domain.OperationDraft) (domain.Operation, error) {
		return domain.Operation{ID: "srv-1", Name: d.Name, Type: d.Type}, nil
	}}
	s := seeded(t, gw)

	created, err := s.Create(context.Background(), domain.OperationDraft{Name: "Delta", Type: domain.OperationRedTeam})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)

	st := s.State()
	assert.Equal(t, []string{"a", "b", "c", "srv-1"}, ids(st.Items))
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
}

func TestCreateValidationSkipsGateway(t *testing.T) {
	gw := &fakeGateway{create: func(context.Context, domain.OperationDraft) (domain.Operation, error) {
		t.Fatal("gateway must not be called")
		return domain.Operation{}, nil
	}}
	s := seeded(t, gw)

	_, err := s.Create(context.Background(), domain.OperationDraft{Type: domain.OperationPenTest})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	st := s.State()
	assert.Len(t, st.Items, 3)
	assert.Equal(t, "name: is required", st.Err)
	assert.False(t, st.Loading)
}

func TestUpdateReplacesInPlace(t *testing.T) {
	gw := &fakeGateway{update: func(_ context.Context, id string, p domain.OperationPatch) (domain.Operation, error) {
		op := domain.Operation{ID: id, Name: "Bravo"}
		p.Apply(&op)
		return op, nil
	}}
	s := seeded(t, gw)
	status := domain.OperationInProgress

	_, err := s.Update(context.Background(), "b", domain.OperationPatch{Status: &status})
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, []string{"a", "b", "c"}, ids(st.Items))
	assert.Equal(t, domain.OperationInProgress, st.Items[1].Status)
}

func TestUpdateForUnknownItemIsDropped(t *testing.T) {
	gw := &fakeGateway{update: func(_ context.Context, id string, _ domain.OperationPatch) (domain.Operation, error) {
		return domain.Operation{ID: id, Name: "Ghost"}, nil
	}}
	s := seeded(t, gw)
	name := "Ghost"

	_, err := s.Update(context.Background(), "zz", domain.OperationPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.State().Items))
}

func TestDeleteIsIdempotent(t *testing.T) {
	var calls int32
	gw := &fakeGateway{del: func(context.Context, string) error {
		if atomic.AddInt32(&calls, 1) > 1 {
			return &redopssdk.APIError{StatusCode: http.StatusNotFound, Message: "operation not found"}
		}
		return nil
	}}
	s := seeded(t, gw)

	require.NoError(t, s.Delete(context.Background(), "b"))
	require.NoError(t, s.Delete(context.Background(), "b"))
	st := s.State()
	assert.Equal(t, []string{"a", "c"}, ids(st.Items))
	assert.Empty(t, st.Err)
}

func TestFailureKeepsItems(t *testing.T) {
	gw := &fakeGateway{}
	s := seeded(t, gw)
	gw.list = func(context.Context) ([]domain.Operation, error) {
		return nil, &redopssdk.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	}
	gw.del = func(context.Context, string) error { return errors.New("connection reset") }

	require.Error(t, s.FetchAll(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.State().Items))
	assert.Contains(t, s.State().Err, "boom")

	require.Error(t, s.Delete(context.Background(), "a"))
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.State().Items))
	assert.Equal(t, "connection reset", s.State().Err)
}

func TestCreateAfterConcurrentFetchKeepsOneEntry(t *testing.T) {
	var s *opStore
	var created atomic.Bool
	gw := &fakeGateway{}
	gw.list = func(context.Context) ([]domain.Operation, error) {
		items := []domain.Operation{{ID: "a"}}
		if created.Load() {
			items = append(items, domain.Operation{ID: "srv-1", Name: "Delta"})
		}
		return items, nil
	}
	gw.create = func(ctx context.Context, d domain.OperationDraft) (domain.Operation, error) {
		created.Store(true)
		// A fetch lands between the server commit and the create response.
		require.NoError(t, s.FetchAll(ctx))
		return domain.Operation{ID: "srv-1", Name: d.Name, Type: d.Type}, nil
	}
	s = seeded(t, gw)

	_, err := s.Create(context.Background(), domain.OperationDraft{Name: "Delta", Type: domain.OperationRedTeam})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "srv-1"}, ids(s.State().Items))
}

func TestLoadingOnlyWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{list: func(context.Context) ([]domain.Operation, error) {
		close(started)
		<-release
		return []domain.Operation{{ID: "x"}}, nil
	}}
	s := New[domain.Operation, domain.OperationDraft, domain.OperationPatch]("operations", gw)

	done := make(chan error, 1)
	go func() { done <- s.FetchAll(context.Background()) }()
	<-started
	assert.True(t, s.State().Loading)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.State().Loading)
}

// outOfOrder dispatches two fetches where the first resolves last.
func outOfOrder(t *testing.T, opts ...Option) []string {
	t.Helper()
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var n int32
	gw := &fakeGateway{list: func(context.Context) ([]domain.Operation, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			close(firstStarted)
			<-releaseFirst
			return []domain.Operation{{ID: "first"}}, nil
		}
		return []domain.Operation{{ID: "second"}}, nil
	}}
	s := New[domain.Operation, domain.OperationDraft, domain.OperationPatch]("operations", gw, opts...)

	done := make(chan error, 1)
	go func() { done <- s.FetchAll(context.Background()) }()
	<-firstStarted
	require.NoError(t, s.FetchAll(context.Background()))
	close(releaseFirst)
	require.NoError(t, <-done)
	return ids(s.State().Items)
}

func TestFetchLastResolutionWins(t *testing.T) {
	assert.Equal(t, []string{"first"}, outOfOrder(t))
}

func TestFetchStaleGuardKeepsLatestDispatch(t *testing.T) {
	assert.Equal(t, []string{"second"}, outOfOrder(t, WithStaleGuard()))
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	gw := &fakeGateway{}
	s := seeded(t, gw)
	gw.del = func(context.Context, string) error { return nil }

	var last State[domain.Operation]
	var count int
	unsubscribe := s.Subscribe(func(st State[domain.Operation]) {
		count++
		last = st
	})
	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"b", "c"}, ids(last.Items))

	unsubscribe()
	require.NoError(t, s.Delete(context.Background(), "b"))
	assert.Equal(t, 2, count)
}

func TestSelectTracksCurrent(t *testing.T) {
	gw := &fakeGateway{}
	s := seeded(t, gw)
	gw.del = func(context.Context, string) error { return nil }

	require.True(t, s.Select("c"))
	require.NotNil(t, s.State().Current)
	assert.Equal(t, "Charlie", s.State().Current.Name)

	require.NoError(t, s.Delete(context.Background(), "c"))
	assert.Nil(t, s.State().Current)
	assert.False(t, s.Select("missing"))
}
