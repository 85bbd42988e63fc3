package integration

import (
	"context"
	"testing"
	"time"

	"github.com/fishlogapp/fishlog-go/internal/api"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
	"github.com/fishlogapp/fishlog-go/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatchService_Integration_CreateWithPhotoUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store, baseURL := setupTest(t)
	fixtures := testutil.NewFixtures(store)
	user := fixtures.CreateUser(t)
	client, sess := testutil.SignedInSession(t, baseURL, user)
	svc := api.NewCatchService(client, sess)
	ctx := context.Background()

	p := recordstore.NewPayload().
		Set("species", "Largemouth Bass").
		Set("weight", "4.25").
		Set("length", "19").
		Set("location", "Lake Mead").
		AddFile("photos", "bass.jpg", []byte("jpeg-bytes")).
		AddFile("photos", "release.jpg", []byte("jpeg-bytes-2"))

	created, err := svc.Create(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Largemouth Bass", created.Species)
	assert.Equal(t, 4.25, created.Weight)
	assert.Equal(t, user["id"], created.User)
	assert.Equal(t, []string{"bass.jpg", "release.jpg"}, created.Photos)
	assert.Equal(t, 0, created.FeaturePhotoIndex)

	stored := store.Get("catches", created.ID)
	require.NotNil(t, stored)
	assert.Equal(t, user["id"], stored["user"])
}

func TestCatchService_Integration_CreateSharedWithGroups(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store, baseURL := setupTest(t)
	fixtures := testutil.NewFixtures(store)
	user := fixtures.CreateUser(t)
	group := fixtures.CreateGroup(t, user["id"].(string))
	client, sess := testutil.SignedInSession(t, baseURL, user)
	svc := api.NewCatchService(client, sess)
	ctx := context.Background()

	p := recordstore.NewPayload().
		Set("species", "Trout").
		Set("sharedWithGroups", `["`+group["id"].(string)+`"]`).
		AddFile("photos", "trout.jpg", []byte("jpeg"))

	created, err := svc.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []string{group["id"].(string)}, created.SharedWithGroups)

	// The catch is visible through the group-shared filter.
	list, err := svc.List(ctx, api.ListOptions{Filter: api.FilterSharedWithGroup(group["id"].(string))})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)
}

func TestCatchService_Integration_CreateServerValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store, baseURL := setupTest(t)
	user := store.AddUser("angler@example.com", "password123", "Angler")
	client, sess := testutil.SignedInSession(t, baseURL, user)
	svc := api.NewCatchService(client, sess)

	// Missing species passes the client's checks and fails server-side.
	p := recordstore.NewPayload().AddFile("photos", "a.jpg", []byte("jpeg"))
	_, err := svc.Create(context.Background(), p)
	require.Error(t, err)

	var ae *api.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Failed to create catch: Missing required value.", ae.Message)
	assert.Contains(t, ae.Details, "species")
}

func TestCatchService_Integration_ListByUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store, baseURL := setupTest(t)
	fixtures := testutil.NewFixtures(store)
	owner := fixtures.CreateUser(t)
	other := fixtures.CreateUser(t)
	fixtures.CreateCatch(t, owner["id"].(string), testutil.WithSpecies("Bass"))
	fixtures.CreateCatch(t, owner["id"].(string), testutil.WithSpecies("Trout"))
	fixtures.CreateCatch(t, other["id"].(string), testutil.WithSpecies("Pike"))

	client, sess := testutil.SignedInSession(t, baseURL, owner)
	svc := api.NewCatchService(client, sess)

	list, err := svc.List(context.Background(), api.ListOptions{Filter: api.FilterByUser(owner["id"].(string))})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)

	// Default sort is newest first.
	assert.Equal(t, "Trout", list.Items[0].Species)
	assert.Equal(t, "Bass", list.Items[1].Species)
}

func TestCatchService_Integration_UpdateAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store, baseURL := setupTest(t)
	fixtures := testutil.NewFixtures(store)
	user := fixtures.CreateUser(t)
	seeded := fixtures.CreateCatch(t, user["id"].(string))
	client, sess := testutil.SignedInSession(t, baseURL, user)
	svc := api.NewCatchService(client, sess)
	ctx := context.Background()

	id := seeded["id"].(string)
	p := recordstore.NewPayload().
		Set("species", "Smallmouth Bass").
		KeepFile("photos", seeded["photos"].([]string)[0])
	updated, err := svc.Update(ctx, id, p)
	require.NoError(t, err)
	assert.Equal(t, "Smallmouth Bass", updated.Species)
	assert.Equal(t, user["id"], updated.User)

	require.NoError(t, svc.Delete(ctx, id))
	assert.Nil(t, store.Get("catches", id))
}

func TestCatchService_Integration_CancelRequest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store, baseURL := setupTest(t)
	store.Latency = 2 * time.Second
	fixtures := testutil.NewFixtures(store)
	user := fixtures.CreateUser(t)
	client, sess := testutil.SignedInSession(t, baseURL, user)
	svc := api.NewCatchService(client, sess)

	errs := make(chan error, 1)
	go func() {
		_, err := svc.List(context.Background(), api.ListOptions{RequestKey: "catches-list"})
		errs <- err
	}()

	time.Sleep(50 * time.Millisecond)
	svc.CancelRequest("catches-list")

	select {
	case err := <-errs:
		require.Error(t, err)
		assert.True(t, api.IsAbort(err))
	case <-time.After(time.Second):
		t.Fatal("cancelled request never returned")
	}
}
