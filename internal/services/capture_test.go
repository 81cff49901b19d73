package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inqbatorchris/fieldsync/internal/common"
	"github.com/inqbatorchris/fieldsync/internal/logging"
	"github.com/inqbatorchris/fieldsync/internal/models"
	"github.com/inqbatorchris/fieldsync/internal/repositories"
)

func setupService(t *testing.T) (*CaptureService, *repositories.Repositories) {
	t.Helper()
	repos, err := repositories.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	return NewCaptureService(repos, logging.NewNop()), repos
}

func TestSaveEntity_FirstSaveQueuesCreate(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	e := models.NewFieldEntity(models.EntityTypeChamber)
	e.Name = "CH-014"
	e.Lat, e.Lng = 51.5, -0.12
	require.NoError(t, svc.SaveEntity(ctx, e))

	got, err := repos.Entities.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "CH-014", got.Name)
	assert.False(t, got.SyncedToServer)

	entries, err := repos.Queue.ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OperationCreate, entries[0].Operation)
	assert.Equal(t, models.StatusPending, entries[0].Status)
}

func TestSaveEntity_SecondSaveQueuesUpdate(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	e := models.NewFieldEntity(models.EntityTypeChamber)
	e.Name = "before"
	require.NoError(t, svc.SaveEntity(ctx, e))

	e.Name = "after"
	require.NoError(t, svc.SaveEntity(ctx, e))

	got, err := repos.Entities.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)

	entries, err := repos.Queue.ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.OperationCreate, entries[0].Operation)
	assert.Equal(t, models.OperationUpdate, entries[1].Operation)
}

func TestSaveEntity_AssignsID(t *testing.T) {
	svc, _ := setupService(t)

	e := &models.FieldEntity{Type: models.EntityTypeChamber, Name: "CH-015"}
	require.NoError(t, svc.SaveEntity(context.Background(), e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestSaveEntity_AdoptsPlaceholderPhotos(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	p1, err := svc.AttachPhoto(ctx, "", []byte{0xff, 0xd8, 1}, "a.jpg", "image/jpeg")
	require.NoError(t, err)
	p2, err := svc.AttachPhoto(ctx, "", []byte{0xff, 0xd8, 2}, "b.jpg", "image/jpeg")
	require.NoError(t, err)

	e := models.NewFieldEntity(models.EntityTypeChamber)
	e.PhotoIDs = []string{p1.ID, p2.ID}
	require.NoError(t, svc.SaveEntity(ctx, e))

	owned, err := repos.Photos.ListByOwner(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	orphaned, err := repos.Photos.ListByOwner(ctx, common.PlaceholderOwner)
	require.NoError(t, err)
	assert.Empty(t, orphaned)
}

func TestSaveEntity_UpdateLeavesSyncedPhotosAlone(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	e := models.NewFieldEntity(models.EntityTypeChamber)
	p, err := svc.AttachPhoto(ctx, "", []byte("jpeg"), "a.jpg", "image/jpeg")
	require.NoError(t, err)
	e.PhotoIDs = []string{p.ID}
	require.NoError(t, svc.SaveEntity(ctx, e))

	// after a successful sync the photo follows the server identity
	require.NoError(t, repos.Entities.MarkSynced(ctx, e.ID, "srv-1"))
	_, err = repos.Photos.RebindOwner(ctx, e.ID, "srv-1")
	require.NoError(t, err)

	e.Notes = "repainted lid"
	require.NoError(t, svc.SaveEntity(ctx, e))

	got, err := repos.Photos.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.OwnerID, "re-save must not pull the photo back to the local id")
}

func TestSaveEntity_UnknownPhotoRollsBackEverything(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	e := models.NewFieldEntity(models.EntityTypeChamber)
	e.PhotoIDs = []string{"no-such-photo"}
	err := svc.SaveEntity(ctx, e)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repos.Entities.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound, "entity write must roll back")

	entries, err := repos.Queue.ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, entries, "queue write must roll back")
}

func TestSaveEntity_RequiresType(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.SaveEntity(context.Background(), &models.FieldEntity{Name: "typeless"})
	require.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestAttachPhoto_RejectsEmptyContent(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.AttachPhoto(context.Background(), "", nil, "a.jpg", "image/jpeg")
	require.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestDeleteEntity_QueuesDelete(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	e := models.NewFieldEntity(models.EntityTypeChamber)
	require.NoError(t, svc.SaveEntity(ctx, e))
	require.NoError(t, svc.DeleteEntity(ctx, e.ID))

	// row retained until the server confirms
	_, err := repos.Entities.GetByID(ctx, e.ID)
	require.NoError(t, err)

	entries, err := repos.Queue.ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.OperationDelete, entries[1].Operation)
}

func TestDeleteEntity_UnknownID(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.DeleteEntity(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetSyncStatus_Transitions(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	e := models.NewFieldEntity(models.EntityTypeChamber)
	require.NoError(t, svc.SaveEntity(ctx, e))

	st, err := svc.GetSyncStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateQueued, st.State)

	entries, err := repos.Queue.ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	seq := entries[0].Sequence

	require.NoError(t, repos.Queue.Transition(ctx, seq, models.StatusInFlight, ""))
	st, err = svc.GetSyncStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateSyncing, st.State)

	require.NoError(t, repos.Queue.Transition(ctx, seq, models.StatusFailed, "400: bad payload"))
	st, err = svc.GetSyncStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, st.State)
	assert.Equal(t, "400: bad payload", st.LastError)

	require.NoError(t, repos.Entities.MarkSynced(ctx, e.ID, "srv-1"))
	require.NoError(t, repos.Queue.Transition(ctx, seq, models.StatusDone, ""))
	st, err = svc.GetSyncStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateSynced, st.State)
	require.NotNil(t, st.ServerID)
	assert.Equal(t, "srv-1", *st.ServerID)
}

func TestRetryEntry(t *testing.T) {
	svc, repos := setupService(t)
	ctx := context.Background()

	e := models.NewFieldEntity(models.EntityTypeChamber)
	require.NoError(t, svc.SaveEntity(ctx, e))

	entries, err := repos.Queue.ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	seq := entries[0].Sequence
	require.NoError(t, repos.Queue.Transition(ctx, seq, models.StatusFailed, "boom"))

	require.NoError(t, svc.RetryEntry(ctx, seq))

	entries, err = repos.Queue.ListByEntity(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, entries[0].Status)
	assert.Zero(t, entries[0].Attempts)

	// only failed entries can be retried
	require.ErrorIs(t, svc.RetryEntry(ctx, seq), common.ErrorNotFound)
}

func TestResolvePhotoForDisplay(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	content := []byte{0xff, 0xd8, 0xff, 0xe0}
	p, err := svc.AttachPhoto(ctx, "entity-1", content, "lid.jpg", "image/jpeg")
	require.NoError(t, err)

	h, err := svc.ResolvePhotoForDisplay(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", h.MimeType)

	got, err := os.ReadFile(h.Path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	require.NoError(t, h.Release())
	_, err = os.Stat(h.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestResolvePhotoForDisplay_UnknownID(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.ResolvePhotoForDisplay(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
