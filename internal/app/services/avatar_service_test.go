package services

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
	"github.com/kaan/schoolhub/internal/pkg/blobstore"
)

// fakeAvatarRecords is an in-memory AvatarRecords with the same conflict
// behavior as the real store: inserting a second record for the same
// student fails the way the unique constraint would.
type fakeAvatarRecords struct {
	byStudent map[int64]*models.Avatar
	nextID    int64

	saveErr      error // returned by Save when set
	existsResult *bool // overrides ExistsByStudentID when set
}

var _ AvatarRecords = (*fakeAvatarRecords)(nil)

func newFakeAvatarRecords() *fakeAvatarRecords {
	return &fakeAvatarRecords{byStudent: map[int64]*models.Avatar{}}
}

func (f *fakeAvatarRecords) Save(ctx context.Context, avatar *models.Avatar) (*models.Avatar, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if avatar.ID == 0 {
		if _, ok := f.byStudent[avatar.StudentID]; ok {
			return nil, apperrors.ErrAvatarAlreadyExists
		}
		f.nextID++
		avatar.ID = f.nextID
	}
	f.byStudent[avatar.StudentID] = avatar
	return avatar, nil
}

func (f *fakeAvatarRecords) GetByStudentID(ctx context.Context, studentID int64) (*models.Avatar, error) {
	avatar, ok := f.byStudent[studentID]
	if !ok {
		return nil, apperrors.ErrAvatarNotFound
	}
	return avatar, nil
}

func (f *fakeAvatarRecords) GetByID(ctx context.Context, id int64) (*models.Avatar, error) {
	for _, avatar := range f.byStudent {
		if avatar.ID == id {
			return avatar, nil
		}
	}
	return nil, apperrors.ErrAvatarNotFound
}

func (f *fakeAvatarRecords) ExistsByStudentID(ctx context.Context, studentID int64) (bool, error) {
	if f.existsResult != nil {
		return *f.existsResult, nil
	}
	_, ok := f.byStudent[studentID]
	return ok, nil
}

func (f *fakeAvatarRecords) DeleteByStudentID(ctx context.Context, studentID int64) (int64, error) {
	if _, ok := f.byStudent[studentID]; !ok {
		return 0, nil
	}
	delete(f.byStudent, studentID)
	return 1, nil
}

func (f *fakeAvatarRecords) DeleteByID(ctx context.Context, id int64) error {
	for studentID, avatar := range f.byStudent {
		if avatar.ID == id {
			delete(f.byStudent, studentID)
			return nil
		}
	}
	return apperrors.ErrAvatarNotFound
}

func (f *fakeAvatarRecords) CountByStudentID(ctx context.Context, studentID int64) (int64, error) {
	if _, ok := f.byStudent[studentID]; ok {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeAvatarRecords) Count(ctx context.Context) (int64, error) {
	return int64(len(f.byStudent)), nil
}

func (f *fakeAvatarRecords) all() []*models.Avatar {
	avatars := make([]*models.Avatar, 0, len(f.byStudent))
	for _, avatar := range f.byStudent {
		avatars = append(avatars, avatar)
	}
	sort.Slice(avatars, func(i, j int) bool { return avatars[i].ID < avatars[j].ID })
	return avatars
}

func (f *fakeAvatarRecords) List(ctx context.Context, offset uint64, limit int) ([]*models.Avatar, int64, error) {
	avatars := f.all()
	total := int64(len(avatars))
	if offset >= uint64(len(avatars)) {
		return []*models.Avatar{}, total, nil
	}
	avatars = avatars[offset:]
	if len(avatars) > limit {
		avatars = avatars[:limit]
	}
	return avatars, total, nil
}

func (f *fakeAvatarRecords) ListLargerThan(ctx context.Context, minSize int64) ([]*models.Avatar, error) {
	result := []*models.Avatar{}
	for _, avatar := range f.all() {
		if avatar.FileSize > minSize {
			result = append(result, avatar)
		}
	}
	return result, nil
}

// fakeStudentLookup resolves existence against a fixed set of IDs.
type fakeStudentLookup struct {
	ids map[int64]bool
}

var _ StudentLookup = (*fakeStudentLookup)(nil)

func newFakeStudentLookup(ids ...int64) *fakeStudentLookup {
	m := map[int64]bool{}
	for _, id := range ids {
		m[id] = true
	}
	return &fakeStudentLookup{ids: m}
}

func (f *fakeStudentLookup) Exists(ctx context.Context, id int64) (bool, error) {
	return f.ids[id], nil
}

// fakeBlobStore keeps blobs in a map and can be told to fail.
type fakeBlobStore struct {
	blobs     map[string][]byte
	putErr    error
	getErr    error
	deleteErr error
}

var _ blobstore.Store = (*fakeBlobStore)(nil)

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, path string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.blobs[path] = data
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, path string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.blobs[path]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, path string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.blobs, path)
	return nil
}

type avatarFixture struct {
	records *fakeAvatarRecords
	lookup  *fakeStudentLookup
	blobs   *fakeBlobStore
	service AvatarService
}

func newAvatarFixture(studentIDs ...int64) *avatarFixture {
	records := newFakeAvatarRecords()
	lookup := newFakeStudentLookup(studentIDs...)
	blobs := newFakeBlobStore()
	return &avatarFixture{
		records: records,
		lookup:  lookup,
		blobs:   blobs,
		service: NewAvatarService(records, lookup, blobs, "data/avatars"),
	}
}

func TestUploadSuccess(t *testing.T) {
	fx := newAvatarFixture(42)
	content := []byte{1, 2, 3}

	avatar, err := fx.service.Upload(context.Background(), 42, models.MediaTypePNG, content)
	require.NoError(t, err)

	assert.NotZero(t, avatar.ID)
	assert.Equal(t, int64(42), avatar.StudentID)
	assert.Equal(t, int64(3), avatar.FileSize)
	assert.Equal(t, models.MediaTypePNG, avatar.MediaType)
	assert.Equal(t, content, avatar.Data)
	assert.Contains(t, avatar.FilePath, "42.png")

	// Blob landed at the path the record points to.
	assert.Equal(t, content, fx.blobs.blobs[avatar.FilePath])
}

func TestUploadSecondUploadConflicts(t *testing.T) {
	fx := newAvatarFixture(42)

	_, err := fx.service.Upload(context.Background(), 42, models.MediaTypePNG, []byte{1, 2, 3})
	require.NoError(t, err)

	_, err = fx.service.Upload(context.Background(), 42, models.MediaTypePNG, []byte{4, 5, 6})
	require.ErrorIs(t, err, apperrors.ErrAvatarAlreadyExists)
}

func TestUploadRejectsNonPNG(t *testing.T) {
	fx := newAvatarFixture(7)

	_, err := fx.service.Upload(context.Background(), 7, "image/jpeg", []byte("jpeg bytes"))
	require.ErrorIs(t, err, apperrors.ErrUnsupportedMediaType)

	// Neither store was touched.
	exists, err := fx.service.Exists(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, fx.blobs.blobs)
}

func TestUploadUnknownStudent(t *testing.T) {
	fx := newAvatarFixture() // no students at all

	_, err := fx.service.Upload(context.Background(), 999, models.MediaTypePNG, []byte{1})
	require.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	assert.Empty(t, fx.blobs.blobs)
	assert.Empty(t, fx.records.byStudent)
}

func TestUploadBlobFailureCreatesNoRecord(t *testing.T) {
	fx := newAvatarFixture(5)
	fx.blobs.putErr = assert.AnError

	_, err := fx.service.Upload(context.Background(), 5, models.MediaTypePNG, []byte{1})
	require.ErrorIs(t, err, apperrors.ErrStorage)

	// No metadata-only avatar may exist after a failed blob write.
	assert.Empty(t, fx.records.byStudent)
}

func TestUploadLostRaceSurfacesConflict(t *testing.T) {
	// The pre-check says no avatar exists, but the store-level unique
	// constraint still fires: a concurrent upload won in between.
	fx := newAvatarFixture(8)
	noAvatar := false
	fx.records.existsResult = &noAvatar
	fx.records.saveErr = apperrors.ErrAvatarAlreadyExists

	_, err := fx.service.Upload(context.Background(), 8, models.MediaTypePNG, []byte{1})
	require.ErrorIs(t, err, apperrors.ErrAvatarAlreadyExists)
}

func TestReplacePreservesIdentity(t *testing.T) {
	fx := newAvatarFixture(5)
	b1 := []byte("first image")
	b2 := []byte("second image, different length")

	uploaded, err := fx.service.Upload(context.Background(), 5, models.MediaTypePNG, b1)
	require.NoError(t, err)

	replaced, err := fx.service.Replace(context.Background(), 5, models.MediaTypePNG, b2)
	require.NoError(t, err)

	assert.Equal(t, uploaded.ID, replaced.ID)
	assert.Equal(t, uploaded.StudentID, replaced.StudentID)
	assert.Equal(t, uploaded.FilePath, replaced.FilePath)
	assert.Equal(t, int64(len(b2)), replaced.FileSize)
	assert.Equal(t, b2, replaced.Data)

	// The blob at the original path was overwritten.
	assert.Equal(t, b2, fx.blobs.blobs[uploaded.FilePath])

	got, err := fx.service.GetByStudentID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, b2, got.Data)
}

func TestReplaceWithoutExistingAvatar(t *testing.T) {
	fx := newAvatarFixture(5)

	_, err := fx.service.Replace(context.Background(), 5, models.MediaTypePNG, []byte{1})
	require.ErrorIs(t, err, apperrors.ErrAvatarNotFound)
}

func TestReplaceRejectsNonPNG(t *testing.T) {
	fx := newAvatarFixture(5)
	b1 := []byte("original")

	_, err := fx.service.Upload(context.Background(), 5, models.MediaTypePNG, b1)
	require.NoError(t, err)

	_, err = fx.service.Replace(context.Background(), 5, "image/gif", []byte("gif"))
	require.ErrorIs(t, err, apperrors.ErrUnsupportedMediaType)

	// Both stores still hold the original bytes.
	got, err := fx.service.GetByStudentID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, b1, got.Data)
	assert.Equal(t, b1, fx.blobs.blobs[got.FilePath])
}

func TestDataFromRecordAndDiskAgree(t *testing.T) {
	fx := newAvatarFixture(9)
	content := []byte("png content")

	_, err := fx.service.Upload(context.Background(), 9, models.MediaTypePNG, content)
	require.NoError(t, err)

	fromRecord, mediaType, err := fx.service.DataFromRecord(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, content, fromRecord)
	assert.Equal(t, models.MediaTypePNG, mediaType)

	fromDisk, mediaType, err := fx.service.DataFromDisk(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, content, fromDisk)
	assert.Equal(t, models.MediaTypePNG, mediaType)
}

func TestDataFromDiskWhenBlobLost(t *testing.T) {
	fx := newAvatarFixture(9)
	content := []byte("png content")

	uploaded, err := fx.service.Upload(context.Background(), 9, models.MediaTypePNG, content)
	require.NoError(t, err)

	// Blob file removed out-of-band; the record survives.
	delete(fx.blobs.blobs, uploaded.FilePath)

	_, _, err = fx.service.DataFromDisk(context.Background(), 9)
	require.ErrorIs(t, err, apperrors.ErrBlobMissing)

	// The cached copy on the record still serves the original bytes.
	fromRecord, _, err := fx.service.DataFromRecord(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, content, fromRecord)
}

func TestDataFromDiskForUnknownStudent(t *testing.T) {
	fx := newAvatarFixture(9)

	_, _, err := fx.service.DataFromDisk(context.Background(), 9)
	require.ErrorIs(t, err, apperrors.ErrAvatarNotFound)
}

func TestGetByID(t *testing.T) {
	fx := newAvatarFixture(4)

	uploaded, err := fx.service.Upload(context.Background(), 4, models.MediaTypePNG, []byte{1})
	require.NoError(t, err)

	got, err := fx.service.GetByID(context.Background(), uploaded.ID)
	require.NoError(t, err)
	assert.Equal(t, uploaded.StudentID, got.StudentID)

	_, err = fx.service.GetByID(context.Background(), uploaded.ID+100)
	require.ErrorIs(t, err, apperrors.ErrAvatarNotFound)
}

func TestDeleteClearsBothStores(t *testing.T) {
	fx := newAvatarFixture(5)

	uploaded, err := fx.service.Upload(context.Background(), 5, models.MediaTypePNG, []byte{1, 2})
	require.NoError(t, err)

	require.NoError(t, fx.service.DeleteByStudentID(context.Background(), 5))

	exists, err := fx.service.Exists(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NotContains(t, fx.blobs.blobs, uploaded.FilePath)

	// Deleting again reports the record as gone.
	err = fx.service.DeleteByStudentID(context.Background(), 5)
	require.ErrorIs(t, err, apperrors.ErrAvatarNotFound)
}

func TestDeleteBlobIOFailureKeepsRecord(t *testing.T) {
	fx := newAvatarFixture(5)

	_, err := fx.service.Upload(context.Background(), 5, models.MediaTypePNG, []byte{1})
	require.NoError(t, err)

	fx.blobs.deleteErr = assert.AnError

	err = fx.service.DeleteByStudentID(context.Background(), 5)
	require.ErrorIs(t, err, apperrors.ErrStorage)

	// Recoverable state: the record still points at the still-existing blob.
	exists, err := fx.service.Exists(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteByID(t *testing.T) {
	fx := newAvatarFixture(6)

	uploaded, err := fx.service.Upload(context.Background(), 6, models.MediaTypePNG, []byte{1})
	require.NoError(t, err)

	require.NoError(t, fx.service.DeleteByID(context.Background(), uploaded.ID))

	err = fx.service.DeleteByID(context.Background(), uploaded.ID)
	require.ErrorIs(t, err, apperrors.ErrAvatarNotFound)
}

func TestListPaginates(t *testing.T) {
	fx := newAvatarFixture(1, 2, 3)
	for _, id := range []int64{1, 2, 3} {
		_, err := fx.service.Upload(context.Background(), id, models.MediaTypePNG, []byte{byte(id)})
		require.NoError(t, err)
	}

	page, err := fx.service.List(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.PageInfo.TotalItems)
	assert.Equal(t, 2, page.PageInfo.TotalPages)

	page, err = fx.service.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestFilterByMinSize(t *testing.T) {
	fx := newAvatarFixture(1, 2)

	_, err := fx.service.Upload(context.Background(), 1, models.MediaTypePNG, []byte("tiny"))
	require.NoError(t, err)
	_, err = fx.service.Upload(context.Background(), 2, models.MediaTypePNG, []byte("much larger avatar content"))
	require.NoError(t, err)

	large, err := fx.service.FilterByMinSize(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, large, 1)
	assert.Equal(t, int64(2), large[0].StudentID)
}

func TestCount(t *testing.T) {
	fx := newAvatarFixture(1, 2)

	count, err := fx.service.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = fx.service.Upload(context.Background(), 1, models.MediaTypePNG, []byte{1})
	require.NoError(t, err)

	count, err = fx.service.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
