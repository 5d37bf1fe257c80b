package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
)

var (
	lockListingQuery = regexp.QuoteMeta(`SELECT id FROM listings WHERE id = $1 FOR UPDATE;`)
	photoStatsQuery  = regexp.QuoteMeta(`SELECT COALESCE(MAX(sort_order), 0) AS max_sort, COUNT(*) AS total`)
	photoRowColumns  = []string{"id", "listing_id", "url", "sort_order", "is_main", "created_at"}
)

func expectListingLock(mock sqlmock.Sqlmock, listingID uuid.UUID) {
	mock.ExpectQuery(lockListingQuery).
		WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(listingID.String()))
}

func TestPostgresStore_AddPhoto_FirstPhotoBecomesMain(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID, photoID := uuid.New(), uuid.New()
	url := "https://cdn.example.com/a.jpg"

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(photoStatsQuery).
		WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows([]string{"max_sort", "total"}).AddRow(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO listing_photos`)).
		WithArgs(sqlmock.AnyArg(), listingID, url, 1, true).
		WillReturnRows(sqlmock.NewRows(photoRowColumns).
			AddRow(photoID.String(), listingID.String(), url, 1, true, time.Now()))
	mock.ExpectCommit()

	photo, err := store.AddPhoto(context.Background(), listingID, url, false)

	require.NoError(t, err)
	require.NotNil(t, photo)
	assert.True(t, photo.IsMain, "first photo must be main")
	assert.Equal(t, 1, photo.SortOrder)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddPhoto_RequestedMainClearsPrevious(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID := uuid.New()
	url := "https://cdn.example.com/c.jpg"

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(photoStatsQuery).
		WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows([]string{"max_sort", "total"}).AddRow(2, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE listing_photos SET is_main = FALSE WHERE listing_id = $1 AND is_main;`)).
		WithArgs(listingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO listing_photos`)).
		WithArgs(sqlmock.AnyArg(), listingID, url, 3, true).
		WillReturnRows(sqlmock.NewRows(photoRowColumns).
			AddRow(uuid.NewString(), listingID.String(), url, 3, true, time.Now()))
	mock.ExpectCommit()

	photo, err := store.AddPhoto(context.Background(), listingID, url, true)

	require.NoError(t, err)
	assert.True(t, photo.IsMain)
	assert.Equal(t, 3, photo.SortOrder)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddPhoto_NotMainKeepsExisting(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID := uuid.New()
	url := "https://cdn.example.com/b.jpg"

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(photoStatsQuery).
		WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows([]string{"max_sort", "total"}).AddRow(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO listing_photos`)).
		WithArgs(sqlmock.AnyArg(), listingID, url, 2, false).
		WillReturnRows(sqlmock.NewRows(photoRowColumns).
			AddRow(uuid.NewString(), listingID.String(), url, 2, false, time.Now()))
	mock.ExpectCommit()

	photo, err := store.AddPhoto(context.Background(), listingID, url, false)

	require.NoError(t, err)
	assert.False(t, photo.IsMain)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddPhoto_ListingNotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(lockListingQuery).WithArgs(listingID).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	photo, err := store.AddPhoto(context.Background(), listingID, "x", false)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Nil(t, photo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetMainPhoto_ClearsThenSets(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID, photoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT is_main FROM listing_photos WHERE id = $1 AND listing_id = $2;`)).
		WithArgs(photoID, listingID).
		WillReturnRows(sqlmock.NewRows([]string{"is_main"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE listing_photos SET is_main = FALSE WHERE listing_id = $1 AND is_main AND id <> $2;`)).
		WithArgs(listingID, photoID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE listing_photos SET is_main = TRUE WHERE id = $1;`)).
		WithArgs(photoID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.SetMainPhoto(context.Background(), listingID, photoID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetMainPhoto_AlreadyMain(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID, photoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT is_main FROM listing_photos`)).
		WithArgs(photoID, listingID).
		WillReturnRows(sqlmock.NewRows([]string{"is_main"}).AddRow(true))
	mock.ExpectCommit()

	require.NoError(t, store.SetMainPhoto(context.Background(), listingID, photoID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetMainPhoto_PhotoNotInListing(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID, photoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT is_main FROM listing_photos`)).
		WithArgs(photoID, listingID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := store.SetMainPhoto(context.Background(), listingID, photoID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "photo")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeletePhoto_MainPromotesLowestSortOrder(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID, photoID := uuid.New(), uuid.New()
	url := "https://cdn.example.com/b.jpg"

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM listing_photos WHERE id = $1 AND listing_id = $2 RETURNING`)).
		WithArgs(photoID, listingID).
		WillReturnRows(sqlmock.NewRows(photoRowColumns).
			AddRow(photoID.String(), listingID.String(), url, 2, true, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`ORDER BY sort_order ASC, created_at ASC`)).
		WithArgs(listingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := store.DeletePhoto(context.Background(), listingID, photoID)

	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, url, deleted.URL)
	assert.True(t, deleted.IsMain)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeletePhoto_NonMainDoesNotPromote(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID, photoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM listing_photos`)).
		WithArgs(photoID, listingID).
		WillReturnRows(sqlmock.NewRows(photoRowColumns).
			AddRow(photoID.String(), listingID.String(), "u", 1, false, time.Now()))
	mock.ExpectCommit()

	_, err := store.DeletePhoto(context.Background(), listingID, photoID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeletePhoto_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID, photoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectListingLock(mock, listingID)
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM listing_photos`)).
		WithArgs(photoID, listingID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	deleted, err := store.DeletePhoto(context.Background(), listingID, photoID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Nil(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPhotos(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	listingID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY is_main DESC, sort_order ASC;`)).
		WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows(photoRowColumns).
			AddRow(uuid.NewString(), listingID.String(), "b", 2, true, time.Now()).
			AddRow(uuid.NewString(), listingID.String(), "a", 1, false, time.Now()))

	photos, err := store.ListPhotos(context.Background(), listingID)

	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "b", photos[0].URL)
	require.NoError(t, mock.ExpectationsWereMet())
}
