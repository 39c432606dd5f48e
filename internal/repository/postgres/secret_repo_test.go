package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/atrimbitas/docuvault/internal/errs"
	"github.com/atrimbitas/docuvault/internal/model"
)

func TestSecretRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSecretRepo(db)

	id := uuid.Must(uuid.NewV4())
	org := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`INSERT INTO secrets`).
		WithArgs(id, org, "db password", "svc", "https://db.internal", "rotate quarterly", []byte("sealed")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := r.Create(context.Background(), &model.SecretRecord{
		ID: id, OrgID: org, Name: "db password", Username: "svc",
		URL: "https://db.internal", Notes: "rotate quarterly", Value: []byte("sealed"),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSecretRepo_Get_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSecretRepo(db)

	now := time.Now()
	want := &model.SecretRecord{
		ID: uuid.Must(uuid.NewV4()), OrgID: uuid.Must(uuid.NewV4()),
		Name: "db password", Value: []byte("sealed"),
		CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectQuery(`SELECT .+ FROM secrets WHERE id=\$1`).
		WithArgs(want.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "name", "username", "url", "notes", "value_enc", "created_at", "updated_at",
		}).AddRow(want.ID, want.OrgID, want.Name, "", "", "", want.Value, now, now))

	got, err := r.Get(context.Background(), want.ID)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSecretRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSecretRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT .+ FROM secrets WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSecretRepo_List_FilterAndPagination(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSecretRepo(db)

	org := uuid.Must(uuid.NewV4())
	now := time.Now()
	id1 := uuid.Must(uuid.NewV4())
	id2 := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT .+ FROM secrets`).
		WithArgs(org, "pass", 25, 25). // page 2, default size
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "name", "username", "url", "notes", "value_enc", "created_at", "updated_at",
		}).
			AddRow(id1, org, "db password", "", "", "", []byte(nil), now, now).
			AddRow(id2, org, "mail password", "", "", "", []byte(nil), now, now))

	got, err := r.List(context.Background(), model.SecretFilter{
		OrgID: org, Search: "pass", Page: 2, PageSize: 200, // oversized clamps to 25
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, id1, got[0].ID)
}

func TestSecretRepo_List_AnyOrg(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSecretRepo(db)

	// Zero OrgID is passed as NULL so the filter matches everything.
	mock.ExpectQuery(`SELECT .+ FROM secrets`).
		WithArgs(nil, "", 0, 25).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "name", "username", "url", "notes", "value_enc", "created_at", "updated_at",
		}))

	got, err := r.List(context.Background(), model.SecretFilter{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSecretRepo_Update_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSecretRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`UPDATE secrets`).
		WithArgs(id, "n", "", "", "", []byte(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := r.Update(context.Background(), &model.SecretRecord{ID: id, Name: "n"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSecretRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSecretRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`DELETE FROM secrets WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM secrets WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, r.Delete(context.Background(), id))
	require.ErrorIs(t, r.Delete(context.Background(), id), errs.ErrNotFound)
}
