package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smarttasks/client"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testStore(t *testing.T, tenant string) *Store {
	return New(testDB(t), func() string { return tenant }, zap.NewNop())
}

func TestProjectRoundTrip(t *testing.T) {
	s := testStore(t, "tenant_a")
	ctx := context.Background()

	created, err := s.CreateProject(ctx, "Launch Plan")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "tenant_a", created.TenantID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := s.GetProject(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, *created, *got)

	missing, err := s.GetProject(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestTenantIsolation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tenant := "tenant_a"
	s := New(db, func() string { return tenant }, zap.NewNop())

	p, err := s.CreateProject(ctx, "Visible")
	require.NoError(t, err)

	tenant = "tenant_b"

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Nil(t, got, "project leaked across tenants")

	page, err := s.ListProjects(ctx, 0, 20)
	require.NoError(t, err)
	require.Empty(t, page.Content)
	require.Zero(t, page.TotalElements)
}

func TestListProjectsPagination(t *testing.T) {
	s := testStore(t, "tenant_a")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.CreateProject(ctx, fmt.Sprintf("Project %d", i))
		require.NoError(t, err)
	}

	page, err := s.ListProjects(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	require.Equal(t, int64(5), page.TotalElements)
	require.Equal(t, 3, page.TotalPages)

	last, err := s.ListProjects(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, last.Content, 1)
	require.Equal(t, 2, last.Number)
}

func TestCreateTaskRequiresProject(t *testing.T) {
	s := testStore(t, "tenant_a")
	ctx := context.Background()

	_, err := s.CreateTask(ctx, "missing", client.TaskCreate{Title: "orphan"})
	var reqErr *client.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusNotFound, reqErr.Status)
}

func TestTaskLifecycle(t *testing.T) {
	s := testStore(t, "tenant_a")
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "Launch Plan")
	require.NoError(t, err)

	task, err := s.CreateTask(ctx, p.ID, client.TaskCreate{
		Title:       "Write announcement",
		Description: "Draft the launch post",
	})
	require.NoError(t, err)
	require.Equal(t, p.ID, task.ProjectID)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, task.Title, got.Title)

	page, err := s.ListTasks(ctx, p.ID, 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	require.Equal(t, int64(1), page.TotalElements)
}

func TestAttachmentPayloadRoundTrip(t *testing.T) {
	s := testStore(t, "tenant_a")
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "Launch Plan")
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, p.ID, client.TaskCreate{Title: "Attach things"})
	require.NoError(t, err)

	payload := strings.Repeat("x", 1024)
	a, err := s.UploadAttachment(ctx, task.ID, "spec.pdf", strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "spec.pdf", a.OriginalName)
	require.Equal(t, "application/pdf", a.MimeType)
	require.Equal(t, int64(1024), a.Size)

	d, err := s.OpenAttachment(ctx, a.ID)
	require.NoError(t, err)
	defer d.Content.Close()

	data, err := io.ReadAll(d.Content)
	require.NoError(t, err)
	require.Equal(t, payload, string(data))
	require.Equal(t, "spec.pdf", d.OriginalName)
	require.Equal(t, int64(1024), d.Size)
}

func TestKVRoundTrip(t *testing.T) {
	kv := NewKV(testDB(t))

	_, ok, err := kv.Get("session")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Put("session", []byte("v1")))
	require.NoError(t, kv.Put("session", []byte("v2")))

	v, ok, err := kv.Get("session")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", string(v))

	require.NoError(t, kv.Delete("session"))
	_, ok, err = kv.Get("session")
	require.NoError(t, err)
	require.False(t, ok)
}
