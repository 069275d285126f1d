package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"smarttasks/client/session"
	"smarttasks/internal/model"
)

type tokenStub struct {
	token   string
	cleared bool
}

func (s *tokenStub) Token() string { return s.token }
func (s *tokenStub) Clear()        { s.cleared = true; s.token = "" }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *tokenStub, *session.Broadcaster) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := &tokenStub{token: "test-token"}
	bus := session.NewBroadcaster()
	c := NewClient(Config{
		BaseURL: srv.URL,
		Tokens:  tokens,
		Bus:     bus,
	})
	return c, tokens, bus
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var gotAuth string
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.Page[model.Project]{})
	}))

	_, err := c.ListProjects(context.Background(), 0, 20)
	require.NoError(t, err)
	require.Equal(t, "Bearer test-token", gotAuth)
}

func TestGetProjectToleratesNotFound(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"resource not found"}`, http.StatusNotFound)
	}))

	p, err := c.GetProject(context.Background(), "missing")
	require.NoError(t, err)
	if p != nil {
		t.Fatalf("expected absent project, got %+v", p)
	}
}

func TestListErrorsOnNotFound(t *testing.T) {
	// Collection fetches do not tolerate a missing parent.
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"resource not found"}`, http.StatusNotFound)
	}))

	_, err := c.ListTasks(context.Background(), "missing", 0, 20)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusNotFound, reqErr.Status)
}

func TestUnauthorizedClearsTokenAndBroadcasts(t *testing.T) {
	c, tokens, bus := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))

	fired := false
	bus.Subscribe(session.TopicUnauthorized, func() { fired = true })

	_, err := c.ListProjects(context.Background(), 0, 20)
	require.True(t, IsUnauthorized(err), "expected unauthorized error, got %v", err)
	require.True(t, tokens.cleared, "token source not cleared on 401")
	require.True(t, fired, "unauthorized signal not published")
}

func TestCreateProject(t *testing.T) {
	start := time.Now()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/projects", r.URL.Path)

		var body struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Project{
			ID:        "p-1",
			TenantID:  "tenant_a",
			Name:      body.Name,
			CreatedAt: time.Now(),
		})
	}))

	p, err := c.CreateProject(context.Background(), "Launch Plan")
	require.NoError(t, err)
	require.Equal(t, "Launch Plan", p.Name)
	if p.CreatedAt.Before(start.Truncate(time.Second)) {
		t.Fatalf("createdAt %v before request start %v", p.CreatedAt, start)
	}
}

func TestListProjectsPagination(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("page"))
		require.Equal(t, "2", r.URL.Query().Get("size"))

		content := []model.Project{{ID: "p-3"}, {ID: "p-4"}}
		json.NewEncoder(w).Encode(model.NewPage(content, 1, 2, 5))
	}))

	page, err := c.ListProjects(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	require.Equal(t, 1, page.Number)
	require.Equal(t, int64(5), page.TotalElements)
	require.Equal(t, 3, page.TotalPages)
}

func TestDashboard(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/dashboard", r.URL.Path)
		json.NewEncoder(w).Encode(Dashboard{
			ActiveProjectsCount: 3,
			TotalTasksCount:     12,
			OverdueTasksCount:   2,
			LatestProjects: []model.Project{
				{ID: "p3", Name: "Gamma"},
				{ID: "p2", Name: "Beta"},
			},
		})
	}))

	d, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, d.ActiveProjectsCount)
	require.EqualValues(t, 12, d.TotalTasksCount)
	require.EqualValues(t, 2, d.OverdueTasksCount)
	require.Len(t, d.LatestProjects, 2)
	require.Equal(t, "Gamma", d.LatestProjects[0].Name)
}

func TestUploadAttachment(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 1024)

	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tasks/t-1/attachments", r.URL.Path)

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()

		require.Equal(t, "spec.pdf", header.Filename)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Len(t, data, 1024)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Attachment{
			ID:           "a-1",
			TaskID:       "t-1",
			OriginalName: header.Filename,
			MimeType:     "application/pdf",
			Size:         int64(len(data)),
		})
	}))

	a, err := c.UploadAttachment(context.Background(), "t-1", "spec.pdf", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "spec.pdf", a.OriginalName)
	require.Equal(t, int64(1024), a.Size)
}

func TestOpenAttachment(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="Q3%20Report.pdf"`)
		w.Write([]byte("pdf-bytes"))
	}))

	d, err := c.OpenAttachment(context.Background(), "a-1")
	require.NoError(t, err)
	defer d.Content.Close()

	require.Equal(t, "Q3 Report.pdf", d.OriginalName)
	require.Equal(t, "application/pdf", d.MimeType)
	data, err := io.ReadAll(d.Content)
	require.NoError(t, err)
	require.Equal(t, "pdf-bytes", string(data))
}

func TestAbortedRequestSurfacesContextError(t *testing.T) {
	blocked := make(chan struct{})
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.ListProjects(ctx, 0, 20)
	require.True(t, IsAborted(err), "expected aborted error, got %v", err)
}

func TestLogoutClearsLocallyEvenWhenServerFails(t *testing.T) {
	c, tokens, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	err := c.Logout(context.Background())
	require.Error(t, err)
	require.True(t, tokens.cleared, "token source not cleared on failed logout")
}

func TestRequestErrorMessage(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"name is required"}`, http.StatusBadRequest)
	}))

	_, err := c.CreateProject(context.Background(), "")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusBadRequest, reqErr.Status)
	require.True(t, strings.Contains(reqErr.Body, "name is required"))
}
