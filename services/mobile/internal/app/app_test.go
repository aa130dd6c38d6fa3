package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
	"polimata/pkg/leads"
	"polimata/pkg/session"
)

const backendContacts = `[
 {"id":1,"name":"Juan Pérez","email":"juan@techcorp.com","phone":"+34 600 111 222","company":"Tech Corp","message":"Quiero automatizar","status":"new","ai_score":72,"ai_priority":"high","ai_insights":{"urgency":"alta","pain_points":["procesos manuales"]},"created_at":"2024-01-01T00:00:00Z"},
 {"id":2,"name":"María García","email":"maria@startup.xyz","message":"Consultoría","status":"contacted","ai_score":91,"created_at":"2024-01-02T00:00:00Z"}
]`

type harness struct {
	app   *App
	out   *bytes.Buffer
	store *session.FileStore
	puts  *atomic.Int32
}

func newHarness(t *testing.T, handler http.Handler) *harness {
	t.Helper()
	var baseURL string
	if handler == nil {
		srv := httptest.NewServer(http.NotFoundHandler())
		baseURL = srv.URL
		srv.Close()
	} else {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		baseURL = srv.URL
	}
	client, err := crmclient.New(crmclient.Config{BaseURL: baseURL + "/api/v1"})
	require.NoError(t, err)
	store, err := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	a, err := New(Config{
		CRM:    client,
		Store:  store,
		Out:    out,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return &harness{app: a, out: out, store: store, puts: &atomic.Int32{}}
}

func backend(t *testing.T, puts *atomic.Int32) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect email or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"tok-1","token_type":"bearer"}`)
	})
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":1,"email":"admin@polimata.ai","full_name":"Admin"}`)
	})
	mux.HandleFunc("/api/v1/contacts/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, backendContacts)
	})
	mux.HandleFunc("/api/v1/contacts/1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			if puts != nil {
				puts.Add(1)
			}
			if r.URL.Query().Get("status") != "closed" {
				t.Errorf("unexpected status query %q", r.URL.RawQuery)
			}
			_, _ = io.WriteString(w, `{"id":1,"name":"Juan Pérez","email":"juan@techcorp.com","message":"m","status":"closed","created_at":"2024-01-01T00:00:00Z"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":1,"name":"Juan Pérez","email":"juan@techcorp.com","phone":"+34 600 111 222","company":"Tech Corp","message":"Quiero automatizar","status":"new","ai_score":72,"ai_priority":"high","ai_insights":{"urgency":"alta","pain_points":["procesos manuales"]},"ai_suggested_response":"Hola Juan","created_at":"2024-01-01T00:00:00Z"}`)
	})
	return mux
}

func TestLoginPersistsCredentials(t *testing.T) {
	h := newHarness(t, backend(t, nil))

	require.NoError(t, h.app.Run(context.Background(), []string{"login", "-email", "admin@polimata.ai", "-password", "secret"}))
	assert.Contains(t, h.out.String(), "Logged in as Admin")

	creds, ok, err := h.store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-1", creds.AccessToken)

	require.NoError(t, h.app.Run(context.Background(), []string{"logout"}))
	_, ok, _ = h.store.Load(context.Background())
	assert.False(t, ok)
}

func TestLoginWrongPasswordKeepsStoreEmpty(t *testing.T) {
	h := newHarness(t, backend(t, nil))

	err := h.app.Run(context.Background(), []string{"login", "-email", "admin@polimata.ai", "-password", "nope"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, crmclient.StatusOf(err))
	_, ok, _ := h.store.Load(context.Background())
	assert.False(t, ok)
}

func TestWhoAmIWithoutSession(t *testing.T) {
	h := newHarness(t, backend(t, nil))
	assert.ErrorIs(t, h.app.Run(context.Background(), []string{"whoami"}), session.ErrNotAuthenticated)
}

func TestListFromBackend(t *testing.T) {
	h := newHarness(t, backend(t, nil))

	require.NoError(t, h.app.Run(context.Background(), []string{"list"}))
	out := h.out.String()
	assert.Contains(t, out, "[Conectado al backend]")
	// higher score first
	assert.Less(t, bytes.Index([]byte(out), []byte("María García")), bytes.Index([]byte(out), []byte("Juan Pérez")))
}

func TestListFallsBackToMockData(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.app.Run(context.Background(), []string{"list", "-status", "closed"}))
	out := h.out.String()
	assert.Contains(t, out, "[Usando datos de prueba]")
	assert.Contains(t, out, "Carlos López")
	assert.NotContains(t, out, "Juan Pérez")
	assert.Contains(t, out, "3 | Nuevo 1 | Contactado 1 | Cerrado 1")
}

func TestListRefreshesBoardEachRun(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.app.Run(context.Background(), []string{"list"}))
	require.NoError(t, h.app.Run(context.Background(), []string{"list", "-q", "carlos"}))
	out := h.out.String()
	assert.Equal(t, 2, strings.Count(out, "3 | Nuevo 1 | Contactado 1 | Cerrado 1"))
	assert.Len(t, h.app.board.Contacts(), 3)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.app.Run(context.Background(), []string{"list", "-status", "archived"}), domain.ErrInvalidStatus)
}

func TestShowPrintsDetailAndLinks(t *testing.T) {
	h := newHarness(t, backend(t, nil))

	require.NoError(t, h.app.Run(context.Background(), []string{"show", "1"}))
	out := h.out.String()
	assert.Contains(t, out, "mailto:juan@techcorp.com")
	assert.Contains(t, out, "tel:+34600111222")
	assert.Contains(t, out, "72 (Bueno)")
	assert.Contains(t, out, "Alta")
	assert.Contains(t, out, "procesos manuales")
	assert.Contains(t, out, "Hola Juan")
}

func TestStatusGoesThroughBackend(t *testing.T) {
	var puts atomic.Int32
	h := newHarness(t, backend(t, &puts))

	require.NoError(t, h.app.Run(context.Background(), []string{"status", "1", "closed"}))
	assert.Equal(t, int32(1), puts.Load())
	assert.Contains(t, h.out.String(), "Juan Pérez: Cerrado")
}

func TestStatusFailsWhenBackendDown(t *testing.T) {
	h := newHarness(t, nil)

	err := h.app.Run(context.Background(), []string{"status", "1", "closed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status not changed")

	err = h.app.Run(context.Background(), []string{"status", "99", "closed"})
	assert.ErrorIs(t, err, leads.ErrContactNotFound)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t, nil)
	for _, args := range [][]string{nil, {"frobnicate"}, {"show"}, {"show", "abc"}, {"status", "1"}} {
		assert.ErrorIs(t, h.app.Run(context.Background(), args), ErrUsage, "%v", args)
	}
}
