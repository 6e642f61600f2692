package server_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/dialect"
	"github.com/pseudomuto/dbmover/pkg/schema"
	. "github.com/pseudomuto/dbmover/pkg/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestServer_Plan(t *testing.T) {
	cat := catalog.NewStatic(dialect.Postgres).
		AddTable("old_users", catalog.Column{Name: "id", Type: "int4", IsNullable: "NO"}).
		AddTable("schema_migrations", catalog.Column{Name: "version", Type: "int8", IsNullable: "NO"})

	srv := httptest.NewServer(New(Config{
		Catalog: cat,
		Options: schema.Options{IgnoreTables: []string{"schema_migrations"}},
		Logger:  zerolog.Nop(),
	}).Handler())
	defer srv.Close()

	create := "CREATE TABLE users (\n  id INT NOT NULL\n);"

	tests := []struct {
		name     string
		script   string
		status   int
		response PlanResponse
	}{
		{
			name:   "creates then drops",
			script: create + "\nCREATE INDEX users_id ON users (id);",
			status: http.StatusOK,
			response: PlanResponse{
				Operations: []OperationResponse{
					{SQL: create, Class: schema.Immediate, Table: "users"},
					{SQL: "DROP TABLE old_users;", Class: schema.Deferred, Table: "old_users"},
				},
				Residual: "\nCREATE INDEX users_id ON users (id);",
			},
		},
		{
			name:   "empty script drops everything not ignored",
			script: "",
			status: http.StatusOK,
			response: PlanResponse{
				Operations: []OperationResponse{
					{SQL: "DROP TABLE old_users;", Class: schema.Deferred, Table: "old_users"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/plan", "text/plain", strings.NewReader(tt.script))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, tt.status, resp.StatusCode)
			require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var body PlanResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tt.response.Operations, body.Operations)
			require.Equal(t, strings.TrimSpace(tt.response.Residual), strings.TrimSpace(body.Residual))
		})
	}
}

func TestServer_PlanErrors(t *testing.T) {
	t.Run("catalog failure", func(t *testing.T) {
		cat := catalog.NewStatic(dialect.MySQL).FailWith(errors.New("connection reset"))
		srv := httptest.NewServer(New(Config{Catalog: cat, Logger: zerolog.Nop()}).Handler())
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/plan", "text/plain", strings.NewReader("CREATE TABLE a (\n  id INT\n);"))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Contains(t, body["error"], "connection reset")
	})

	t.Run("strict parse failure", func(t *testing.T) {
		cat := catalog.NewStatic(dialect.MySQL).AddTable("users",
			catalog.Column{Name: "id", Type: "int", IsNullable: "NO"},
		)
		srv := httptest.NewServer(New(Config{
			Catalog: cat,
			Options: schema.Options{Strict: true},
			Logger:  zerolog.Nop(),
		}).Handler())
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/plan", "text/plain", strings.NewReader("CREATE TABLE users (\n  id INT NOT NULL,\n  broken INT DEFAULT\n);"))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		srv := httptest.NewServer(New(Config{Catalog: catalog.NewStatic(dialect.MySQL), Logger: zerolog.Nop()}).Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/plan")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestServer_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{Catalog: catalog.NewStatic(dialect.MySQL), Logger: zerolog.Nop()}).
		Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestServer_Serve(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(Config{Addr: addr, Catalog: catalog.NewStatic(dialect.MySQL), Logger: zerolog.Nop()}).Serve(ctx)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
