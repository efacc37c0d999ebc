package api

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/slovar/slovar/pkg/auth"
	"github.com/slovar/slovar/pkg/rbac"
)

const testTokenSecret = "test-secret"

type testServer struct {
	server *Server
	mock   sqlmock.Sqlmock
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tokens := auth.NewTokenManager([]byte(testTokenSecret), time.Hour)
	resolver := rbac.NewResolver(rbac.NewStore(db), nil, logrus.NewEntry(logger))

	return &testServer{
		server: NewServer(auth.NewUserStore(db), tokens, resolver, nil, logger),
		mock:   mock,
		tokens: tokens,
	}
}

func (ts *testServer) request(t *testing.T, method, path, body string, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(recorder, request)
	return recorder
}

func (ts *testServer) tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := ts.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

// expectPermissions queues the transitive permission query the resolver
// issues when authorizing the given user.
func (ts *testServer) expectPermissions(userID uuid.UUID, permissions ...rbac.Permission) {
	rows := sqlmock.NewRows([]string{"permission_id"})
	for _, permission := range permissions {
		rows.AddRow(int32(permission.ID()))
	}
	ts.mock.ExpectQuery(`SELECT DISTINCT rp.permission_id`).
		WithArgs(userID).
		WillReturnRows(rows)
}

var userColumns = []string{"id", "username", "display_name", "hashed_password", "joined_at"}

func (ts *testServer) expectUserByID(userID uuid.UUID) {
	ts.mock.ExpectQuery(`SELECT id, username, display_name, hashed_password, joined_at`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID, "target", "Target", "irrelevant", time.Now()))
}

func (ts *testServer) expectRoles(userID uuid.UUID, roles ...rbac.Role) {
	rows := sqlmock.NewRows([]string{"role_id"})
	for _, role := range roles {
		rows.AddRow(int32(role))
	}
	ts.mock.ExpectQuery(`SELECT DISTINCT role_id FROM user_roles`).
		WithArgs(userID).
		WillReturnRows(rows)
}
