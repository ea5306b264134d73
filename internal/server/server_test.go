package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redops/internal/domain"
	"redops/internal/resultfile"
	"redops/internal/store"
	redopssdk "redops/sdk/go"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Store  *MemStore
	Hub    *Hub
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestServer(t *testing.T) (*testServer, func()) {
	return newTestServerWithClock(t, nil)
}

func newTestServerWithClock(t *testing.T, clock *fakeClock) (*testServer, func()) {
	t.Helper()
	ms := NewMemStore()
	for _, d := range []domain.UserDraft{
		{Username: "admin", Email: "admin@redops.local", Password: "changeme", Role: domain.RoleAdmin},
		{Username: "riley", Email: "riley@redops.local", Password: "hunter2"},
	} {
		if _, err := ms.CreateUser(d); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	auth := AuthConfig{JWTSecret: testSecret, TokenTTL: 24 * time.Hour}
	if clock != nil {
		auth.now = clock.Now
	}
	hub := NewHub(nil)
	handler, err := New(Config{Store: ms, Hub: hub, Auth: auth})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Store:  ms,
		Hub:    hub,
		client: &http.Client{},
		close: func() {
			hub.Close()
			srv.Shutdown(context.Background())
			ln.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer, email, password string) map[string]string {
	t.Helper()
	res, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, string(body))
	}
	authz := res.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		t.Fatalf("login returned no bearer token: %q", authz)
	}
	return map[string]string{"Authorization": authz}
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error envelope %s: %v", string(body), err)
	}
	return envelope.Error
}

func TestLoginReturnsPrincipalAndToken(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"email":    "admin@redops.local",
		"password": "changeme",
	}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var u domain.User
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.NotEmpty(t, u.ID)

	token := redopssdk.StripBearer(res.Header.Get("Authorization"))
	principal, _, err := authenticateJWT(token, AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, u.ID, principal.UserID)

	res, body = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"email":    "admin@redops.local",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "invalid credentials", errorOf(t, body))
	assert.Empty(t, res.Header.Get("Authorization"))
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/operations", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "authorization header is required", errorOf(t, body))

	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/operations", nil, map[string]string{
		"Authorization": "Bearer not-a-jwt",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "invalid token", errorOf(t, body))
}

func TestExpiredTokenRejected(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	srv, cleanup := newTestServerWithClock(t, clock)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")

	clock.Advance(25 * time.Hour)
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/tasks", nil, headers)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "token has expired", errorOf(t, body))
}

func TestTokenRefreshedPastHalfLife(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	srv, cleanup := newTestServerWithClock(t, clock)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/tools", nil, headers)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, res.Header.Get("Authorization"))

	clock.Advance(13 * time.Hour)
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/tools", nil, headers)
	require.Equal(t, http.StatusOK, res.StatusCode)
	fresh := res.Header.Get("Authorization")
	require.NotEmpty(t, fresh)
	assert.NotEqual(t, headers["Authorization"], fresh)
}

func TestOperationTaskFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")
	client := srv.Client()

	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/operations", map[string]any{
		"name": "Nightfall",
		"type": "red_team",
	}, headers)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var op domain.Operation
	require.NoError(t, json.Unmarshal(body, &op))
	assert.Equal(t, domain.PhaseReconnaissance, op.CurrentPhase)
	assert.Equal(t, domain.OperationPending, op.Status)
	assert.NotNil(t, op.Members)

	res, body = doJSON(t, client, http.MethodPut, srv.URL+"/api/operations/"+op.ID+"/phase", map[string]any{
		"phase": "lateral_movement",
	}, headers)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &op))
	assert.Equal(t, domain.PhaseLateralMovement, op.CurrentPhase)

	res, body = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"operation_id": op.ID,
		"title":        "Pivot to file server",
		"mitre_id":     "T1021",
	}, headers)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var task domain.Task
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, domain.PhaseLateralMovement, task.Phase)
	assert.Equal(t, domain.TaskPending, task.Status)

	res, body = doJSON(t, client, http.MethodPut, srv.URL+"/api/tasks/"+task.ID+"/status", map[string]any{
		"status": "completed",
	}, headers)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, domain.TaskCompleted, task.Status)

	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks/operation/"+op.ID, nil, headers)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(body, &tasks))
	assert.Len(t, tasks, 1)

	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/operations/phase/lateral_movement", nil, headers)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var ops []domain.Operation
	require.NoError(t, json.Unmarshal(body, &ops))
	assert.Len(t, ops, 1)

	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/api/operations/"+op.ID, nil, headers)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Empty(t, srv.Store.TasksByOperation(op.ID))

	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/operations/"+op.ID, nil, headers)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, errorOf(t, body), "not found")

	notes := srv.Store.ListNotifications()
	require.NotEmpty(t, notes)
	assert.Equal(t, "Operation deleted", notes[0].Title)
}

func TestValidationUsesErrorEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")

	res, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/operations", map[string]any{
		"name": "Nightfall",
		"type": "tabletop",
	}, headers)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, errorOf(t, body), "type")

	res, body = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/operations", map[string]any{
		"type": "red_team",
	}, headers)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.NotEmpty(t, errorOf(t, body))

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/operations/phase/nowhere", nil, headers)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUserAdministrationRequiresAdmin(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	member := login(t, srv, "riley@redops.local", "hunter2")
	admin := login(t, srv, "admin@redops.local", "changeme")
	draft := map[string]any{"username": "sam", "email": "sam@redops.local", "password": "pw", "role": "team_lead"}

	res, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/users", draft, member)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "insufficient role", errorOf(t, body))

	res, body = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/users", draft, admin)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var u domain.User
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, domain.RoleTeamLead, u.Role)

	res, _ = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/users", draft, admin)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/users/email/sam@redops.local", nil, member)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/users/"+u.ID, nil, member)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/users/"+u.ID, nil, admin)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestExecuteToolIsQueued(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")
	client := srv.Client()

	op, err := srv.Store.CreateOperation(domain.OperationDraft{Name: "Harbor", Type: domain.OperationPenTest})
	require.NoError(t, err)
	task, err := srv.Store.CreateTask(domain.TaskDraft{OperationID: op.ID, Title: "Port scan"})
	require.NoError(t, err)

	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/tools", map[string]any{
		"name":      "nmap",
		"type":      "reconnaissance",
		"command":   "nmap -sV {target}",
		"arguments": map[string]string{"target": "host or CIDR"},
	}, headers)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var tool domain.Tool
	require.NoError(t, json.Unmarshal(body, &tool))
	assert.True(t, tool.IsActive)
	assert.Equal(t, "text", tool.OutputFormat)

	res, body = doJSON(t, client, http.MethodPost, srv.URL+"/api/tools/"+tool.ID+"/execute", map[string]any{
		"task_id": task.ID,
		"args":    map[string]string{"target": "10.0.0.0/24"},
	}, headers)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var exec domain.ToolExecution
	require.NoError(t, json.Unmarshal(body, &exec))
	assert.Equal(t, "queued", exec.Status)
	assert.Equal(t, "nmap -sV 10.0.0.0/24", exec.Command)

	res, body = doJSON(t, client, http.MethodPost, srv.URL+"/api/tools/"+tool.ID+"/execute", map[string]any{
		"task_id": task.ID,
	}, headers)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, errorOf(t, body), "target")

	res, _ = doJSON(t, client, http.MethodPut, srv.URL+"/api/tools/"+tool.ID+"/status", map[string]any{
		"is_active": false,
	}, headers)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/tools/active", nil, headers)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, "[]", string(body))

	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/tools/"+tool.ID+"/execute", map[string]any{
		"task_id": task.ID,
		"args":    map[string]string{"target": "10.0.0.1"},
	}, headers)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Len(t, srv.Store.Executions(tool.ID), 1)
}

func TestNotificationsReadFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")
	first := srv.Store.AddNotification(domain.Notification{Type: domain.SeverityInfo, Title: "one"})
	srv.Store.AddNotification(domain.Notification{Type: domain.SeverityError, Title: "two"})

	res, _ := doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/notifications/"+first.ID+"/read", nil, headers)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/notifications", nil, headers)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var notes []domain.Notification
	require.NoError(t, json.Unmarshal(body, &notes))
	unread := 0
	for _, n := range notes {
		if !n.Read {
			unread++
		}
	}
	assert.Equal(t, 1, unread)

	res, _ = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/notifications/read-all", nil, headers)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	for _, n := range srv.Store.ListNotifications() {
		assert.True(t, n.Read)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/notifications/missing/read", nil, headers)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPushHubBroadcastsMutations(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")
	token := redopssdk.StripBearer(headers["Authorization"])

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	res, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/operations", map[string]any{
		"name": "Nightfall",
		"type": "red_team",
	}, headers)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Type    string              `json:"type"`
		Payload domain.Notification `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "notification", frame.Type)
	assert.Equal(t, "Operation created", frame.Payload.Title)
	assert.Equal(t, domain.SeverityInfo, frame.Payload.Type)
	assert.NotEmpty(t, frame.Payload.ID)
}

type staticTokens struct{ token string }

func (s *staticTokens) Token() string       { return s.token }
func (s *staticTokens) SetToken(tok string) { s.token = tok }

func TestStoresAgainstServer(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	client := redopssdk.New(srv.URL + "/api")
	_, token, err := client.Login(ctx, domain.Credentials{Email: "riley@redops.local", Password: "hunter2"})
	require.NoError(t, err)
	client.Tokens = &staticTokens{token: token}

	ops := store.NewOperations(client.Operations())
	require.NoError(t, ops.FetchAll(ctx))
	before := len(ops.State().Items)

	created, err := ops.Create(ctx, domain.OperationDraft{
		Name:         "Nightfall",
		Type:         domain.OperationRedTeam,
		CurrentPhase: domain.PhaseReconnaissance,
		Status:       domain.OperationPending,
	})
	require.NoError(t, err)
	items := ops.State().Items
	require.Len(t, items, before+1)
	assert.Equal(t, created.ID, items[len(items)-1].ID)
	assert.Equal(t, domain.OperationRedTeam, items[len(items)-1].Type)

	tasks := store.NewTasks(client.Tasks())
	task, err := tasks.Create(ctx, domain.TaskDraft{OperationID: created.ID, Title: "Phish helpdesk"})
	require.NoError(t, err)
	updated, err := tasks.UpdateStatus(ctx, task.ID, domain.TaskInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, updated.Status)

	require.NoError(t, ops.Delete(ctx, created.ID))
	require.NoError(t, ops.Delete(ctx, created.ID))
	assert.Len(t, ops.State().Items, before)
}

func TestTaskResultsImportAndClear(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	client := redopssdk.New(srv.URL + "/api")
	_, token, err := client.Login(ctx, domain.Credentials{Email: "riley@redops.local", Password: "hunter2"})
	require.NoError(t, err)
	client.Tokens = &staticTokens{token: token}

	op, err := client.Operations().Create(ctx, domain.OperationDraft{Name: "Harbor", Type: domain.OperationPenTest})
	require.NoError(t, err)
	task, err := client.Tasks().Create(ctx, domain.TaskDraft{OperationID: op.ID, Title: "Sweep DMZ"})
	require.NoError(t, err)

	results := store.NewResults(client.Tasks())
	require.NoError(t, results.Fetch(ctx, task.ID))
	assert.Empty(t, results.State().Items)

	csv := "Start,End,Source IP,Destination IP,Destination Port\n" +
		"09:00,09:05,10.0.0.5,10.0.1.20,445\n" +
		"09:10,09:12,10.0.0.5,10.0.1.21,22\n"
	require.NoError(t, results.Import(ctx, task.ID, "sweep.csv", strings.NewReader(csv)))
	items := results.State().Items
	require.Len(t, items, 2)
	assert.Equal(t, task.ID, items[0].TaskID)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, "445", items[0].DestinationPort)
	assert.Equal(t, "Results imported", srv.Store.ListNotifications()[0].Title)

	var sheet bytes.Buffer
	require.NoError(t, resultfile.Write(&sheet, resultfile.FormatXLSX, []domain.TaskResult{{SourceIP: "10.0.0.9", Result: "shell"}}))
	require.NoError(t, results.Import(ctx, task.ID, "more.xlsx", &sheet))
	require.Len(t, results.State().Items, 3)
	assert.Equal(t, "shell", results.State().Items[2].Result)

	err = results.Import(ctx, task.ID, "notes.txt", strings.NewReader("hello"))
	var apiErr *redopssdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "unsupported result file format")
	assert.Len(t, results.State().Items, 3)

	require.NoError(t, results.Clear(ctx, task.ID))
	assert.Empty(t, results.State().Items)
	stored, err := srv.Store.TaskResults(task.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, err = srv.Store.ImportTaskResults(task.ID, []domain.TaskResult{{SourceIP: "10.0.0.5"}})
	require.NoError(t, err)
	require.NoError(t, client.Tasks().Delete(ctx, task.ID))
	_, err = client.Tasks().ListResults(ctx, task.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Empty(t, srv.Store.results)
}

func TestTaskCanBeUnassigned(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "riley@redops.local", "hunter2")
	client := srv.Client()

	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/operations", map[string]any{
		"name": "Lantern",
		"type": "vulnerability_assessment",
	}, headers)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var op domain.Operation
	require.NoError(t, json.Unmarshal(body, &op))

	res, body = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"operation_id": op.ID,
		"title":        "Scan perimeter",
		"assigned_to":  "u-riley",
	}, headers)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var task domain.Task
	require.NoError(t, json.Unmarshal(body, &task))
	require.NotNil(t, task.AssignedTo)

	res, body = doJSON(t, client, http.MethodPut, srv.URL+"/api/tasks/"+task.ID, map[string]any{
		"assigned_to": "",
	}, headers)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.NotContains(t, string(body), "assigned_to")
	assert.Empty(t, srv.Store.TasksByAssignee("u-riley"))
}
