package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intResponse(n int) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<methodResponse><params><param><value><int>%d</int></value></param></params></methodResponse>`, n)
}

const faultResponse = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>1</int></value></member>
<member><name>faultString</name><value><string>Access Denied</string></value></member>
</struct></value></fault></methodResponse>`

func TestWriteValue(t *testing.T) {
	var buf bytes.Buffer
	err := writeValue(&buf, map[string]any{
		"name":     "send <report>",
		"priority": "3",
		"user_ids": []any{[]any{4, 42, false}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<string>send &lt;report&gt;</string>")
	assert.Contains(t, out, "<member><name>name</name>")
	assert.Contains(t, out, "<array><data><value><array><data><value><int>4</int></value><value><int>42</int></value><value><boolean>0</boolean></value></data></array></value></data></array>")
}

func TestWriteValueUnsupportedType(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, writeValue(&buf, 1.5))
}

func TestParseResponse(t *testing.T) {
	n, err := parseResponse([]byte(intResponse(1234)), "create")
	require.NoError(t, err)
	assert.Equal(t, 1234, n)

	_, err = parseResponse([]byte(faultResponse), "authenticate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access Denied")
}

func writeContacts(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "contacts.json")
	data, err := json.Marshal([]Contact{
		{Name: "Anna Schmidt", Email: "anna@example.com", OdooID: 42},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestConnectAndCreateTask(t *testing.T) {
	var lastBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		lastBody = string(raw)

		switch r.URL.Path {
		case "/xmlrpc/2/common":
			fmt.Fprint(w, intResponse(9))
		case "/xmlrpc/2/object":
			fmt.Fprint(w, intResponse(555))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c, err := Connect(context.Background(), Config{
		URL:          server.URL,
		Database:     "prod",
		Username:     "bot",
		APIKey:       "secret",
		ContactsPath: writeContacts(t),
		ProjectID:    3,
		MinScore:     70,
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 9, c.uid)

	taskID, err := c.CreateTask(context.Background(), map[string]any{
		"description": "send report",
		"assignee":    "Anna Schmidt",
		"deadline":    "25.08.2025",
		"priority":    "high",
		"context":     "discussed in the sync",
	})
	require.NoError(t, err)
	assert.Equal(t, 555, taskID)

	assert.Contains(t, lastBody, "<methodName>execute_kw</methodName>")
	assert.Contains(t, lastBody, "project.task")
	assert.Contains(t, lastBody, "<string>send report</string>")
	assert.Contains(t, lastBody, "2025-08-25")
	assert.Contains(t, lastBody, "<member><name>project_id</name><value><int>3</int></value></member>")
}

func TestConnectAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, faultResponse)
	}))
	defer server.Close()

	_, err := Connect(context.Background(), Config{
		URL:          server.URL,
		ContactsPath: writeContacts(t),
	}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authenticate")
}

func TestCreateTaskUnknownAssignee(t *testing.T) {
	c := testConnector(70)

	_, err := c.CreateTask(context.Background(), map[string]any{
		"description": "send report",
		"assignee":    "Zzzz Qqqq",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in contact directory")
}
