package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactrelay/contactrelay/internal/contact"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPreview(t *testing.T) {
	out, err := execute(t, "preview", "--name", " Alice ", "--email", "alice@example.com", "--message", "Hi <you>\nbye")
	require.NoError(t, err)

	assert.Contains(t, out, "Name : Alice\nEmail : alice@example.com\n\nMessage :\nHi <you>\nbye")
	assert.Contains(t, out, "<p>Hi &lt;you&gt;<br>bye</p>")
}

func TestPreview_Invalid(t *testing.T) {
	_, err := execute(t, "preview", "--name", "Alice", "--email", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, contact.ErrValidation)
	assert.Contains(t, err.Error(), "email:contact_email")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "contactrelay 0.1.0")
}

func TestProviders(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"RESEND_API_KEY", "GMAIL_USER", "GMAIL_APP_PASSWORD", "CONTACTRELAY_EMAIL_MAILGUN_API_KEY"} {
		t.Setenv(key, "")
	}
	t.Setenv("SMTP_USER", "relay@example.com")
	t.Setenv("SMTP_PASSWORD", "secret")

	out, err := execute(t, "providers")
	require.NoError(t, err)

	assert.Contains(t, out, "  resend   not configured")
	assert.Contains(t, out, "* smtp     configured")
	assert.NotContains(t, out, "no provider configured")
}

func TestSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"Message envoyé avec succès !"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "submit", "--url", srv.URL, "--name", "Alice", "--email", "alice@example.com", "--message", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Message envoyé avec succès !\n", out)
}
