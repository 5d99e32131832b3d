package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactrelay/contactrelay/internal/email"
	"github.com/contactrelay/contactrelay/internal/logger"
)

// stubSender records messages and returns err.
type stubSender struct {
	err   error
	block bool

	mu   sync.Mutex
	sent []email.Message
}

func (s *stubSender) Name() string { return "stub" }

func (s *stubSender) Send(ctx context.Context, msg email.Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	if s.block {
		time.Sleep(5 * time.Second)
	}
	return s.err
}

func (s *stubSender) calls() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message(nil), s.sent...)
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Submission
	}{
		{
			name: "trims fields",
			raw:  map[string]any{"name": "  Alice ", "email": "\talice@example.com\n", "message": " Hello "},
			want: Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"},
		},
		{
			name: "non-string values become empty",
			raw:  map[string]any{"name": 42, "email": true, "message": map[string]any{"x": 1}},
			want: Submission{},
		},
		{
			name: "absent and nil",
			raw:  map[string]any{"name": nil},
			want: Submission{},
		},
		{
			name: "trims unicode whitespace",
			raw:  map[string]any{"name": "\u00a0Alice\u3000", "email": "\ufeffalice@example.com\v", "message": "\u2028Hello"},
			want: Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"},
		},
		{
			name: "nom alias",
			raw:  map[string]any{"nom": "Bob", "email": "b@c.d", "message": "hi"},
			want: Submission{Name: "Bob", Email: "b@c.d", Message: "hi"},
		},
		{
			name: "name wins over nom",
			raw:  map[string]any{"name": "Alice", "nom": "Bob"},
			want: Submission{Name: "Alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}

	t.Run("nil map", func(t *testing.T) {
		assert.Equal(t, Submission{}, Normalize(nil))
	})
}

func TestNormalize_Caps(t *testing.T) {
	long := strings.Repeat("é", MaxNameLength+50)
	longEmail := strings.Repeat("a", 300) + "@example.com"

	s := Normalize(map[string]any{
		"name":    long,
		"email":   longEmail,
		"message": strings.Repeat("m", MaxMessageLength+1),
	})

	assert.Equal(t, MaxNameLength, len([]rune(s.Name)))
	assert.Equal(t, MaxMessageLength, len(s.Message))
	assert.Equal(t, longEmail, s.Email)
}

func TestValidator_Validate(t *testing.T) {
	v := newTestValidator(t)
	valid := Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"}

	require.NoError(t, v.Validate(valid))
	require.NoError(t, v.Validate(Submission{Name: "A", Email: "a@b.c", Message: "m"}))

	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"empty name", func(s *Submission) { s.Name = "" }},
		{"empty email", func(s *Submission) { s.Email = "" }},
		{"empty message", func(s *Submission) { s.Message = "" }},
		{"no at", func(s *Submission) { s.Email = "alice.example.com" }},
		{"no dot in domain", func(s *Submission) { s.Email = "alice@example" }},
		{"whitespace", func(s *Submission) { s.Email = "ali ce@example.com" }},
		{"vertical tab", func(s *Submission) { s.Email = "a\vb@example.com" }},
		{"no-break space", func(s *Submission) { s.Email = "a\u00a0b@example.com" }},
		{"line separator", func(s *Submission) { s.Email = "a@exa\u2028mple.com" }},
		{"ideographic space", func(s *Submission) { s.Email = "a\u3000b@c.d" }},
		{"byte order mark", func(s *Submission) { s.Email = "a@b\ufeff.cd" }},
		{"double at", func(s *Submission) { s.Email = "a@b@c.d" }},
		{"empty local part", func(s *Submission) { s.Email = "@example.com" }},
		{"trailing dot", func(s *Submission) { s.Email = "a@b." }},
		{"too long", func(s *Submission) { s.Email = strings.Repeat("a", 250) + "@b.co" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			err := v.Validate(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, ErrValidation.Error(), err.Error())
		})
	}
}

func TestValidator_ReportsFields(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate(Submission{Email: "bad"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"name:required", "email:contact_email", "message:required"}, verr.Fields)
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&#39;", EscapeHTML(`&<>"'`))
	assert.Equal(t, "&amp;lt;", EscapeHTML("&lt;"))
	assert.Equal(t, "plain", EscapeHTML("plain"))
}

func TestRender(t *testing.T) {
	body := Render(Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello\nWorld"})

	assert.Equal(t, "Name : Alice\nEmail : alice@example.com\n\nMessage :\nHello\nWorld", body.Text)
	assert.Equal(t,
		"<p><strong>Name :</strong> Alice</p><p><strong>Email :</strong> alice@example.com</p>"+
			"<p><strong>Message :</strong></p><p>Hello<br>World</p>",
		body.HTML)
}

func TestRender_NoMarkupFromInput(t *testing.T) {
	s := Submission{
		Name:    "<script>alert(1)</script>",
		Email:   "x@y.z",
		Message: "<script>alert('hi')</script>\n<b>",
	}
	body := Render(s)

	// Strip the fixed template; what remains comes from user input.
	fields := strings.NewReplacer(
		"<p>", "", "</p>", "", "<strong>", "", "</strong>", "", "<br>", "",
	).Replace(body.HTML)
	assert.NotContains(t, fields, "<")
	assert.NotContains(t, fields, ">")
	assert.Contains(t, body.HTML, "&lt;script&gt;alert(&#39;hi&#39;)&lt;/script&gt;<br>&lt;b&gt;")
}

func TestRender_NoDoubleEscape(t *testing.T) {
	body := Render(Submission{Name: "n", Email: "e@x.y", Message: "a &lt; b & c"})
	assert.Contains(t, body.HTML, "<p>a &amp;lt; b &amp; c</p>")
	assert.NotContains(t, body.HTML, "&amp;amp;")
}

func TestRender_NameNotNewlineConverted(t *testing.T) {
	body := Render(Submission{Name: "a\nb", Email: "e@x.y", Message: "m"})
	assert.Contains(t, body.HTML, "<strong>Name :</strong> a\nb</p>")
}

func TestParseText_RoundTrip(t *testing.T) {
	cases := []Submission{
		{Name: "Alice", Email: "alice@example.com", Message: "Hello"},
		{Name: "Jean-Édouard", Email: "je@exemple.fr", Message: "Bonjour,\n\nmerci & à bientôt <3"},
		{Name: "x", Email: "a@b.c", Message: "Email : spoof\nName : also"},
	}

	for _, want := range cases {
		got, ok := ParseText(Render(want).Text)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := ParseText("not a body")
	assert.False(t, ok)
	_, ok = ParseText("Name : a\nEmail : b")
	assert.False(t, ok)
}

func TestDispatcher_Dispatch(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(sender, DispatcherConfig{Recipient: "owner@example.com", Subject: "Nouveau message"})
	s := Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"}
	body := Render(s)

	require.NoError(t, d.Dispatch(context.Background(), s, body))

	sent := sender.calls()
	require.Len(t, sent, 1)
	assert.Equal(t, email.Message{
		To:       "owner@example.com",
		ReplyTo:  "alice@example.com",
		Subject:  "Nouveau message",
		TextBody: body.Text,
		HTMLBody: body.HTML,
	}, sent[0])
	assert.Equal(t, "stub", d.Provider())
	assert.True(t, d.Configured())
}

func TestDispatcher_NoProvider(t *testing.T) {
	d := NewDispatcher(nil, DispatcherConfig{Recipient: "owner@example.com"})

	err := d.Dispatch(context.Background(), Submission{}, Body{})
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.Equal(t, "none", d.Provider())
	assert.False(t, d.Configured())
}

func TestDispatcher_ProviderError(t *testing.T) {
	cause := errors.New("smtp: 535 bad credentials for secret-user")
	d := NewDispatcher(&stubSender{err: cause}, DispatcherConfig{Recipient: "owner@example.com"})

	err := d.Dispatch(context.Background(), Submission{Email: "a@b.c"}, Body{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.ErrorIs(t, err, cause)

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "stub", derr.Provider)
}

func TestDispatcher_Timeout(t *testing.T) {
	d := NewDispatcher(&stubSender{block: true}, DispatcherConfig{
		Recipient: "owner@example.com",
		Timeout:   50 * time.Millisecond,
	})

	start := time.Now()
	err := d.Dispatch(context.Background(), Submission{Email: "a@b.c"}, Body{})

	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDispatcher_DefaultTimeout(t *testing.T) {
	d := NewDispatcher(nil, DispatcherConfig{})
	assert.Equal(t, DefaultTimeout, d.cfg.Timeout)
}

func newTestRelay(t *testing.T, sender email.Sender) *Relay {
	t.Helper()
	return NewRelay(newTestValidator(t), NewDispatcher(sender, DispatcherConfig{
		Recipient: "owner@example.com",
		Subject:   "Nouveau message depuis le formulaire",
	}), logger.Nop())
}

func TestRelay_Submit(t *testing.T) {
	sender := &stubSender{}
	r := newTestRelay(t, sender)

	err := r.Submit(context.Background(), map[string]any{
		"name": "Alice", "email": "alice@example.com", "message": "Hello",
	})
	require.NoError(t, err)

	sent := sender.calls()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].ReplyTo)

	got, ok := ParseText(sent[0].TextBody)
	require.True(t, ok)
	assert.Equal(t, Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"}, got)
}

func TestRelay_SubmitInvalidNeverDispatches(t *testing.T) {
	inputs := []map[string]any{
		{"name": "", "email": "alice@example.com", "message": "Hello"},
		{"name": "Alice", "email": "   ", "message": "Hello"},
		{"name": "Alice", "email": "alice@example.com", "message": "\n\t "},
		{"name": "Alice", "email": "not-an-email", "message": "Hello"},
		{},
	}

	for _, raw := range inputs {
		sender := &stubSender{}
		err := newTestRelay(t, sender).Submit(context.Background(), raw)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, sender.calls())
	}
}

func TestRelay_LogsProvider(t *testing.T) {
	var buf bytes.Buffer
	v := newTestValidator(t)
	cause := errors.New("mailbox full")
	r := NewRelay(v, NewDispatcher(&stubSender{err: cause}, DispatcherConfig{Recipient: "owner@example.com"}),
		logger.NewWithWriter(&buf, "info", "json"))

	err := r.Submit(context.Background(), map[string]any{
		"name": "Alice", "email": "alice@example.com", "message": "Hello",
	})
	require.ErrorIs(t, err, ErrDelivery)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stub", entry["provider"])
	assert.Equal(t, "contact", entry["component"])
	assert.Equal(t, "error", entry["level"])
	assert.Contains(t, entry["error"], "mailbox full")
}

func TestRelay_SubmitRejectsEmbeddedWhitespace(t *testing.T) {
	for _, addr := range []string{"a\vb@example.com", "a\u00a0b@example.com", "a@exa\u2028mple.com"} {
		sender := &stubSender{}
		err := newTestRelay(t, sender).Submit(context.Background(), map[string]any{
			"name": "Alice", "email": addr, "message": "Hello",
		})
		assert.ErrorIs(t, err, ErrValidation, "%q", addr)
		assert.Empty(t, sender.calls(), "%q", addr)
	}
}

func TestRelay_SubmitValidatesBeforeProviderCheck(t *testing.T) {
	r := newTestRelay(t, nil)

	err := r.Submit(context.Background(), map[string]any{"name": "Alice"})
	assert.ErrorIs(t, err, ErrValidation)

	err = r.Submit(context.Background(), map[string]any{
		"name": "Alice", "email": "alice@example.com", "message": "Hello",
	})
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.Equal(t, "none", r.Provider())
	assert.False(t, r.Configured())
}

type panicSender struct{}

func (panicSender) Name() string { return "panic" }

func (panicSender) Send(ctx context.Context, msg email.Message) error {
	panic("boom")
}

func TestDispatcher_ProviderPanic(t *testing.T) {
	d := NewDispatcher(panicSender{}, DispatcherConfig{Recipient: "owner@example.com"})

	err := d.Dispatch(context.Background(), Submission{Email: "a@b.c"}, Body{})
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Contains(t, err.Error(), "provider panicked: boom")
}
