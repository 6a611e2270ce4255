package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestMailer(t *testing.T) (*Mailer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	m, err := New(Options{FrontendURL: "https://autoria.test"}, zap.New(core))
	require.NoError(t, err)
	return m, logs
}

func TestRender_EveryKindParses(t *testing.T) {
	m, _ := newTestMailer(t)
	for _, k := range kinds {
		subj, body, err := m.Render(k, Recipient{Email: "a@b.c", Name: "Olena"}, map[string]any{
			"Listing":        map[string]any{"ID": "l1", "OwnerID": "u1", "Brand": "BMW", "Model": "X5", "Year": 2020, "EditCount": 3},
			"Brand":          "LADA",
			"RequesterEmail": "x@y.z",
			"Token":          "tok",
		})
		require.NoError(t, err, k)
		assert.NotEmpty(t, subj, k)
		assert.Contains(t, body, "Olena", k)
	}
}

func TestRender_BlockedListingCarriesEditCount(t *testing.T) {
	m, _ := newTestMailer(t)
	subj, body, err := m.Render(BlockedListing, Recipient{Name: "M"}, map[string]any{
		"Listing": map[string]any{"ID": "l1", "Brand": "AUDI", "Model": "A4", "Year": 2015, "EditCount": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "Listing AUDI A4 was blocked", subj)
	assert.Contains(t, body, "3 rejected edits")
	assert.Contains(t, body, "https://autoria.test/admin/listings/l1")
}

func TestRender_EscapesUserInput(t *testing.T) {
	m, _ := newTestMailer(t)
	_, body, err := m.Render(MissingBrand, Recipient{Name: "M"}, map[string]any{
		"Brand": "<script>x</script>", "RequesterEmail": "e",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRender_UnknownKind(t *testing.T) {
	m, _ := newTestMailer(t)
	_, _, err := m.Render("nope", Recipient{}, nil)
	assert.Error(t, err)
}

func TestSend_DisabledOnlyLogs(t *testing.T) {
	m, logs := newTestMailer(t)
	m.Send(context.Background(), Premium, []Recipient{{Email: "a@b.c"}, {Email: "d@e.f"}}, nil)
	assert.Equal(t, 2, logs.FilterMessage("mail: delivery disabled").Len())
}

func TestRender_ForgotPasswordLink(t *testing.T) {
	m, _ := newTestMailer(t)
	subj, body, err := m.Render(ForgotPassword, Recipient{Name: "Olena"}, map[string]any{"Token": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "Password reset", subj)
	assert.Contains(t, body, "https://autoria.test/auth/reset-password/abc")
}
