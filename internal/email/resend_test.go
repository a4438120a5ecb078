package email_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/airshopworks/landing-backend/internal/email"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, fn rtFunc) email.Provider {
	t.Helper()
	p, err := email.NewResendClient(email.ResendOptions{
		APIKey:     "re_test",
		HTTPClient: &http.Client{Transport: fn},
	})
	require.NoError(t, err)
	return p
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestSendEmail_Success(t *testing.T) {
	var sent map[string]any
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "api.resend.com", r.URL.Host)
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		return jsonResponse(http.StatusOK, `{"id":"msg_123"}`), nil
	})

	id, err := p.SendEmail(context.Background(), email.Message{
		From:    "AirShop <hello@airshop.works>",
		To:      []string{"a@example.com", "b@example.com"},
		Bcc:     []string{"leads@airshop.works"},
		Subject: "Your Lost Revenue Estimate: $12,000/year",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	require.Equal(t, "msg_123", id)

	require.Equal(t, "AirShop <hello@airshop.works>", sent["from"])
	require.Equal(t, []any{"a@example.com", "b@example.com"}, sent["to"])
	require.Equal(t, []any{"leads@airshop.works"}, sent["bcc"])
	require.Equal(t, "<p>hi</p>", sent["html"])
}

func TestSendEmail_ProviderErrorFails(t *testing.T) {
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity,
			`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`), nil
	})

	_, err := p.SendEmail(context.Background(), email.Message{To: []string{"a@example.com"}})
	require.Error(t, err)
}

func TestAddToAudience_PostsToAudienceContacts(t *testing.T) {
	var body map[string]any
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "/audiences/aud_1/contacts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		return jsonResponse(http.StatusCreated, `{"object":"contact","id":"c_1"}`), nil
	})

	err := p.AddToAudience(context.Background(), email.AudienceContact{
		AudienceID: "aud_1",
		Email:      "a@example.com",
		FirstName:  "Ada",
	})
	require.NoError(t, err)
	require.Equal(t, "a@example.com", body["email"])
	require.Equal(t, "Ada", body["first_name"])
}

func TestCreateContact_WireShape(t *testing.T) {
	var body map[string]any
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/contacts", r.URL.Path)
		require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		return jsonResponse(http.StatusCreated, `{"object":"contact","id":"c_1"}`), nil
	})

	err := p.CreateContact(context.Background(), email.Contact{
		Email:      "lead@example.com",
		Properties: map[string]string{"LeadType": "landing_page_signup"},
		SegmentIDs: []string{"seg_1"},
	})
	require.NoError(t, err)

	require.Equal(t, "lead@example.com", body["email"])
	require.Equal(t, false, body["unsubscribed"])
	require.Equal(t, map[string]any{"LeadType": "landing_page_signup"}, body["properties"])
	require.Equal(t, []any{"seg_1"}, body["segment_ids"])
}

func TestCreateContact_ConflictIsAlreadyExists(t *testing.T) {
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusConflict, `{"name":"conflict","message":"Contact exists"}`), nil
	})

	err := p.CreateContact(context.Background(), email.Contact{Email: "lead@example.com"})
	require.Error(t, err)
	require.True(t, email.IsAlreadyExists(err))

	var apiErr *email.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, "conflict", apiErr.Name)
}

func TestCreateContact_AlreadyMessageIsAlreadyExists(t *testing.T) {
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity,
			`{"name":"validation_error","message":"Contact already exists"}`), nil
	})

	err := p.CreateContact(context.Background(), email.Contact{Email: "lead@example.com"})
	require.True(t, email.IsAlreadyExists(err))
}

func TestCreateContact_OtherErrorIsNotAlreadyExists(t *testing.T) {
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `upstream exploded`), nil
	})

	err := p.CreateContact(context.Background(), email.Contact{Email: "lead@example.com"})
	require.Error(t, err)
	require.False(t, email.IsAlreadyExists(err))

	var apiErr *email.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "upstream exploded", apiErr.Message)
}

func TestCreateContact_TransportErrorIsNotAlreadyExists(t *testing.T) {
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	err := p.CreateContact(context.Background(), email.Contact{Email: "lead@example.com"})
	require.Error(t, err)
	require.False(t, email.IsAlreadyExists(err))
}

func TestAddToSegment_EscapesAddressInPath(t *testing.T) {
	p := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/contacts/a%2Fb@example.com/segments/seg_1", r.URL.EscapedPath())
		require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `{"id":"seg_1"}`), nil
	})

	require.NoError(t, p.AddToSegment(context.Background(), "a/b@example.com", "seg_1"))
}

func TestNewResendClient_CustomBaseURL(t *testing.T) {
	var host string
	p, err := email.NewResendClient(email.ResendOptions{
		APIKey:  "re_test",
		BaseURL: "http://resend.internal:8080/",
		HTTPClient: &http.Client{Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			host = r.URL.Host
			require.Equal(t, "/contacts", r.URL.Path)
			return jsonResponse(http.StatusOK, `{}`), nil
		})},
	})
	require.NoError(t, err)

	require.NoError(t, p.CreateContact(context.Background(), email.Contact{Email: "x@example.com"}))
	require.Equal(t, "resend.internal:8080", host)
}
