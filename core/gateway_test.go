package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayAttachesBearerOnlyWithCredential(t *testing.T) {
	api := newFakeAPI(t)
	api.reply(http.MethodGet, "/posts/feed", http.StatusOK, `[]`)
	store := NewMemoryCredentialStore()
	gw := NewGateway(api.srv.URL, 0, store, nil)
	ctx := context.Background()

	require.NoError(t, gw.Get(ctx, "/posts/feed", nil))
	assert.Empty(t, api.last(http.MethodGet, "/posts/feed").Header.Get("Authorization"))

	require.NoError(t, store.Set(ctx, "abc", "7"))
	require.NoError(t, gw.Get(ctx, "/posts/feed", nil))
	call := api.last(http.MethodGet, "/posts/feed")
	assert.Equal(t, "Bearer abc", call.Header.Get("Authorization"))
	assert.Equal(t, "application/json", call.Header.Get("Content-Type"))
	assert.NotEmpty(t, call.Header.Get("X-Request-ID"))
}

func TestGatewayPostEncodesBody(t *testing.T) {
	api := newFakeAPI(t)
	api.reply(http.MethodPost, "/posts/create", http.StatusOK, `{"id": 12, "content": "hi"}`)
	gw := NewGateway(api.srv.URL, 0, nil, nil)

	var p Post
	require.NoError(t, gw.Post(context.Background(), "/posts/create", map[string]string{"content": "hi"}, &p))
	assert.Equal(t, FlexID("12"), p.ID)
	assert.JSONEq(t, `{"content":"hi"}`, api.last(http.MethodPost, "/posts/create").Body)

	require.NoError(t, gw.Post(context.Background(), "/posts/create", nil, nil))
	assert.Empty(t, api.last(http.MethodPost, "/posts/create").Body)
}

func TestGatewayErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error wins over detail", 400, `{"error":"bad thing","detail":"other"}`, "bad thing"},
		{"nested error message", 403, `{"error":{"code":"FORBIDDEN","message":"nope"}}`, "nope"},
		{"detail", 401, `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"message", 409, `{"message":"taken"}`, "taken"},
		{"detail before message", 400, `{"detail":"d","message":"m"}`, "d"},
		{"non-string detail", 422, `{"detail":[{"loc":["body"],"msg":"x"}]}`, "Error 422"},
		{"empty object", 404, `{}`, "Error 404"},
		{"not json", 500, `<html>oops</html>`, "Error 500"},
		{"empty body", 502, ``, "Error 502"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			err := NewGateway(srv.URL, 0, nil, nil).Get(context.Background(), "/x", nil)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.status, StatusCodeOf(err))
		})
	}
}

func TestGatewayRejectsNonJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	err := NewGateway(srv.URL, 0, nil, nil).Get(context.Background(), "/x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.Zero(t, StatusCodeOf(err))
}

func TestGatewayTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewGateway(url, 0, nil, nil).Get(context.Background(), "/x", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestGatewayUploadSendsMultipart(t *testing.T) {
	api := newFakeAPI(t)
	var gotName, gotContent, gotCaption, gotType string
	api.handle(http.MethodPost, "/upload", func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		f, fh, err := r.FormFile("file")
		if err == nil {
			gotName = fh.Filename
			b, _ := io.ReadAll(f)
			gotContent = string(b)
		}
		gotCaption = r.FormValue("caption")
		_, _ = io.WriteString(w, `{"url":"/media/a.png"}`)
	})
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Set(context.Background(), "abc", "1"))
	gw := NewGateway(api.srv.URL, 0, store, nil)

	var res struct {
		URL string `json:"url"`
	}
	form := UploadForm{FileName: "a.png", Content: strings.NewReader("PNGDATA"), Fields: map[string]string{"caption": "hi"}}
	require.NoError(t, gw.Upload(context.Background(), "/upload", form, &res))

	assert.Equal(t, "/media/a.png", res.URL)
	assert.True(t, strings.HasPrefix(gotType, "multipart/form-data"))
	assert.Equal(t, "a.png", gotName)
	assert.Equal(t, "PNGDATA", gotContent)
	assert.Equal(t, "hi", gotCaption)
	assert.Equal(t, "Bearer abc", api.last(http.MethodPost, "/upload").Header.Get("Authorization"))
}

func TestGatewayIsReusableAcrossCalls(t *testing.T) {
	api := newFakeAPI(t)
	api.reply(http.MethodGet, "/a", http.StatusInternalServerError, `{"detail":"boom"}`)
	api.reply(http.MethodGet, "/b", http.StatusOK, `{"ok":true}`)
	gw := NewGateway(api.srv.URL, 0, nil, nil)

	require.Error(t, gw.Get(context.Background(), "/a", nil))
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, gw.Get(context.Background(), "/b", &out))
	assert.True(t, out.OK)
	assert.Equal(t, 1, api.count(http.MethodGet, "/a"))
}
