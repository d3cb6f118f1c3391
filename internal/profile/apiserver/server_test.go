package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenleaf/internal/auth"
	"greenleaf/internal/profile"
	"greenleaf/internal/profile/sqlstore"
)

type testAPI struct {
	server *httptest.Server
	token  string
	store  *sqlstore.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db, err := sqlstore.Open(ctx, filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := sqlstore.NewStore(db, filepath.Join(dir, "media"), sqlstore.WithImageRef(MediaRef))
	require.NoError(t, store.Create(ctx, profile.Snapshot{
		ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	}))

	signer, err := auth.NewSigner("test-secret")
	require.NoError(t, err)
	token, _, err := signer.Issue(1, time.Hour)
	require.NoError(t, err)

	h := NewHandler(store, signer, profile.Validator{GenderOptions: []string{"Male", "Female"}}, nil)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testAPI{server: srv, token: token, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, contentType string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile(FieldProfileImage, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeSnapshot(t *testing.T, resp *http.Response) profile.Snapshot {
	t.Helper()
	var snap profile.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestAPI_GetProfile(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/profile/", nil, "", api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	assert.Equal(t, "Ada", snap.FirstName)
	assert.Equal(t, "ada@example.com", snap.Email)
}

func TestAPI_RequiresToken(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/profile/", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/profile/", nil, "", "bogus")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_GetProfileNotFound(t *testing.T) {
	api := newTestAPI(t)
	signer, _ := auth.NewSigner("test-secret")
	token, _, err := signer.Issue(2, time.Hour)
	require.NoError(t, err)

	resp := api.do(t, http.MethodGet, "/api/profile/", nil, "", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_PatchProfilePartial(t *testing.T) {
	api := newTestAPI(t)

	body, ct := multipartBody(t, map[string]string{
		FieldPhoneNumber: "+1 555 0100 22",
		FieldGender:      "Female",
	}, "", nil)
	resp := api.do(t, http.MethodPatch, "/api/profile/", body, ct, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := decodeSnapshot(t, resp)
	assert.Equal(t, "Ada", snap.FirstName, "missing fields keep their value")
	assert.Equal(t, "+1 555 0100 22", snap.PhoneNumber)
	assert.Equal(t, "Female", snap.Gender)
}

func TestAPI_PatchProfileValidation(t *testing.T) {
	api := newTestAPI(t)

	body, ct := multipartBody(t, map[string]string{FieldBirthdate: "yesterday"}, "", nil)
	resp := api.do(t, http.MethodPatch, "/api/profile/", body, ct, api.token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Contains(t, e.Error, "birth date")
}

func TestAPI_PatchProfileWithImageThenServeMedia(t *testing.T) {
	api := newTestAPI(t)

	body, ct := multipartBody(t, map[string]string{FieldFirstName: "Augusta"}, "me.png", []byte("fake-png"))
	resp := api.do(t, http.MethodPatch, "/api/profile/", body, ct, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := decodeSnapshot(t, resp)
	assert.Equal(t, "Augusta", snap.FirstName)
	require.True(t, strings.HasPrefix(snap.ProfileImageRef, MediaPrefix+"profile/"), snap.ProfileImageRef)

	media := api.do(t, http.MethodGet, snap.ProfileImageRef, nil, "", "")
	require.Equal(t, http.StatusOK, media.StatusCode)
	b, err := io.ReadAll(media.Body)
	require.NoError(t, err)
	assert.Equal(t, "fake-png", string(b))
}

func TestAPI_PatchRejectsNonMultipart(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPatch, "/api/profile/", strings.NewReader(`{}`), "application/json", api.token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMediaRef(t *testing.T) {
	assert.Equal(t, "/media/profile/a.png", MediaRef("profile/a.png"))
}
