package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"pipocanota/auth"
	"pipocanota/catalog"
	"pipocanota/config"
	"pipocanota/models"
	"pipocanota/storage"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	app      *fiber.App
	kv       *storage.MemoryStore
	sessions *auth.Service
	watched  *storage.WatchedStorage
}

func newTestEnv(t *testing.T, tmdbURL, apiKey string) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Profile.ImageDir = t.TempDir()
	cfg.Profile.ImageMaxWidth = 64

	kv := storage.NewMemoryStore()
	users := storage.NewUserStorage(kv)
	users.SetHashCost(bcrypt.MinCost)
	sessions := auth.NewService(users, storage.NewSessionStorage(kv))
	watched := storage.NewWatchedStorage(kv)

	client := catalog.NewClient(catalog.Options{APIKey: apiKey, BaseURL: tmdbURL})
	t.Cleanup(client.Close)

	app := NewApp(Dependencies{
		Config:   cfg,
		Sessions: sessions,
		Users:    users,
		Watched:  watched,
		Theme:    storage.NewThemeStorage(kv, models.ThemeLight),
		Catalog:  client,
	})

	return &testEnv{app: app, kv: kv, sessions: sessions, watched: watched}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: invalid JSON: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func (e *testEnv) register(t *testing.T, name, email, password string) {
	t.Helper()
	status, body := e.do(t, "POST", "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("register returned %d: %v", status, body)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "", "")

	status, body := env.do(t, "GET", "/health", nil)
	if status != fiber.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", status, body)
	}
	if body["catalog"] != false {
		t.Errorf("expected catalog=false without a key, got %v", body["catalog"])
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, "", "")

	status, body := env.do(t, "GET", "/api/auth/me", nil)
	if status != fiber.StatusOK || body["authenticated"] != false {
		t.Fatalf("expected anonymous /me, got %d %v", status, body)
	}

	env.register(t, "Ana", "Ana@X.com", "abc123")

	status, body = env.do(t, "GET", "/api/auth/me", nil)
	user, _ := body["user"].(map[string]interface{})
	if status != fiber.StatusOK || user["email"] != "ana@x.com" {
		t.Fatalf("unexpected /me after register: %d %v", status, body)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash must not be exposed")
	}

	status, _ = env.do(t, "POST", "/api/auth/logout", nil)
	if status != fiber.StatusOK {
		t.Fatalf("logout returned %d", status)
	}
	if env.sessions.CurrentUser() != nil {
		t.Fatal("expected no session after logout")
	}

	status, body = env.do(t, "POST", "/api/auth/login", map[string]string{"email": "ana@x.com", "password": "nope"})
	if status != fiber.StatusUnauthorized || body["code"] != "error_invalid_credentials" {
		t.Errorf("expected 401 invalid credentials, got %d %v", status, body)
	}

	status, _ = env.do(t, "POST", "/api/auth/login", map[string]string{"email": " ANA@x.com", "password": "abc123"})
	if status != fiber.StatusOK {
		t.Errorf("login returned %d", status)
	}
	if env.sessions.CurrentUser() == nil {
		t.Error("expected a session after login")
	}
}

func TestRegisterDuplicateIsLocalized(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.register(t, "Ana", "ana@x.com", "abc123")

	status, body := env.do(t, "POST", "/api/auth/register",
		map[string]string{"name": "Ana", "email": "ANA@X.COM", "password": "x"},
		"Accept-Language", "pt-BR")
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if body["error"] != "E-mail já cadastrado." || body["code"] != "error_duplicate_email" {
		t.Errorf("unexpected error body %v", body)
	}

	status, body = env.do(t, "POST", "/api/auth/register",
		map[string]string{"name": "", "email": "b@x.com", "password": "x"})
	if status != fiber.StatusBadRequest || body["code"] != "error_invalid_input" {
		t.Errorf("expected 400 invalid input, got %d %v", status, body)
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.register(t, "Ana", "ana@x.com", "abc123")
	env.register(t, "Bia", "bia@x.com", "abc123")

	status, body := env.do(t, "GET", "/api/users", nil)
	users, _ := body["users"].([]interface{})
	if status != fiber.StatusOK || len(users) != 2 {
		t.Fatalf("unexpected users response %d %v", status, body)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, "", "")

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/watched"},
		{"GET", "/api/watched/stats"},
		{"PUT", "/api/watched/550"},
		{"DELETE", "/api/watched/550"},
		{"GET", "/api/movies/search?q=matrix"},
		{"GET", "/api/movies/550"},
		{"PUT", "/api/profile/image"},
	} {
		status, body := env.do(t, route.method, route.path, nil)
		if status != fiber.StatusUnauthorized || body["code"] != "error_unauthorized" {
			t.Errorf("%s %s: expected 401, got %d %v", route.method, route.path, status, body)
		}
	}
}

func TestWatchedFlow(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.register(t, "Ana", "ana@x.com", "abc123")

	status, _ := env.do(t, "PUT", "/api/watched/550", map[string]interface{}{
		"title": "Fight Club", "posterPath": "/fc.jpg", "rating": 9,
	})
	if status != fiber.StatusOK {
		t.Fatalf("first upsert returned %d", status)
	}
	status, body := env.do(t, "PUT", "/api/watched/550", map[string]interface{}{
		"title": "Fight Club", "posterPath": "/fc.jpg", "rating": 10,
	})
	if status != fiber.StatusOK {
		t.Fatalf("second upsert returned %d %v", status, body)
	}

	status, body = env.do(t, "GET", "/api/watched", nil)
	movies, _ := body["movies"].([]interface{})
	if status != fiber.StatusOK || len(movies) != 1 {
		t.Fatalf("expected one movie, got %d %v", status, body)
	}
	if m := movies[0].(map[string]interface{}); m["rating"] != float64(10) || m["id"] != float64(550) {
		t.Errorf("unexpected entry %v", m)
	}

	status, body = env.do(t, "PUT", "/api/watched/550", map[string]interface{}{"rating": 11})
	if status != fiber.StatusBadRequest || body["code"] != "error_invalid_rating" {
		t.Errorf("expected 400 invalid rating, got %d %v", status, body)
	}
	status, body = env.do(t, "PUT", "/api/watched/550", map[string]interface{}{"title": "x"})
	if status != fiber.StatusBadRequest || body["code"] != "error_invalid_rating" {
		t.Errorf("expected 400 for a missing rating, got %d %v", status, body)
	}
	status, body = env.do(t, "PUT", "/api/watched/abc", map[string]interface{}{"rating": 5})
	if status != fiber.StatusBadRequest || body["code"] != "error_invalid_movie_id" {
		t.Errorf("expected 400 invalid movie id, got %d %v", status, body)
	}

	status, body = env.do(t, "GET", "/api/watched/stats", nil)
	stats, _ := body["stats"].(map[string]interface{})
	if status != fiber.StatusOK || stats["count"] != float64(1) || stats["average"] != float64(10) {
		t.Errorf("unexpected stats %d %v", status, body)
	}

	status, _ = env.do(t, "DELETE", "/api/watched/550", nil)
	if status != fiber.StatusOK {
		t.Errorf("delete returned %d", status)
	}
	status, _ = env.do(t, "DELETE", "/api/watched/550", nil)
	if status != fiber.StatusOK {
		t.Errorf("deleting a missing movie returned %d", status)
	}

	list, err := env.watched.List(context.Background(), env.sessions.CurrentUser().ID)
	if err != nil || len(list) != 0 {
		t.Errorf("expected an empty list, got %v, %v", list, err)
	}
}

func TestSearchWithoutKeyIsDegraded(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.register(t, "Ana", "ana@x.com", "abc123")

	status, body := env.do(t, "GET", "/api/movies/search?q=matrix", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	results, ok := body["results"].([]interface{})
	if !ok || len(results) != 0 {
		t.Errorf("expected an empty results array, got %v", body["results"])
	}
	if body["degraded"] != true || body["configured"] != false {
		t.Errorf("unexpected flags %v", body)
	}

	status, body = env.do(t, "GET", "/api/movies/search?q=", nil)
	if status != fiber.StatusOK || body["degraded"] != false {
		t.Errorf("blank query must not be degraded: %d %v", status, body)
	}
}

func TestMovieEndpoints(t *testing.T) {
	tmdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/search/movie":
			w.Write([]byte(`{"results":[{"id":550,"title":"Fight Club","poster_path":"/fc.jpg","overview":"","release_date":"1999-10-15"}]}`))
		case r.URL.Path == "/movie/550":
			w.Write([]byte(`{"id":550,"title":"Fight Club","poster_path":"/fc.jpg","runtime":139,"genres":[]}`))
		case strings.HasPrefix(r.URL.Path, "/movie/"):
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status_code":34}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer tmdb.Close()

	env := newTestEnv(t, tmdb.URL, "key")
	env.register(t, "Ana", "ana@x.com", "abc123")

	status, body := env.do(t, "GET", "/api/movies/search?q=fight", nil)
	results, _ := body["results"].([]interface{})
	if status != fiber.StatusOK || len(results) != 1 || body["degraded"] != false {
		t.Fatalf("unexpected search response %d %v", status, body)
	}

	if status, _ := env.do(t, "PUT", "/api/watched/550", map[string]interface{}{"rating": 8}); status != fiber.StatusOK {
		t.Fatalf("upsert returned %d", status)
	}

	status, body = env.do(t, "GET", "/api/movies/550", nil)
	if status != fiber.StatusOK {
		t.Fatalf("details returned %d", status)
	}
	movie, _ := body["movie"].(map[string]interface{})
	watched, _ := body["watched"].(map[string]interface{})
	if movie["runtime"] != float64(139) || watched["rating"] != float64(8) {
		t.Errorf("unexpected details body %v", body)
	}
	if body["posterUrl"] != catalog.DefaultImageBaseURL+"/fc.jpg" {
		t.Errorf("unexpected posterUrl %v", body["posterUrl"])
	}

	status, body = env.do(t, "GET", "/api/movies/1", nil)
	if status != fiber.StatusNotFound || body["code"] != "error_movie_not_found" {
		t.Errorf("expected 404, got %d %v", status, body)
	}
}

func TestTheme(t *testing.T) {
	env := newTestEnv(t, "", "")

	status, body := env.do(t, "GET", "/api/settings/theme", nil)
	if status != fiber.StatusOK || body["theme"] != "light" {
		t.Fatalf("unexpected default theme %d %v", status, body)
	}

	status, _ = env.do(t, "PUT", "/api/settings/theme", map[string]string{"theme": "dark"})
	if status != fiber.StatusOK {
		t.Fatalf("set theme returned %d", status)
	}
	raw, _, _ := env.kv.Get(context.Background(), storage.ThemeKey)
	if raw != "dark" {
		t.Errorf("expected raw dark, got %q", raw)
	}

	status, body = env.do(t, "PUT", "/api/settings/theme", map[string]string{"theme": "sepia"})
	if status != fiber.StatusBadRequest || body["code"] != "error_invalid_theme" {
		t.Errorf("expected 400 invalid theme, got %d %v", status, body)
	}
}

func TestTranslations(t *testing.T) {
	env := newTestEnv(t, "", "")

	status, body := env.do(t, "GET", "/api/i18n/pt-BR", nil)
	translations, _ := body["translations"].(map[string]interface{})
	if status != fiber.StatusOK || body["lang"] != "pt-BR" {
		t.Fatalf("unexpected response %d %v", status, body)
	}
	if translations["error_invalid_credentials"] != "Credenciais inválidas." {
		t.Errorf("unexpected translation %v", translations["error_invalid_credentials"])
	}

	_, body = env.do(t, "GET", "/api/i18n/xx", nil)
	if body["lang"] != "en" {
		t.Errorf("unknown languages must fall back to en, got %v", body["lang"])
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, "", "")

	status, body := env.do(t, "GET", "/nope?lang=pt-BR", nil)
	if status != fiber.StatusNotFound || body["code"] != "error_404" {
		t.Errorf("expected 404, got %d %v", status, body)
	}
}

func TestProfileImage(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.register(t, "Ana", "ana@x.com", "abc123")

	status, body := env.do(t, "PUT", "/api/profile/image", map[string]string{"uri": "file:///photos/ana.png"})
	user, _ := body["user"].(map[string]interface{})
	if status != fiber.StatusOK || user["profileImageUri"] != "file:///photos/ana.png" {
		t.Fatalf("unexpected response %d %v", status, body)
	}

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 200, 100))); err != nil {
		t.Fatal(err)
	}
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="ana.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(img.Bytes())
	mw.Close()

	req := httptest.NewRequest("POST", "/api/profile/image/upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("upload returned %d", resp.StatusCode)
	}

	uri := env.sessions.CurrentUser().ProfileImageURI
	if !strings.HasPrefix(uri, "file://") || !strings.HasSuffix(uri, ".png") {
		t.Fatalf("unexpected uri %q", uri)
	}
	stored, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		t.Fatalf("stored image missing: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(stored))
	if err != nil || cfg.Width != 64 {
		t.Errorf("expected the image to be shrunk to 64px, got %d (%v)", cfg.Width, err)
	}
}
