package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"pipocanota/auth"
	"pipocanota/storage"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// statusErrorHandler answers with the AppError status and no body
func statusErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := utils.AsAppError(err); ok {
		return c.SendStatus(appErr.Code)
	}
	return c.SendStatus(fiber.StatusInternalServerError)
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: statusErrorHandler})
	app.Use(RateLimiter(2, time.Hour))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("/health must not be limited, got %d", resp.StatusCode)
	}
}

func TestLocaleMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(LocaleMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("lang").(string))
	})

	cases := []struct {
		path, cookie, header, want string
	}{
		{"/", "", "", "en"},
		{"/", "", "pt-BR,pt;q=0.9", "pt-BR"},
		{"/", "pt-BR", "en-US", "pt-BR"},
		{"/?lang=en", "pt-BR", "pt-BR", "en"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		if tc.cookie != "" {
			req.Header.Set("Cookie", "lang="+tc.cookie)
		}
		if tc.header != "" {
			req.Header.Set("Accept-Language", tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != tc.want {
			t.Errorf("%s cookie=%q header=%q: got %q, want %q", tc.path, tc.cookie, tc.header, body, tc.want)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/?lang=pt-BR", nil))
	if err != nil {
		t.Fatal(err)
	}
	remembered := false
	for _, ck := range resp.Cookies() {
		if ck.Name == "lang" && ck.Value == "pt-BR" {
			remembered = true
		}
	}
	if !remembered {
		t.Error("expected ?lang= to be remembered in a cookie")
	}
}

func TestRequireSession(t *testing.T) {
	kv := storage.NewMemoryStore()
	users := storage.NewUserStorage(kv)
	users.SetHashCost(bcrypt.MinCost)
	sessions := auth.NewService(users, storage.NewSessionStorage(kv))

	app := fiber.New(fiber.Config{ErrorHandler: statusErrorHandler})
	app.Get("/", RequireSession(sessions), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userId").(string))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	user, err := sessions.Register(context.Background(), auth.RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "abc123"})
	if err != nil {
		t.Fatal(err)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != user.ID {
		t.Errorf("expected 200 with the user id, got %d %q", resp.StatusCode, body)
	}
}
