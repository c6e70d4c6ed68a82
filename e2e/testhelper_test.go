package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/echobrief/api/internal/cache"
	"github.com/echobrief/api/internal/handler"
	"github.com/echobrief/api/internal/middleware"
	"github.com/echobrief/api/internal/model"
	"github.com/echobrief/api/internal/resolver"
	"github.com/echobrief/api/internal/service"
)

const testAdminToken = "test-admin-token"

// testApp holds the wired components the handler tests exercise.
type testApp struct {
	app      *fiber.App
	cache    *cache.Service
	resolver *stubResolver
	enqueuer *stubEnqueuer
	redis    *miniredis.Miniredis
}

// stubResolver stands in for the resolution stage so tests control its
// outcome without scraping or RSS fetches.
type stubResolver struct {
	resolution *resolver.Resolution
	err        error
	calls      int
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (*resolver.Resolution, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resolution, nil
}

// stubEnqueuer records dispatched download tasks.
type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

// setupApp builds a Fiber app with the same routing as main.go, backed by an
// in-process Redis and stubbed external collaborators.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cacheService := cache.NewService(redisClient, time.Hour)
	validate := validator.New()

	stubRes := &stubResolver{
		resolution: &resolver.Resolution{
			Platform:  model.PlatformApple,
			EpisodeID: "100055",
			AudioURL:  "https://cdn.example.com/ep.mp3",
			Metadata: model.EpisodeMetadata{
				EpisodeTitle:    "Test Episode",
				ShowTitle:       "Test Show",
				DurationSeconds: 900,
			},
		},
	}
	stubEnq := &stubEnqueuer{}

	submitService := service.NewSubmitService(cacheService, stubRes, stubEnq)
	submitHandler := handler.NewSubmitHandler(submitService, validate)
	cacheHandler := handler.NewCacheHandler(cacheService, testAdminToken)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	// High limit so the limiter never interferes with unrelated tests.
	api.Post("/submit", rateLimiter.SubmitLimit(10000), submitHandler.Submit)

	app.Get("/cache/stats", cacheHandler.Stats)
	app.Delete("/cache/clear", cacheHandler.Clear)
	app.Delete("/cache/invalidate/:platform/:episodeId/:variant", cacheHandler.Invalidate)

	return &testApp{
		app:      app,
		cache:    cacheService,
		resolver: stubRes,
		enqueuer: stubEnq,
		redis:    mr,
	}
}

// doRequest performs an HTTP request against the test app.
func doRequest(app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
