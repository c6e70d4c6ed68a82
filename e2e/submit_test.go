package e2e

import (
	"context"
	"testing"

	"github.com/echobrief/api/internal/model"
	"github.com/echobrief/api/internal/resolver"
)

const submitURL = "https://podcasts.apple.com/us/podcast/show/id1234?i=100055"

func TestSubmitMissKicksOffProcessing(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/submit",
		`{"url":"`+submitURL+`","summary_type":"ts"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 200)

	body := parseJSON(t, resp)
	if body["cached"] != false {
		t.Errorf("cached = %v, want false", body["cached"])
	}
	if body["message"] != "Download successful" {
		t.Errorf("message = %v", body["message"])
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data object: %v", body)
	}
	if data["job_id"] == "" || data["job_id"] == nil {
		t.Error("job_id must be present")
	}
	if data["summary_type"] != "ts" {
		t.Errorf("summary_type = %v", data["summary_type"])
	}

	if len(ta.enqueuer.tasks) != 1 {
		t.Errorf("enqueued %d tasks, want 1", len(ta.enqueuer.tasks))
	}
}

func TestSubmitCacheHit(t *testing.T) {
	ta := setupApp(t)

	err := ta.cache.SetEpisode(context.Background(), model.PlatformApple, "100055", model.VariantTakeaway, model.EpisodeResult{
		Summary:        "cached summary",
		SummaryVariant: model.VariantTakeaway,
	})
	if err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	resp, err := doRequest(ta.app, "POST", "/api/submit",
		`{"url":"`+submitURL+`","summary_type":"ts"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 200)

	body := parseJSON(t, resp)
	if body["cached"] != true {
		t.Errorf("cached = %v, want true", body["cached"])
	}
	if body["processing_time"] != float64(0) {
		t.Errorf("processing_time = %v, want 0", body["processing_time"])
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data object: %v", body)
	}
	if data["summary"] != "cached summary" {
		t.Errorf("summary = %v", data["summary"])
	}

	if ta.resolver.calls != 0 {
		t.Error("resolution must not run on a cache hit")
	}
	if len(ta.enqueuer.tasks) != 0 {
		t.Error("no task must be enqueued on a cache hit")
	}
}

func TestSubmitOtherVariantMisses(t *testing.T) {
	ta := setupApp(t)

	ta.cache.SetEpisode(context.Background(), model.PlatformApple, "100055", model.VariantTakeaway, model.EpisodeResult{Summary: "cached"})

	resp, err := doRequest(ta.app, "POST", "/api/submit",
		`{"url":"`+submitURL+`","summary_type":"ns"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 200)

	body := parseJSON(t, resp)
	if body["cached"] != false {
		t.Errorf("another variant must miss, got %v", body)
	}
}

func TestSubmitInvalidVariantRejectedBeforeLookup(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/submit",
		`{"url":"`+submitURL+`","summary_type":"zz"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 400)

	if ta.resolver.calls != 0 {
		t.Error("resolution must not run for an invalid variant")
	}
	if len(ta.enqueuer.tasks) != 0 {
		t.Error("no task must be enqueued for an invalid variant")
	}
}

func TestSubmitMissingFields(t *testing.T) {
	ta := setupApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing url", `{"summary_type":"ts"}`},
		{"missing variant", `{"url":"` + submitURL + `"}`},
		{"not a url", `{"url":"not-a-url","summary_type":"ts"}`},
		{"malformed json", `{nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := doRequest(ta.app, "POST", "/api/submit", tt.body, nil)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			assertStatus(t, resp, 400)
		})
	}
}

func TestSubmitUnsupportedPlatform(t *testing.T) {
	ta := setupApp(t)
	ta.resolver.err = resolver.ErrUnsupported

	resp, err := doRequest(ta.app, "POST", "/api/submit",
		`{"url":"https://example.com/podcast/ep1","summary_type":"ts"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 400)
}

func TestSubmitBusinessOutcomesAre200(t *testing.T) {
	for _, sentinel := range []error{resolver.ErrNotFound, resolver.ErrTooLong} {
		ta := setupApp(t)
		ta.resolver.err = sentinel

		resp, err := doRequest(ta.app, "POST", "/api/submit",
			`{"url":"`+submitURL+`","summary_type":"ts"}`, nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, 200)

		body := parseJSON(t, resp)
		if body["error"] != true {
			t.Errorf("error flag = %v, want true", body["error"])
		}
		if body["message"] != sentinel.Error() {
			t.Errorf("message = %v, want %q", body["message"], sentinel.Error())
		}
	}
}

func TestSubmitDoubleMissKicksOffTwice(t *testing.T) {
	ta := setupApp(t)
	payload := `{"url":"` + submitURL + `","summary_type":"ts"}`

	for i := 0; i < 2; i++ {
		resp, err := doRequest(ta.app, "POST", "/api/submit", payload, nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, 200)
	}

	// No single-flight: both misses reach resolution and dispatch.
	if ta.resolver.calls != 2 {
		t.Errorf("resolver ran %d times, want 2", ta.resolver.calls)
	}
	if len(ta.enqueuer.tasks) != 2 {
		t.Errorf("enqueued %d tasks, want 2", len(ta.enqueuer.tasks))
	}
}
