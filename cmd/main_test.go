package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/miyabi-lab/encore/internal/adapters/http/api"
	"github.com/miyabi-lab/encore/internal/adapters/http/swagger"
	app "github.com/miyabi-lab/encore/internal/app"
	"github.com/miyabi-lab/encore/internal/config"
	"github.com/miyabi-lab/encore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMainWiring(t *testing.T) {
	Convey("Given the main application", t, func() {
		Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("ENCORE_ADDR", ":8080")
			_ = os.Setenv("ENCORE_AUDIT_QUEUE_SIZE", "1000")
			_ = os.Setenv("ENCORE_AUDIT_WRITER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("ENCORE_ADDR")
				_ = os.Unsetenv("ENCORE_AUDIT_QUEUE_SIZE")
				_ = os.Unsetenv("ENCORE_AUDIT_WRITER_COUNT")
			}()

			Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				So(err, ShouldBeNil)
				So(cfg, ShouldNotBeNil)
				So(cfg.Addr, ShouldEqual, ":8080")
				So(cfg.AuditQueueSize, ShouldEqual, 1000)
				So(cfg.AuditWriterCount, ShouldEqual, 4)
			})
		})

		Convey("When creating the service", func() {
			Convey("Then defaults are enough", func() {
				svc := app.New()
				So(svc, ShouldNotBeNil)
			})

			Convey("And custom options apply", func() {
				svc := app.New(
					app.WithShardCount(4),
					app.WithAuditQueueSize(2000),
					app.WithGuardSize(1000),
				)
				So(svc, ShouldNotBeNil)
			})
		})

		Convey("When wiring the HTTP routes", func() {
			ctx := context.Background()
			svc := app.New(app.WithAuditWriterCount(1))
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc, svc, 100).Register(ctx, mux)

			Convey("Then the health endpoint serves metrics", func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				So(rec.Code, ShouldEqual, http.StatusOK)
			})

			Convey("Then the stats endpoint responds", func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
				So(rec.Code, ShouldEqual, http.StatusOK)
			})

			Convey("Then the API docs are reachable", func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api-docs", nil))
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestCompletionThroughWiredRoutes(t *testing.T) {
	Convey("Given the wired HTTP surface with a live service", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithAuditWriterCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, 100).Register(ctx, mux)

		post := func(path string, body map[string]any) *httptest.ResponseRecorder {
			data, err := json.Marshal(body)
			So(err, ShouldBeNil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data)))
			return rec
		}

		rec := post("/users", map[string]any{
			"id":           "org-live",
			"display_name": "Live Org",
			"fan_count":    40,
			"subscription": "free",
		})
		So(rec.Code, ShouldEqual, http.StatusCreated)

		rec = post("/events", map[string]any{
			"organizer_id": "org-live",
			"title":        "Street Live",
			"capacity":     30,
			"is_free":      true,
			"start_at":     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		})
		So(rec.Code, ShouldEqual, http.StatusCreated)

		var created struct {
			Event struct {
				ID string `json:"id"`
			} `json:"event"`
		}
		So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
		So(created.Event.ID, ShouldNotBeEmpty)

		completeBody := map[string]any{"organizer_id": "org-live", "actual_attendance": 30}

		Convey("When the organizer completes the event", func() {
			first := post("/events/"+created.Event.ID+"/complete", completeBody)

			Convey("Then the first submit succeeds", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(first.Body.String(), ShouldContainSubstring, created.Event.ID)
			})

			Convey("And a duplicate submit is rejected", func() {
				second := post("/events/"+created.Event.ID+"/complete", completeBody)
				So(second.Code, ShouldEqual, http.StatusConflict)
				So(second.Body.String(), ShouldContainSubstring, "already_completed")
			})
		})
	})
}
