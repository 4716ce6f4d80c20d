package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux)

			Convey("Then it should serve the index at /", func() {
				req := httptest.NewRequest("GET", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")

				var body index
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Service, ShouldEqual, "matchxai")
				So(body.Docs, ShouldEqual, "/api-docs")
				So(body.Routes, ShouldHaveLength, len(Routes))
			})

			Convey("And it should not handle unknown paths", func() {
				req := httptest.NewRequest("GET", "/some-asset", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And it should reject writes", func() {
				req := httptest.NewRequest("POST", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			})
		})
	})
}

func TestSiteRoutes(t *testing.T) {
	Convey("Given the listed routes", t, func() {
		Convey("Then every entry should be complete and unique", func() {
			seen := map[string]bool{}
			for _, r := range Routes {
				So(r.Method, ShouldNotBeEmpty)
				So(r.Path, ShouldStartWith, "/")
				So(r.Description, ShouldNotBeEmpty)
				So(seen[r.Method+" "+r.Path], ShouldBeFalse)
				seen[r.Method+" "+r.Path] = true
			}
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		ctx := context.Background()

		Convey("When registering the site handler", func() {
			Convey("Then it should panic", func() {
				So(func() {
					Register(ctx, nil)
				}, ShouldPanic)
			})
		})
	})
}
