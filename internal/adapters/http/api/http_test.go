package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/matchxai/internal/adapters/http/api"
	service "github.com/okian/matchxai/internal/app"
	"github.com/okian/matchxai/internal/domain/attribution"
	"github.com/okian/matchxai/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records the last vector it saw and returns canned results.
type mockDependencies struct {
	last       types.Vector
	predictErr error
	explainErr error
	retrainErr error
	loaded     bool
}

func (m *mockDependencies) Predict(_ context.Context, v types.Vector) (float64, error) {
	m.last = v
	if m.predictErr != nil {
		return 0, m.predictErr
	}
	return 63.5, nil
}

func (m *mockDependencies) Explain(_ context.Context, strategy string, v types.Vector) (types.Explanation, error) {
	m.last = v
	if m.explainErr != nil {
		return types.Explanation{}, m.explainErr
	}
	if strategy != "shap" && strategy != "lime" && strategy != "rules" {
		return types.Explanation{}, fmt.Errorf("%w: %q", service.ErrUnknownStrategy, strategy)
	}
	base := 41.0
	return types.Explanation{
		Strategy:          strategy,
		Prediction:        63.5,
		BaseValue:         &base,
		AttributionValues: []float64{0.12, 0.05, 0.04, 0.005},
		Contributions:     []float64{12, 5, 4, 0.5},
		Features: []types.FeatureAttribution{
			{Name: "Skills Match", Value: 65, Contribution: 12, Importance: 12},
		},
		Explanation: "✅ Skills Match strongly increases acceptance (+12.0%)",
	}, nil
}

func (m *mockDependencies) ExplainCombined(ctx context.Context, v types.Vector) (types.CombinedExplanation, error) {
	shap, err := m.Explain(ctx, "shap", v)
	if err != nil {
		return types.CombinedExplanation{}, err
	}
	lime, _ := m.Explain(ctx, "lime", v)
	return types.CombinedExplanation{SHAP: shap, LIME: lime, Agreement: 0.91, Message: service.CombinedMessage}, nil
}

func (m *mockDependencies) FeatureImportance(_ context.Context, v types.Vector) ([]types.Importance, error) {
	m.last = v
	if m.explainErr != nil {
		return nil, m.explainErr
	}
	return []types.Importance{
		{Feature: "Skills Match", Importance: 12, Impact: "positive"},
		{Feature: "Salary Match", Importance: 0, Impact: "neutral"},
	}, nil
}

func (m *mockDependencies) Retrain(_ context.Context) (types.RetrainResult, error) {
	if m.retrainErr != nil {
		return types.RetrainResult{Success: false, Message: m.retrainErr.Error()}, m.retrainErr
	}
	return types.RetrainResult{Success: true, Message: "Model retrained successfully", ModelVersion: "v2"}, nil
}

func (m *mockDependencies) Health() types.Health {
	return types.Health{Status: "healthy", Service: "matchxai", ModelLoaded: m.loaded, ModelVersion: "v1"}
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

const instanceBody = `{"skills": 65, "experience": 50, "location": 80, "salary": 60}`

func newMux(deps *mockDependencies, maxBody int64) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, maxBody)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(&mockDependencies{loaded: true}, 0)

		Convey("Then health endpoint should report readiness", func() {
			w, body := do(mux, "GET", "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "healthy")
			So(body["model_loaded"], ShouldEqual, true)
			So(body["model_version"], ShouldEqual, "v1")
		})

		Convey("And metrics endpoint should be accessible", func() {
			w, _ := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should be accessible", func() {
			w, body := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)
		})

		Convey("And wrong methods should be rejected", func() {
			w, body := do(mux, "GET", "/predict", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
			So(body["code"], ShouldEqual, "method_not_allowed")
			So(body["success"], ShouldEqual, false)
		})
	})
}

func TestPredictHandler(t *testing.T) {
	Convey("Given the predict endpoint", t, func() {
		deps := &mockDependencies{loaded: true}
		mux := newMux(deps, 0)

		Convey("When posting a valid instance", func() {
			w, body := do(mux, "POST", "/predict", instanceBody)

			Convey("Then the prediction should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldEqual, true)
				So(body["prediction"], ShouldEqual, 63.5)
			})

			Convey("And the instance should be rescaled to [0,1]", func() {
				So(deps.last, ShouldResemble, types.Vector{0.65, 0.50, 0.80, 0.60})
			})
		})

		Convey("When features are missing", func() {
			w, _ := do(mux, "POST", "/predict", `{"skills": 90}`)

			Convey("Then they should default to zero", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.last, ShouldResemble, types.Vector{0.9, 0, 0, 0})
			})
		})

		Convey("When a feature is not a number", func() {
			w, body := do(mux, "POST", "/predict", `{"skills": "high"}`)

			Convey("Then an input shape error should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "input_shape")
			})
		})

		Convey("When a feature is out of range", func() {
			w, body := do(mux, "POST", "/predict", `{"skills": 140}`)

			Convey("Then an input shape error should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "input_shape")
			})
		})

		Convey("When the body is not JSON", func() {
			w, body := do(mux, "POST", "/predict", `skills=65`)

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the model is unavailable", func() {
			deps.predictErr = service.ErrModelUnavailable
			w, body := do(mux, "POST", "/predict", instanceBody)

			Convey("Then the service should answer 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(body["code"], ShouldEqual, "model_unavailable")
			})
		})
	})

	Convey("Given a tight body limit", t, func() {
		mux := newMux(&mockDependencies{loaded: true}, 16)

		Convey("When the body exceeds it", func() {
			w, body := do(mux, "POST", "/predict", instanceBody)

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "exceeds 16 bytes")
			})
		})
	})
}

func TestExplainHandler(t *testing.T) {
	Convey("Given the explain endpoints", t, func() {
		deps := &mockDependencies{loaded: true}
		mux := newMux(deps, 0)

		for _, strategy := range []string{"shap", "lime", "rules"} {
			Convey("When posting to /explain/"+strategy, func() {
				w, body := do(mux, "POST", "/explain/"+strategy, instanceBody)

				Convey("Then a single explanation should be returned flat", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(body["success"], ShouldEqual, true)
					So(body["strategy"], ShouldEqual, strategy)
					So(body["baseValue"], ShouldEqual, 41.0)
					So(body["contributions"], ShouldHaveLength, 4)
					So(body["attributionValues"], ShouldHaveLength, 4)
					So(body["explanation"], ShouldStartWith, "✅ Skills Match")
				})
			})
		}

		Convey("When the strategy is unknown", func() {
			w, body := do(mux, "POST", "/explain/anchors", instanceBody)

			Convey("Then 404 unknown_strategy should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "unknown_strategy")
			})
		})

		Convey("When the strategy path is nested", func() {
			w, body := do(mux, "POST", "/explain/shap/extra", instanceBody)

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When an attribution strategy fails", func() {
			deps.explainErr = attribution.Fail("lime", errors.New("surrogate system is singular"))
			w, body := do(mux, "POST", "/explain/lime", instanceBody)

			Convey("Then 500 attribution_failed should name the strategy", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(body["code"], ShouldEqual, "attribution_failed")
				So(body["strategy"], ShouldEqual, "lime")
			})
		})

		Convey("When posting to /explain/combined", func() {
			w, body := do(mux, "POST", "/explain/combined", instanceBody)

			Convey("Then both explanations and their agreement should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldEqual, true)
				So(body["agreement"], ShouldEqual, 0.91)
				So(body["message"], ShouldEqual, service.CombinedMessage)
				shap, ok := body["shap"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(shap["strategy"], ShouldEqual, "shap")
				lime, ok := body["lime"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(lime["strategy"], ShouldEqual, "lime")
			})
		})

		Convey("When posting to /explain/importance", func() {
			w, body := do(mux, "POST", "/explain/importance", instanceBody)

			Convey("Then the feature summary should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				features, ok := body["features"].([]any)
				So(ok, ShouldBeTrue)
				So(len(features), ShouldEqual, 2)
				first := features[0].(map[string]any)
				So(first["feature"], ShouldEqual, "Skills Match")
				So(first["impact"], ShouldEqual, "positive")
			})
		})
	})
}

func TestRetrainHandler(t *testing.T) {
	Convey("Given the retrain endpoint", t, func() {
		deps := &mockDependencies{loaded: true}
		mux := newMux(deps, 0)

		Convey("When retraining succeeds", func() {
			w, body := do(mux, "POST", "/retrain", "")

			Convey("Then the new version should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldEqual, true)
				So(body["modelVersion"], ShouldEqual, "v2")
			})
		})

		Convey("When retraining fails", func() {
			deps.retrainErr = errors.New("persist model: disk full")
			w, body := do(mux, "POST", "/retrain", "")

			Convey("Then an internal error should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(body["code"], ShouldEqual, "internal_error")
				So(body["message"], ShouldContainSubstring, "disk full")
			})
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given op-tagged errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes should both be reachable", func() {
			err := api.WrapKind("api.predict", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.predict: bad request: boom")
		})

		Convey("Then wrapping nil should stay nil", func() {
			So(api.Wrap("api.predict", nil), ShouldBeNil)
		})

		Convey("Then a bare kind should render with its op", func() {
			So(api.NewKind("api.stats", api.ErrMethodNotAllowed).Error(), ShouldEqual, "api.stats: method not allowed")
		})
	})
}
