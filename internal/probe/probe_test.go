package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/matchxai/internal/adapters/http/api"
	service "github.com/okian/matchxai/internal/app"
	"github.com/okian/matchxai/internal/domain/types"
	"github.com/okian/matchxai/internal/probe"
	"github.com/okian/matchxai/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func newTestServer(ctx context.Context) (*httptest.Server, *service.Service) {
	svc := service.New(
		service.WithTrainingSamples(200),
		service.WithEpochs(50),
		service.WithLearningRate(0.5),
		service.WithBackgroundSamples(20),
		service.WithLIMESamples(100),
		service.WithSeed(7),
	)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, 0).Register(ctx, mux)
	return httptest.NewServer(mux), svc
}

func validExplanation() types.Explanation {
	base := 50.0
	return types.Explanation{
		Strategy:          "rules",
		Prediction:        62.5,
		BaseValue:         &base,
		AttributionValues: []float64{0.075, 0, 0.045, 0.005},
		Contributions:     []float64{7.5, 0, 4.5, 0.5},
		Features: []types.FeatureAttribution{
			{Name: "Skills Match", Value: 65, Contribution: 7.5, Importance: 7.5},
			{Name: "Location Match", Value: 80, Contribution: 4.5, Importance: 4.5},
			{Name: "Salary Match", Value: 60, Contribution: 0.5, Importance: 0.5},
			{Name: "Experience Match", Value: 50, Contribution: 0, Importance: 0},
		},
		Explanation: "text",
	}
}

func TestGenerateInstances(t *testing.T) {
	Convey("Given a seed", t, func() {
		a := probe.GenerateInstances(10, 3)
		b := probe.GenerateInstances(10, 3)

		Convey("Then generation should be deterministic and on the percent scale", func() {
			So(a, ShouldHaveLength, 10)
			So(a, ShouldResemble, b)
			for _, inst := range a {
				So(inst, ShouldHaveLength, types.FeatureCount)
				for _, key := range types.FeatureKeys {
					So(inst[key], ShouldBeBetweenOrEqual, 0, 100)
				}
			}
		})
	})
}

func TestVerification(t *testing.T) {
	Convey("Given a well-formed explanation", t, func() {
		ex := validExplanation()

		Convey("Then it should verify", func() {
			So(probe.VerifyExplanation(ex), ShouldBeNil)
		})

		Convey("When the ranking is out of order", func() {
			ex.Features[0], ex.Features[1] = ex.Features[1], ex.Features[0]
			So(errors.Is(probe.VerifyExplanation(ex), probe.ErrInvariant), ShouldBeTrue)
		})

		Convey("When contributions do not scale with attributions", func() {
			ex.Contributions[0] = 9
			So(errors.Is(probe.VerifyExplanation(ex), probe.ErrInvariant), ShouldBeTrue)
		})

		Convey("When the rules base value is missing", func() {
			ex.BaseValue = nil
			So(errors.Is(probe.VerifyExplanation(ex), probe.ErrInvariant), ShouldBeTrue)
		})

		Convey("When a vector is short", func() {
			ex.AttributionValues = ex.AttributionValues[:3]
			So(errors.Is(probe.VerifyExplanation(ex), probe.ErrInvariant), ShouldBeTrue)
		})

		Convey("When the combined agreement is out of bounds", func() {
			shap := validExplanation()
			shap.Strategy = "shap"
			lime := validExplanation()
			lime.Strategy = "lime"
			c := types.CombinedExplanation{SHAP: shap, LIME: lime, Agreement: 1.5}
			So(errors.Is(probe.VerifyCombined(c), probe.ErrInvariant), ShouldBeTrue)

			c.Agreement = 0.9
			So(probe.VerifyCombined(c), ShouldBeNil)
		})
	})

	Convey("Given predictions", t, func() {
		So(probe.VerifyPrediction(0), ShouldBeNil)
		So(probe.VerifyPrediction(100), ShouldBeNil)
		So(errors.Is(probe.VerifyPrediction(100.5), probe.ErrInvariant), ShouldBeTrue)
	})
}

func TestClientErrors(t *testing.T) {
	Convey("Given a server answering with the error envelope", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"success":false,"code":"model_unavailable","message":"no model"}`))
		}))
		defer srv.Close()

		client := probe.NewClient(srv.URL+"/", time.Second)
		_, err := client.Predict(context.Background(), map[string]float64{"skills": 10})

		Convey("Then the client should surface an APIError", func() {
			var apiErr *probe.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusServiceUnavailable)
			So(apiErr.Code, ShouldEqual, "model_unavailable")
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		srv, svc := newTestServer(ctx)
		defer srv.Close()
		defer svc.Stop()

		Convey("When probing it", func() {
			stats, violations, err := probe.Run(ctx, probe.Config{
				BaseURL:  srv.URL,
				Requests: 25,
				Workers:  4,
				Timeout:  10 * time.Second,
				Seed:     11,
			})

			Convey("Then every response should satisfy the invariants", func() {
				So(err, ShouldBeNil)
				So(violations, ShouldBeEmpty)
				So(stats.Requests, ShouldEqual, 25)
				So(stats.Successful, ShouldEqual, 25)
				for _, c := range probe.Calls {
					So(stats.ByCall[c], ShouldEqual, 5)
				}
			})
		})

		Convey("When using the client directly", func() {
			client := probe.NewClient(srv.URL, 10*time.Second)
			inst := map[string]float64{"skills": 65, "experience": 50, "location": 80, "salary": 60}

			features, err := client.Importance(ctx, inst)
			So(err, ShouldBeNil)
			So(features, ShouldHaveLength, types.FeatureCount)

			res, err := client.Retrain(ctx)
			So(err, ShouldBeNil)
			So(res.Success, ShouldBeTrue)
			So(res.ModelVersion, ShouldNotBeEmpty)
		})
	})

	Convey("Given a service without a model", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"healthy","service":"matchxai","model_loaded":false}`))
		}))
		defer srv.Close()

		Convey("Then the probe should refuse to run", func() {
			_, _, err := probe.Run(context.Background(), probe.Config{BaseURL: srv.URL, Requests: 1})
			So(errors.Is(err, probe.ErrUnhealthy), ShouldBeTrue)
		})
	})
}
