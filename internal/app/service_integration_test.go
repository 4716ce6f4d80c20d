package service_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/matchxai/internal/adapters/repository"
	service "github.com/okian/matchxai/internal/app"
	"github.com/okian/matchxai/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := startedService(t)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When explaining a candidate end-to-end", func() {
			v, err := types.ParseInstance(map[string]any{
				"skills":     65.0,
				"experience": 50.0,
				"location":   80.0,
				"salary":     60.0,
			})
			So(err, ShouldBeNil)

			p, err := svc.Predict(ctx, v)
			So(err, ShouldBeNil)
			combined, err := svc.ExplainCombined(ctx, v)
			So(err, ShouldBeNil)

			Convey("Then the prediction should be a percentage", func() {
				So(p, ShouldBeBetweenOrEqual, 0, 100)
				So(combined.SHAP.Prediction, ShouldEqual, p)
				So(combined.LIME.Prediction, ShouldEqual, p)
			})

			Convey("And both strategies should produce four contributions", func() {
				So(len(combined.SHAP.Contributions), ShouldEqual, types.FeatureCount)
				So(len(combined.LIME.Contributions), ShouldEqual, types.FeatureCount)
				So(combined.SHAP.Strategy, ShouldEqual, "shap")
				So(combined.LIME.Strategy, ShouldEqual, "lime")
			})

			Convey("And agreement should be a finite correlation", func() {
				So(math.IsNaN(combined.Agreement), ShouldBeFalse)
				So(combined.Agreement, ShouldBeBetweenOrEqual, -1, 1)
				So(combined.Message, ShouldEqual, service.CombinedMessage)
			})
		})
	})
}

func TestServicePersistence(t *testing.T) {
	backends := map[string]string{
		repository.BackendFile:   "model.json",
		repository.BackendSQLite: "models.db",
	}

	for backend, file := range backends {
		Convey("Given a "+backend+" model store", t, func() {
			path := filepath.Join(t.TempDir(), file)
			ctx := context.Background()

			store, err := repository.Open(backend, path)
			So(err, ShouldBeNil)
			first := startedService(t, service.WithStore(store))
			version := first.Health().ModelVersion
			want, err := first.Predict(ctx, instance)
			So(err, ShouldBeNil)
			first.Stop()

			Convey("When a new service starts on the same store", func() {
				reopened, err := repository.Open(backend, path)
				So(err, ShouldBeNil)
				second := startedService(t, service.WithStore(reopened), service.WithSeed(99))
				defer second.Stop()

				Convey("Then the persisted model should be reused", func() {
					So(second.Health().ModelVersion, ShouldEqual, version)
				})

				Convey("And predictions should match exactly", func() {
					a, err := second.Predict(ctx, instance)
					So(err, ShouldBeNil)
					b, err := second.Predict(ctx, instance)
					So(err, ShouldBeNil)
					So(a, ShouldEqual, want)
					So(b, ShouldEqual, a)
				})
			})
		})
	}

	Convey("Given a corrupt model file", t, func() {
		path := filepath.Join(t.TempDir(), "model.json")
		So(os.WriteFile(path, []byte(`{"version":"broken","model":{"config":{}}}`), 0o600), ShouldBeNil)
		store, err := repository.NewFileStore(path)
		So(err, ShouldBeNil)

		Convey("When the service starts", func() {
			svc := startedService(t, service.WithStore(store))
			defer svc.Stop()

			Convey("Then it should retrain and overwrite the file", func() {
				So(svc.Ready(), ShouldBeTrue)
				So(svc.Health().ModelVersion, ShouldNotEqual, "broken")

				rec, err := store.Load(context.Background())
				So(err, ShouldBeNil)
				So(rec.Version, ShouldEqual, svc.Health().ModelVersion)
			})
		})
	})
}
