package types_test

import (
	"errors"
	"math"
	"testing"

	types "github.com/okian/matchxai/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSchema(t *testing.T) {
	Convey("Given the feature schema", t, func() {
		Convey("Then names and keys should be index-aligned", func() {
			So(types.FeatureCount, ShouldEqual, 4)
			So(types.FeatureNames[types.Skills], ShouldEqual, "Skills Match")
			So(types.FeatureNames[types.Experience], ShouldEqual, "Experience Match")
			So(types.FeatureNames[types.Location], ShouldEqual, "Location Match")
			So(types.FeatureNames[types.Salary], ShouldEqual, "Salary Match")
			So(types.FeatureKeys[types.Skills], ShouldEqual, "skills")
			So(types.FeatureKeys[types.Salary], ShouldEqual, "salary")
		})
	})
}

func TestParseInstance(t *testing.T) {
	Convey("Given a decoded request instance", t, func() {
		Convey("When all keys are present", func() {
			v, err := types.ParseInstance(map[string]any{
				"skills": 65.0, "experience": 50.0, "location": 80.0, "salary": 60.0,
			})

			Convey("Then it should rescale to [0,1] in schema order", func() {
				So(err, ShouldBeNil)
				So(v[types.Skills], ShouldAlmostEqual, 0.65)
				So(v[types.Experience], ShouldAlmostEqual, 0.50)
				So(v[types.Location], ShouldAlmostEqual, 0.80)
				So(v[types.Salary], ShouldAlmostEqual, 0.60)
			})
		})

		Convey("When keys are missing or null", func() {
			v, err := types.ParseInstance(map[string]any{"skills": 90.0, "salary": nil, "extra": "ignored"})

			Convey("Then missing values should default to zero", func() {
				So(err, ShouldBeNil)
				So(v[types.Skills], ShouldAlmostEqual, 0.90)
				So(v[types.Experience], ShouldEqual, 0)
				So(v[types.Salary], ShouldEqual, 0)
			})
		})

		Convey("When a value is not numeric", func() {
			_, err := types.ParseInstance(map[string]any{"skills": "high"})

			Convey("Then it should be an input shape error", func() {
				So(errors.Is(err, types.ErrInputShape), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "skills")
			})
		})

		Convey("When a value is out of range", func() {
			_, err := types.ParseInstance(map[string]any{"location": 140.0})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, types.ErrInputShape), ShouldBeTrue)
			})
		})
	})
}

func TestVector(t *testing.T) {
	Convey("Given vector helpers", t, func() {
		Convey("When converting a slice of the wrong length", func() {
			_, err := types.VectorFromSlice([]float64{0.1, 0.2, 0.3})

			Convey("Then it should fail with an input shape error", func() {
				So(errors.Is(err, types.ErrInputShape), ShouldBeTrue)
			})
		})

		Convey("When converting a slice of the right length", func() {
			v, err := types.VectorFromSlice([]float64{0.1, 0.2, 0.3, 0.4})

			Convey("Then the values should be copied in order", func() {
				So(err, ShouldBeNil)
				So(v, ShouldResemble, types.Vector{0.1, 0.2, 0.3, 0.4})
			})
		})

		Convey("When validating a vector with NaN", func() {
			err := types.Vector{0.1, math.NaN(), 0.3, 0.4}.Validate()

			Convey("Then it should fail", func() {
				So(errors.Is(err, types.ErrInputShape), ShouldBeTrue)
			})
		})

		Convey("When rescaling to percentages and back to an instance", func() {
			v := types.Vector{0.25, 0.5, 0.75, 1}

			Convey("Then both views should agree", func() {
				So(v.Percent(), ShouldResemble, types.Vector{25, 50, 75, 100})
				So(v.Instance()["location"], ShouldEqual, 75.0)
			})
		})
	})
}
