package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	model "github.com/okian/watershed/internal/domain/model"
	"github.com/paulmach/orb"
	"github.com/smartystreets/goconvey/convey"
)

func box(minx, miny, maxx, maxy float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minx, miny}, Max: orb.Point{maxx, maxy}}
}

func TestJob(t *testing.T) {
	convey.Convey("Given a new job", t, func() {
		req := model.GridRequest{Bound: box(-105, 40, -104.9, 40.1), SpacingM: 100}
		job := model.NewJob(req)

		convey.Convey("Then it should be queued with a uuid", func() {
			_, err := uuid.Parse(job.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(job.State, convey.ShouldEqual, model.JobQueued)
			convey.So(job.Request, convey.ShouldResemble, req)
			convey.So(job.CreatedAt.IsZero(), convey.ShouldBeFalse)
		})

		convey.Convey("Then ids should not repeat", func() {
			convey.So(model.NewJob(req).ID, convey.ShouldNotEqual, job.ID)
		})
	})

	convey.Convey("Only finished states are terminal", t, func() {
		convey.So(model.JobQueued.Terminal(), convey.ShouldBeFalse)
		convey.So(model.JobRunning.Terminal(), convey.ShouldBeFalse)
		convey.So(model.JobSucceeded.Terminal(), convey.ShouldBeTrue)
		convey.So(model.JobFailed.Terminal(), convey.ShouldBeTrue)
	})
}

const maxPoints = 100000

func TestGridRequestValidate(t *testing.T) {
	convey.Convey("Given the default spacing range", t, func() {
		cases := []struct {
			name string
			req  model.GridRequest
			ok   bool
		}{
			{"valid", model.GridRequest{Bound: box(-105, 40, -104.9, 40.1), SpacingM: 100}, true},
			{"lower spacing bound", model.GridRequest{Bound: box(-105, 40, -104.9, 40.1), SpacingM: 50}, true},
			{"spacing too small", model.GridRequest{Bound: box(-105, 40, -104.9, 40.1), SpacingM: 49}, false},
			{"spacing too large", model.GridRequest{Bound: box(-105, 40, -104.9, 40.1), SpacingM: 1001}, false},
			{"inverted box", model.GridRequest{Bound: box(-104.9, 40, -105, 40.1), SpacingM: 100}, false},
			{"flat box", model.GridRequest{Bound: box(-105, 40, -104.9, 40), SpacingM: 100}, false},
			{"latitude", model.GridRequest{Bound: box(-105, 89.5, -104.9, 91), SpacingM: 100}, false},
			{"nan", model.GridRequest{Bound: box(math.NaN(), 40, -104.9, 40.1), SpacingM: 100}, false},
			{"longitude", model.GridRequest{Bound: box(179.9, 40, 180.5, 40.1), SpacingM: 100}, false},
			{"whole world", model.GridRequest{Bound: box(-180, -80, 180, 80), SpacingM: 50}, false},
			{"too many points", model.GridRequest{Bound: box(-106, 39, -104, 41), SpacingM: 50}, false},
		}
		for _, tc := range cases {
			convey.Convey(tc.name, func() {
				err := tc.req.Validate(50, 1000, maxPoints)
				if tc.ok {
					convey.So(err, convey.ShouldBeNil)
				} else {
					convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
				}
			})
		}
	})
}

func TestGridRequestKey(t *testing.T) {
	convey.Convey("Given two grid requests", t, func() {
		a := model.GridRequest{Bound: box(-105, 40, -104.9, 40.1), SpacingM: 100}

		convey.Convey("Equal boxes and spacing share a key", func() {
			b := model.GridRequest{Bound: box(-105, 40, -104.9, 40.1), SpacingM: 100}
			convey.So(a.Key(), convey.ShouldEqual, b.Key())
			convey.So(a.Key(), convey.ShouldEqual, "-105.000000,40.000000,-104.900000,40.100000@100")
		})

		convey.Convey("A different spacing changes the key", func() {
			b := a
			b.SpacingM = 150
			convey.So(b.Key(), convey.ShouldNotEqual, a.Key())
		})

		convey.Convey("Differences below a micro-degree are ignored", func() {
			b := a
			b.Bound.Min[0] += 1e-9
			convey.So(b.Key(), convey.ShouldEqual, a.Key())
		})
	})
}
