package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/watershed/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is claimed for the first time", func() {
			holder, held := d.Claim(ctx, "box@100", "job-1")

			Convey("Then the claim is recorded", func() {
				So(held, ShouldBeFalse)
				So(holder, ShouldBeEmpty)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a second claim returns the first holder", func() {
				holder, held := d.Claim(ctx, "box@100", "job-2")
				So(held, ShouldBeTrue)
				So(holder, ShouldEqual, "job-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a release by the holder frees the key", func() {
				d.Release(ctx, "box@100", "job-1")
				So(d.Size(), ShouldEqual, 0)

				_, held := d.Claim(ctx, "box@100", "job-3")
				So(held, ShouldBeFalse)
			})

			Convey("And a release by another id keeps the claim", func() {
				d.Release(ctx, "box@100", "job-9")
				holder, held := d.Claim(ctx, "box@100", "job-3")
				So(held, ShouldBeTrue)
				So(holder, ShouldEqual, "job-1")
			})
		})

		Convey("Releasing an unknown key is a no-op", func() {
			d.Release(ctx, "nothing", "job-1")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.Claim(ctx, "a", "1")
		d.Claim(ctx, "b", "2")

		Convey("When a third key is claimed the oldest is evicted", func() {
			d.Claim(ctx, "c", "3")
			So(d.Size(), ShouldEqual, 2)

			_, held := d.Claim(ctx, "a", "4")
			So(held, ShouldBeFalse)

			holder, held := d.Claim(ctx, "c", "5")
			So(held, ShouldBeTrue)
			So(holder, ShouldEqual, "3")
		})

		Convey("Releasing the middle and tail keeps the list consistent", func() {
			d.Claim(ctx, "c", "3")
			d.Release(ctx, "b", "2")
			d.Release(ctx, "c", "3")
			So(d.Size(), ShouldEqual, 0)

			d.Claim(ctx, "x", "6")
			d.Claim(ctx, "y", "7")
			d.Claim(ctx, "z", "8")
			So(d.Size(), ShouldEqual, 2)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 5000; i++ {
			d.Claim(ctx, fmt.Sprintf("k%d", i), "id")
		}
		So(d.Size(), ShouldEqual, 5000)
	})
}

func TestInMemoryDeduper_Concurrency(t *testing.T) {
	Convey("Given many goroutines claiming the same key", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, held := d.Claim(ctx, "shared", fmt.Sprintf("job-%d", i)); !held {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one claim wins", func() {
			So(winners, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
