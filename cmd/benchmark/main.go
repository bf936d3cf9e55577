package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/CodyStringham/volt-blog-sub000/loop"
	"github.com/CodyStringham/volt-blog-sub000/model"
	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write a CPU profile to this file")
	iters      = flag.Int("iters", 100, "measured writes per topology")

	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100}
)

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkFanOut(false)
	benchmarkFanOut(true)
	benchmarkDeep(true)
	benchmarkLoop(true)
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

func keys(h int) map[string]any {
	raw := make(map[string]any, h)
	for j := 0; j < h; j++ {
		raw["k"+strconv.Itoa(j)] = j
	}
	return raw
}

// benchmarkFanOut has w watchers each reading the h keys of one model, every
// write hits k0 and is followed by a flush.
func benchmarkFanOut(shouldRender bool) {
	tbl := newTable("Fan out (write + flush)")
	reads := 0

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: *iters})

			rt := reactive.New()
			m := model.MustNew(rt, keys(h))
			for i := 0; i < w; i++ {
				_, err := reactive.Watch(rt, func() error {
					for j := 0; j < h; j++ {
						m.Get("k" + strconv.Itoa(j))
						reads++
					}
					return nil
				})
				if err != nil {
					log.Fatal(err)
				}
			}

			for i := 0; i < *iters; i++ {
				start := time.Now()
				m.Set("k0", model.Int(h+i))
				if err := rt.Flush(); err != nil {
					log.Fatal(err)
				}
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("fan out: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
		log.Printf("fan out: %s tracked reads", humanize.Comma(int64(reads)))
	}
}

// benchmarkDeep reads a value nested h models deep from w watchers and
// writes the innermost model.
func benchmarkDeep(shouldRender bool) {
	tbl := newTable("Nested models (write + flush)")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: *iters})

			raw := map[string]any{"v": 0}
			path := []string{"v"}
			for j := 0; j < h; j++ {
				raw = map[string]any{"n": raw}
				path = append([]string{"n"}, path...)
			}

			rt := reactive.New()
			m := model.MustNew(rt, raw)
			for i := 0; i < w; i++ {
				if _, err := reactive.Watch(rt, func() error {
					m.Path(path...)
					return nil
				}); err != nil {
					log.Fatal(err)
				}
			}
			inner, ok := m.Path(path[:len(path)-1]...).AsModel()
			if !ok {
				log.Fatal("nested model missing")
			}

			for i := 0; i < *iters; i++ {
				start := time.Now()
				inner.Set("v", model.Int(i+1))
				if err := rt.Flush(); err != nil {
					log.Fatal(err)
				}
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("nested: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkLoop measures a write posted to the event loop until every
// watcher has re-run on the deferred flush.
func benchmarkLoop(shouldRender bool) {
	tbl := newTable("Event loop (post + deferred flush)")
	ctx := context.Background()

	for _, w := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: *iters})

		l := loop.New()
		done := make(chan error, 1)
		go func() { done <- l.Run(ctx) }()

		rt := l.Runtime()
		ran := make(chan struct{}, w)
		var m *model.Model
		err := l.Do(ctx, func() error {
			m = model.MustNew(rt, map[string]any{"n": 0})
			for i := 0; i < w; i++ {
				if _, err := reactive.Watch(rt, func() error {
					m.Get("n")
					if c := rt.Current(); c != nil && c.Runs() > 1 {
						ran <- struct{}{}
					}
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Fatal(err)
		}

		for i := 0; i < *iters; i++ {
			start := time.Now()
			if err := l.Do(ctx, func() error {
				m.Set("n", model.Int(i+1))
				return nil
			}); err != nil {
				log.Fatal(err)
			}
			for j := 0; j < w; j++ {
				<-ran
			}
			tach.AddTime(time.Since(start))
		}

		l.Close()
		if err := <-done; err != nil {
			log.Fatal(err)
		}
		appendCalc(tbl, fmt.Sprintf("loop: %d watchers", w), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}
