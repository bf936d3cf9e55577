package scenario

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/CodyStringham/volt-blog-sub000/model"
	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

// Event is one run of one watcher.
type Event struct {
	Watcher string
	Run     int
	Values  []string
}

func (e Event) String() string {
	var sb strings.Builder
	sb.WriteString(e.Watcher)
	sb.WriteByte('#')
	sb.WriteString(strconv.Itoa(e.Run))
	for _, v := range e.Values {
		sb.WriteByte(' ')
		sb.WriteString(v)
	}
	return sb.String()
}

// Result is the state a scenario leaves behind.
type Result struct {
	Name    string
	Trace   []Event
	Runtime *reactive.Runtime
	Host    *reactive.ManualHost
	Model   *model.Model

	// Watchers by name, in declaration order in Order.
	Watchers map[string]*reactive.Computation
	Order    []string
}

// Lines is the trace as one string per event.
func (r *Result) Lines() []string {
	lines := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		lines[i] = e.String()
	}
	return lines
}

type runner struct {
	res *Result
}

// Run builds a runtime driven by a ManualHost, wraps sc.Data in a model,
// starts the watchers and applies the steps in order. Pumps and flushes only
// happen where a step asks for them.
func Run(ctx context.Context, sc *Scenario, opts ...reactive.Option) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	host := reactive.NewManualHost()
	rt := reactive.New(append(opts, reactive.WithHost(host))...)
	root, err := model.New(rt, sc.Data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: data: %w", sc.Name, err)
	}

	r := &runner{
		res: &Result{
			Name:     sc.Name,
			Runtime:  rt,
			Host:     host,
			Model:    root,
			Watchers: map[string]*reactive.Computation{},
		},
	}

	for _, w := range sc.Watchers {
		c, err := reactive.WatchNamed(rt, w.Name, r.watcher(w))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: watcher %s: %w", sc.Name, w.Name, err)
		}
		r.res.Watchers[w.Name] = c
		r.res.Order = append(r.res.Order, w.Name)
	}

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return r.res, err
		}
		if err := r.apply(step); err != nil {
			return r.res, fmt.Errorf("scenario %s: steps[%d]: %w", sc.Name, i, err)
		}
	}
	return r.res, nil
}

func (r *runner) watcher(w Watcher) func() error {
	runs := 0
	return func() error {
		runs++
		e := Event{Watcher: w.Name, Run: runs}
		for _, path := range w.Reads {
			v := r.res.Model.Path(split(path)...)
			if w.Require && v.IsNone() {
				return fmt.Errorf("%s: %w", path, ErrMissing)
			}
			e.Values = append(e.Values, path+"="+v.String())
		}
		if w.Keys {
			e.Values = append(e.Values, "keys=["+strings.Join(r.res.Model.Keys(), " ")+"]")
		}
		r.res.Trace = append(r.res.Trace, e)
		return nil
	}
}

func split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func (r *runner) apply(s Step) error {
	rt := r.res.Runtime
	switch s.action() {
	case "set":
		return r.set(s.Set.Key, s.Set.Value)
	case "delete":
		return r.delete(s.Delete)
	case "flush":
		return rt.Flush()
	case "pump":
		r.res.Host.Pump()
		return nil
	case "stop":
		r.res.Watchers[s.Stop].Stop()
		return nil
	case "batch":
		var err error
		rt.Batch(func() {
			for i, sub := range s.Batch {
				if err = r.apply(sub); err != nil {
					err = fmt.Errorf("batch[%d]: %w", i, err)
					return
				}
			}
		})
		return err
	}
	return ErrInvalid
}

// parent resolves every segment of path but the last one.
func (r *runner) parent(path string) (model.Value, string) {
	segs := split(path)
	last := segs[len(segs)-1]
	return r.res.Model.Path(segs[:len(segs)-1]...), last
}

func (r *runner) set(path string, raw any) error {
	parent, key := r.parent(path)
	switch c := parent.Interface().(type) {
	case *model.Model:
		return c.SetRaw(key, raw)
	case *model.List:
		i, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("set %s: %w: list index %q", path, ErrInvalid, key)
		}
		v, err := model.Of(raw)
		if err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
		return c.Set(i, v)
	default:
		return fmt.Errorf("set %s: %w: no container at parent", path, ErrInvalid)
	}
}

func (r *runner) delete(path string) error {
	parent, key := r.parent(path)
	switch c := parent.Interface().(type) {
	case *model.Model:
		c.Delete(key)
		return nil
	case *model.List:
		i, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("delete %s: %w: list index %q", path, ErrInvalid, key)
		}
		c.RemoveAt(i)
		return nil
	default:
		return fmt.Errorf("delete %s: %w: no container at parent", path, ErrInvalid)
	}
}
