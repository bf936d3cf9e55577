// Package report renders a plain text view of a runtime and the containers
// hanging off it: counters, queue length, and per key who is subscribed.
package report

//go:generate qtc -file=report.qtpl

import (
	"io"
	"slices"
	"sort"
	"strconv"

	"github.com/CodyStringham/volt-blog-sub000/model"
	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

type Page struct {
	Stats    reactive.Stats
	Pending  int
	Sections []Section
}

type Section struct {
	Name      string
	Kind      string
	Structure int
	Rows      []Row
}

type Row struct {
	Key         string
	Value       string
	Subscribers int
}

// Entry is a named container to include in the report.
type Entry struct {
	name  string
	model *model.Model
	list  *model.List
}

func Model(name string, m *model.Model) Entry {
	return Entry{name: name, model: m}
}

func List(name string, l *model.List) Entry {
	return Entry{name: name, list: l}
}

const unset = "(unset)"

// Build collects the page. Nothing is tracked, so it is safe to call from a
// running computation.
func Build(rt *reactive.Runtime, entries ...Entry) *Page {
	p := &Page{
		Stats:   rt.Stats(),
		Pending: rt.Pending(),
	}
	rt.RunWithoutTracking(func() {
		for _, e := range entries {
			switch {
			case e.model != nil:
				p.Sections = append(p.Sections, modelSection(e.name, e.model))
			case e.list != nil:
				p.Sections = append(p.Sections, listSection(e.name, e.list))
			}
		}
	})
	return p
}

func modelSection(name string, m *model.Model) Section {
	deps := m.Dependencies()
	s := Section{
		Name:      name,
		Kind:      "model",
		Structure: deps.StructureSubscribers(),
	}

	// keys somebody read while absent are listed too
	keys := m.Keys()
	for _, k := range deps.Keys() {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := unset
		if v, ok := m.Lookup(k); ok {
			value = v.String()
		}
		s.Rows = append(s.Rows, Row{Key: k, Value: value, Subscribers: deps.Subscribers(k)})
	}
	return s
}

func listSection(name string, l *model.List) Section {
	deps := l.Dependencies()
	s := Section{
		Name:      name,
		Kind:      "list",
		Structure: deps.StructureSubscribers(),
	}

	n := l.Len()
	indices := make([]int, 0, n)
	for i := range n {
		indices = append(indices, i)
	}
	for _, i := range deps.Keys() {
		if i >= n {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	for _, i := range indices {
		value := unset
		if i < n {
			value = l.Get(i).String()
		}
		s.Rows = append(s.Rows, Row{Key: strconv.Itoa(i), Value: value, Subscribers: deps.Subscribers(i)})
	}
	return s
}

// Write renders the report of rt and entries to w.
func Write(w io.Writer, rt *reactive.Runtime, entries ...Entry) {
	WriteText(w, Build(rt, entries...))
}

func Render(rt *reactive.Runtime, entries ...Entry) string {
	return Text(Build(rt, entries...))
}
