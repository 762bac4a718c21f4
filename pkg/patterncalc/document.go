package patterncalc

import (
	"fmt"
	"sort"

	"nickandperla.net/patterncalc/internal/container"
	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/store"
	"nickandperla.net/patterncalc/internal/variable"
)

// load builds the container from the store, or an empty one.
func (e *Engine) load() error {
	doc := &store.Document{}
	if e.store != nil {
		var err error
		if doc, err = e.store.Load(); err != nil {
			return fmt.Errorf("loading document: %w", err)
		}
	}

	unit := e.unit
	if doc.Unit != "" {
		u, err := geom.ParseUnit(doc.Unit)
		if err != nil {
			return fmt.Errorf("loading document: %w", err)
		}
		unit = u
	}
	e.vars = container.New(
		container.WithUnit(unit),
		container.WithPedantic(e.pedantic),
		container.WithLogger(e.log),
		container.WithNamespace(doc.Namespace),
	)

	ms := append([]store.Measurement(nil), doc.Measurements...)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Index < ms[j].Index })
	for _, m := range ms {
		_, err := e.vars.AddMeasurement(m.Name, variable.MeasurementData{
			Base:        m.Base,
			Formula:     m.Formula,
			FullName:    m.FullName,
			Description: m.Description,
		})
		if err != nil {
			return fmt.Errorf("loading measurement %s: %w", m.Name, err)
		}
	}

	incs := append([]store.Increment(nil), doc.Increments...)
	sort.SliceStable(incs, func(i, j int) bool {
		if incs[i].Preview != incs[j].Preview {
			return !incs[i].Preview
		}
		return incs[i].Index < incs[j].Index
	})
	for _, inc := range incs {
		var err error
		if inc.Separator {
			_, err = e.vars.AddSeparator(inc.Name, inc.Description, inc.Preview)
		} else {
			_, err = e.vars.AddIncrement(inc.Name, variable.IncrementData{
				Formula:            inc.Formula,
				Description:        inc.Description,
				PreviewCalculation: inc.Preview,
				SpecialUnits:       inc.SpecialUnits,
			})
		}
		if err != nil {
			return fmt.Errorf("loading increment %s: %w", inc.Name, err)
		}
	}

	e.corpus = append([]Field(nil), doc.Formulas...)
	e.log.Debug().Int("measurements", len(ms)).Int("increments", len(incs)).
		Int("formulas", len(e.corpus)).Msg("document loaded")
	return nil
}

// document snapshots the container and corpus for persistence.
func (e *Engine) document() *store.Document {
	doc := &store.Document{
		Namespace: e.vars.Namespace(),
		Unit:      e.vars.Unit().String(),
		Formulas:  e.Corpus(),
	}
	for _, v := range e.vars.Measurements() {
		m := v.Measurement()
		doc.Measurements = append(doc.Measurements, store.Measurement{
			Name:        v.Name(),
			Base:        m.Base,
			Formula:     m.Formula,
			FullName:    m.FullName,
			Description: m.Description,
			Index:       m.Index,
		})
	}
	for _, preview := range []bool{false, true} {
		for _, v := range e.vars.Increments(preview) {
			inc := v.Increment()
			doc.Increments = append(doc.Increments, store.Increment{
				Name:         v.Name(),
				Formula:      inc.Formula,
				Description:  inc.Description,
				Index:        inc.Index,
				Preview:      inc.PreviewCalculation,
				SpecialUnits: inc.SpecialUnits,
				Separator:    v.Kind() == variable.Separator,
			})
		}
	}
	return doc
}
