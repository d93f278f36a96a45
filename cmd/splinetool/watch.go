package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-spline/pkg/extrude"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// applyEdits replays the differences between src and dst as edits on dst so
// that observers see ordinary change events. It reports false when the two
// splines differ in structure and dst cannot be edited into src.
func applyEdits(dst, src *spline.Spline) bool {
	if dst.ControlPointCount() != src.ControlPointCount() || dst.Loop() != src.Loop() {
		return false
	}
	if dst.Static() != src.Static() {
		dst.SetStatic(src.Static())
	}
	if dst.Tension() != src.Tension() {
		dst.SetTension(src.Tension())
	}
	if dst.Transform() != src.Transform() {
		dst.SetTransform(src.Transform())
	}
	n := src.ControlPointCount()
	for i := 0; i < n; i += 3 {
		if dst.Mode(i) != src.Mode(i) {
			if err := dst.SetMode(i, src.Mode(i)); err != nil {
				return false
			}
		}
	}
	// Anchors first: moving an anchor drags its handles along
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < n; i++ {
			if spline.IsAnchor(i) != (pass == 0) {
				continue
			}
			if dst.ControlPoint(i) == src.ControlPoint(i) {
				continue
			}
			if err := dst.SetControlPoint(i, src.ControlPoint(i)); err != nil {
				return false
			}
		}
	}
	return true
}

// watcher keeps an OBJ export in sync with a spline file.
type watcher struct {
	path    string
	out     string
	profile *extrude.Profile
	opts    extrude.Options
	mode    extrude.RegenMode
	log     *zap.Logger

	spline   *spline.Spline
	gen      *extrude.Generator
	exported uint64
}

func (w *watcher) load() error {
	s, err := loadSpline(w.path)
	if err != nil {
		return err
	}
	if w.spline != nil && applyEdits(w.spline, s) {
		return nil
	}
	if w.gen != nil {
		w.gen.Close()
	}
	w.log.Info("spline structure changed, rebuilding generator",
		zap.String("id", s.ID().String()),
		zap.Int("curves", s.CurveCount()))
	w.spline = s
	w.exported = 0
	w.gen = extrude.NewGenerator(s, w.profile, w.opts,
		extrude.WithLogger(w.log.Named("generator")),
		extrude.WithMode(w.mode))
	return nil
}

// export writes the generator's results when a build happened since the
// last export.
func (w *watcher) export() error {
	if w.gen.Revision() == w.exported {
		if w.gen.Dirty() {
			w.log.Info("changes pending, press enter to regenerate")
		}
		return nil
	}
	if err := writeResults(w.out, w.gen.Results()); err != nil {
		return err
	}
	w.exported = w.gen.Revision()
	w.log.Info("exported", zap.String("path", w.out), zap.Uint64("revision", w.exported))
	return nil
}

func (w *watcher) refresh() {
	if err := w.load(); err != nil {
		w.log.Warn("reload failed", zap.Error(err))
		return
	}
	if err := w.export(); err != nil {
		w.log.Error("export failed", zap.Error(err))
	}
}

// run blocks until ctx is done. Lines read from input trigger a manual
// regeneration.
func (w *watcher) run(ctx context.Context, input io.Reader) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Editors often replace files, so watch the directory
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", w.path, err)
	}
	target := filepath.Clean(w.path)

	w.refresh()
	if w.gen == nil {
		return fmt.Errorf("initial load of %s failed", w.path)
	}
	defer w.gen.Close()

	requests := make(chan struct{})
	if input != nil {
		go func() {
			sc := bufio.NewScanner(input)
			for sc.Scan() {
				select {
				case requests <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			w.log.Debug("file event", zap.Stringer("op", ev.Op))
			w.refresh()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-requests:
			if _, err := w.gen.Regenerate(); err != nil {
				continue
			}
			if err := w.export(); err != nil {
				w.log.Error("export failed", zap.Error(err))
			}
		}
	}
}
