package mock

import (
	"sync/atomic"

	"github.com/oscstrip/oscstrip-go/pkg/model"
)

// WatchedStrip wraps a Channel and counts reads made after the channel was
// destroyed. Consumers must never read a strip once its drop-references
// notification has fired.
type WatchedStrip struct {
	*model.Channel

	lateReads atomic.Int64
}

// NewWatchedStrip wraps ch.
func NewWatchedStrip(ch *model.Channel) *WatchedStrip {
	return &WatchedStrip{Channel: ch}
}

// LateReads returns how many accessor calls happened after Destroy.
func (w *WatchedStrip) LateReads() int64 {
	return w.lateReads.Load()
}

func (w *WatchedStrip) read() {
	if w.Channel.Destroyed() {
		w.lateReads.Add(1)
	}
}

func (w *WatchedStrip) Name() string { w.read(); return w.Channel.Name() }
func (w *WatchedStrip) Hidden() bool { w.read(); return w.Channel.Hidden() }
func (w *WatchedStrip) Selected() bool { w.read(); return w.Channel.Selected() }
func (w *WatchedStrip) Gain() model.GainControl { w.read(); return w.Channel.Gain() }
func (w *WatchedStrip) Trim() model.Control { w.read(); return w.Channel.Trim() }
func (w *WatchedStrip) PeakMeter() model.Meter { w.read(); return w.Channel.PeakMeter() }

var _ model.Strip = (*WatchedStrip)(nil)
