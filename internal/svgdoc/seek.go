package svgdoc

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Snapshot is a serialized document frozen at Time
type Snapshot struct {
	Time float64
	Data []byte
}

// PauseCSS returns a style sheet that pauses all CSS animations at t seconds
// and disables transitions
func PauseCSS(t float64) string {
	d := formatNumber(t)
	return fmt.Sprintf(
		"* { animation-play-state: paused !important; animation-delay: -%ss !important; transition: none !important; }",
		d,
	)
}

// Seek returns a snapshot of doc with all animations at time t. doc is not
// modified. SMIL timeline errors are logged and ignored.
func Seek(doc *Document, t float64, log logrus.FieldLogger) (*Snapshot, error) {
	if t < 0 {
		return nil, fmt.Errorf("negative time %v", t)
	}
	work := doc.Clone()

	if tl, ok := Timeline(work); ok {
		if err := tl.SetCurrentTime(t); err != nil && log != nil {
			log.WithField("time", t).Debugf("timeline seek: %s", err)
		}
	}

	resolveCSSAnimations(work, t)

	style := work.Root().CreateElement("style")
	style.CreateText(PauseCSS(t))

	return &Snapshot{Time: t, Data: work.Bytes()}, nil
}
