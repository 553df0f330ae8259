package mosaic

import (
	"github.com/lsst-camera-visualization/fpmosaic/bias"
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
	"github.com/lsst-camera-visualization/fpmosaic/scale"
)

// ScaleMode selects how a render request's histogram-equalization path
// sources its CDF (§6's render-parameter surface).
type ScaleMode int

const (
	// ScaleAmplifier scales every segment against its own histogram.
	ScaleAmplifier ScaleMode = iota
	// ScaleGlobal scales every segment against one exposure-wide
	// histogram, computed on the fly unless Request.GlobalHistogram is
	// already supplied.
	ScaleGlobal
)

// Request is the render-parameter surface of §6.
type Request struct {
	IndexURL  string
	SourceRect *fits.Rect // nil means "accept every segment"

	Colormap       colormap.Name
	BiasKind       bias.Kind
	ShowBiasRegion bool
	WCSLetter      byte
	ScaleMode      ScaleMode

	// GlobalHistogram, if non-nil, is used directly instead of computing
	// one from the request's own segments (§4.9's "alternative entry
	// point" collapses into this one flag).
	GlobalHistogram *scale.GlobalHistogram

	WCSOverride *fits.WCSOverride
	Tolerant    bool
}
