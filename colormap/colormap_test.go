package colormap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

func TestDefault_ResolvesEveryMenuName(t *testing.T) {
	reg := Default()
	names := []Name{Grey, A, B, BB, Cubehelix0, Cubehelix1, Rainbow, Standard, Null}
	for _, n := range names {
		cm, err := reg.Get(n)
		require.NoError(t, err, n)
		require.NotNil(t, cm)
	}
}

func TestGet_UnknownNameFails(t *testing.T) {
	_, err := Default().Get("not-a-real-name")
	require.Error(t, err)
	var unknown *errs.UnknownStrategy
	require.ErrorAs(t, err, &unknown)
}

func TestRegister_Overrides(t *testing.T) {
	reg := Default()
	reg.Register(Grey, identity{})
	cm, err := reg.Get(Grey)
	require.NoError(t, err)
	require.IsType(t, identity{}, cm)
}

func TestGreyscale_Bounds(t *testing.T) {
	cm := greyscale{}
	require.Equal(t, RGB{0, 0, 0}, cm.RGB(0))
	require.Equal(t, RGB{255, 255, 255}, cm.RGB(1))
}

func TestGradient_Interpolates(t *testing.T) {
	g := gradient{lo: RGB{0, 0, 0}, hi: RGB{100, 100, 100}}
	mid := g.RGB(0.5)
	require.InDelta(t, 50, int(mid.R), 1)
}

func TestCubehelix_StaysInBounds(t *testing.T) {
	cm := cubehelix{start: 0.5, rotations: -1.5, gamma: 1.0}
	for _, t0 := range []float64{0, 0.25, 0.5, 0.75, 1} {
		c := cm.RGB(t0)
		require.GreaterOrEqual(t, c.R, uint8(0))
		require.GreaterOrEqual(t, c.G, uint8(0))
		require.GreaterOrEqual(t, c.B, uint8(0))
	}
}

func TestClamp01(t *testing.T) {
	require.Equal(t, 0.0, clamp01(-1))
	require.Equal(t, 1.0, clamp01(2))
	require.Equal(t, 0.5, clamp01(0.5))
}
