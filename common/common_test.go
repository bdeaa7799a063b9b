package common

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMat4BytesColumnMajor(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	buf := Mat4Bytes(m)
	require.Len(t, buf, Mat4Size)

	// translation lives in elements 12..14
	for i, want := range []float32{1, 2, 3} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[(12+i)*4:]))
		assert.Equal(t, want, got)
	}
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.5), float32(50)
	p := Perspective(mgl32.DegToRad(60), 1.5, near, far)

	ndcZ := func(viewZ float32) float32 {
		clip := p.Mul4x1(mgl32.Vec4{0, 0, viewZ, 1})
		return clip.Z() / clip.W()
	}
	assert.InDelta(t, 0, ndcZ(-near), 1e-5)
	assert.InDelta(t, 1, ndcZ(-far), 1e-4)
}

func TestModelMatrix(t *testing.T) {
	m := ModelMatrix(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	p := m.Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	assert.Equal(t, mgl32.Vec4{3, 4, 5, 1}, p)

	rot := ModelMatrix(mgl32.Vec3{}, mgl32.Vec3{0, mgl32.DegToRad(90), 0}, mgl32.Vec3{1, 1, 1})
	x := rot.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, x.X(), 1e-6)
	assert.InDelta(t, -1, x.Z(), 1e-6)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32{}))
	assert.Len(t, SliceToBytes([]uint32{1, 2, 3}), 12)
}

func TestCoalesceAndClamp(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, 5, Clamp(9, 0, 5))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, -1, Clamp(-4, -1, 1))
}

func TestModifierKeyHas(t *testing.T) {
	m := ModControl | ModShift
	assert.True(t, m.Has(ModControl))
	assert.True(t, m.Has(ModControl|ModShift))
	assert.False(t, m.Has(ModAlt))
}

func TestCheckerTexture(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	tex := CheckerTexture(4, 2, red, blue)
	require.True(t, tex.Valid())
	assert.Equal(t, []byte{255, 0, 0, 255}, tex.Pixels[0:4])
	// pixel (2, 0) starts the second cell
	assert.Equal(t, []byte{0, 0, 255, 255}, tex.Pixels[8:12])
}

func TestLoadTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "tex.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	tex, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), tex.Width)
	assert.Equal(t, uint32(2), tex.Height)
	assert.True(t, tex.Valid())
	assert.Equal(t, []byte{10, 20, 30, 255}, tex.Pixels[0:4])

	_, err = LoadTexture(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestDecodeTextureRejectsGarbage(t *testing.T) {
	_, err := DecodeTexture(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
