package main

import (
	"image/color"
	"math"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/loader"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var white = [4]float32{1, 1, 1, 1}

// demoContent is the default viewport content: a textured ground grid, a cube, a two-part
// model and a textured landscape.
type demoContent struct {
	drawables []renderable.Drawable
	models    []renderable.Model
}

func (c demoContent) addTo(sc scene.Scene) error {
	for _, d := range c.drawables {
		if err := sc.Add(d); err != nil {
			return errors.Wrapf(err, "add %s", d.Label())
		}
	}
	for _, m := range c.models {
		sc.AddModel(m)
	}
	return nil
}

// uploadDemo creates the demo content. On failure everything created so far is released.
func uploadDemo(u loader.Uploader) (c demoContent, err error) {
	var created []interface{ Release() }
	defer func() {
		if err == nil {
			return
		}
		for i := len(created) - 1; i >= 0; i-- {
			created[i].Release()
		}
		c = demoContent{}
	}()
	newTexture := func(label string, tex common.TextureStagingData) (bind_group_provider.BindGroupProvider, error) {
		p, err := u.NewTextureProvider(label, tex)
		if err != nil {
			return nil, errors.Wrapf(err, "upload texture %s", label)
		}
		created = append(created, p)
		return p, nil
	}
	newDrawable := func(kind renderable.Kind, label string, g renderable.Geometry, t renderable.Transform) (renderable.Drawable, error) {
		d, err := u.NewDrawable(kind, label, g, t)
		if err != nil {
			return nil, errors.Wrapf(err, "upload %s", label)
		}
		created = append(created, d)
		return d, nil
	}

	gridTex, err := newTexture("grid", common.SolidTexture(color.RGBA{R: 90, G: 90, B: 96, A: 255}))
	if err != nil {
		return c, err
	}
	grid, err := newDrawable(renderable.KindGrid, "grid",
		renderable.GridGeometry(20, 1, 0.02, white), renderable.IdentityTransform())
	if err != nil {
		return c, err
	}
	grid.SetTexture(gridTex)

	cube, err := newDrawable(renderable.KindCube, "cube",
		renderable.CubeGeometry(1, [4]float32{0.85, 0.35, 0.2, 1}),
		renderable.Transform{Position: mgl32.Vec3{0, 0.5, 0}, Scale: mgl32.Vec3{1, 1, 1}})
	if err != nil {
		return c, err
	}

	model := renderable.NewModel("pedestal", renderable.Transform{Position: mgl32.Vec3{4, 0, -2}, Scale: mgl32.Vec3{1, 1, 1}})
	for i, g := range []renderable.Geometry{
		renderable.CubeGeometry(1.5, [4]float32{0.3, 0.3, 0.35, 1}),
		renderable.QuadGeometry(2, 2, white),
	} {
		mesh, err := newDrawable(renderable.KindMesh, "pedestal/"+string(rune('a'+i)), g,
			renderable.Transform{Position: mgl32.Vec3{0, float32(i) * 0.76, 0}, Scale: mgl32.Vec3{1, 1, 1}})
		if err != nil {
			return c, err
		}
		tex, err := newTexture(mesh.Label(), common.CheckerTexture(64, 8,
			color.RGBA{R: 220, G: 220, B: 220, A: 255}, color.RGBA{R: 40, G: 40, B: 40, A: 255}))
		if err != nil {
			return c, err
		}
		mesh.SetTexture(tex)
		model.AddMesh(mesh)
	}

	hills := func(x, z float32) float32 {
		return 0.6 * float32(math.Sin(float64(x)*0.4)*math.Cos(float64(z)*0.3))
	}
	land, err := newDrawable(renderable.KindLandscape, "landscape",
		renderable.LandscapeGeometry(32, 32, 1, hills, white),
		renderable.Transform{Position: mgl32.Vec3{-16, -1, -40}, Scale: mgl32.Vec3{1, 1, 1}})
	if err != nil {
		return c, err
	}
	landTex, err := newTexture("landscape", common.CheckerTexture(128, 16,
		color.RGBA{R: 70, G: 120, B: 60, A: 255}, color.RGBA{R: 60, G: 100, B: 50, A: 255}))
	if err != nil {
		return c, err
	}
	land.SetTexture(landTex)

	c.drawables = []renderable.Drawable{grid, cube, land}
	c.models = append(c.models, model)
	return c, nil
}
