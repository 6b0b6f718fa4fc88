//go:build !tinygo && cgo

package gshadeaux

import (
	"fmt"
	"image"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/gshade/glrender"
	"github.com/soypat/gshade/material"
)

func ui(mat *material.Material, mesh *glrender.Mesh, attrs []vertexAttrib, cfg UIConfig) error {
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	window, term, err := startGLFW(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return err
	}
	defer term()

	watch := stopwatch()
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   mat.VertexSource() + "\x00",
		Fragment: mat.FragmentSource() + "\x00",
	})
	if err != nil {
		return fmt.Errorf("%s\n\n%s\n\n%w", mat.VertexSource(), mat.FragmentSource(), err)
	}
	defer prog.Delete()
	prog.Bind()
	log("compiled material program in", watch())

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	vbos := make([]uint32, len(attrs))
	gl.GenBuffers(int32(len(vbos)), &vbos[0])
	defer gl.DeleteBuffers(int32(len(vbos)), &vbos[0])
	for i, attr := range attrs {
		loc, err := prog.AttribLocation(attr.name + "\x00")
		if err != nil {
			return fmt.Errorf("attribute %s: %w", attr.name, err)
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, vbos[i])
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(attr.data), gl.Ptr(attr.data), gl.STATIC_DRAW)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, attr.components, gl.FLOAT, false, 0, gl.PtrOffset(0))
	}
	var ebo uint32
	gl.GenBuffers(1, &ebo)
	defer gl.DeleteBuffers(1, &ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(mesh.Indices), gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	log("uploaded", len(mesh.Positions), "vertices and", mesh.NumTriangles(), "triangles")

	watch = stopwatch()
	var textures []*material.Texture
	for _, u := range mat.Uniforms() {
		tex, ok := u.Value.(*material.Texture)
		if !ok {
			continue
		} else if tex == nil {
			return fmt.Errorf("uniform %s has nil texture", u.Name)
		}
		if tex.GLID == 0 {
			if err = uploadTexture(tex); err != nil {
				return fmt.Errorf("uniform %s: %w", u.Name, err)
			}
		}
		textures = append(textures, tex)
	}
	defer func() {
		for _, tex := range textures {
			deleteTexture(tex)
		}
	}()
	log("uploaded", len(textures), "textures in", watch())

	var overlay *statsOverlay
	if cfg.ShowStats {
		overlay, err = newStatsOverlay()
		if err != nil {
			return err
		}
		defer overlay.delete()
	}

	uniform := func(name string) int32 {
		loc, err := prog.UniformLocation(name + "\x00")
		if err != nil {
			return -1 // Optimized out by the GLSL compiler.
		}
		return loc
	}
	modelLoc := uniform(material.ModelMatrix)
	viewLoc := uniform(material.ViewMatrix)
	projLoc := uniform(material.ProjectionMatrix)
	camPosLoc := uniform(material.CameraPosition)
	lights := cfg.Lights
	setVec3(uniform(material.HemisphereSkyColor), lights.SkyColor)
	setVec3(uniform(material.HemisphereGroundColor), lights.GroundColor)
	gl.Uniform1f(uniform(material.HemisphereIntensity), lights.HemisphereIntensity)
	setVec3(uniform(material.PointLightPosition), lights.PointPosition)
	setVec3(uniform(material.PointLightColor), lights.PointColor)
	gl.Uniform1f(uniform(material.PointLightIntensity), lights.PointIntensity)
	gl.UniformMatrix4fv(modelLoc, 1, false, &identityMat4[0])

	cam := cfg.Camera
	if cam.MaxDistance == 0 {
		cam.MinDistance = cam.Distance * 0.05
		cam.MaxDistance = cam.Distance * 20
	}
	var (
		lastMouseX, lastMouseY float64
		firstMouseMove         = true
		isMousePressed         = false
		sensitivity            = float32(0.005)
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		cam.Orbit(-float32(xpos-lastMouseX)*sensitivity, float32(ypos-lastMouseY)*sensitivity)
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		cam.Zoom(1 - 0.1*float32(yoff))
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		if action == glfw.Press {
			isMousePressed = true
			firstMouseMove = true
			window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else if action == glfw.Release {
			isMousePressed = false
			window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
	})

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	ctx := cfg.Context
	previousTime := time.Now()
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		width, height := window.GetFramebufferSize()
		if width == 0 || height == 0 {
			// Minimized.
			glfw.WaitEvents()
			continue
		}
		bg := cfg.Background
		gl.ClearColor(bg.X, bg.Y, bg.Z, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		prog.Bind()
		view := cam.ViewMatrix()
		proj := cam.ProjectionMatrix(float32(width) / float32(height))
		gl.UniformMatrix4fv(viewLoc, 1, false, &view[0])
		gl.UniformMatrix4fv(projLoc, 1, false, &proj[0])
		setVec3(camPosLoc, cam.Position())
		if err = setMaterialUniforms(uniform, mat); err != nil {
			return err
		}
		gl.BindVertexArray(vao)
		gl.DrawElements(gl.TRIANGLES, int32(len(mesh.Indices)), gl.UNSIGNED_INT, gl.PtrOffset(0))

		if overlay != nil {
			overlay.draw(width, height)
		}
		window.SwapBuffers()
		glfw.PollEvents()

		now := time.Now()
		if overlay != nil {
			overlay.stats.Frame(now.Sub(previousTime))
		}
		previousTime = now
	}
	return nil
}

func setVec3(loc int32, v ms3.Vec) {
	gl.Uniform3f(loc, v.X, v.Y, v.Z)
}

// setMaterialUniforms sets material uniform values on the bound program.
// Textures are bound to consecutive texture units in declaration order.
func setMaterialUniforms(location func(string) int32, mat *material.Material) error {
	var unit int32
	for _, u := range mat.Uniforms() {
		loc := location(u.Name)
		switch v := u.Value.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case ms2.Vec:
			gl.Uniform2f(loc, v.X, v.Y)
		case ms3.Vec:
			setVec3(loc, v)
		case [4]float32:
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case ms3.Mat3:
			arr := v.Array()
			gl.UniformMatrix3fv(loc, 1, true, &arr[0])
		case ms3.Mat4:
			arr := v.Array()
			gl.UniformMatrix4fv(loc, 1, true, &arr[0])
		case *material.Texture:
			gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
			gl.BindTexture(gl.TEXTURE_2D, v.GLID)
			gl.Uniform1i(loc, unit)
			unit++
		case nil:
			return fmt.Errorf("uniform %s has no value", u.Name)
		default:
			return fmt.Errorf("uniform %s: unsupported value type %T", u.Name, v)
		}
	}
	return nil
}

func uploadTexture(tex *material.Texture) error {
	if tex == nil {
		return fmt.Errorf("nil texture")
	}
	err := tex.Validate()
	if err != nil {
		return err
	}
	// Pixels are stored top row first and GL expects the bottom row first.
	stride := 4 * tex.Width
	flipped := make([]byte, len(tex.Pixels))
	for y := 0; y < tex.Height; y++ {
		copy(flipped[(tex.Height-1-y)*stride:], tex.Pixels[y*stride:(y+1)*stride])
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(tex.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(tex.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(tex.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(tex.MagFilter))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(tex.Width), int32(tex.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&flipped[0]))
	if tex.MinFilter == material.LinearMipmapLinear {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	tex.GLID = id
	return nil
}

func deleteTexture(tex *material.Texture) {
	if tex == nil || tex.GLID == 0 {
		return
	}
	gl.DeleteTextures(1, &tex.GLID)
	tex.GLID = 0
}

func glWrap(w material.Wrap) int32 {
	switch w {
	case material.ClampToEdge:
		return gl.CLAMP_TO_EDGE
	case material.MirroredRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.REPEAT
}

func glFilter(f material.Filter) int32 {
	switch f {
	case material.Nearest:
		return gl.NEAREST
	case material.LinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	}
	return gl.LINEAR
}

const overlayVertex = `#version 430
uniform vec4 uRect;
out vec2 vUV;
void main() {
	vec2 corner = vec2(gl_VertexID & 1, gl_VertexID >> 1);
	vUV = vec2(corner.x, 1.0 - corner.y);
	gl_Position = vec4(mix(uRect.xy, uRect.zw, corner), 0.0, 1.0);
}
` + "\x00"

const overlayFragment = `#version 430
uniform sampler2D uOverlay;
in vec2 vUV;
out vec4 fragColor;
void main() {
	fragColor = texture(uOverlay, vUV);
}
` + "\x00"

// statsOverlay draws a [Stats] image in the top left corner of the framebuffer.
type statsOverlay struct {
	stats   *Stats
	prog    glgl.Program
	vao     uint32
	tex     uint32
	rectLoc int32
	texLoc  int32
}

func newStatsOverlay() (*statsOverlay, error) {
	stats, err := NewStats(StatsConfig{})
	if err != nil {
		return nil, err
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   overlayVertex,
		Fragment: overlayFragment,
	})
	if err != nil {
		return nil, fmt.Errorf("compiling stats overlay: %w", err)
	}
	o := &statsOverlay{stats: stats, prog: prog}
	o.rectLoc, err = prog.UniformLocation("uRect\x00")
	if err != nil {
		return nil, err
	}
	o.texLoc, err = prog.UniformLocation("uOverlay\x00")
	if err != nil {
		return nil, err
	}
	gl.GenVertexArrays(1, &o.vao)
	gl.GenTextures(1, &o.tex)
	gl.BindTexture(gl.TEXTURE_2D, o.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	img, _ := stats.Image()
	uploadOverlayImage(img)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return o, nil
}

func uploadOverlayImage(img *image.RGBA) {
	sz := img.Bounds().Size()
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(sz.X), int32(sz.Y), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
}

func (o *statsOverlay) draw(fbWidth, fbHeight int) {
	img, changed := o.stats.Image()
	sz := img.Bounds().Size()
	o.prog.Bind()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.tex)
	if changed {
		uploadOverlayImage(img)
	}
	gl.Uniform1i(o.texLoc, 0)
	x1 := -1 + 2*float32(sz.X)/float32(fbWidth)
	y0 := 1 - 2*float32(sz.Y)/float32(fbHeight)
	gl.Uniform4f(o.rectLoc, -1, y0, x1, 1)

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(o.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.DEPTH_TEST)
}

func (o *statsOverlay) delete() {
	gl.DeleteTextures(1, &o.tex)
	gl.DeleteVertexArrays(1, &o.vao)
	o.prog.Delete()
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
