package gpu

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// syncTimeout bounds a single ClientWaitSync call while waiting for a
// readback; the wait is retried until the fence signals.
const syncTimeout = time.Second

// GLDevice is a Device rendering through an OpenGL function table. The
// context the table was loaded from must be current on the calling thread
// for every method call.
type GLDevice struct {
	gl *GL

	program       uint32
	projectionLoc int32
	vao, vbo, pbo uint32
	pboSize       int
}

var _ Device = (*GLDevice)(nil)

type glTexture struct {
	id     uint32
	size   image.Point
	format TextureFormat
}

func (t *glTexture) Size() image.Point     { return t.size }
func (t *glTexture) Format() TextureFormat { return t.format }

type glFramebuffer struct {
	fbo, rbo uint32
	tex      *glTexture
	// content is the size of the content drawn by the last pass; rows are
	// laid out bottom-up relative to it.
	content image.Point
}

func (fb *glFramebuffer) Texture() Texture { return fb.tex }

// NewGLDevice compiles the fill program and allocates the vertex and pixel
// pack buffers.
func NewGLDevice(t *GL) (*GLDevice, error) {
	d := &GLDevice{gl: t}
	header := "#version 410 core\n"
	if t.Level == Baseline {
		header = "#version 300 es\nprecision highp float;\n"
	}
	var err error
	if d.program, err = d.newProgram(header+vertexShader, header+fragmentShader); err != nil {
		return nil, fmt.Errorf("newProgram: %v", err)
	}
	d.projectionLoc = t.GetUniformLocation(d.program, gl.Str("projection\x00"))

	t.GenVertexArrays(1, &d.vao)
	t.BindVertexArray(d.vao)
	t.GenBuffers(1, &d.vbo)
	t.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	t.EnableVertexAttribArray(0)
	t.VertexAttribPointer(0, 2, gl.FLOAT, false, floatsPerVertex*4, gl.PtrOffset(0))
	t.EnableVertexAttribArray(1)
	t.VertexAttribPointer(1, 4, gl.FLOAT, false, floatsPerVertex*4, gl.PtrOffset(2*4))
	t.BindVertexArray(0)

	t.GenBuffers(1, &d.pbo)

	if err := d.checkError("NewGLDevice"); err != nil {
		d.Release()
		return nil, err
	}
	Logger().Info("GL device created", "level", t.Level, "version", t.Version)
	return d, nil
}

func (d *GLDevice) CreateTexture(format TextureFormat, size image.Point) (Texture, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if format != RGBA8 {
		return nil, fmt.Errorf("GL device: unsupported texture format %v", format)
	}
	d.drainErrors()
	tex := &glTexture{size: size, format: format}
	t := d.gl
	t.GenTextures(1, &tex.id)
	t.BindTexture(gl.TEXTURE_2D, tex.id)
	t.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	t.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	t.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.X), int32(size.Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	t.BindTexture(gl.TEXTURE_2D, 0)
	if err := d.checkError(fmt.Sprintf("TexImage2D(%v,%v)", size.X, size.Y)); err != nil {
		t.DeleteTextures(1, &tex.id)
		return nil, err
	}
	return tex, nil
}

func (d *GLDevice) CreateFramebuffer(tex Texture) (Framebuffer, error) {
	gt, ok := tex.(*glTexture)
	if !ok {
		return nil, fmt.Errorf("GL device: %w", ErrForeignFramebuffer)
	}
	d.drainErrors()
	t := d.gl
	fb := &glFramebuffer{tex: gt}
	t.GenRenderbuffers(1, &fb.rbo)
	t.BindRenderbuffer(gl.RENDERBUFFER, fb.rbo)
	t.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(gt.size.X), int32(gt.size.Y))
	t.BindRenderbuffer(gl.RENDERBUFFER, 0)

	t.GenFramebuffers(1, &fb.fbo)
	t.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	t.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, gt.id, 0)
	t.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, fb.rbo)
	status := t.CheckFramebufferStatus(gl.FRAMEBUFFER)
	t.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if err := d.checkError("CreateFramebuffer"); err != nil {
		d.deleteFramebuffer(fb)
		return nil, err
	}
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.deleteFramebuffer(fb)
		return nil, fmt.Errorf("GL device: framebuffer incomplete: 0x%x", status)
	}
	return fb, nil
}

func (d *GLDevice) DestroyTexture(tex Texture) {
	if gt, ok := tex.(*glTexture); ok && gt.id != 0 {
		d.gl.DeleteTextures(1, &gt.id)
		gt.id = 0
	}
}

func (d *GLDevice) DestroyFramebuffer(fb Framebuffer) {
	gfb, ok := fb.(*glFramebuffer)
	if !ok {
		return
	}
	d.deleteFramebuffer(gfb)
	d.DestroyTexture(gfb.tex)
}

func (d *GLDevice) deleteFramebuffer(fb *glFramebuffer) {
	if fb.fbo != 0 {
		d.gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.rbo != 0 {
		d.gl.DeleteRenderbuffers(1, &fb.rbo)
		fb.rbo = 0
	}
}

// Draw fills every path of pass with the stencil-then-cover algorithm: the
// fan triangles of a path accumulate its winding numbers in the stencil
// buffer, then a cover quad paints where the stencil is non-zero and resets
// it.
func (d *GLDevice) Draw(fb Framebuffer, pass *Pass) error {
	gfb, ok := fb.(*glFramebuffer)
	if !ok || gfb.fbo == 0 {
		return fmt.Errorf("GL device: %w", ErrForeignFramebuffer)
	}
	d.drainErrors()
	t := d.gl
	size := gfb.tex.size
	gfb.content = pass.Size

	t.BindFramebuffer(gl.FRAMEBUFFER, gfb.fbo)
	t.Viewport(0, 0, int32(size.X), int32(size.Y))
	t.Disable(gl.DEPTH_TEST)
	t.Disable(gl.CULL_FACE)
	t.ColorMask(true, true, true, true)
	t.StencilMask(0xff)
	var bg Color
	if pass.Background != nil {
		bg = *pass.Background
	}
	t.ClearColor(bg[0], bg[1], bg[2], bg[3])
	t.ClearStencil(0)
	t.Clear(gl.COLOR_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)

	m := buildMesh(pass.Paths)
	if len(m.batches) > 0 {
		t.UseProgram(d.program)
		proj := projection(size, pass.Size, true)
		t.UniformMatrix4fv(d.projectionLoc, 1, false, &proj[0])

		t.BindVertexArray(d.vao)
		t.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
		t.BufferData(gl.ARRAY_BUFFER, len(m.vertices)*4, gl.Ptr(m.vertices), gl.STREAM_DRAW)

		t.Enable(gl.STENCIL_TEST)
		t.Enable(gl.BLEND)
		t.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
		for _, b := range m.batches {
			t.ColorMask(false, false, false, false)
			t.StencilFunc(gl.ALWAYS, 0, 0xff)
			if b.fillRule == EvenOdd {
				t.StencilOp(gl.KEEP, gl.KEEP, gl.INVERT)
			} else {
				t.StencilOpSeparate(gl.FRONT, gl.KEEP, gl.KEEP, gl.INCR_WRAP)
				t.StencilOpSeparate(gl.BACK, gl.KEEP, gl.KEEP, gl.DECR_WRAP)
			}
			t.DrawArrays(gl.TRIANGLES, b.fanFirst, b.fanCount)

			t.ColorMask(true, true, true, true)
			t.StencilFunc(gl.NOTEQUAL, 0, 0xff)
			t.StencilOp(gl.ZERO, gl.ZERO, gl.ZERO)
			t.DrawArrays(gl.TRIANGLES, b.coverFirst, 6)
		}
		t.Disable(gl.BLEND)
		t.Disable(gl.STENCIL_TEST)
		t.BindVertexArray(0)
	}
	t.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return d.checkError("Draw")
}

// ReadPixels reads rect, given in top-down content coordinates, through a
// pixel pack buffer and waits on a fence before mapping it.
func (d *GLDevice) ReadPixels(fb Framebuffer, rect image.Rectangle) (TextureData, error) {
	gfb, ok := fb.(*glFramebuffer)
	if !ok || gfb.fbo == 0 {
		return TextureData{}, fmt.Errorf("GL device: %w", ErrForeignFramebuffer)
	}
	if !rect.In(image.Rectangle{Max: gfb.tex.size}) || rect.Max.Y > gfb.content.Y {
		return TextureData{}, fmt.Errorf("GL device: read rect %v outside content %v", rect, gfb.content)
	}
	d.drainErrors()
	t := d.gl
	stride := rect.Dx() * 4
	n := stride * rect.Dy()

	t.BindFramebuffer(gl.READ_FRAMEBUFFER, gfb.fbo)
	t.PixelStorei(gl.PACK_ALIGNMENT, 4)
	t.BindBuffer(gl.PIXEL_PACK_BUFFER, d.pbo)
	if n > d.pboSize {
		t.BufferData(gl.PIXEL_PACK_BUFFER, n, nil, gl.STREAM_READ)
		d.pboSize = n
	}
	y := gfb.content.Y - rect.Max.Y
	t.ReadPixels(int32(rect.Min.X), int32(y), int32(rect.Dx()), int32(rect.Dy()), gl.RGBA, gl.UNSIGNED_BYTE, gl.PtrOffset(0))
	defer func() {
		t.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
		t.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	}()
	if err := d.checkError("ReadPixels"); err != nil {
		return TextureData{}, err
	}

	if err := d.waitFence(); err != nil {
		return TextureData{}, err
	}

	p := t.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, n, gl.MAP_READ_BIT)
	if p == nil {
		return TextureData{}, d.checkError("MapBufferRange")
	}
	mapped := unsafe.Slice((*byte)(p), n)
	pix := make([]byte, n)
	rows := rect.Dy()
	for r := 0; r < rows; r++ {
		copy(pix[r*stride:(r+1)*stride], mapped[(rows-1-r)*stride:])
	}
	if !t.UnmapBuffer(gl.PIXEL_PACK_BUFFER) {
		return TextureData{}, fmt.Errorf("GL device: pixel buffer contents lost while mapped")
	}
	return TextureData{Format: gfb.tex.format, Pixels: pix}, nil
}

func (d *GLDevice) waitFence() error {
	t := d.gl
	sync := t.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if sync == 0 {
		return d.checkError("FenceSync")
	}
	defer t.DeleteSync(sync)
	for {
		switch t.ClientWaitSync(sync, gl.SYNC_FLUSH_COMMANDS_BIT, uint64(syncTimeout.Nanoseconds())) {
		case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
			return nil
		case gl.TIMEOUT_EXPIRED:
			Logger().Debug("still waiting for readback fence")
		default:
			if err := d.checkError("ClientWaitSync"); err != nil {
				return err
			}
			return errors.New("GL device: ClientWaitSync failed")
		}
	}
}

func (d *GLDevice) Release() {
	t := d.gl
	if d.pbo != 0 {
		t.DeleteBuffers(1, &d.pbo)
		d.pbo = 0
	}
	if d.vbo != 0 {
		t.DeleteBuffers(1, &d.vbo)
		d.vbo = 0
	}
	if d.vao != 0 {
		t.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	if d.program != 0 {
		t.DeleteProgram(d.program)
		d.program = 0
	}
}

func (d *GLDevice) drainErrors() {
	for i := 0; i < 16; i++ {
		if d.gl.GetError() == gl.NO_ERROR {
			return
		}
	}
}

// checkError reports the first pending GL error, mapping GL_OUT_OF_MEMORY
// to ErrOutOfMemory.
func (d *GLDevice) checkError(op string) error {
	e := d.gl.GetError()
	switch e {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%v: %w", op, ErrOutOfMemory)
	}
	return fmt.Errorf("%v: GL error 0x%x", op, e)
}

func (d *GLDevice) newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := d.compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}

	fragmentShader, err := d.compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	t := d.gl
	program := t.CreateProgram()

	t.AttachShader(program, vertexShader)
	t.AttachShader(program, fragmentShader)
	t.BindAttribLocation(program, 0, gl.Str("position\x00"))
	t.BindAttribLocation(program, 1, gl.Str("color\x00"))
	t.LinkProgram(program)

	var status int32
	t.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		t.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		t.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	t.DeleteShader(vertexShader)
	t.DeleteShader(fragmentShader)

	return program, nil
}

func (d *GLDevice) compileShader(source string, shaderType uint32) (uint32, error) {
	t := d.gl
	shader := t.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	t.ShaderSource(shader, 1, csources, nil)
	free()
	t.CompileShader(shader)

	var status int32
	t.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		t.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		t.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		return 0, fmt.Errorf("failed to compile %v: %v", source, log)
	}

	return shader, nil
}

const vertexShader = "uniform mat4 projection;\nin vec2 position;\nin vec4 color;\nout vec4 fragColor;\nvoid main() {\n\tgl_Position = projection * vec4(position, 0.0, 1.0);\n\tfragColor = color;\n}"

const fragmentShader = "in vec4 fragColor;\nout vec4 outputColor;\nvoid main() {\n\toutputColor = fragColor;\n}"
