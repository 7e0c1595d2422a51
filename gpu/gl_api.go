package gpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.1/gles2"
	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// GL is the table of OpenGL entry points used by GLDevice.
//
// The same table is filled from the GLES 3 bindings for the Baseline level
// and from the GL 4.1 core bindings for the Advanced level; every entry
// used here has the same signature and enum values in both APIs.
type GL struct {
	Level   Level
	Version string

	GetError  func() uint32
	GetString func(name uint32) *uint8

	GenTextures    func(n int32, textures *uint32)
	DeleteTextures func(n int32, textures *uint32)
	BindTexture    func(target, texture uint32)
	TexImage2D     func(target uint32, level, internalformat, width, height, border int32, format, xtype uint32, pixels unsafe.Pointer)
	TexParameteri  func(target, pname uint32, param int32)

	GenFramebuffers         func(n int32, framebuffers *uint32)
	DeleteFramebuffers      func(n int32, framebuffers *uint32)
	BindFramebuffer         func(target, framebuffer uint32)
	FramebufferTexture2D    func(target, attachment, textarget, texture uint32, level int32)
	CheckFramebufferStatus  func(target uint32) uint32
	GenRenderbuffers        func(n int32, renderbuffers *uint32)
	DeleteRenderbuffers     func(n int32, renderbuffers *uint32)
	BindRenderbuffer        func(target, renderbuffer uint32)
	RenderbufferStorage     func(target, internalformat uint32, width, height int32)
	FramebufferRenderbuffer func(target, attachment, renderbuffertarget, renderbuffer uint32)

	Viewport          func(x, y, width, height int32)
	ClearColor        func(red, green, blue, alpha float32)
	ClearStencil      func(s int32)
	Clear             func(mask uint32)
	Enable            func(cap uint32)
	Disable           func(cap uint32)
	StencilFunc       func(xfunc uint32, ref int32, mask uint32)
	StencilOp         func(fail, zfail, zpass uint32)
	StencilOpSeparate func(face, sfail, dpfail, dppass uint32)
	StencilMask       func(mask uint32)
	ColorMask         func(red, green, blue, alpha bool)
	BlendFunc         func(sfactor, dfactor uint32)

	CreateShader       func(xtype uint32) uint32
	ShaderSource       func(shader uint32, count int32, xstring **uint8, length *int32)
	CompileShader      func(shader uint32)
	GetShaderiv        func(shader, pname uint32, params *int32)
	GetShaderInfoLog   func(shader uint32, bufSize int32, length *int32, infoLog *uint8)
	DeleteShader       func(shader uint32)
	CreateProgram      func() uint32
	AttachShader       func(program, shader uint32)
	BindAttribLocation func(program, index uint32, name *uint8)
	LinkProgram        func(program uint32)
	GetProgramiv       func(program, pname uint32, params *int32)
	GetProgramInfoLog  func(program uint32, bufSize int32, length *int32, infoLog *uint8)
	DeleteProgram      func(program uint32)
	UseProgram         func(program uint32)
	GetUniformLocation func(program uint32, name *uint8) int32
	UniformMatrix4fv   func(location, count int32, transpose bool, value *float32)

	GenVertexArrays         func(n int32, arrays *uint32)
	DeleteVertexArrays      func(n int32, arrays *uint32)
	BindVertexArray         func(array uint32)
	GenBuffers              func(n int32, buffers *uint32)
	DeleteBuffers           func(n int32, buffers *uint32)
	BindBuffer              func(target, buffer uint32)
	BufferData              func(target uint32, size int, data unsafe.Pointer, usage uint32)
	EnableVertexAttribArray func(index uint32)
	VertexAttribPointer     func(index uint32, size int32, xtype uint32, normalized bool, stride int32, pointer unsafe.Pointer)
	DrawArrays              func(mode uint32, first, count int32)

	PixelStorei    func(pname uint32, param int32)
	ReadPixels     func(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer)
	FenceSync      func(condition, flags uint32) uintptr
	ClientWaitSync func(sync uintptr, flags uint32, timeout uint64) uint32
	DeleteSync     func(sync uintptr)
	MapBufferRange func(target uint32, offset, length int, access uint32) unsafe.Pointer
	UnmapBuffer    func(target uint32) bool
}

// LoadGL resolves the GL entry points for level through getProcAddr. The
// context the entry points belong to must be current on the calling thread.
func LoadGL(level Level, getProcAddr func(name string) unsafe.Pointer) (*GL, error) {
	switch level {
	case Baseline:
		if err := gles2.InitWithProcAddrFunc(getProcAddr); err != nil {
			return nil, fmt.Errorf("gles2.Init: %v", err)
		}
		t := gles2Table()
		t.Version = gl.GoStr(t.GetString(gl.VERSION))
		return t, nil
	case Advanced:
		if err := gl.InitWithProcAddrFunc(getProcAddr); err != nil {
			return nil, fmt.Errorf("gl.Init: %v", err)
		}
		t := gl41Table()
		t.Version = gl.GoStr(t.GetString(gl.VERSION))
		return t, nil
	}
	return nil, fmt.Errorf("LoadGL: unsupported level %v", level)
}

func gl41Table() *GL {
	return &GL{
		Level:                   Advanced,
		GetError:                gl.GetError,
		GetString:               gl.GetString,
		GenTextures:             gl.GenTextures,
		DeleteTextures:          gl.DeleteTextures,
		BindTexture:             gl.BindTexture,
		TexImage2D:              gl.TexImage2D,
		TexParameteri:           gl.TexParameteri,
		GenFramebuffers:         gl.GenFramebuffers,
		DeleteFramebuffers:      gl.DeleteFramebuffers,
		BindFramebuffer:         gl.BindFramebuffer,
		FramebufferTexture2D:    gl.FramebufferTexture2D,
		CheckFramebufferStatus:  gl.CheckFramebufferStatus,
		GenRenderbuffers:        gl.GenRenderbuffers,
		DeleteRenderbuffers:     gl.DeleteRenderbuffers,
		BindRenderbuffer:        gl.BindRenderbuffer,
		RenderbufferStorage:     gl.RenderbufferStorage,
		FramebufferRenderbuffer: gl.FramebufferRenderbuffer,
		Viewport:                gl.Viewport,
		ClearColor:              gl.ClearColor,
		ClearStencil:            gl.ClearStencil,
		Clear:                   gl.Clear,
		Enable:                  gl.Enable,
		Disable:                 gl.Disable,
		StencilFunc:             gl.StencilFunc,
		StencilOp:               gl.StencilOp,
		StencilOpSeparate:       gl.StencilOpSeparate,
		StencilMask:             gl.StencilMask,
		ColorMask:               gl.ColorMask,
		BlendFunc:               gl.BlendFunc,
		CreateShader:            gl.CreateShader,
		ShaderSource:            gl.ShaderSource,
		CompileShader:           gl.CompileShader,
		GetShaderiv:             gl.GetShaderiv,
		GetShaderInfoLog:        gl.GetShaderInfoLog,
		DeleteShader:            gl.DeleteShader,
		CreateProgram:           gl.CreateProgram,
		AttachShader:            gl.AttachShader,
		BindAttribLocation:      gl.BindAttribLocation,
		LinkProgram:             gl.LinkProgram,
		GetProgramiv:            gl.GetProgramiv,
		GetProgramInfoLog:       gl.GetProgramInfoLog,
		DeleteProgram:           gl.DeleteProgram,
		UseProgram:              gl.UseProgram,
		GetUniformLocation:      gl.GetUniformLocation,
		UniformMatrix4fv:        gl.UniformMatrix4fv,
		GenVertexArrays:         gl.GenVertexArrays,
		DeleteVertexArrays:      gl.DeleteVertexArrays,
		BindVertexArray:         gl.BindVertexArray,
		GenBuffers:              gl.GenBuffers,
		DeleteBuffers:           gl.DeleteBuffers,
		BindBuffer:              gl.BindBuffer,
		BufferData:              gl.BufferData,
		EnableVertexAttribArray: gl.EnableVertexAttribArray,
		VertexAttribPointer:     gl.VertexAttribPointer,
		DrawArrays:              gl.DrawArrays,
		PixelStorei:             gl.PixelStorei,
		ReadPixels:              gl.ReadPixels,
		FenceSync:               gl.FenceSync,
		ClientWaitSync:          gl.ClientWaitSync,
		DeleteSync:              gl.DeleteSync,
		MapBufferRange:          gl.MapBufferRange,
		UnmapBuffer:             gl.UnmapBuffer,
	}
}

func gles2Table() *GL {
	return &GL{
		Level:                   Baseline,
		GetError:                gles2.GetError,
		GetString:               gles2.GetString,
		GenTextures:             gles2.GenTextures,
		DeleteTextures:          gles2.DeleteTextures,
		BindTexture:             gles2.BindTexture,
		TexImage2D:              gles2.TexImage2D,
		TexParameteri:           gles2.TexParameteri,
		GenFramebuffers:         gles2.GenFramebuffers,
		DeleteFramebuffers:      gles2.DeleteFramebuffers,
		BindFramebuffer:         gles2.BindFramebuffer,
		FramebufferTexture2D:    gles2.FramebufferTexture2D,
		CheckFramebufferStatus:  gles2.CheckFramebufferStatus,
		GenRenderbuffers:        gles2.GenRenderbuffers,
		DeleteRenderbuffers:     gles2.DeleteRenderbuffers,
		BindRenderbuffer:        gles2.BindRenderbuffer,
		RenderbufferStorage:     gles2.RenderbufferStorage,
		FramebufferRenderbuffer: gles2.FramebufferRenderbuffer,
		Viewport:                gles2.Viewport,
		ClearColor:              gles2.ClearColor,
		ClearStencil:            gles2.ClearStencil,
		Clear:                   gles2.Clear,
		Enable:                  gles2.Enable,
		Disable:                 gles2.Disable,
		StencilFunc:             gles2.StencilFunc,
		StencilOp:               gles2.StencilOp,
		StencilOpSeparate:       gles2.StencilOpSeparate,
		StencilMask:             gles2.StencilMask,
		ColorMask:               gles2.ColorMask,
		BlendFunc:               gles2.BlendFunc,
		CreateShader:            gles2.CreateShader,
		ShaderSource:            gles2.ShaderSource,
		CompileShader:           gles2.CompileShader,
		GetShaderiv:             gles2.GetShaderiv,
		GetShaderInfoLog:        gles2.GetShaderInfoLog,
		DeleteShader:            gles2.DeleteShader,
		CreateProgram:           gles2.CreateProgram,
		AttachShader:            gles2.AttachShader,
		BindAttribLocation:      gles2.BindAttribLocation,
		LinkProgram:             gles2.LinkProgram,
		GetProgramiv:            gles2.GetProgramiv,
		GetProgramInfoLog:       gles2.GetProgramInfoLog,
		DeleteProgram:           gles2.DeleteProgram,
		UseProgram:              gles2.UseProgram,
		GetUniformLocation:      gles2.GetUniformLocation,
		UniformMatrix4fv:        gles2.UniformMatrix4fv,
		GenVertexArrays:         gles2.GenVertexArrays,
		DeleteVertexArrays:      gles2.DeleteVertexArrays,
		BindVertexArray:         gles2.BindVertexArray,
		GenBuffers:              gles2.GenBuffers,
		DeleteBuffers:           gles2.DeleteBuffers,
		BindBuffer:              gles2.BindBuffer,
		BufferData:              gles2.BufferData,
		EnableVertexAttribArray: gles2.EnableVertexAttribArray,
		VertexAttribPointer:     gles2.VertexAttribPointer,
		DrawArrays:              gles2.DrawArrays,
		PixelStorei:             gles2.PixelStorei,
		ReadPixels:              gles2.ReadPixels,
		FenceSync:               gles2.FenceSync,
		ClientWaitSync:          gles2.ClientWaitSync,
		DeleteSync:              gles2.DeleteSync,
		MapBufferRange:          gles2.MapBufferRange,
		UnmapBuffer:             gles2.UnmapBuffer,
	}
}
