package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// WebGPUDevice is a Device using a headless WebGPU adapter. It draws with
// the same stencil-then-cover scheme as GLDevice.
type WebGPUDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	bindGroup      *wgpu.BindGroup
	uniformBuffer  *wgpu.Buffer
	stencilNonZero *wgpu.RenderPipeline
	stencilEvenOdd *wgpu.RenderPipeline
	cover          *wgpu.RenderPipeline
}

var _ Device = (*WebGPUDevice)(nil)

type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	size    image.Point
	format  TextureFormat
}

func (t *wgpuTexture) Size() image.Point     { return t.size }
func (t *wgpuTexture) Format() TextureFormat { return t.format }

func (t *wgpuTexture) release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

type wgpuFramebuffer struct {
	color       *wgpuTexture
	stencil     *wgpu.Texture
	stencilView *wgpu.TextureView
}

func (fb *wgpuFramebuffer) Texture() Texture { return fb.color }

const stencilFormat = wgpu.TextureFormatDepth24PlusStencil8

// NewWebGPUDevice requests an adapter and device and builds the fill
// pipelines.
func NewWebGPUDevice() (*WebGPUDevice, error) {
	d := &WebGPUDevice{}
	d.instance = wgpu.CreateInstance(nil)
	if d.instance == nil {
		return nil, fmt.Errorf("failed to create wgpu instance")
	}

	var err error
	d.adapter, err = d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to request wgpu adapter: %w", err)
	}

	d.device, err = d.adapter.RequestDevice(nil)
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to request wgpu device: %w", err)
	}
	d.queue = d.device.GetQueue()

	if err := d.createPipelines(); err != nil {
		d.Release()
		return nil, err
	}
	Logger().Info("WebGPU device created")
	return d, nil
}

func (d *WebGPUDevice) createPipelines() error {
	shaderModule, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgslFillShader,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shader module: %w", err)
	}
	defer shaderModule.Release()

	d.uniformBuffer, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Projection Buffer",
		Size:  16 * 4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create uniform buffer: %w", err)
	}

	bindGroupLayout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}
	defer bindGroupLayout.Release()

	d.bindGroup, err = d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  d.uniformBuffer,
				Size:    16 * 4,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group: %w", err)
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	face := func(compare wgpu.CompareFunction, pass wgpu.StencilOperation) wgpu.StencilFaceState {
		return wgpu.StencilFaceState{
			Compare:     compare,
			FailOp:      wgpu.StencilOperationKeep,
			DepthFailOp: wgpu.StencilOperationKeep,
			PassOp:      pass,
		}
	}
	build := func(label string, front, back wgpu.StencilFaceState, writeColor bool) (*wgpu.RenderPipeline, error) {
		target := wgpu.ColorTargetState{
			Format:    wgpu.TextureFormatRGBA8Unorm,
			WriteMask: wgpu.ColorWriteMaskNone,
		}
		if writeColor {
			target.Blend = &wgpu.BlendStatePremultipliedAlphaBlending
			target.WriteMask = wgpu.ColorWriteMaskAll
		}
		p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  label,
			Layout: pipelineLayout,
			Vertex: wgpu.VertexState{
				Module:     shaderModule,
				EntryPoint: "vs_main",
				Buffers: []wgpu.VertexBufferLayout{
					{
						ArrayStride: floatsPerVertex * 4,
						Attributes: []wgpu.VertexAttribute{
							{
								Format:         wgpu.VertexFormatFloat32x2,
								Offset:         0,
								ShaderLocation: 0,
							},
							{
								Format:         wgpu.VertexFormatFloat32x4,
								Offset:         2 * 4,
								ShaderLocation: 1,
							},
						},
					},
				},
			},
			Fragment: &wgpu.FragmentState{
				Module:     shaderModule,
				EntryPoint: "fs_main",
				Targets:    []wgpu.ColorTargetState{target},
			},
			Primitive: wgpu.PrimitiveState{
				Topology: wgpu.PrimitiveTopologyTriangleList,
				CullMode: wgpu.CullModeNone,
			},
			DepthStencil: &wgpu.DepthStencilState{
				Format:            stencilFormat,
				DepthWriteEnabled: false,
				DepthCompare:      wgpu.CompareFunctionAlways,
				StencilFront:      front,
				StencilBack:       back,
				StencilReadMask:   0xff,
				StencilWriteMask:  0xff,
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %v pipeline: %w", label, err)
		}
		return p, nil
	}

	always := wgpu.CompareFunctionAlways
	if d.stencilNonZero, err = build("non-zero stencil",
		face(always, wgpu.StencilOperationIncrementWrap),
		face(always, wgpu.StencilOperationDecrementWrap), false); err != nil {
		return err
	}
	invert := face(always, wgpu.StencilOperationInvert)
	if d.stencilEvenOdd, err = build("even-odd stencil", invert, invert, false); err != nil {
		return err
	}
	cover := face(wgpu.CompareFunctionNotEqual, wgpu.StencilOperationZero)
	if d.cover, err = build("cover", cover, cover, true); err != nil {
		return err
	}
	return nil
}

func (d *WebGPUDevice) CreateTexture(format TextureFormat, size image.Point) (Texture, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if format != RGBA8 {
		return nil, fmt.Errorf("WebGPU device: unsupported texture format %v", format)
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Target Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(size.X),
			Height:             uint32(size.Y),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create target texture: %w: %v", ErrOutOfMemory, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view: %w", err)
	}
	return &wgpuTexture{texture: tex, view: view, size: size, format: format}, nil
}

func (d *WebGPUDevice) CreateFramebuffer(tex Texture) (Framebuffer, error) {
	wt, ok := tex.(*wgpuTexture)
	if !ok {
		return nil, fmt.Errorf("WebGPU device: %w", ErrForeignFramebuffer)
	}
	stencil, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Stencil Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(wt.size.X),
			Height:             uint32(wt.size.Y),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        stencilFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stencil texture: %w: %v", ErrOutOfMemory, err)
	}
	view, err := stencil.CreateView(nil)
	if err != nil {
		stencil.Release()
		return nil, fmt.Errorf("failed to create stencil view: %w", err)
	}
	return &wgpuFramebuffer{color: wt, stencil: stencil, stencilView: view}, nil
}

func (d *WebGPUDevice) DestroyTexture(tex Texture) {
	if wt, ok := tex.(*wgpuTexture); ok {
		wt.release()
	}
}

func (d *WebGPUDevice) DestroyFramebuffer(fb Framebuffer) {
	wfb, ok := fb.(*wgpuFramebuffer)
	if !ok {
		return
	}
	if wfb.stencilView != nil {
		wfb.stencilView.Release()
		wfb.stencilView = nil
	}
	if wfb.stencil != nil {
		wfb.stencil.Release()
		wfb.stencil = nil
	}
	wfb.color.release()
}

func (d *WebGPUDevice) Draw(fb Framebuffer, pass *Pass) error {
	wfb, ok := fb.(*wgpuFramebuffer)
	if !ok || wfb.color.texture == nil {
		return fmt.Errorf("WebGPU device: %w", ErrForeignFramebuffer)
	}
	m := buildMesh(pass.Paths)
	proj := projection(wfb.color.size, pass.Size, false)
	d.queue.WriteBuffer(d.uniformBuffer, 0, wgpu.ToBytes(proj[:]))

	var vertexBuffer *wgpu.Buffer
	if len(m.batches) > 0 {
		var err error
		vertexBuffer, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "Vertex Buffer",
			Contents: wgpu.ToBytes(m.vertices),
			Usage:    wgpu.BufferUsageVertex,
		})
		if err != nil {
			return fmt.Errorf("failed to create vertex buffer: %w", err)
		}
		defer vertexBuffer.Release()
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	var bg wgpu.Color
	if pass.Background != nil {
		b := *pass.Background
		bg = wgpu.Color{R: float64(b[0]), G: float64(b[1]), B: float64(b[2]), A: float64(b[3])}
	}
	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       wfb.color.view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: bg,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              wfb.stencilView,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpDiscard,
			DepthClearValue:   1,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})
	if vertexBuffer != nil {
		renderPass.SetBindGroup(0, d.bindGroup, nil)
		renderPass.SetVertexBuffer(0, vertexBuffer, 0, vertexBuffer.GetSize())
		renderPass.SetStencilReference(0)
		for _, b := range m.batches {
			if b.fillRule == EvenOdd {
				renderPass.SetPipeline(d.stencilEvenOdd)
			} else {
				renderPass.SetPipeline(d.stencilNonZero)
			}
			renderPass.Draw(uint32(b.fanCount), 1, uint32(b.fanFirst), 0)
			renderPass.SetPipeline(d.cover)
			renderPass.Draw(6, 1, uint32(b.coverFirst), 0)
		}
	}
	if err := renderPass.End(); err != nil {
		renderPass.Release()
		return err
	}
	renderPass.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// ReadPixels copies rect into a mappable buffer and polls the device until
// the mapping completes.
func (d *WebGPUDevice) ReadPixels(fb Framebuffer, rect image.Rectangle) (TextureData, error) {
	wfb, ok := fb.(*wgpuFramebuffer)
	if !ok || wfb.color.texture == nil {
		return TextureData{}, fmt.Errorf("WebGPU device: %w", ErrForeignFramebuffer)
	}
	if !rect.In(image.Rectangle{Max: wfb.color.size}) {
		return TextureData{}, fmt.Errorf("WebGPU device: read rect %v outside target %v", rect, wfb.color.size)
	}
	width, height := rect.Dx(), rect.Dy()
	bytesPerRow := (uint32(width*4) + 255) &^ 255
	size := uint64(bytesPerRow) * uint64(height)

	readBuffer, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Read Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return TextureData{}, fmt.Errorf("failed to create read buffer: %w: %v", ErrOutOfMemory, err)
	}
	defer readBuffer.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return TextureData{}, err
	}
	src := wfb.color.texture.AsImageCopy()
	src.Origin = wgpu.Origin3D{X: uint32(rect.Min.X), Y: uint32(rect.Min.Y)}
	encoder.CopyTextureToBuffer(
		src,
		&wgpu.ImageCopyBuffer{
			Buffer: readBuffer,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: uint32(height),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
	commandBuffer, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		return TextureData{}, err
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()

	done := make(chan struct{})
	var mapStatus wgpu.BufferMapAsyncStatus
	readBuffer.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		mapStatus = status
		close(done)
	})
	for mapped := false; !mapped; {
		d.device.Poll(false, nil)
		select {
		case <-done:
			mapped = true
		default:
		}
	}
	if mapStatus != wgpu.BufferMapAsyncStatusSuccess {
		return TextureData{}, fmt.Errorf("failed to map read buffer: %v", mapStatus)
	}

	data := readBuffer.GetMappedRange(0, uint(size))
	stride := width * 4
	pix := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		srcStart := uint64(y) * uint64(bytesPerRow)
		copy(pix[y*stride:(y+1)*stride], data[srcStart:srcStart+uint64(stride)])
	}
	readBuffer.Unmap()

	return TextureData{Format: wfb.color.format, Pixels: pix}, nil
}

func (d *WebGPUDevice) Release() {
	for _, p := range []**wgpu.RenderPipeline{&d.cover, &d.stencilEvenOdd, &d.stencilNonZero} {
		if *p != nil {
			(*p).Release()
			*p = nil
		}
	}
	if d.bindGroup != nil {
		d.bindGroup.Release()
		d.bindGroup = nil
	}
	if d.uniformBuffer != nil {
		d.uniformBuffer.Release()
		d.uniformBuffer = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

const wgslFillShader = `
struct Uniforms {
    projection: mat4x4f,
};

@group(0) @binding(0) var<uniform> uniforms: Uniforms;

struct VertexOutput {
    @builtin(position) position: vec4f,
    @location(0) color: vec4f,
};

@vertex
fn vs_main(@location(0) pos: vec2f, @location(1) color: vec4f) -> VertexOutput {
    var out: VertexOutput;
    out.position = uniforms.projection * vec4f(pos, 0.0, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(@location(0) color: vec4f) -> @location(0) vec4f {
    return color;
}
`
