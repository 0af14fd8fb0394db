package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

type wgpuBackendImpl struct {
	mu  *sync.Mutex
	log *zap.Logger

	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	sampleCount          MSAASampleCount

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surface *wgpuSurfaceImpl
}

// WGPUBackend is the WebGPU implementation of Backend bound to one native window.
// The GPU device is requested lazily by CreateSurface and lives until Release.
type WGPUBackend interface {
	Backend

	// Release frees the device, adapter and instance.
	// Resources created through the backend must be released first.
	Release()
}

var _ WGPUBackend = &wgpuBackendImpl{}

// NewWGPUBackend creates a WebGPU backend for the native surface described by surfaceDescriptor,
// typically obtained from Window.SurfaceDescriptor().
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - WGPUBackend: the backend
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...BackendBuilderOption) WGPUBackend {
	b := &wgpuBackendImpl{
		mu:                &sync.Mutex{},
		log:               zap.NewNop(),
		surfaceDescriptor: surfaceDescriptor,
		presentMode:       wgpu.PresentModeFifo,
		sampleCount:       MSAA4x,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// initDevice requests the adapter and device on first use. Caller must hold the mutex.
func (b *wgpuBackendImpl) initDevice() error {
	if b.device != nil {
		return nil
	}
	if b.surfaceDescriptor == nil {
		return fmt.Errorf("%w: missing native surface descriptor", ErrNoRenderingContext)
	}
	if b.instance == nil {
		b.instance = wgpu.CreateInstance(nil)
	}

	// the adapter must be compatible with the window surface, so the surface is
	// created here and handed over to the first CreateSurface call
	surface := b.instance.CreateSurface(b.surfaceDescriptor)
	if surface == nil {
		return fmt.Errorf("%w: surface creation failed", ErrNoRenderingContext)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    surface,
	})
	if err != nil {
		surface.Release()
		return fmt.Errorf("%w: request adapter: %v", ErrNoRenderingContext, err)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		surface.Release()
		a.Release()
		return fmt.Errorf("%w: request device: %v", ErrNoRenderingContext, err)
	}

	b.adapter = a
	b.device = d
	b.queue = d.GetQueue()
	b.surface = &wgpuSurfaceImpl{backend: b, surface: surface, released: true}
	b.log.Debug("webgpu device ready", zap.Bool("fallback", b.forceFallbackAdapter))
	return nil
}

func (b *wgpuBackendImpl) CreateSurface(desc SurfaceDescriptor) (Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", desc.Width, desc.Height)
	}
	if err := b.initDevice(); err != nil {
		return nil, err
	}
	if b.surface != nil && !b.surface.released {
		return nil, errors.New("webgpu backend already has a live surface")
	}

	s := b.surface
	if s == nil || s.surface == nil {
		s = &wgpuSurfaceImpl{backend: b, surface: b.instance.CreateSurface(b.surfaceDescriptor)}
		if s.surface == nil {
			return nil, fmt.Errorf("%w: surface creation failed", ErrNoRenderingContext)
		}
	}
	s.label = desc.Label
	s.pixelRatio = common.Coalesce(desc.PixelRatio, 1)
	s.background = desc.Background
	s.released = false

	b.surface = s
	if err := s.init(desc.Width, desc.Height); err != nil {
		s.releaseLocked()
		return nil, err
	}
	return s, nil
}

func (b *wgpuBackendImpl) CreateGeometry(label string, count int) (Geometry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if count <= 0 {
		return nil, fmt.Errorf("invalid point count %d", count)
	}
	if b.device == nil {
		return nil, fmt.Errorf("create geometry %q: %w", label, ErrNoRenderingContext)
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(count * 3 * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuGeometryImpl{backend: b, label: label, count: count, buffer: buf}, nil
}

func (b *wgpuBackendImpl) CreateMaterial(label string, desc MaterialDescriptor) (Material, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || b.surface.released {
		return nil, fmt.Errorf("create material %q: no live surface", label)
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Uniform Buffer",
		Size:  pointUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	m := &wgpuMaterialImpl{backend: b, label: label, desc: desc, uniform: buf}
	if err := m.bind(nil); err != nil {
		buf.Release()
		return nil, err
	}
	return m, nil
}

func (b *wgpuBackendImpl) CreateTexture(label string, data common.TextureStagingData) (Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !data.Valid() {
		return nil, fmt.Errorf("create texture %q: invalid staging data", label)
	}
	if b.device == nil {
		return nil, fmt.Errorf("create texture %q: %w", label, ErrNoRenderingContext)
	}
	return b.uploadTexture(label, data)
}

// uploadTexture creates an RGBA texture and view from staging data. Caller must hold the mutex.
func (b *wgpuBackendImpl) uploadTexture(label string, data common.TextureStagingData) (*wgpuTextureImpl, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuTextureImpl{backend: b, label: label, texture: tex, view: view, width: data.Width, height: data.Height}, nil
}

func (b *wgpuBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface != nil && b.surface.surface != nil {
		b.surface.releaseLocked()
		b.surface.surface.Release()
		b.surface.surface = nil
	}
	b.surface = nil
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// wgpuSurfaceImpl owns the swapchain configuration, the MSAA and depth targets and the
// point pipeline, all of which depend on the surface format.
type wgpuSurfaceImpl struct {
	backend *wgpuBackendImpl

	label      string
	surface    *wgpu.Surface
	format     wgpu.TextureFormat
	width      int
	height     int
	pixelRatio float32
	background [4]float32
	released   bool

	msaaTexture      *wgpu.Texture
	msaaTextureView  *wgpu.TextureView
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	shader         *wgpu.ShaderModule
	layout         *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipeline       *wgpu.RenderPipeline
	sampler        *wgpu.Sampler
	white          *wgpuTextureImpl
}

var _ Surface = &wgpuSurfaceImpl{}

// init configures the swapchain and builds the pipeline. Caller must hold the backend mutex.
func (s *wgpuSurfaceImpl) init(width, height int) error {
	b := s.backend
	capabilities := s.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("%w: surface reports no formats", ErrNoRenderingContext)
	}
	s.format = capabilities.Formats[0]

	if err := s.configure(width, height, capabilities.AlphaModes[0]); err != nil {
		return err
	}

	var err error
	s.shader, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "points",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: pointShaderSource,
		},
	})
	if err != nil {
		return err
	}

	s.layout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "points",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: pointUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return err
	}

	s.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "points",
		BindGroupLayouts: []*wgpu.BindGroupLayout{s.layout},
	})
	if err != nil {
		return err
	}

	s.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "points Render Pipeline",
		Layout: s.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     s.shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 3 * 4,
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     s.shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    s.format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		// transparent sprites test against depth but never write it
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	s.sampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "points Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	s.white, err = b.uploadTexture("white", common.TextureStagingData{
		Pixels: []byte{0xff, 0xff, 0xff, 0xff},
		Width:  1,
		Height: 1,
	})
	return err
}

// configure (re)creates the swapchain and the size-dependent render targets.
// Caller must hold the backend mutex.
func (s *wgpuSurfaceImpl) configure(width, height int, alphaMode wgpu.CompositeAlphaMode) error {
	b := s.backend
	s.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   alphaMode,
	})
	s.width, s.height = width, height
	s.releaseTargets()

	count := uint32(b.sampleCount)
	if count > 1 {
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        s.format,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return err
		}
		s.msaaTexture = tex
		if s.msaaTextureView, err = tex.CreateView(nil); err != nil {
			return err
		}
	}

	// depth sample count must match the color attachment
	depth, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	s.depthTexture = depth
	s.depthTextureView, err = depth.CreateView(nil)
	return err
}

func (s *wgpuSurfaceImpl) releaseTargets() {
	if s.msaaTextureView != nil {
		s.msaaTextureView.Release()
		s.msaaTextureView = nil
	}
	if s.msaaTexture != nil {
		s.msaaTexture.Release()
		s.msaaTexture = nil
	}
	if s.depthTextureView != nil {
		s.depthTextureView.Release()
		s.depthTextureView = nil
	}
	if s.depthTexture != nil {
		s.depthTexture.Release()
		s.depthTexture = nil
	}
}

func (s *wgpuSurfaceImpl) Label() string {
	return s.label
}

func (s *wgpuSurfaceImpl) Size() (width, height int) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.width, s.height
}

func (s *wgpuSurfaceImpl) PixelRatio() float32 {
	return s.pixelRatio
}

func (s *wgpuSurfaceImpl) Background() [4]float32 {
	return s.background
}

func (s *wgpuSurfaceImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if s.released || (width == s.width && height == s.height) {
		return
	}
	capabilities := s.surface.GetCapabilities(s.backend.adapter)
	if err := s.configure(width, height, capabilities.AlphaModes[0]); err != nil {
		s.backend.log.Error("surface resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
	}
}

func (s *wgpuSurfaceImpl) Draw(frame Frame) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.released {
		return ErrReleased
	}

	surfaceTexture, err := s.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	// with MSAA the multisampled texture is drawn into and resolved into the swapchain view
	colorAttachment := wgpu.RenderPassColorAttachment{
		View:    view,
		LoadOp:  wgpu.LoadOpClear,
		StoreOp: wgpu.StoreOpStore,
		ClearValue: wgpu.Color{
			R: float64(s.background[0]),
			G: float64(s.background[1]),
			B: float64(s.background[2]),
			A: float64(s.background[3]),
		},
	}
	if s.msaaTextureView != nil {
		colorAttachment.View = s.msaaTextureView
		colorAttachment.ResolveTarget = view
		colorAttachment.StoreOp = wgpu.StoreOpDiscard
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{colorAttachment},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            s.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	pass.SetPipeline(s.pipeline)
	for _, d := range frame.Drawables {
		g, ok := d.Geometry.(*wgpuGeometryImpl)
		if !ok || g.released {
			continue
		}
		m, ok := d.Material.(*wgpuMaterialImpl)
		if !ok || m.released {
			continue
		}
		u := newPointUniform(frame.Camera, frame.Fog, m.desc, m.texture != nil)
		b.queue.WriteBuffer(m.uniform, 0, u.Marshal())

		pass.SetBindGroup(0, m.bindGroup, nil)
		pass.SetVertexBuffer(0, g.buffer, 0, wgpu.WholeSize)
		pass.Draw(6, uint32(g.count), 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	s.surface.Present()
	return nil
}

func (s *wgpuSurfaceImpl) Release() {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.releaseLocked()
}

// releaseLocked frees everything but the native surface handle, which the backend keeps
// for the next CreateSurface. Caller must hold the backend mutex.
func (s *wgpuSurfaceImpl) releaseLocked() {
	if s.released {
		return
	}
	s.released = true
	s.releaseTargets()
	if s.white != nil {
		s.white.releaseLocked()
		s.white = nil
	}
	if s.sampler != nil {
		s.sampler.Release()
		s.sampler = nil
	}
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
	if s.pipelineLayout != nil {
		s.pipelineLayout.Release()
		s.pipelineLayout = nil
	}
	if s.layout != nil {
		s.layout.Release()
		s.layout = nil
	}
	if s.shader != nil {
		s.shader.Release()
		s.shader = nil
	}
}

type wgpuGeometryImpl struct {
	backend  *wgpuBackendImpl
	label    string
	count    int
	buffer   *wgpu.Buffer
	released bool
}

var _ Geometry = &wgpuGeometryImpl{}

func (g *wgpuGeometryImpl) Label() string {
	return g.label
}

func (g *wgpuGeometryImpl) Count() int {
	return g.count
}

func (g *wgpuGeometryImpl) SetPositions(positions []float32) error {
	if len(positions) != g.count*3 {
		return fmt.Errorf("geometry %q: got %d floats, want %d", g.label, len(positions), g.count*3)
	}
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	if g.released {
		return ErrReleased
	}
	g.backend.queue.WriteBuffer(g.buffer, 0, common.SliceToBytes(positions))
	return nil
}

func (g *wgpuGeometryImpl) Release() {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	if g.released {
		return
	}
	g.released = true
	g.buffer.Release()
}

type wgpuMaterialImpl struct {
	backend   *wgpuBackendImpl
	label     string
	desc      MaterialDescriptor
	uniform   *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	texture   *wgpuTextureImpl
	released  bool
}

var _ Material = &wgpuMaterialImpl{}

// bind rebuilds the bind group with tex, or the surface's white texture when tex is nil.
// Caller must hold the backend mutex.
func (m *wgpuMaterialImpl) bind(tex *wgpuTextureImpl) error {
	s := m.backend.surface
	if s == nil || s.released {
		return fmt.Errorf("material %q: no live surface", m.label)
	}
	view := s.white.view
	if tex != nil {
		view = tex.view
	}
	bg, err := m.backend.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  m.label + " Bind Group",
		Layout: s.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.uniform, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: view},
			{Binding: 2, Sampler: s.sampler},
		},
	})
	if err != nil {
		return err
	}
	if m.bindGroup != nil {
		m.bindGroup.Release()
	}
	m.bindGroup = bg
	m.texture = tex
	return nil
}

func (m *wgpuMaterialImpl) Label() string {
	return m.label
}

func (m *wgpuMaterialImpl) Descriptor() MaterialDescriptor {
	return m.desc
}

func (m *wgpuMaterialImpl) SetTexture(tex Texture) error {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	if m.released {
		return ErrReleased
	}
	if tex == nil {
		return m.bind(nil)
	}
	t, ok := tex.(*wgpuTextureImpl)
	if !ok {
		return fmt.Errorf("material %q: texture %q was not created by the webgpu backend", m.label, tex.Label())
	}
	if t.released {
		return ErrReleased
	}
	return m.bind(t)
}

func (m *wgpuMaterialImpl) Release() {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	if m.released {
		return
	}
	m.released = true
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
	m.uniform.Release()
	m.texture = nil
}

type wgpuTextureImpl struct {
	backend  *wgpuBackendImpl
	label    string
	texture  *wgpu.Texture
	view     *wgpu.TextureView
	width    uint32
	height   uint32
	released bool
}

var _ Texture = &wgpuTextureImpl{}

func (t *wgpuTextureImpl) Label() string {
	return t.label
}

func (t *wgpuTextureImpl) Size() (width, height uint32) {
	return t.width, t.height
}

func (t *wgpuTextureImpl) Release() {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	t.releaseLocked()
}

func (t *wgpuTextureImpl) releaseLocked() {
	if t.released {
		return
	}
	t.released = true
	t.view.Release()
	t.texture.Release()
}
