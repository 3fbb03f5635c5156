package renderer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// handleIDs numbers every wgpu handle so bind group cache keys never alias a released handle.
var handleIDs atomic.Uint64

type wgpuDevice struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	width, height uint32

	// frame state
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameDepth   bool

	// bound state, resolved into a pipeline and bind groups on each draw
	vs       *wgpuStage
	ps       *wgpuStage
	vb, ib   *wgpuBuffer
	stride   uint64
	topology device.Topology
	bound    map[bindSlot]bindResource

	pipelines  map[pipelineKey]*wgpuPipeline
	bindGroups map[string]*cachedBindGroup
}

type bindSlot struct {
	group, binding uint32
}

type bindResource struct {
	id      uint64
	buffer  *wgpuBuffer
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

type pipelineKey struct {
	vs, ps   uint64
	topology device.Topology
	depth    bool
}

type wgpuPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	groups   []*wgpu.BindGroupLayout
	entries  [][]wgpu.BindGroupLayoutEntry
	handles  []uint64
}

type cachedBindGroup struct {
	group   *wgpu.BindGroup
	handles []uint64
}

var _ device.Device = &wgpuDevice{}

// NewWGPUDevice creates a WebGPU device presenting to the surface described by cfg.Target, which must be a
// *wgpu.SurfaceDescriptor (see window.Window.SurfaceDescriptor).
//
// Parameters:
//   - cfg: the surface size, target and present mode
//
// Returns:
//   - device.Device: the device with a configured surface
//   - error: an error if no adapter or device could be acquired
func NewWGPUDevice(cfg device.Config) (device.Device, error) {
	descriptor, ok := cfg.Target.(*wgpu.SurfaceDescriptor)
	if !ok || descriptor == nil {
		return nil, fmt.Errorf("wgpu: target %T is not a *wgpu.SurfaceDescriptor", cfg.Target)
	}

	d := &wgpuDevice{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		bound:       make(map[bindSlot]bindResource),
		pipelines:   make(map[pipelineKey]*wgpuPipeline),
		bindGroups:  make(map[string]*cachedBindGroup),
	}
	if cfg.VSync {
		d.presentMode = wgpu.PresentModeFifo
	}
	d.surface = d.instance.CreateSurface(descriptor)

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("wgpu: request adapter: %w", err)
	}
	d.adapter = adapter

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "Overlay Device"})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	capabilities := d.surface.GetCapabilities(d.adapter)
	if len(capabilities.Formats) == 0 {
		d.Release()
		return nil, errors.New("wgpu: surface reports no formats")
	}
	d.surfaceFormat = capabilities.Formats[0]
	d.alphaMode = capabilities.AlphaModes[0]
	for _, mode := range capabilities.AlphaModes {
		if mode == wgpu.CompositeAlphaModePremultiplied {
			d.alphaMode = mode
		}
	}
	d.configureSurface(cfg.Width, cfg.Height)
	return d, nil
}

func (d *wgpuDevice) configureSurface(width, height uint32) {
	d.width, d.height = width, height
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: d.presentMode,
		AlphaMode:   d.alphaMode,
	})
}

// classifyError maps surface errors that require a new device onto device.ErrDeviceLost.
//
// wgpu.Surface.GetCurrentTexture reports the wgpu-native surface status only as message text. The match relies on
// the status names "outdated", "lost" and "device-lost"; recheck them when upgrading github.com/cogentcore/webgpu.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "lost") || strings.Contains(msg, "outdated") {
		return fmt.Errorf("%w: %w", device.ErrDeviceLost, err)
	}
	return err
}

func (d *wgpuDevice) CreateBuffer(label string, kind device.BufferKind, data []byte) (device.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return nil, device.ErrReleased
	}
	var usage wgpu.BufferUsage
	switch kind {
	case device.BufferVertex:
		usage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case device.BufferIndex:
		usage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	default:
		usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}

	padded := padTo4(data)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(padded)),
		Usage: usage,
	})
	if err != nil {
		return nil, err
	}
	d.queue.WriteBuffer(buf, 0, padded)
	return &wgpuBuffer{owner: d, id: handleIDs.Add(1), buf: buf, size: uint64(len(data))}, nil
}

func (d *wgpuDevice) WriteBuffer(buf device.Buffer, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := buf.(*wgpuBuffer)
	if !ok || b == nil || b.buf == nil || d.device == nil {
		return device.ErrReleased
	}
	if uint64(len(data)) > b.size {
		return fmt.Errorf("wgpu: write of %d bytes into %d byte buffer", len(data), b.size)
	}
	d.queue.WriteBuffer(b.buf, 0, padTo4(data))
	return nil
}

func (d *wgpuDevice) CreateTexture(label string, staged common.TextureStagingData) (device.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return nil, device.ErrReleased
	}
	if staged.Width == 0 || staged.Height == 0 {
		return nil, fmt.Errorf("wgpu: texture %s: %w", label, common.ErrEmptyImage)
	}
	size := wgpu.Extent3D{Width: staged.Width, Height: staged.Height, DepthOrArrayLayers: 1}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staged.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staged.BytesPerRow(),
			RowsPerImage: staged.Height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuTexture{owner: d, id: handleIDs.Add(1), tex: tex, view: view, width: staged.Width, height: staged.Height}, nil
}

func (d *wgpuDevice) CreateSampler(desc device.SamplerDescriptor) (device.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return nil, device.ErrReleased
	}
	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  toAddressMode(desc.AddressU),
		AddressModeV:  toAddressMode(desc.AddressV),
		AddressModeW:  toAddressMode(desc.AddressW),
		MagFilter:     toFilterMode(desc.MagFilter),
		MinFilter:     toFilterMode(desc.MinFilter),
		MipmapFilter:  toMipmapFilterMode(desc.MipmapFilter),
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: common.Coalesce(desc.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, err
	}
	return &wgpuSampler{owner: d, id: handleIDs.Add(1), sampler: samp}, nil
}

func (d *wgpuDevice) CreateVertexStage(label, source, entryPoint string, layout device.VertexLayout) (device.VertexStage, error) {
	return d.createStage(label, source, entryPoint, shader.ShaderTypeVertex, layout)
}

func (d *wgpuDevice) CreatePixelStage(label, source, entryPoint string) (device.PixelStage, error) {
	return d.createStage(label, source, entryPoint, shader.ShaderTypeFragment, device.VertexLayout{})
}

func (d *wgpuDevice) createStage(label, source, entryPoint string, shaderType shader.ShaderType, layout device.VertexLayout) (*wgpuStage, error) {
	reflected, err := shader.NewShader(label, shaderType, source)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return nil, device.ErrReleased
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuStage{
		owner:      d,
		id:         handleIDs.Add(1),
		module:     module,
		entryPoint: entryPoint,
		layout:     layout,
		bindings:   reflected.Bindings(),
		shaderType: shaderType,
	}, nil
}

func (d *wgpuDevice) CreateDepthBuffer(width, height uint32) (device.DepthBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return nil, device.ErrReleased
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuDepth{tex: tex, view: view, width: width, height: height}, nil
}

func (d *wgpuDevice) BeginSurface() (device.SurfaceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return device.SurfaceInfo{}, device.ErrReleased
	}
	if d.frameSurface != nil {
		return device.SurfaceInfo{}, errors.New("wgpu: previous frame surface not yet presented")
	}

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return device.SurfaceInfo{}, classifyError(err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return device.SurfaceInfo{}, classifyError(err)
	}
	d.frameSurface = surfaceTexture
	d.frameView = view
	return device.SurfaceInfo{Width: d.width, Height: d.height}, nil
}

func (d *wgpuDevice) Clear(color device.Color, depth device.DepthBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameView == nil {
		return device.ErrNoPass
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return classifyError(err)
	}

	descriptor := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       d.frameView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: color.R, G: color.G, B: color.B, A: color.A},
			},
		},
	}
	d.frameDepth = false
	if dep, ok := depth.(*wgpuDepth); ok && dep != nil && dep.view != nil {
		descriptor.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            dep.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
		d.frameDepth = true
	}

	d.frameEncoder = encoder
	d.framePass = encoder.BeginRenderPass(descriptor)
	return nil
}

func (d *wgpuDevice) SetVertexStage(vs device.VertexStage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vs, _ = vs.(*wgpuStage)
}

func (d *wgpuDevice) SetPixelStage(ps device.PixelStage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ps, _ = ps.(*wgpuStage)
}

func (d *wgpuDevice) SetUniform(_ device.Stage, slot device.Slot, buf device.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := buf.(*wgpuBuffer)
	if !ok || b == nil {
		return
	}
	d.bound[bindSlot{slot.Group, slot.Binding}] = bindResource{id: b.id, buffer: b}
}

func (d *wgpuDevice) SetTexture(_ device.Stage, slot device.TextureSlot, tex device.Texture, sampler device.Sampler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := tex.(*wgpuTexture); ok && t != nil {
		d.bound[bindSlot{slot.Group, slot.Binding}] = bindResource{id: t.id, view: t.view}
	}
	if s, ok := sampler.(*wgpuSampler); ok && s != nil && slot.HasSampler {
		d.bound[bindSlot{slot.Group, slot.SamplerBinding}] = bindResource{id: s.id, sampler: s.sampler}
	}
}

func (d *wgpuDevice) SetMesh(vertices, indices device.Buffer, stride uint64, topology device.Topology) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.vb, _ = vertices.(*wgpuBuffer)
	d.ib, _ = indices.(*wgpuBuffer)
	d.stride = stride
	d.topology = topology
}

func (d *wgpuDevice) DrawIndexed(indexCount uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.framePass == nil {
		return device.ErrNoPass
	}
	if d.vs == nil || d.ps == nil || d.vb == nil || d.ib == nil {
		return errors.New("wgpu: draw with incomplete state")
	}
	if d.vs.module == nil || d.ps.module == nil || d.vb.buf == nil || d.ib.buf == nil {
		return fmt.Errorf("wgpu: draw: %w", device.ErrReleased)
	}

	p, err := d.pipelineFor(pipelineKey{vs: d.vs.id, ps: d.ps.id, topology: d.topology, depth: d.frameDepth})
	if err != nil {
		return err
	}
	d.framePass.SetPipeline(p.pipeline)

	for g := range p.groups {
		group, err := d.bindGroupFor(p, uint32(g))
		if err != nil {
			return err
		}
		d.framePass.SetBindGroup(uint32(g), group, nil)
	}

	d.framePass.SetVertexBuffer(0, d.vb.buf, 0, wgpu.WholeSize)
	d.framePass.SetIndexBuffer(d.ib.buf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	d.framePass.DrawIndexed(indexCount, 1, 0, 0, 0)
	return nil
}

func (d *wgpuDevice) pipelineFor(key pipelineKey) (*wgpuPipeline, error) {
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}

	merged := mergeBindGroupLayouts(d.vs.layoutEntries(), d.ps.layoutEntries())
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, int(g))
	}
	p := &wgpuPipeline{
		groups:  make([]*wgpu.BindGroupLayout, maxGroup+1),
		entries: make([][]wgpu.BindGroupLayoutEntry, maxGroup+1),
		handles: []uint64{d.vs.id, d.ps.id},
	}
	for g := range p.groups {
		entries := merged[uint32(g)]
		layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("group %d", g),
			Entries: entries,
		})
		if err != nil {
			p.release()
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		p.groups[g] = layout
		p.entries[g] = entries
	}

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: p.groups,
	})
	if err != nil {
		p.release()
		return nil, err
	}
	p.layout = layout

	var buffers []wgpu.VertexBufferLayout
	if !d.vs.layout.IsZero() {
		buffers = []wgpu.VertexBufferLayout{toVertexBufferLayout(d.vs.layout)}
	}

	var depthStencil *wgpu.DepthStencilState
	if key.depth {
		depthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     d.vs.module,
			EntryPoint: d.vs.entryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     d.ps.module,
			EntryPoint: d.ps.entryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format: d.surfaceFormat,
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
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  toTopology(key.topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		p.release()
		return nil, err
	}
	p.pipeline = created
	d.pipelines[key] = p
	return p, nil
}

func (d *wgpuDevice) bindGroupFor(p *wgpuPipeline, group uint32) (*wgpu.BindGroup, error) {
	entries := p.entries[group]
	resources := make([]bindResource, len(entries))
	var key strings.Builder
	fmt.Fprintf(&key, "%p/%d", p.groups[group], group)
	for i, e := range entries {
		res, ok := d.bound[bindSlot{group, e.Binding}]
		if !ok {
			return nil, fmt.Errorf("wgpu: nothing bound to group %d binding %d", group, e.Binding)
		}
		resources[i] = res
		fmt.Fprintf(&key, ":%d", res.id)
	}
	if cached, ok := d.bindGroups[key.String()]; ok {
		return cached.group, nil
	}

	bindEntries := make([]wgpu.BindGroupEntry, len(entries))
	handles := make([]uint64, 0, len(entries)+2)
	handles = append(handles, p.handles...)
	for i, e := range entries {
		res := resources[i]
		switch {
		case res.buffer != nil:
			bindEntries[i] = wgpu.BindGroupEntry{Binding: e.Binding, Buffer: res.buffer.buf, Offset: 0, Size: wgpu.WholeSize}
		case res.view != nil:
			bindEntries[i] = wgpu.BindGroupEntry{Binding: e.Binding, TextureView: res.view}
		case res.sampler != nil:
			bindEntries[i] = wgpu.BindGroupEntry{Binding: e.Binding, Sampler: res.sampler}
		}
		handles = append(handles, res.id)
	}

	created, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  p.groups[group],
		Entries: bindEntries,
	})
	if err != nil {
		return nil, err
	}
	d.bindGroups[key.String()] = &cachedBindGroup{group: created, handles: handles}
	return created, nil
}

// forget drops every cached pipeline and bind group that references the handle id.
func (d *wgpuDevice) forget(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, bg := range d.bindGroups {
		for _, h := range bg.handles {
			if h == id {
				bg.group.Release()
				delete(d.bindGroups, key)
				break
			}
		}
	}
	for key, p := range d.pipelines {
		if key.vs == id || key.ps == id {
			p.release()
			delete(d.pipelines, key)
		}
	}
	for slot, res := range d.bound {
		if res.id == id {
			delete(d.bound, slot)
		}
	}
}

func (d *wgpuDevice) Present() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameSurface == nil {
		return device.ErrNoPass
	}
	defer d.releaseFrame()

	if d.framePass != nil {
		d.framePass.End()
		d.framePass.Release()
		d.framePass = nil
	}
	if d.frameEncoder != nil {
		commandBuffer, err := d.frameEncoder.Finish(nil)
		if err != nil {
			return classifyError(err)
		}
		d.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	d.surface.Present()
	return nil
}

func (d *wgpuDevice) releaseFrame() {
	if d.framePass != nil {
		d.framePass.Release()
		d.framePass = nil
	}
	if d.frameEncoder != nil {
		d.frameEncoder.Release()
		d.frameEncoder = nil
	}
	if d.frameView != nil {
		d.frameView.Release()
		d.frameView = nil
	}
	if d.frameSurface != nil {
		d.frameSurface.Release()
		d.frameSurface = nil
	}
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.releaseFrame()
	for key, bg := range d.bindGroups {
		bg.group.Release()
		delete(d.bindGroups, key)
	}
	for key, p := range d.pipelines {
		p.release()
		delete(d.pipelines, key)
	}
	d.bound = make(map[bindSlot]bindResource)
	d.vs, d.ps, d.vb, d.ib = nil, nil, nil, nil

	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func (p *wgpuPipeline) release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for i, g := range p.groups {
		if g != nil {
			g.Release()
			p.groups[i] = nil
		}
	}
}

type wgpuBuffer struct {
	owner *wgpuDevice
	id    uint64
	buf   *wgpu.Buffer
	size  uint64
}

func (b *wgpuBuffer) Size() uint64 { return b.size }

func (b *wgpuBuffer) Release() {
	if b.buf == nil {
		return
	}
	b.owner.forget(b.id)
	b.buf.Release()
	b.buf = nil
}

type wgpuTexture struct {
	owner         *wgpuDevice
	id            uint64
	tex           *wgpu.Texture
	view          *wgpu.TextureView
	width, height uint32
}

func (t *wgpuTexture) Width() uint32  { return t.width }
func (t *wgpuTexture) Height() uint32 { return t.height }

func (t *wgpuTexture) Release() {
	if t.tex == nil {
		return
	}
	t.owner.forget(t.id)
	t.view.Release()
	t.tex.Release()
	t.view, t.tex = nil, nil
}

type wgpuSampler struct {
	owner   *wgpuDevice
	id      uint64
	sampler *wgpu.Sampler
}

func (s *wgpuSampler) Release() {
	if s.sampler == nil {
		return
	}
	s.owner.forget(s.id)
	s.sampler.Release()
	s.sampler = nil
}

type wgpuStage struct {
	owner      *wgpuDevice
	id         uint64
	module     *wgpu.ShaderModule
	entryPoint string
	layout     device.VertexLayout
	bindings   []shader.Binding
	shaderType shader.ShaderType
}

func (s *wgpuStage) Release() {
	if s.module == nil {
		return
	}
	s.owner.forget(s.id)
	s.module.Release()
	s.module = nil
}

// layoutEntries builds bind group layout entries per group from the reflected bindings of the stage.
func (s *wgpuStage) layoutEntries() map[uint32][]wgpu.BindGroupLayoutEntry {
	visibility := wgpu.ShaderStageVertex
	if s.shaderType == shader.ShaderTypeFragment {
		visibility = wgpu.ShaderStageFragment
	}
	out := make(map[uint32][]wgpu.BindGroupLayoutEntry)
	for _, b := range s.bindings {
		entry := wgpu.BindGroupLayoutEntry{Binding: b.Binding, Visibility: visibility}
		switch b.Kind {
		case shader.ResourceUniform:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: b.Size}
		case shader.ResourceStorage:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: b.Size}
		case shader.ResourceTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case shader.ResourceSampler:
			entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		default:
			continue
		}
		out[b.Group] = append(out[b.Group], entry)
	}
	return out
}

type wgpuDepth struct {
	tex           *wgpu.Texture
	view          *wgpu.TextureView
	width, height uint32
}

func (d *wgpuDepth) Width() uint32  { return d.width }
func (d *wgpuDepth) Height() uint32 { return d.height }

func (d *wgpuDepth) Release() {
	if d.tex == nil {
		return
	}
	d.view.Release()
	d.tex.Release()
	d.view, d.tex = nil, nil
}

func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[uint32][]wgpu.BindGroupLayoutEntry) map[uint32][]wgpu.BindGroupLayoutEntry {
	merged := make(map[uint32][]wgpu.BindGroupLayoutEntry)
	for _, layouts := range []map[uint32][]wgpu.BindGroupLayoutEntry{vertexLayouts, fragmentLayouts} {
		for g, entries := range layouts {
			byBinding := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range merged[g] {
				byBinding[e.Binding] = e
			}
			for _, e := range entries {
				if existing, ok := byBinding[e.Binding]; ok {
					// same binding in both stages, OR the visibility
					existing.Visibility |= e.Visibility
					byBinding[e.Binding] = existing
					continue
				}
				byBinding[e.Binding] = e
			}
			flat := make([]wgpu.BindGroupLayoutEntry, 0, len(byBinding))
			for _, e := range byBinding {
				flat = append(flat, e)
			}
			sort.Slice(flat, func(i, j int) bool {
				return flat[i].Binding < flat[j].Binding
			})
			merged[g] = flat
		}
	}
	return merged
}

func toVertexBufferLayout(layout device.VertexLayout) wgpu.VertexBufferLayout {
	attributes := make([]wgpu.VertexAttribute, len(layout.Attributes))
	for i, a := range layout.Attributes {
		attributes[i] = wgpu.VertexAttribute{
			Format:         toVertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: layout.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}
}

func toVertexFormat(f device.VertexFormat) wgpu.VertexFormat {
	switch f {
	case device.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32
	case device.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case device.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}

func toTopology(t device.Topology) wgpu.PrimitiveTopology {
	switch t {
	case device.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case device.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func toAddressMode(m device.AddressMode) wgpu.AddressMode {
	switch m {
	case device.AddressClampToEdge:
		return wgpu.AddressModeClampToEdge
	case device.AddressMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

func toFilterMode(m device.FilterMode) wgpu.FilterMode {
	if m == device.FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func toMipmapFilterMode(m device.FilterMode) wgpu.MipmapFilterMode {
	if m == device.FilterNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

// padTo4 returns data padded with zeros to a multiple of four bytes, as queue writes require.
func padTo4(data []byte) []byte {
	if len(data)%4 == 0 && len(data) > 0 {
		return data
	}
	padded := make([]byte, max(4, (len(data)+3)&^3))
	copy(padded, data)
	return padded
}
