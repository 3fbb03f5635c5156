// package devicetest provides an in-memory device.Device that records every call, counts live allocations and
// injects failures. It needs no GPU and is meant for unit tests of code driving the render manager.
package devicetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
)

// ErrInjected is the default error produced by failure injection.
var ErrInjected = errors.New("devicetest: injected failure")

// Tracker counts live handles across every Fake created from the same Factory.
type Tracker struct {
	mu   *sync.Mutex
	live map[string]int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{mu: &sync.Mutex{}, live: make(map[string]int)}
}

func (t *Tracker) add(kind string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live[kind] += n
}

// Live returns the number of handles created and not yet released.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.live {
		total += n
	}
	return total
}

// LiveOf returns the number of live handles of a kind: "buffer", "texture", "sampler", "vertex", "pixel" or "depth".
func (t *Tracker) LiveOf(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live[kind]
}

// Draw records one DrawIndexed call.
type Draw struct {
	IndexCount uint32
	Vertices   *Buffer
	Indices    *Buffer
}

// UniformBind records one SetUniform call.
type UniformBind struct {
	Stage  device.Stage
	Slot   device.Slot
	Buffer *Buffer
}

// TextureBind records one SetTexture call.
type TextureBind struct {
	Stage   device.Stage
	Slot    device.TextureSlot
	Texture *Texture
}

// Fake is a recording device.Device.
type Fake struct {
	Config  device.Config
	Tracker *Tracker

	// Calls is the ordered call log, one entry per state-changing call.
	Calls           []string
	VertexStageSets int
	PixelStageSets  int
	Begins          int
	Clears          int
	Presents        int
	Draws           []Draw
	Uniforms        []UniformBind
	TexturesBound   []TextureBind
	Released        bool

	beginErrs  []error
	presentErr error
	createErr  error

	inPass  bool
	surface device.SurfaceInfo
	vs      *Stage
	ps      *Stage
	vb, ib  *Buffer
}

var _ device.Device = &Fake{}

// New returns a Fake with a surface of the configured size.
func New(cfg device.Config) *Fake {
	return &Fake{
		Config:  cfg,
		Tracker: NewTracker(),
		surface: device.SurfaceInfo{Width: cfg.Width, Height: cfg.Height},
	}
}

// FailBeginSurface queues errors returned by the next BeginSurface calls, one per call.
func (f *Fake) FailBeginSurface(errs ...error) {
	f.beginErrs = append(f.beginErrs, errs...)
}

// FailPresent makes every following Present fail with err. Pass nil to clear.
func (f *Fake) FailPresent(err error) {
	f.presentErr = err
}

// FailCreate makes the next Create* call fail with err.
func (f *Fake) FailCreate(err error) {
	f.createErr = err
}

// SetSurface changes the size reported by BeginSurface.
func (f *Fake) SetSurface(width, height uint32) {
	f.surface = device.SurfaceInfo{Width: width, Height: height}
}

// DrawCount returns the number of recorded draws.
func (f *Fake) DrawCount() int {
	return len(f.Draws)
}

// ResetCounters clears the call log and counters, keeping handles and bound state.
func (f *Fake) ResetCounters() {
	f.Calls = nil
	f.VertexStageSets, f.PixelStageSets = 0, 0
	f.Begins, f.Clears, f.Presents = 0, 0, 0
	f.Draws, f.Uniforms, f.TexturesBound = nil, nil, nil
}

func (f *Fake) log(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) takeCreateErr() error {
	if f.Released {
		return device.ErrReleased
	}
	err := f.createErr
	f.createErr = nil
	return err
}

func (f *Fake) CreateBuffer(label string, kind device.BufferKind, data []byte) (device.Buffer, error) {
	if err := f.takeCreateErr(); err != nil {
		return nil, err
	}
	b := &Buffer{handle: newHandle(f.Tracker, "buffer", label), Kind: kind, Data: append([]byte(nil), data...)}
	f.log("CreateBuffer %s", label)
	return b, nil
}

func (f *Fake) WriteBuffer(buf device.Buffer, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok || b == nil {
		return fmt.Errorf("devicetest: foreign buffer %T", buf)
	}
	if b.released {
		return device.ErrReleased
	}
	if len(data) > len(b.Data) {
		return fmt.Errorf("devicetest: write of %d bytes into %d byte buffer %s", len(data), len(b.Data), b.Label)
	}
	copy(b.Data, data)
	b.Writes++
	f.log("WriteBuffer %s", b.Label)
	return nil
}

func (f *Fake) CreateTexture(label string, staged common.TextureStagingData) (device.Texture, error) {
	if err := f.takeCreateErr(); err != nil {
		return nil, err
	}
	if staged.Width == 0 || staged.Height == 0 {
		return nil, fmt.Errorf("devicetest: empty texture %s", label)
	}
	t := &Texture{handle: newHandle(f.Tracker, "texture", label), width: staged.Width, height: staged.Height}
	f.log("CreateTexture %s", label)
	return t, nil
}

func (f *Fake) CreateSampler(desc device.SamplerDescriptor) (device.Sampler, error) {
	if err := f.takeCreateErr(); err != nil {
		return nil, err
	}
	s := &Sampler{handle: newHandle(f.Tracker, "sampler", desc.Label), Desc: desc}
	f.log("CreateSampler %s", desc.Label)
	return s, nil
}

func (f *Fake) CreateVertexStage(label, source, entryPoint string, layout device.VertexLayout) (device.VertexStage, error) {
	if err := f.takeCreateErr(); err != nil {
		return nil, err
	}
	s := &Stage{handle: newHandle(f.Tracker, "vertex", label), EntryPoint: entryPoint, Layout: layout}
	f.log("CreateVertexStage %s", label)
	return s, nil
}

func (f *Fake) CreatePixelStage(label, source, entryPoint string) (device.PixelStage, error) {
	if err := f.takeCreateErr(); err != nil {
		return nil, err
	}
	s := &Stage{handle: newHandle(f.Tracker, "pixel", label), EntryPoint: entryPoint}
	f.log("CreatePixelStage %s", label)
	return s, nil
}

func (f *Fake) CreateDepthBuffer(width, height uint32) (device.DepthBuffer, error) {
	if err := f.takeCreateErr(); err != nil {
		return nil, err
	}
	d := &Depth{handle: newHandle(f.Tracker, "depth", "depth"), width: width, height: height}
	f.log("CreateDepthBuffer %dx%d", width, height)
	return d, nil
}

func (f *Fake) BeginSurface() (device.SurfaceInfo, error) {
	f.Begins++
	f.log("BeginSurface")
	if f.Released {
		return device.SurfaceInfo{}, device.ErrReleased
	}
	if len(f.beginErrs) > 0 {
		err := f.beginErrs[0]
		f.beginErrs = f.beginErrs[1:]
		if err != nil {
			return device.SurfaceInfo{}, err
		}
	}
	return f.surface, nil
}

func (f *Fake) Clear(color device.Color, depth device.DepthBuffer) error {
	if f.Released {
		return device.ErrReleased
	}
	f.Clears++
	f.inPass = true
	f.log("Clear depth=%t", depth != nil)
	return nil
}

func (f *Fake) SetVertexStage(vs device.VertexStage) {
	s, _ := vs.(*Stage)
	f.vs = s
	f.VertexStageSets++
	f.log("SetVertexStage %s", stageLabel(s))
}

func (f *Fake) SetPixelStage(ps device.PixelStage) {
	s, _ := ps.(*Stage)
	f.ps = s
	f.PixelStageSets++
	f.log("SetPixelStage %s", stageLabel(s))
}

func (f *Fake) SetUniform(stage device.Stage, slot device.Slot, buf device.Buffer) {
	b, _ := buf.(*Buffer)
	f.Uniforms = append(f.Uniforms, UniformBind{Stage: stage, Slot: slot, Buffer: b})
	f.log("SetUniform %s %d/%d %s", stage, slot.Group, slot.Binding, bufferLabel(b))
}

func (f *Fake) SetTexture(stage device.Stage, slot device.TextureSlot, tex device.Texture, sampler device.Sampler) {
	t, _ := tex.(*Texture)
	f.TexturesBound = append(f.TexturesBound, TextureBind{Stage: stage, Slot: slot, Texture: t})
	f.log("SetTexture %s %d/%d %s", stage, slot.Group, slot.Binding, textureLabel(t))
}

func (f *Fake) SetMesh(vertices, indices device.Buffer, stride uint64, topology device.Topology) {
	f.vb, _ = vertices.(*Buffer)
	f.ib, _ = indices.(*Buffer)
	f.log("SetMesh %s %s", bufferLabel(f.vb), bufferLabel(f.ib))
}

func (f *Fake) DrawIndexed(indexCount uint32) error {
	if !f.inPass {
		return device.ErrNoPass
	}
	if f.vs == nil || f.ps == nil || f.vb == nil || f.ib == nil {
		return errors.New("devicetest: draw with incomplete state")
	}
	for _, h := range []*handle{f.vs.handle, f.ps.handle, f.vb.handle, f.ib.handle} {
		if h.released {
			return fmt.Errorf("devicetest: draw with released %s %s: %w", h.kind, h.Label, device.ErrReleased)
		}
	}
	f.Draws = append(f.Draws, Draw{IndexCount: indexCount, Vertices: f.vb, Indices: f.ib})
	f.log("DrawIndexed %d", indexCount)
	return nil
}

func (f *Fake) Present() error {
	f.inPass = false
	f.log("Present")
	if f.presentErr != nil {
		return f.presentErr
	}
	f.Presents++
	return nil
}

func (f *Fake) Release() {
	f.Released = true
	f.inPass = false
	f.log("Release")
}

func stageLabel(s *Stage) string {
	if s == nil {
		return "<nil>"
	}
	return s.Label
}

func bufferLabel(b *Buffer) string {
	if b == nil {
		return "<nil>"
	}
	return b.Label
}

func textureLabel(t *Texture) string {
	if t == nil {
		return "<nil>"
	}
	return t.Label
}

type handle struct {
	tracker  *Tracker
	kind     string
	Label    string
	released bool
	releases int
}

func newHandle(t *Tracker, kind, label string) *handle {
	t.add(kind, 1)
	return &handle{tracker: t, kind: kind, Label: label}
}

// Release marks the handle released. Releasing twice is counted but does not change the tracker again.
func (h *handle) Release() {
	h.releases++
	if h.released {
		return
	}
	h.released = true
	h.tracker.add(h.kind, -1)
}

// IsReleased reports whether the handle was released.
func (h *handle) IsReleased() bool {
	return h.released
}

// Releases returns how many times Release was called on the handle.
func (h *handle) Releases() int {
	return h.releases
}

// Buffer is a recorded buffer.
type Buffer struct {
	*handle
	Kind   device.BufferKind
	Data   []byte
	Writes int
}

func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

// Texture is a recorded texture.
type Texture struct {
	*handle
	width, height uint32
}

func (t *Texture) Width() uint32  { return t.width }
func (t *Texture) Height() uint32 { return t.height }

// Sampler is a recorded sampler.
type Sampler struct {
	*handle
	Desc device.SamplerDescriptor
}

// Stage is a recorded vertex or pixel stage.
type Stage struct {
	*handle
	EntryPoint string
	Layout     device.VertexLayout
}

// Depth is a recorded depth buffer.
type Depth struct {
	*handle
	width, height uint32
}

func (d *Depth) Width() uint32  { return d.width }
func (d *Depth) Height() uint32 { return d.height }

// Factory creates Fakes sharing one Tracker and remembers each of them.
type Factory struct {
	Tracker *Tracker
	Devices []*Fake
	// Err, when set, makes the next New call fail.
	Err error
	// Setup runs on every new Fake before it is returned, e.g. to inject failures.
	Setup func(f *Fake)
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{Tracker: NewTracker()}
}

// New implements device.Factory.
func (fa *Factory) New(cfg device.Config) (device.Device, error) {
	if fa.Err != nil {
		err := fa.Err
		fa.Err = nil
		return nil, err
	}
	f := New(cfg)
	f.Tracker = fa.Tracker
	if fa.Setup != nil {
		fa.Setup(f)
	}
	fa.Devices = append(fa.Devices, f)
	return f, nil
}

// Last returns the most recently created Fake, or nil.
func (fa *Factory) Last() *Fake {
	if len(fa.Devices) == 0 {
		return nil
	}
	return fa.Devices[len(fa.Devices)-1]
}
