// package model holds static geometry: the vertex format of the overlay sprites, their meshes and the GPU buffers
// backing them.
package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/registry"
)

// ErrEmptyMesh is returned when a mesh is created without vertices or indices.
var ErrEmptyMesh = errors.New("model: mesh has no vertices or indices")

// Binder exposes the device a mesh uploads to and binds on.
type Binder interface {
	Device() device.Device
}

// Mesh is an immutable vertex/index buffer pair with its draw parameters. Indices are 16-bit.
type Mesh struct {
	name     string
	vertices []byte
	indices  []uint16
	stride   uint64
	topology device.Topology

	vb, ib device.Buffer
	binder Binder
}

var (
	_ registry.Asset    = &Mesh{}
	_ registry.Restorer = &Mesh{}
)

// NewMesh uploads vertex bytes and indices. Nothing is left allocated on failure.
//
// Parameters:
//   - binder: the owner of the device the mesh lives on
//   - name: the unique registry name of the mesh
//   - vertices: packed vertex data, a whole number of strides long
//   - stride: the size of one vertex in bytes
//   - indices: 16-bit triangle indices
//   - topology: the primitive topology
//
// Returns:
//   - *Mesh: the mesh
//   - error: error if the data is empty or malformed, no device is attached, or creation fails
func NewMesh(binder Binder, name string, vertices []byte, stride uint64, indices []uint16, topology device.Topology) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("mesh %s: %w", name, ErrEmptyMesh)
	}
	if stride == 0 || uint64(len(vertices))%stride != 0 {
		return nil, fmt.Errorf("mesh %s: %d vertex bytes are not a multiple of stride %d", name, len(vertices), stride)
	}
	vertexCount := uint64(len(vertices)) / stride
	for _, idx := range indices {
		if uint64(idx) >= vertexCount {
			return nil, fmt.Errorf("mesh %s: index %d out of range for %d vertices", name, idx, vertexCount)
		}
	}

	m := &Mesh{
		name:     name,
		vertices: append([]byte(nil), vertices...),
		indices:  append([]uint16(nil), indices...),
		stride:   stride,
		topology: topology,
		binder:   binder,
	}
	dev := binder.Device()
	if dev == nil {
		return nil, fmt.Errorf("mesh %s: %w", name, device.ErrReleased)
	}
	if err := m.create(dev); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mesh) create(dev device.Device) error {
	vb, err := dev.CreateBuffer(m.name+".vertices", device.BufferVertex, m.vertices)
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer for mesh %s: %w", m.name, err)
	}
	ib, err := dev.CreateBuffer(m.name+".indices", device.BufferIndex, common.SliceToBytes(m.indices))
	if err != nil {
		vb.Release()
		return fmt.Errorf("failed to create index buffer for mesh %s: %w", m.name, err)
	}
	m.vb, m.ib = vb, ib
	return nil
}

// Name returns the registry name.
func (m *Mesh) Name() string {
	return m.name
}

// IndexCount returns the number of indices drawn per draw call.
func (m *Mesh) IndexCount() uint32 {
	return uint32(len(m.indices))
}

// Stride returns the vertex stride in bytes.
func (m *Mesh) Stride() uint64 {
	return m.stride
}

// Topology returns the primitive topology.
func (m *Mesh) Topology() device.Topology {
	return m.topology
}

// Released reports whether the GPU buffers were released.
func (m *Mesh) Released() bool {
	return m.vb == nil
}

// Bind sets the vertex and index buffers and the topology on the device.
func (m *Mesh) Bind() error {
	dev := m.binder.Device()
	if dev == nil || m.vb == nil {
		return fmt.Errorf("bind mesh %s: %w", m.name, device.ErrReleased)
	}
	dev.SetMesh(m.vb, m.ib, m.stride, m.topology)
	return nil
}

// Draw issues one indexed draw of the whole mesh with the current device state.
func (m *Mesh) Draw() error {
	dev := m.binder.Device()
	if dev == nil || m.vb == nil {
		return fmt.Errorf("draw mesh %s: %w", m.name, device.ErrReleased)
	}
	return dev.DrawIndexed(m.IndexCount())
}

func (m *Mesh) Kind() registry.Kind {
	return registry.KindMesh
}

func (m *Mesh) Release() {
	if m.vb != nil {
		m.vb.Release()
		m.vb = nil
	}
	if m.ib != nil {
		m.ib.Release()
		m.ib = nil
	}
}

func (m *Mesh) Restore(dev device.Device) error {
	m.Release()
	return m.create(dev)
}
