package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferWrite describes a queue write into the buffer bound at Binding on Provider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Target resolves the destination buffer. It returns nil when the provider or binding is unset,
// in which case the write is dropped.
func (w BufferWrite) Target() *wgpu.Buffer {
	if w.Provider == nil {
		return nil
	}
	return w.Provider.Buffer(w.Binding)
}
