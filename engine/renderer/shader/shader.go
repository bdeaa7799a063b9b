package shader

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// PrimarySource is the WGSL module used for every editor draw. Bind groups:
//   - group 0: camera view-projection uniform
//   - group 1: object model matrix uniform
//   - group 2: texture, sampler and render mode uniform
//
//go:embed assets/primary.wgsl
var PrimarySource string

// ShaderType identifies the pipeline stage a shader entry point belongs to.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) attribute() string {
	if t == ShaderTypeFragment {
		return "@fragment"
	}
	return "@vertex"
}

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	entryPoint    string
	vertexLayouts []wgpu.VertexBufferLayout
}

// Shader is one entry point of a WGSL module together with the vertex buffer layouts it consumes.
type Shader interface {
	// Key returns the unique key of the shader, used as the GPU debug label.
	//
	// Returns:
	//   - string: the shader key
	Key() string

	// Source returns the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// EntryPoint returns the name of the entry function.
	//
	// Returns:
	//   - string: the entry point
	EntryPoint() string

	// ShaderType returns the pipeline stage of the entry point.
	//
	// Returns:
	//   - ShaderType: the stage
	ShaderType() ShaderType

	// VertexLayouts returns the vertex buffer layouts, in slot order. Empty for fragment shaders.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts
	VertexLayouts() []wgpu.VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader creates a Shader from WGSL source. The entry point must be declared in the source
// with the attribute matching shaderType.
//
// Parameters:
//   - key: unique shader key
//   - shaderType: vertex or fragment
//   - source: WGSL source code
//   - entryPoint: the entry function name
//   - options: functional options
//
// Returns:
//   - Shader: the shader
//   - error: error if the source is empty or the entry point is not declared
func NewShader(key string, shaderType ShaderType, source, entryPoint string, options ...ShaderBuilderOption) (Shader, error) {
	if source == "" {
		return nil, errors.Errorf("shader %s: empty source", key)
	}
	pattern := regexp.MustCompile(regexp.QuoteMeta(shaderType.attribute()) + `\s+fn\s+` + regexp.QuoteMeta(entryPoint) + `\s*\(`)
	if !pattern.MatchString(source) {
		return nil, errors.Errorf("shader %s: entry point %s %s not found", key, shaderType.attribute(), entryPoint)
	}

	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: entryPoint,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// NewShaderFromPath reads WGSL source from disk and calls NewShader.
//
// Parameters:
//   - key: unique shader key
//   - shaderType: vertex or fragment
//   - path: the WGSL file
//   - entryPoint: the entry function name
//   - options: functional options
//
// Returns:
//   - Shader: the shader
//   - error: error if the file cannot be read or the entry point is not declared
func NewShaderFromPath(key string, shaderType ShaderType, path, entryPoint string, options ...ShaderBuilderOption) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", key)
	}
	return NewShader(key, shaderType, string(data), entryPoint, options...)
}

// Primary returns the vertex and fragment entry points of PrimarySource.
//
// Parameters:
//   - vertexLayouts: the vertex buffer layouts consumed by vs_main
//
// Returns:
//   - Shader: the vertex shader
//   - Shader: the fragment shader
func Primary(vertexLayouts ...wgpu.VertexBufferLayout) (Shader, Shader) {
	vs, err := NewShader("primary_vs", ShaderTypeVertex, PrimarySource, "vs_main", WithVertexLayouts(vertexLayouts...))
	if err != nil {
		panic(fmt.Sprintf("embedded shader: %v", err))
	}
	fs, err := NewShader("primary_fs", ShaderTypeFragment, PrimarySource, "fs_main")
	if err != nil {
		panic(fmt.Sprintf("embedded shader: %v", err))
	}
	return vs, fs
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}
