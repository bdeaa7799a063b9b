package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Mat4Size is the byte size of a mat4x4<f32> uniform.
const Mat4Size = 64

// clipCorrection remaps OpenGL clip depth [-1, 1] to the WebGPU range [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Mat4Bytes serializes a column-major matrix into 64 little-endian bytes suitable for a uniform write.
//
// Parameters:
//   - m: the matrix to serialize
//
// Returns:
//   - []byte: a freshly allocated 64 byte slice
func Mat4Bytes(m mgl32.Mat4) []byte {
	buf := make([]byte, Mat4Size)
	PutMat4(buf, m)
	return buf
}

// PutMat4 writes a column-major matrix into dst, which must hold at least 64 bytes.
//
// Parameters:
//   - dst: destination byte slice
//   - m: the matrix to serialize
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(m[i]))
	}
}

// Perspective creates a perspective projection matrix that maps depth into the WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	return clipCorrection.Mul4(mgl32.Perspective(fovY, aspect, near, far))
}

// ModelMatrix constructs a model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll).
//
// Parameters:
//   - position: translation in world space
//   - rotation: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: T * Ry * Rx * Rz * S
func ModelMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(mgl32.HomogRotate3DY(rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(rotation.X())).
		Mul4(mgl32.HomogRotate3DZ(rotation.Z())).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}
