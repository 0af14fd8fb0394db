package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-space/engine/camera"
)

// pointShaderSource draws every point as a camera-facing quad of u.size world units.
// Positions are instance-stepped; the six quad corners come from the vertex index.
// Colors fade into u.fog_color by the exponential-squared fog of the view depth.
const pointShaderSource = camera.GPUCameraUniformSource + `
struct PointUniform {
    camera: CameraUniform,
    color: vec4<f32>,
    fog_color: vec3<f32>,
    fog_density: f32,
    scale: vec2<f32>,
    size: f32,
    textured: f32,
};

@group(0) @binding(0) var<uniform> u: PointUniform;
@group(0) @binding(1) var sprite: texture_2d<f32>;
@group(0) @binding(2) var sprite_sampler: sampler;

struct VertexOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) depth: f32,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, @location(0) position: vec3<f32>) -> VertexOut {
    var corners = array<vec2<f32>, 6>(
        vec2<f32>(-0.5, -0.5), vec2<f32>(0.5, -0.5), vec2<f32>(0.5, 0.5),
        vec2<f32>(-0.5, -0.5), vec2<f32>(0.5, 0.5), vec2<f32>(-0.5, 0.5),
    );
    let corner = corners[vi];
    var clip = u.camera.view_proj * vec4<f32>(position, 1.0);
    clip.x = clip.x + corner.x * u.size * u.scale.x;
    clip.y = clip.y + corner.y * u.size * u.scale.y;

    var out: VertexOut;
    out.clip = clip;
    out.uv = vec2<f32>(corner.x + 0.5, 0.5 - corner.y);
    out.depth = clip.w;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    let texel = textureSample(sprite, sprite_sampler, in.uv);
    let base = mix(u.color, u.color * texel, u.textured);
    let d = u.fog_density * in.depth;
    let fog = 1.0 - exp(-d * d);
    return vec4<f32>(mix(base.rgb, u.fog_color, fog), base.a);
}
`

// GPUPointUniform is the GPU-aligned representation of the PointUniform WGSL struct.
// Size: 128 bytes.
type GPUPointUniform struct {
	Camera     camera.GPUCameraUniform // offset   0: view-projection and eye position
	Color      [4]float32              // offset  80: rgb + opacity
	FogColor   [3]float32              // offset  96
	FogDensity float32                 // offset 108
	Scale      [2]float32              // offset 112: projection x/y scale for sprite quads
	Size       float32                 // offset 120: sprite size in world units
	Textured   float32                 // offset 124: 1 when a sprite texture is bound
}

// pointUniformSize is the byte size of GPUPointUniform.
const pointUniformSize = 128

// Marshal serializes the uniform into a little-endian byte buffer for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUPointUniform) Marshal() []byte {
	buf := make([]byte, pointUniformSize)
	n := copy(buf, g.Camera.Marshal())
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	for i := range 4 {
		put(n+i*4, g.Color[i])
	}
	for i := range 3 {
		put(96+i*4, g.FogColor[i])
	}
	put(108, g.FogDensity)
	put(112, g.Scale[0])
	put(116, g.Scale[1])
	put(120, g.Size)
	put(124, g.Textured)
	return buf
}

// newPointUniform builds the per-draw uniform from the frame's camera and fog and a material.
func newPointUniform(cam camera.Camera, fog Fog, desc MaterialDescriptor, textured bool) GPUPointUniform {
	u := GPUPointUniform{
		Color:      [4]float32{desc.Color[0], desc.Color[1], desc.Color[2], desc.Opacity},
		FogColor:   fog.Color,
		FogDensity: fog.Density,
		Size:       desc.Size,
	}
	if cam != nil {
		u.Camera = cam.Uniform()
		projection := cam.ProjectionMatrix()
		u.Scale = [2]float32{projection[0], projection[5]}
	}
	if textured {
		u.Textured = 1
	}
	return u
}
