package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const vertexShaderSrc = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;
layout (location = 3) in float aMaterial;

uniform mat4 viewProj;

out vec3 fragNormal;
out vec2 fragUV;
flat out float fragMaterial;

void main() {
    gl_Position = viewProj * vec4(aPos, 1.0);
    fragNormal = aNormal;
    fragUV = aUV;
    fragMaterial = aMaterial;
}
`

const fragmentShaderSrc = `#version 410 core
in vec3 fragNormal;
in vec2 fragUV;
flat in float fragMaterial;

uniform vec3 lightDir;

out vec4 color;

// Flat material palette: plains, forest, desert, mountain, city, asphalt.
const vec3 palette[6] = vec3[6](
    vec3(0.45, 0.62, 0.28),
    vec3(0.22, 0.42, 0.18),
    vec3(0.80, 0.70, 0.45),
    vec3(0.52, 0.50, 0.48),
    vec3(0.58, 0.58, 0.60),
    vec3(0.18, 0.18, 0.20)
);

void main() {
    int idx = clamp(int(fragMaterial + 0.5), 0, 5);
    float diffuse = max(dot(normalize(fragNormal), -lightDir), 0.0);
    vec3 lit = palette[idx] * (0.35 + 0.65 * diffuse);
    color = vec4(lit, 1.0);
}
`

type glMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// GL is the OpenGL Backend. It must only be used from the thread that owns
// the GL context.
type GL struct {
	program uint32
	meshes  map[Handle]glMesh
	next    Handle
}

// NewGL compiles the shared shader program. Requires a current GL context.
func NewGL() (*GL, error) {
	program, err := compileProgram(vertexShaderSrc, fragmentShaderSrc)
	if err != nil {
		return nil, err
	}
	return &GL{
		program: program,
		meshes:  make(map[Handle]glMesh),
	}, nil
}

// Upload creates a VAO/VBO/EBO for the mesh and returns its handle.
func (g *GL) Upload(mesh Mesh) (Handle, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return 0, fmt.Errorf("render: refusing to upload empty mesh")
	}

	var m glMesh
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*4, gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	stride := int32(FloatsPerVertex * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(3, 1, gl.FLOAT, false, stride, 8*4)
	gl.EnableVertexAttribArray(3)

	gl.BindVertexArray(0)

	if glErr := gl.GetError(); glErr != gl.NO_ERROR {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
		return 0, fmt.Errorf("render: mesh upload failed with GL error 0x%04x", glErr)
	}

	m.indexCount = int32(len(mesh.Indices))
	g.next++
	g.meshes[g.next] = m
	return g.next, nil
}

// Release destroys the mesh's GPU objects.
func (g *GL) Release(h Handle) {
	m, ok := g.meshes[h]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	delete(g.meshes, h)
}

// BeginFrame binds the shared program and per-frame uniforms.
func (g *GL) BeginFrame(viewProj mgl32.Mat4, lightDir mgl32.Vec3) {
	gl.UseProgram(g.program)
	gl.UniformMatrix4fv(gl.GetUniformLocation(g.program, gl.Str("viewProj\x00")), 1, false, &viewProj[0])
	gl.Uniform3f(gl.GetUniformLocation(g.program, gl.Str("lightDir\x00")), lightDir.X(), lightDir.Y(), lightDir.Z())
}

// Draw issues the draw call for an uploaded mesh.
func (g *GL) Draw(h Handle) {
	m, ok := g.meshes[h]
	if !ok {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}
	return shader, nil
}
