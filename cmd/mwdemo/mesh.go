package main

import (
	"bytes"
	"io"
	"math"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/MalcolmParry/mwengine/render"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

var vertexSpecification = []render.ShaderDataType{
	render.ShaderDataFloatVec3,
	render.ShaderDataFloatVec3,
	render.ShaderDataFloatVec2,
}

type Instance struct {
	Model mgl32.Mat4
}

var instanceSpecification = []render.ShaderDataType{
	render.ShaderDataFloatMat4,
}

type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

func quadMesh() Mesh {
	return Mesh{
		Vertices: []Vertex{
			{Position: mgl32.Vec3{-0.5, -0.5, 0}, Color: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{1, 0}},
			{Position: mgl32.Vec3{0.5, -0.5, 0}, Color: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{0, 0}},
			{Position: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 1}},
		},
		Indices: []uint16{0, 1, 2, 2, 3, 0},
	}
}

// loadMesh reads a Wavefront OBJ file. A material library next to it with
// the same base name is used when present.
func loadMesh(path string) (Mesh, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "open mesh")
	}
	defer meshFile.Close()

	var matFile io.Reader = bytes.NewReader(nil)
	if f, err := os.Open(strings.TrimSuffix(path, ".obj") + ".mtl"); err == nil {
		defer f.Close()
		matFile = f
	}

	decoder, err := obj.DecodeReader(meshFile, matFile)
	if err != nil {
		return Mesh{}, errors.Wrapf(err, "decode mesh %s", path)
	}

	return buildMesh(decoder)
}

// buildMesh triangulates every face and removes duplicate vertices. Indices
// are 16 bit, so meshes with more unique vertices than that are rejected.
func buildMesh(decoder *obj.Decoder) (Mesh, error) {
	var mesh Mesh
	unique := map[[2]int]uint16{}

	add := func(face obj.Face, corner int) error {
		key := [2]int{face.Vertices[corner], -1}
		if corner < len(face.Uvs) {
			key[1] = face.Uvs[corner]
		}

		index, ok := unique[key]
		if !ok {
			if len(mesh.Vertices) > math.MaxUint16 {
				return errors.Newf("mesh has more than %d unique vertices", math.MaxUint16+1)
			}

			v := key[0]
			vertex := Vertex{
				Position: mgl32.Vec3{decoder.Vertices[v*3], decoder.Vertices[v*3+1], decoder.Vertices[v*3+2]},
				Color:    mgl32.Vec3{1, 1, 1},
			}
			if uv := key[1]; uv >= 0 {
				vertex.TexCoord = mgl32.Vec2{decoder.Uvs[uv*2], 1.0 - decoder.Uvs[uv*2+1]}
			}

			index = uint16(len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, vertex)
			unique[key] = index
		}

		mesh.Indices = append(mesh.Indices, index)
		return nil
	}

	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range [3]int{0, i - 1, i} {
					if err := add(face, corner); err != nil {
						return Mesh{}, err
					}
				}
			}
		}
	}

	if len(mesh.Indices) == 0 {
		return Mesh{}, errors.New("mesh has no faces")
	}
	return mesh, nil
}

// instanceTransforms spreads count copies of the mesh along the x axis.
func instanceTransforms(count int) []Instance {
	instances := make([]Instance, count)
	for i := range instances {
		offset := float32(i) - float32(count-1)/2
		instances[i].Model = mgl32.Translate3D(offset*1.2, 0, 0)
	}
	return instances
}
