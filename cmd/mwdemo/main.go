// Command mwdemo draws an instanced, textured mesh through the Vulkan
// backend. Shaders are read from the paths in MW_VERTEX_SHADER and
// MW_FRAGMENT_SHADER; the sources in shaders/ match the layout below.
//
//	vertex:   location 0 vec3 position, 1 vec3 color, 2 vec2 uv, 3-6 mat4 model (per instance)
//	uniforms: binding 0 {mat4 view; mat4 proj}, binding 1 sampler2D
package main

//go:generate glslc shaders/shader.vert -o shaders/vert.spv
//go:generate glslc shaders/shader.frag -o shaders/frag.spv

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"

	"github.com/MalcolmParry/mwengine/internal/config"
	"github.com/MalcolmParry/mwengine/internal/logging"
	"github.com/MalcolmParry/mwengine/render"
	"github.com/MalcolmParry/mwengine/render/vulkan"
	"github.com/MalcolmParry/mwengine/window"
)

const instanceCount = 3

// uniformSlot is the largest uniform offset alignment a device may require.
const uniformSlot = 256

type UniformBufferObject struct {
	View mgl32.Mat4
	Proj mgl32.Mat4
}

func init() {
	runtime.LockOSThread()
}

type frame struct {
	imageAvailable *vulkan.Semaphore
	renderFinished *vulkan.Semaphore
	inFlight       *vulkan.Fence
	commands       *vulkan.CommandBuffer
	uniforms       vulkan.BufferRegion
	resources      *vulkan.ResourceSet
}

type Application struct {
	cfg config.Config
	log logrus.FieldLogger

	window   *window.SDLWindow
	instance *vulkan.Instance
	display  *vulkan.Display

	renderPass     *vulkan.RenderPass
	vertexShader   *vulkan.Shader
	fragmentShader *vulkan.Shader
	resourceLayout *vulkan.ResourceLayout
	pipeline       *vulkan.GraphicsPipeline

	meshBuffer    *vulkan.Buffer
	vertices      vulkan.BufferRegion
	instances     vulkan.BufferRegion
	indices       vulkan.BufferRegion
	indexCount    int
	uniformBuffer *vulkan.Buffer
	textureImage  *vulkan.Image
	texture       *vulkan.Texture

	frames         []frame
	imagesInFlight []*vulkan.Fence
	currentFrame   int

	resized   bool
	startTime time.Duration
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.Fatalf("%+v", err)
	}

	log, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		logrus.Fatalf("%+v", err)
	}

	app := &Application{cfg: cfg, log: log}
	err = app.Run()
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func (app *Application) Run() error {
	defer app.cleanup()

	err := app.initWindow()
	if err != nil {
		return err
	}

	err = app.initVulkan()
	if err != nil {
		return err
	}

	return app.mainLoop()
}

func (app *Application) initWindow() error {
	var err error
	app.window, err = window.New(app.cfg.WindowTitle, render.UInt2{X: app.cfg.WindowWidth, Y: app.cfg.WindowHeight}, app.log)
	if err != nil {
		return err
	}

	app.window.SetCallback(app, func(ctx any, e window.Event) {
		a := ctx.(*Application)
		switch e := e.(type) {
		case window.WindowResize:
			a.resized = !e.Size.IsZero()
		case window.KeyDown:
			a.log.WithField("key", e.Key).Debug("key down")
		}
	})
	return nil
}

func (app *Application) initVulkan() error {
	var err error
	app.instance, err = vulkan.CreateInstance(app.window, app.cfg.AppName, app.cfg.AppVersion, app.cfg.Debug, app.log)
	if err != nil {
		return err
	}
	var backend render.Backend = app.instance
	app.log.WithFields(logrus.Fields{
		"api":      backend.API(),
		"backend":  backend.Name(),
		"discrete": app.instance.GetPhysicalDevice().Discrete(),
	}).Info("using physical device")

	app.display, err = vulkan.NewDisplay(app.instance)
	if err != nil {
		return err
	}
	app.display.SetAcquireTimeout(app.cfg.AcquireTimeout)

	app.renderPass, err = vulkan.NewRenderPass(app.instance, app.display, true)
	if err != nil {
		return err
	}

	err = app.display.SetRenderPass(app.renderPass)
	if err != nil {
		return err
	}

	err = app.createMesh()
	if err != nil {
		return err
	}

	err = app.createTexture()
	if err != nil {
		return err
	}

	err = app.createPipeline()
	if err != nil {
		return err
	}

	return app.createFrames()
}

func (app *Application) createMesh() error {
	mesh := quadMesh()
	if app.cfg.MeshPath != "" {
		var err error
		mesh, err = loadMesh(app.cfg.MeshPath)
		if err != nil {
			return err
		}
	}

	vertexData, err := vulkan.Encode(mesh.Vertices)
	if err != nil {
		return err
	}
	instanceData, err := vulkan.Encode(instanceTransforms(instanceCount))
	if err != nil {
		return err
	}
	indexData, err := vulkan.Encode(mesh.Indices)
	if err != nil {
		return err
	}

	app.meshBuffer, err = vulkan.NewBuffer(app.instance, len(vertexData)+len(instanceData)+len(indexData), render.BufferUsageAll)
	if err != nil {
		return err
	}

	arena := vulkan.NewBufferArena(app.meshBuffer)
	for _, part := range []struct {
		region *vulkan.BufferRegion
		data   []byte
	}{
		{&app.vertices, vertexData},
		{&app.instances, instanceData},
		{&app.indices, indexData},
	} {
		*part.region, err = arena.Next(len(part.data))
		if err != nil {
			return err
		}
		err = part.region.SetData(part.data)
		if err != nil {
			return err
		}
	}

	app.log.WithFields(logrus.Fields{"vertices": len(mesh.Vertices), "indices": len(mesh.Indices)}).Info("mesh loaded")
	app.indexCount = len(mesh.Indices)
	return nil
}

func checkerboard(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{R: 40, G: 40, B: 40, A: 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{R: 220, G: 220, B: 220, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func (app *Application) createTexture() error {
	source := checkerboard(8)
	pixelated := true

	if app.cfg.TexturePath != "" {
		file, err := os.Open(app.cfg.TexturePath)
		if err != nil {
			return errors.Wrap(err, "open texture")
		}
		defer file.Close()

		source, _, err = image.Decode(file)
		if err != nil {
			return errors.Wrapf(err, "decode texture %s", app.cfg.TexturePath)
		}
		pixelated = false
	}

	size := source.Bounds().Size()
	var err error
	app.textureImage, err = vulkan.NewImage(app.instance, render.UInt2{X: uint32(size.X), Y: uint32(size.Y)})
	if err != nil {
		return err
	}

	err = app.textureImage.SetImage(source)
	if err != nil {
		return err
	}

	app.texture, err = vulkan.NewTexture(app.instance, app.textureImage, pixelated)
	return err
}

func (app *Application) createPipeline() error {
	var err error
	app.vertexShader, err = vulkan.LoadShader(app.instance, app.cfg.VertexShader)
	if err != nil {
		return err
	}

	app.fragmentShader, err = vulkan.LoadShader(app.instance, app.cfg.FragmentShader)
	if err != nil {
		return err
	}

	app.resourceLayout, err = vulkan.NewResourceLayout(app.instance, []render.BindingDescriptor{
		{Stage: render.ShaderStageVertex, Type: render.ResourceTypeUniformBuffer, Binding: 0, Count: 1},
		{Stage: render.ShaderStageFragment, Type: render.ResourceTypeImage, Binding: 1, Count: 1},
	})
	if err != nil {
		return err
	}

	app.pipeline = vulkan.NewGraphicsPipeline(app.instance)
	app.pipeline.RenderPass = app.renderPass
	app.pipeline.FramebufferSize = app.display.Extent()
	app.pipeline.VertexSpecification = vertexSpecification
	app.pipeline.IndexCount = app.indexCount
	app.pipeline.InstanceSpecification = instanceSpecification
	app.pipeline.InstanceCount = instanceCount
	app.pipeline.ResourceLayout = app.resourceLayout
	app.pipeline.CullingMode = render.CullingModeNone
	app.pipeline.VertexShader = app.vertexShader
	app.pipeline.FragmentShader = app.fragmentShader

	return app.pipeline.Rebuild()
}

func (app *Application) createFrames() error {
	var err error
	app.uniformBuffer, err = vulkan.NewBuffer(app.instance, uniformSlot*app.cfg.FramesInFlight, render.BufferUsageUniform)
	if err != nil {
		return err
	}
	uniforms := vulkan.NewBufferArena(app.uniformBuffer)

	app.frames = make([]frame, app.cfg.FramesInFlight)
	for i := range app.frames {
		f := &app.frames[i]

		f.imageAvailable, err = vulkan.NewSemaphore(app.instance)
		if err != nil {
			return err
		}
		f.renderFinished, err = vulkan.NewSemaphore(app.instance)
		if err != nil {
			return err
		}
		f.inFlight, err = vulkan.NewFence(app.instance, true)
		if err != nil {
			return err
		}
		f.commands, err = vulkan.NewCommandBuffer(app.instance)
		if err != nil {
			return err
		}

		f.uniforms, err = uniforms.Next(uniformSlot)
		if err != nil {
			return err
		}
		f.resources, err = vulkan.NewResourceSet(app.resourceLayout)
		if err != nil {
			return err
		}
		err = f.resources.Write(
			vulkan.UniformBuffers(render.ImplicitBinding, f.uniforms),
			vulkan.Textures(render.ImplicitBinding, app.texture),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (app *Application) mainLoop() error {
	app.startTime = hrtime.Now()
	frames := 0
	lastReport := hrtime.Now()

	for !app.window.ShouldClose() {
		app.window.PollEvents()
		if app.window.Minimized() {
			idle()
			continue
		}

		if app.resized {
			app.resized = false
			err := app.display.Rebuild()
			if err != nil {
				return err
			}
			app.imagesInFlight = nil
			app.pipeline.FramebufferSize = app.display.Extent()
		}

		err := app.drawFrame()
		if err != nil {
			return err
		}

		frames++
		if elapsed := hrtime.Since(lastReport); elapsed >= 5*time.Second {
			app.log.WithFields(logrus.Fields{
				"fps":      float64(frames) / elapsed.Seconds(),
				"frame_ms": float64(elapsed.Milliseconds()) / float64(frames),
			}).Debug("frame statistics")
			frames = 0
			lastReport = hrtime.Now()
		}
	}

	return app.instance.WaitUntilIdle()
}

func idle() {
	time.Sleep(10 * time.Millisecond)
}

func (app *Application) drawFrame() error {
	f := &app.frames[app.currentFrame]

	err := f.inFlight.WaitFor()
	if err != nil {
		return err
	}

	index, err := app.display.AcquireFramebufferIndex(f.imageAvailable, nil, app.cfg.AcquireAttempts)
	if errors.Is(err, render.ErrSurfaceStale) || errors.Is(err, vulkan.ErrAcquireTimeout) {
		app.log.WithError(err).Warn("skipping frame")
		return nil
	}
	if err != nil {
		return err
	}

	if app.display.ImageCount() != len(app.imagesInFlight) {
		app.imagesInFlight = make([]*vulkan.Fence, app.display.ImageCount())
	}
	if previous := app.imagesInFlight[index]; previous != nil && previous != f.inFlight {
		err = previous.WaitFor()
		if err != nil {
			return err
		}
	}
	app.imagesInFlight[index] = f.inFlight

	err = f.inFlight.Reset()
	if err != nil {
		return err
	}

	err = app.updateUniformBuffer(f.uniforms)
	if err != nil {
		return err
	}

	err = f.commands.StartFrame(app.renderPass, app.display.GetFramebuffer(index))
	if err != nil {
		return err
	}

	err = f.commands.QueueDraw(app.pipeline, app.vertices, app.indices, app.instances, f.resources)
	if err != nil {
		return err
	}

	err = f.commands.EndFrame(f.imageAvailable, f.renderFinished, f.inFlight)
	if err != nil {
		return err
	}

	err = app.display.PresentFramebuffer(index, f.renderFinished)
	if err != nil {
		return err
	}

	app.currentFrame = (app.currentFrame + 1) % len(app.frames)
	return nil
}

func (app *Application) updateUniformBuffer(region vulkan.BufferRegion) error {
	seconds := hrtime.Since(app.startTime).Seconds()
	angle := float32(math.Mod(seconds, 4.0)) * mgl32.DegToRad(90.0)

	extent := app.display.Extent()
	aspectRatio := float32(extent.X) / float32(extent.Y)

	ubo := UniformBufferObject{
		View: mgl32.LookAt(2, 2, 2, 0, 0, 0, 0, 0, 1).Mul4(mgl32.HomogRotate3D(angle, mgl32.Vec3{0, 0, 1})),
		Proj: mgl32.Perspective(mgl32.DegToRad(45), aspectRatio, 0.1, 10),
	}
	// Vulkan clip space has y pointing down.
	ubo.Proj[5] *= -1

	return vulkan.WriteValues(region, &ubo)
}

func (app *Application) cleanup() {
	if app.instance != nil {
		if err := app.instance.WaitUntilIdle(); err != nil {
			app.log.WithError(err).Warn("wait for device before cleanup")
		}
	}

	for _, f := range app.frames {
		if f.resources != nil {
			f.resources.Destroy()
		}
		if f.commands != nil {
			f.commands.Destroy()
		}
		if f.inFlight != nil {
			f.inFlight.Destroy()
		}
		if f.renderFinished != nil {
			f.renderFinished.Destroy()
		}
		if f.imageAvailable != nil {
			f.imageAvailable.Destroy()
		}
	}

	if app.uniformBuffer != nil {
		app.uniformBuffer.Destroy()
	}
	if app.pipeline != nil {
		app.pipeline.Destroy()
	}
	if app.resourceLayout != nil {
		app.resourceLayout.Destroy()
	}
	if app.fragmentShader != nil {
		app.fragmentShader.Destroy()
	}
	if app.vertexShader != nil {
		app.vertexShader.Destroy()
	}
	if app.texture != nil {
		app.texture.Destroy()
	}
	if app.textureImage != nil {
		app.textureImage.Destroy()
	}
	if app.meshBuffer != nil {
		app.meshBuffer.Destroy()
	}
	if app.display != nil {
		app.display.Destroy()
	}
	if app.renderPass != nil {
		app.renderPass.Destroy()
	}
	if app.instance != nil {
		app.instance.Destroy()
	}
	if app.window != nil {
		app.window.Destroy()
	}
}
