package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/deanbilledo/zen-drive/internal/config"
	"github.com/deanbilledo/zen-drive/internal/cull"
	"github.com/deanbilledo/zen-drive/internal/debug"
	"github.com/deanbilledo/zen-drive/internal/logger"
	"github.com/deanbilledo/zen-drive/internal/noise"
	"github.com/deanbilledo/zen-drive/internal/profiling"
	"github.com/deanbilledo/zen-drive/internal/render"
	"github.com/deanbilledo/zen-drive/internal/road"
	"github.com/deanbilledo/zen-drive/internal/terrain"
)

func init() { runtime.LockOSThread() }

const (
	driveSpeed = 30.0 // meters per second along the road

	cameraBack   = 18.0
	cameraHeight = 8.0

	profileLogInterval = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: search standard locations)")
	previewPath := flag.String("preview", "", "write a biome map PNG to this path and exit")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	if *previewPath != "" {
		classifier := terrain.NewClassifier(cfg.World.Seed)
		if err := debug.SavePreview(*previewPath, classifier, 0, 0, cfg.World.RenderDistance*4, 1024, 512); err != nil {
			logger.Log.Fatal("preview export failed", zap.Error(err))
		}
		logger.Log.Info("biome preview written", zap.String("path", *previewPath))
		return
	}

	if err := run(cfg); err != nil {
		logger.Log.Fatal("fatal", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err := glfw.CreateWindow(cfg.Graphics.Width, cfg.Graphics.Height, "zen-drive", nil, nil)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	window.MakeContextCurrent()
	if cfg.Graphics.VSync {
		glfw.SwapInterval(1)
	}

	if err := gl.Init(); err != nil {
		return fmt.Errorf("initializing OpenGL: %w", err)
	}
	logger.Log.Info("OpenGL ready", zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.ClearColor(0.53, 0.74, 0.92, 1.0)

	backend, err := render.NewGL()
	if err != nil {
		return fmt.Errorf("creating render backend: %w", err)
	}

	streamer, err := terrain.NewStreamer(cfg.World, backend)
	if err != nil {
		return fmt.Errorf("creating terrain streamer: %w", err)
	}
	roadGen, err := road.NewGenerator(cfg.Road, noise.NewField(cfg.World.Seed), streamer, backend)
	if err != nil {
		return fmt.Errorf("creating road generator: %w", err)
	}

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	lightDir := mgl32.Vec3{0.4, -0.8, 0.3}.Normalize()

	// The car starts at the road origin and drives itself.
	car := mgl64.Vec3{}
	lastFrame := glfw.GetTime()
	lastProfile := time.Now()

	for !window.ShouldClose() {
		now := glfw.GetTime()
		dt := now - lastFrame
		lastFrame = now
		if dt > 0.1 {
			dt = 0.1
		}

		profiling.ResetFrame()

		// Advance along the road centerline and re-snap so numeric
		// drift never accumulates.
		info := roadGen.RoadInfo(car)
		car = info.Position.Add(info.Tangent.Mul(driveSpeed * dt))
		info = roadGen.RoadInfo(car)
		car = info.Position

		anchor := mgl32.Vec3{float32(car.X()), float32(car.Y()), float32(car.Z())}
		forward := mgl32.Vec3{float32(info.Tangent.X()), float32(info.Tangent.Y()), float32(info.Tangent.Z())}

		eye := anchor.Sub(forward.Mul(cameraBack)).Add(mgl32.Vec3{0, cameraHeight, 0})
		center := anchor.Add(mgl32.Vec3{0, 2, 0})
		view := mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})

		fbW, fbH := window.GetFramebufferSize()
		if fbH == 0 {
			fbH = 1
		}
		proj := mgl32.Perspective(
			mgl32.DegToRad(float32(cfg.Graphics.FOV)),
			float32(fbW)/float32(fbH),
			0.1,
			float32(cfg.World.RenderDistance)*1.5,
		)
		viewProj := proj.Mul4(view)
		frustum := cull.FromMatrix(viewProj)

		roadGen.Update(anchor)
		streamer.Update(anchor, &frustum)

		gl.Viewport(0, 0, int32(fbW), int32(fbH))
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		backend.BeginFrame(viewProj, lightDir)

		drawn := 0
		for _, c := range streamer.Chunks() {
			if c.Visible && c.GPU != 0 {
				backend.Draw(c.GPU)
				drawn++
			}
		}
		for _, seg := range roadGen.Segments() {
			if seg.Visible && seg.GPU != 0 {
				backend.Draw(seg.GPU)
				drawn++
			}
		}

		if time.Since(lastProfile) >= profileLogInterval {
			lastProfile = time.Now()
			logger.Log.Info("frame stats",
				zap.Float64("fps", math.Round(1/math.Max(dt, 1e-6))),
				zap.Int("drawn", drawn),
				zap.Int("chunksLoaded", streamer.LoadedCount()),
				zap.Int("chunksPooled", streamer.PooledCount()),
				zap.String("biome", streamer.BiomeAt(car.X(), car.Z()).String()),
				zap.String("hotspots", profiling.TopN(5)),
			)
		}

		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}
