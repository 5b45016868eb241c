// Coral viewer - interactive 3D display of an exported .coral.obj.
//
// Usage: go run ./cmd/view -file out/000100.coral.obj
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/reef/coral"
)

const (
	windowWidth  = 1280
	windowHeight = 800
	buttonWidth  = 130
	buttonHeight = 28
)

// morphogenMode shows the embedded vertex colors instead of an attribute.
const morphogenMode = "morphogen"

func main() {
	filePath := flag.String("file", "", "Path to a .coral.obj export")
	flag.Parse()

	if *filePath == "" {
		slog.Error("--file is required")
		os.Exit(1)
	}

	exp, err := coral.ReadObj(*filePath)
	if err != nil {
		slog.Error("failed to read export", "path", *filePath, "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Reef Viewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	center := meshCenter(exp)
	camera := rl.Camera3D{
		Position:   rl.Vector3{X: center.X + 4, Y: center.Y + 3, Z: center.Z + 4},
		Target:     center,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}

	modes := append([]string{morphogenMode}, exp.AttribNames...)
	mode := morphogenMode
	colors := vertexColors(exp, mode)

	for !rl.WindowShouldClose() {
		rl.UpdateCamera(&camera, rl.CameraOrbital)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.BeginMode3D(camera)
		for _, f := range exp.Faces {
			v0 := toVector3(exp, f[0])
			v1 := toVector3(exp, f[1])
			v2 := toVector3(exp, f[2])
			// Flat shade each face with the mean of its corner colors.
			c := meanColor(colors[f[0]], colors[f[1]], colors[f[2]])
			rl.DrawTriangle3D(v0, v1, v2, c)
			rl.DrawTriangle3D(v0, v2, v1, c)
			rl.DrawLine3D(v0, v1, rl.DarkGray)
			rl.DrawLine3D(v1, v2, rl.DarkGray)
			rl.DrawLine3D(v2, v0, rl.DarkGray)
		}
		rl.EndMode3D()

		// Attribute toolbar
		for i, name := range modes {
			rect := rl.Rectangle{
				X:      10,
				Y:      float32(10 + i*(buttonHeight+6)),
				Width:  buttonWidth,
				Height: buttonHeight,
			}
			label := name
			if name == mode {
				label = "> " + name
			}
			if gui.Button(rect, label) {
				mode = name
				colors = vertexColors(exp, mode)
			}
		}

		rl.DrawText(fmt.Sprintf("%d polyps, %d faces", len(exp.Positions), len(exp.Faces)),
			10, windowHeight-30, 18, rl.DarkGray)

		rl.EndDrawing()
	}
}

// vertexColors maps the selected display mode onto per-vertex colors.
func vertexColors(exp *coral.Export, mode string) []rl.Color {
	colors := make([]rl.Color, len(exp.Positions))

	if mode == morphogenMode {
		for i, c := range exp.Colors {
			colors[i] = rl.Color{
				R: uint8(clamp01f(c.X) * 255),
				G: uint8(clamp01f(c.Y) * 255),
				B: uint8(clamp01f(c.Z) * 255),
				A: 255,
			}
		}
		return colors
	}

	vals := exp.Attrib(mode)
	if vals == nil {
		for i := range colors {
			colors[i] = rl.LightGray
		}
		return colors
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	for i, v := range vals {
		t := 0.0
		if span > 0 {
			t = (v - lo) / span
		}
		// Cold blue to warm red.
		colors[i] = rl.Color{
			R: uint8(t * 255),
			G: uint8(60),
			B: uint8((1 - t) * 255),
			A: 255,
		}
	}
	return colors
}

func meanColor(a, b, c rl.Color) rl.Color {
	return rl.Color{
		R: uint8((int(a.R) + int(b.R) + int(c.R)) / 3),
		G: uint8((int(a.G) + int(b.G) + int(c.G)) / 3),
		B: uint8((int(a.B) + int(b.B) + int(c.B)) / 3),
		A: 255,
	}
}

func toVector3(exp *coral.Export, i int) rl.Vector3 {
	p := exp.Positions[i]
	return rl.Vector3{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}

func meshCenter(exp *coral.Export) rl.Vector3 {
	var x, y, z float64
	for _, p := range exp.Positions {
		x += p.X
		y += p.Y
		z += p.Z
	}
	n := float64(len(exp.Positions))
	return rl.Vector3{X: float32(x / n), Y: float32(y / n), Z: float32(z / n)}
}

func clamp01f(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
