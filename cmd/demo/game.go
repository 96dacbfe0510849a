package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp"

	"gravitas"
	"gravitas/prefabs"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	fixedDt = 1.0 / 60.0
)

type Game struct {
	frames int

	scene    *gravitas.Scene
	planet   *gravitas.Field
	platform *gravitas.Field
	mount    *cp.Body

	crateSpec *prefabs.SubjectSpec
	watcher   *prefabs.Watcher
}

func NewGame(verbose bool, timeScale float64) (*Game, error) {
	scene := gravitas.NewScene()
	scene.Verbose = verbose
	// Screen coordinates: +Y is down.
	scene.ReferenceUp = cp.Vector{Y: -1}
	scene.Manager().SetTimeScale(timeScale)

	g := &Game{scene: scene}

	planetSpec, err := prefabs.LoadFieldSpec("planet.yaml")
	if err != nil {
		return nil, err
	}
	planetCfg, err := planetSpec.Config()
	if err != nil {
		return nil, err
	}
	g.planet, err = gravitas.NewField(scene, planetCfg)
	if err != nil {
		return nil, err
	}

	platformSpec, err := prefabs.LoadFieldSpec("platform.yaml")
	if err != nil {
		return nil, err
	}
	platformCfg, err := platformSpec.Config()
	if err != nil {
		return nil, err
	}
	// Mount the platform field on a drifting kinematic body so subjects
	// inherit its motion and velocity frame.
	g.mount = cp.NewKinematicBody()
	g.mount.SetPosition(platformCfg.Position)
	scene.Space().AddBody(g.mount)
	platformCfg.Mount = g.mount
	g.platform, err = gravitas.NewField(scene, platformCfg)
	if err != nil {
		return nil, err
	}

	g.crateSpec, err = prefabs.LoadSubjectSpec("crate.yaml")
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat("prefabs"); err == nil {
		w, err := prefabs.NewWatcher("prefabs")
		if err != nil {
			log.Printf("demo: spec watcher unavailable: %v", err)
		} else {
			g.watcher = w
		}
	}

	g.spawnCrate(cp.Vector{X: 400, Y: 160})
	g.spawnCrate(cp.Vector{X: 960, Y: 260})
	scene.Start()
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) spawnCrate(pos cp.Vector) {
	cfg, err := g.crateSpec.Config()
	if err != nil {
		log.Printf("demo: crate spec: %v", err)
		return
	}
	cfg.Body.Position = pos
	if _, err := gravitas.NewSubject(g.scene, cfg); err != nil {
		log.Printf("demo: spawn crate: %v", err)
	}
}

func (g *Game) Update() error {
	g.frames++

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.spawnCrate(cp.Vector{X: float64(x), Y: float64(y)})
	}

	g.drainWatcher()

	// Drift the platform mount back and forth.
	t := float64(g.frames) * fixedDt
	g.mount.SetVelocity(60*math.Cos(t/2), 0)

	g.scene.Update(fixedDt)
	g.scene.FixedUpdate(fixedDt)
	g.scene.LateUpdate()
	return nil
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case ev, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if ev.Kind == prefabs.ReloadScript {
				log.Printf("demo: falloff script changed: %s", ev.Path)
			} else {
				log.Printf("demo: spec changed: %s", ev.Path)
			}
			g.reloadFieldTuning()
		case err := <-g.watcher.Errors:
			log.Printf("demo: watcher: %v", err)
		default:
			return
		}
	}
}

// reloadFieldTuning re-reads the field specs and swaps acceleration and
// falloff on the live fields without disturbing membership.
func (g *Game) reloadFieldTuning() {
	retune := func(f *gravitas.Field, file string) {
		spec, err := prefabs.LoadFieldSpec(file)
		if err != nil {
			log.Printf("demo: reload %s: %v", file, err)
			return
		}
		curve, err := spec.Falloff.Curve()
		if err != nil {
			log.Printf("demo: reload %s: %v", file, err)
			return
		}
		f.Retune(spec.Acceleration, curve)
	}
	retune(g.planet, "planet.yaml")
	retune(g.platform, "platform.yaml")
}

func (g *Game) Draw(screen *ebiten.Image) {
	cp.DrawSpace(g.scene.Space(), &spaceDrawer{screen: screen})

	// Inset views of each active sandbox, lower-left corner.
	inset := cp.Vector{X: 180, Y: float64(baseHeight) - 160}
	for _, f := range g.scene.Manager().ActiveFields() {
		sb := f.Sandbox()
		if sb == nil {
			continue
		}
		cp.DrawSpace(sb.Space(), &spaceDrawer{screen: screen, offset: inset, scale: 0.35})
		inset.X += 340
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"FPS: %.1f  subjects: %d  active fields: %d  (click to spawn)",
		ebiten.ActualFPS(), len(g.scene.Subjects()), len(g.scene.Manager().ActiveFields())))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
