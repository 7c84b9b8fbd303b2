// Package scenarios holds the end-to-end harness tests together with the
// levels they load.
package scenarios

import (
	"embed"
	"io/fs"

	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/runner"
)

// Level categories under Levels/.
const (
	CategoryPhysics = "Physics"
	CategoryEditor  = "Editor"
)

//go:embed project
var files embed.FS

// FS returns the project tree holding the scenario levels and the asset
// catalog.
func FS() fs.FS {
	sub, err := fs.Sub(files, "project")
	if err != nil {
		panic(err)
	}
	return sub
}

var (
	enteredGameMode = report.Label{Success: "Entered game mode", Failure: "Failed to enter game mode"}
	exitedGameMode  = report.Label{Success: "Exited game mode", Failure: "Couldn't exit game mode"}
)

// Suite returns every scenario.
func Suite() runner.Suite {
	return runner.NewSuite("scenarios",
		runner.Test{
			Name:    "GravityAwakens",
			Level:   runner.LevelRef{Category: CategoryPhysics, Name: "GravityAwakens"},
			Markers: []string{runner.MarkerMain},
			Body:    gravityAwakens,
		},
		runner.Test{
			Name:    "StaticFriction",
			Level:   runner.LevelRef{Category: CategoryPhysics, Name: "StaticFriction"},
			Markers: []string{runner.MarkerPeriodic},
			Body:    staticFriction,
		},
		runner.Test{
			Name:    "TriggerPassthrough",
			Level:   runner.LevelRef{Category: CategoryPhysics, Name: "TriggerPassthrough"},
			Markers: []string{runner.MarkerMain},
			Body:    triggerPassthrough,
		},
		runner.Test{
			Name:    "ForceRegionDirection",
			Level:   runner.LevelRef{Category: CategoryPhysics, Name: "ForceRegionDirection"},
			Markers: []string{runner.MarkerMain},
			Body:    forceRegionDirection,
		},
		runner.Test{
			Name:    "SearchByPath",
			Level:   runner.LevelRef{Category: CategoryEditor, Name: "Blank"},
			Markers: []string{runner.MarkerMain},
			Body:    searchByPath,
		},
		runner.Test{
			Name:    "JointCollision",
			Level:   runner.LevelRef{Category: CategoryPhysics, Name: "JointCollision"},
			Markers: []string{runner.MarkerPeriodic},
			Body:    jointCollision,
		},
	)
}
