package scenarios

import (
	"fmt"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/harness/entity"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/runner"
)

// searchByPath builds City|Street|{Car, Car, SportsCar}. Each Car carries
// two Passengers; the SportsCar carries a Passenger and a Driver. The Driver
// is deliberate: with two Passengers under every car the path would match 6
// entities, and the check expects exactly 5.
func searchByPath(t *runner.T) error {
	ctx := t.Context()
	create := func(name string, parent models.EntityID) models.EntityID {
		id, err := t.Entities.CreateEditorEntity(ctx, name, parent)
		t.Must(err)
		t.CriticalResult(report.Label{
			Success: "Created " + name,
			Failure: "Couldn't create " + name,
		}, id.IsValid())
		return id
	}

	city := create("City", models.InvalidEntityID)
	street := create("Street", city)
	for _, car := range []string{"Car", "Car", "SportsCar"} {
		c := create(car, street)
		create("Passenger", c)
		if car == "SportsCar" {
			create("Driver", c)
		} else {
			create("Passenger", c)
		}
	}

	found, err := t.Entities.Search(ctx, entity.Filter{Names: []string{"City|Street|*Car|Passenger"}})
	t.Must(err)
	t.Result(report.Label{
		Success: "Path search found 5 passengers",
		Failure: fmt.Sprintf("Path search found %d entities", len(found)),
	}, len(found) == 5)

	for _, id := range found {
		name, err := t.Entities.Entity(id).Name(ctx)
		t.Must(err)
		if name != "Passenger" {
			t.Report.Failure("Path search returned " + name)
		}
	}
	return nil
}
