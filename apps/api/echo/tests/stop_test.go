package tests

import (
	"net/http"
	"testing"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
	testutil "github.com/collab46515/accademy-assist-sub006/tests"
)

func Test_stopApi_create(t *testing.T) {
	base := "/v1/schools/sch-stop-create/stops"

	payload := func() map[string]interface{} {
		return map[string]interface{}{
			"route_id":          "route-1",
			"name":              "Maple Avenue",
			"type":              "student_stop",
			"latitude":          12.9716,
			"longitude":         77.5946,
			"geofence_radius_m": 50,
			"pickup_time":       "07:15",
		}
	}

	t.Run("created", func(t *testing.T) {
		rec := do(t, http.MethodPost, base, payload())
		wantStatus(t, rec, http.StatusCreated)

		var stop transport.Stop
		decode(t, rec, &stop)
		if stop.ID == "" {
			t.Error("stop ID not assigned")
		}
		if !stop.Active {
			t.Error("new stop not active")
		}
	})

	t.Run("radius out of range beats any distance check", func(t *testing.T) {
		// would also overlap the stop above; the field error must win
		body := payload()
		body["name"] = "Lakeview Gate"
		body["geofence_radius_m"] = 5
		rec := do(t, http.MethodPost, base, body)
		wantStatus(t, rec, http.StatusBadRequest)

		var fields map[string]string
		decode(t, rec, &fields)
		if _, ok := fields["geofence_radius_m"]; !ok {
			t.Errorf("error fields = %v, want geofence_radius_m", fields)
		}
	})

	t.Run("overlap conflicts", func(t *testing.T) {
		body := payload()
		body["name"] = "Lakeview Gate"
		body["longitude"] = 77.5951 // ~54m from Maple Avenue
		rec := do(t, http.MethodPost, base, body)
		wantStatus(t, rec, http.StatusConflict)

		var conflict struct {
			Error          string `json:"error"`
			StopID         string `json:"stop_id"`
			DistanceMeters string `json:"distance_meters"`
		}
		decode(t, rec, &conflict)
		if conflict.StopID == "" {
			t.Errorf("conflict body = %+v, want offending stop_id", conflict)
		}
	})

	t.Run("address-only stop", func(t *testing.T) {
		body := payload()
		body["name"] = "Community Hall"
		delete(body, "latitude")
		delete(body, "longitude")
		rec := do(t, http.MethodPost, base, body)
		wantStatus(t, rec, http.StatusCreated)
	})

	t.Run("latitude without longitude", func(t *testing.T) {
		body := payload()
		body["name"] = "Half Coords"
		delete(body, "longitude")
		rec := do(t, http.MethodPost, base, body)
		wantStatus(t, rec, http.StatusBadRequest)
	})
}

func Test_stopApi_updateAndDeactivate(t *testing.T) {
	const school = "sch-stop-update"
	stop := testutil.CreateStop(t, stopRepo, school, "route-1", "Maple Avenue", 12.9716, 77.5946, 50)
	base := "/v1/schools/" + school + "/stops/" + stop.ID

	t.Run("rename", func(t *testing.T) {
		rec := do(t, http.MethodPut, base, map[string]string{"name": "Maple Avenue North"})
		wantStatus(t, rec, http.StatusOK)

		var updated transport.Stop
		decode(t, rec, &updated)
		if updated.Name != "Maple Avenue North" {
			t.Errorf("name = %q, want Maple Avenue North", updated.Name)
		}
	})

	t.Run("move onto a neighbour conflicts", func(t *testing.T) {
		testutil.CreateStop(t, stopRepo, school, "route-1", "Lakeview Gate", 12.9816, 77.6046, 50)

		rec := do(t, http.MethodPut, base, map[string]float64{
			"latitude":  12.9816,
			"longitude": 77.6041, // ~54m from Lakeview Gate
		})
		wantStatus(t, rec, http.StatusConflict)
	})

	t.Run("deactivate", func(t *testing.T) {
		rec := do(t, http.MethodPost, base+"/deactivate", nil)
		wantStatus(t, rec, http.StatusOK)

		var deactivated transport.Stop
		decode(t, rec, &deactivated)
		if deactivated.Active {
			t.Error("stop still active")
		}

		// still readable: no hard delete
		rec = do(t, http.MethodGet, base, nil)
		wantStatus(t, rec, http.StatusOK)

		// and excluded from active queries
		rec = do(t, http.MethodGet, "/v1/schools/"+school+"/stops?active=true", nil)
		wantStatus(t, rec, http.StatusOK)
		var stops []transport.Stop
		decode(t, rec, &stops)
		for _, s := range stops {
			if s.ID == stop.ID {
				t.Error("deactivated stop still listed as active")
			}
		}
	})

	t.Run("unknown stop", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/schools/"+school+"/stops/nope/deactivate", nil)
		wantStatus(t, rec, http.StatusNotFound)
	})
}
