package transport_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
	testutil "github.com/collab46515/accademy-assist-sub006/tests"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator(enLocale.Locale())
	core.InitValidators(validate, trans)
	return validate
}

func fPtr(f float64) *float64 { return &f }

func Test_NewStop_Validate(t *testing.T) {
	validate := newValidator(t)

	valid := func() transport.NewStop {
		return transport.NewStop{
			RouteID:         "route-1",
			Name:            "Maple Avenue",
			Type:            transport.StopStudent,
			Latitude:        fPtr(12.9716),
			Longitude:       fPtr(77.5946),
			GeofenceRadiusM: 50,
			PickupTime:      "07:15",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*transport.NewStop)
		wantErr bool
	}{
		{name: "valid", mutate: func(ns *transport.NewStop) {}},
		{name: "address only", mutate: func(ns *transport.NewStop) { ns.Latitude, ns.Longitude = nil, nil }},
		{name: "radius below range", mutate: func(ns *transport.NewStop) { ns.GeofenceRadiusM = 5 }, wantErr: true},
		{name: "radius above range", mutate: func(ns *transport.NewStop) { ns.GeofenceRadiusM = 501 }, wantErr: true},
		{name: "radius at lower bound", mutate: func(ns *transport.NewStop) { ns.GeofenceRadiusM = 10 }},
		{name: "radius at upper bound", mutate: func(ns *transport.NewStop) { ns.GeofenceRadiusM = 500 }},
		{name: "latitude out of range", mutate: func(ns *transport.NewStop) { ns.Latitude = fPtr(91) }, wantErr: true},
		{name: "longitude out of range", mutate: func(ns *transport.NewStop) { ns.Longitude = fPtr(-181) }, wantErr: true},
		{name: "latitude without longitude", mutate: func(ns *transport.NewStop) { ns.Longitude = nil }, wantErr: true},
		{name: "bad pickup time", mutate: func(ns *transport.NewStop) { ns.PickupTime = "7:15am" }, wantErr: true},
		{name: "unknown type", mutate: func(ns *transport.NewStop) { ns.Type = "terminal" }, wantErr: true},
		{name: "missing name", mutate: func(ns *transport.NewStop) { ns.Name = "  " }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := valid()
			tt.mutate(&ns)
			err := ns.Validate(validate)
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func Test_StopService_Create_geofence(t *testing.T) {
	ctx := context.Background()

	newStop := func(name string, lat, lon, radius float64) transport.NewStop {
		ns := transport.NewStop{
			RouteID:         "route-1",
			Name:            name,
			Type:            transport.StopStudent,
			GeofenceRadiusM: radius,
			PickupTime:      "07:00",
		}
		if lat != 0 || lon != 0 {
			ns.Latitude, ns.Longitude = fPtr(lat), fPtr(lon)
		}
		return ns
	}

	t.Run("overlapping stop is rejected", func(t *testing.T) {
		f := newFixture()
		existing := testutil.CreateStop(t, f.stopRepo, school, "route-1", "Maple Avenue", 12.9716, 77.5946, 50)

		// ~54m away, combined radius 100m
		_, err := f.stopSvc.Create(ctx, school, newStop("Lakeview Gate", 12.9716, 77.5951, 50))
		var overlapErr *transport.GeofenceOverlapError
		if !errors.As(err, &overlapErr) {
			t.Fatalf("Create() = %v, want *GeofenceOverlapError", err)
		}
		if overlapErr.StopID != existing.ID {
			t.Errorf("overlap against stop %s, want %s", overlapErr.StopID, existing.ID)
		}
		if overlapErr.DistanceMeters < 50 || overlapErr.DistanceMeters > 60 {
			t.Errorf("reported distance = %.1f, want ~54m", overlapErr.DistanceMeters)
		}
	})

	t.Run("distant stop is accepted", func(t *testing.T) {
		f := newFixture()
		testutil.CreateStop(t, f.stopRepo, school, "route-1", "Maple Avenue", 12.9716, 77.5946, 50)

		if _, err := f.stopSvc.Create(ctx, school, newStop("Lakeview Gate", 12.9816, 77.6046, 50)); err != nil {
			t.Errorf("Create() = %v, want nil", err)
		}
	})

	t.Run("address-only stop skips the check", func(t *testing.T) {
		f := newFixture()
		testutil.CreateStop(t, f.stopRepo, school, "route-1", "Maple Avenue", 12.9716, 77.5946, 50)

		stop, err := f.stopSvc.Create(ctx, school, newStop("Community Hall", 0, 0, 50))
		if err != nil {
			t.Fatalf("Create() = %v, want nil", err)
		}
		if stop.Geofenced() {
			t.Error("Geofenced() = true for address-only stop")
		}
	})

	t.Run("other schools do not constrain placement", func(t *testing.T) {
		f := newFixture()
		testutil.CreateStop(t, f.stopRepo, "sch-other", "route-9", "Their Stop", 12.9716, 77.5946, 50)

		if _, err := f.stopSvc.Create(ctx, school, newStop("Maple Avenue", 12.9716, 77.5946, 50)); err != nil {
			t.Errorf("Create() = %v, want nil", err)
		}
	})

	t.Run("deactivation frees the space", func(t *testing.T) {
		f := newFixture()
		existing := testutil.CreateStop(t, f.stopRepo, school, "route-1", "Maple Avenue", 12.9716, 77.5946, 50)

		candidate := newStop("Lakeview Gate", 12.9716, 77.5951, 50)
		if _, err := f.stopSvc.Create(ctx, school, candidate); err == nil {
			t.Fatal("Create() = nil, want overlap error")
		}

		deactivated, err := f.stopSvc.Deactivate(ctx, school, existing.ID)
		if err != nil {
			t.Fatalf("Deactivate() failed: %v", err)
		}
		if deactivated.Active {
			t.Fatal("stop still active after Deactivate()")
		}

		if _, err := f.stopSvc.Create(ctx, school, candidate); err != nil {
			t.Errorf("Create() after deactivation = %v, want nil", err)
		}

		// soft delete: the stop is still readable
		if _, err := f.stopSvc.Get(ctx, school, existing.ID); err != nil {
			t.Errorf("Get() deactivated stop = %v, want nil", err)
		}
	})
}

func Test_StopService_Update_geofence(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	anchor := testutil.CreateStop(t, f.stopRepo, school, "route-1", "Maple Avenue", 12.9716, 77.5946, 50)
	other := testutil.CreateStop(t, f.stopRepo, school, "route-1", "Lakeview Gate", 12.9816, 77.6046, 50)

	// moving next to the anchor is rejected
	_, err := f.stopSvc.Update(ctx, school, other.ID, transport.UpdateStop{
		Latitude:  fPtr(12.9716),
		Longitude: fPtr(77.5951),
	})
	var overlapErr *transport.GeofenceOverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("Update() = %v, want *GeofenceOverlapError", err)
	}
	if overlapErr.StopID != anchor.ID {
		t.Errorf("overlap against stop %s, want %s", overlapErr.StopID, anchor.ID)
	}

	// growing the radius is fine while the combined radii stay short of the
	// ~1.5km gap to the anchor
	if _, err = f.stopSvc.Update(ctx, school, other.ID, transport.UpdateStop{GeofenceRadiusM: fPtr(500)}); err != nil {
		t.Fatalf("Update(radius=500) = %v, want nil", err)
	}

	// name-only edits never trip the check
	updated, err := f.stopSvc.Update(ctx, school, other.ID, transport.UpdateStop{Name: "Lakeview Gate East"})
	if err != nil {
		t.Fatalf("Update(name) = %v, want nil", err)
	}
	if updated.Name != "Lakeview Gate East" {
		t.Errorf("name = %q, want Lakeview Gate East", updated.Name)
	}
}
