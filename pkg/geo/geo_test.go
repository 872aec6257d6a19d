package geo

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

type site struct {
	id  string
	loc Point
}

func (s site) Location() Point { return s.loc }

func TestDistance(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Point
		wantKM  float64
		toleran float64
	}{
		{
			name:    "same point",
			a:       Point{Lat: 45.4215, Lon: -75.6972},
			b:       Point{Lat: 45.4215, Lon: -75.6972},
			wantKM:  0,
			toleran: 0,
		},
		{
			name:    "Ottawa to Montreal",
			a:       Point{Lat: 45.4215, Lon: -75.6972},
			b:       Point{Lat: 45.5017, Lon: -73.5673},
			wantKM:  166,
			toleran: 3,
		},
		{
			name:    "Vancouver to Halifax",
			a:       Point{Lat: 49.2827, Lon: -123.1207},
			b:       Point{Lat: 44.6488, Lon: -63.5752},
			wantKM:  4440,
			toleran: 30,
		},
		{
			name:    "one degree of latitude near the pole",
			a:       Point{Lat: 80, Lon: -90},
			b:       Point{Lat: 81, Lon: -90},
			wantKM:  111.6,
			toleran: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantKM) > tt.toleran {
				t.Errorf("Distance(%v, %v) = %.2f km, want %.2f ± %.2f", tt.a, tt.b, got, tt.wantKM, tt.toleran)
			}
			if back := Distance(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("Distance is not symmetric: %.6f vs %.6f", got, back)
			}
		})
	}
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Point
		wantErr bool
	}{
		{name: "Ottawa", p: Point{Lat: 45.42, Lon: -75.69}},
		{name: "corners", p: Point{Lat: -90, Lon: 180}},
		{name: "latitude too large", p: Point{Lat: 91, Lon: 0}, wantErr: true},
		{name: "longitude too small", p: Point{Lat: 0, Lon: -180.5}, wantErr: true},
		{name: "NaN", p: Point{Lat: math.NaN(), Lon: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("Validate() error = %v, want ErrInvalidCoordinate", err)
			}
		})
	}
}

func TestClosest(t *testing.T) {
	catalog := []site{
		{id: "A", loc: Point{Lat: 45.0, Lon: -75.0}},
		{id: "B", loc: Point{Lat: 46.0, Lon: -76.0}},
	}

	got, err := Closest(Point{Lat: 45.01, Lon: -75.01}, catalog)
	if err != nil {
		t.Fatalf("Closest() error = %v", err)
	}
	if got.id != "A" {
		t.Errorf("Closest() = %q, want %q", got.id, "A")
	}

	got, err = Closest(Point{Lat: 46.2, Lon: -76.3}, catalog)
	if err != nil {
		t.Fatalf("Closest() error = %v", err)
	}
	if got.id != "B" {
		t.Errorf("Closest() = %q, want %q", got.id, "B")
	}
}

func TestClosestEmptyCatalog(t *testing.T) {
	_, err := Closest(Point{Lat: 45, Lon: -75}, []site{})
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("Closest() error = %v, want ErrNoCandidates", err)
	}
}

func TestClosestSingleRecord(t *testing.T) {
	only := []site{{id: "only", loc: Point{Lat: 60.7, Lon: -135.05}}}
	targets := []Point{
		{Lat: 60.7, Lon: -135.05},
		{Lat: -33.9, Lon: 151.2},
		{Lat: 89.9, Lon: 0},
		{Lat: 0, Lon: -179.9},
	}
	for _, target := range targets {
		got, err := Closest(target, only)
		if err != nil {
			t.Fatalf("Closest(%v) error = %v", target, err)
		}
		if got.id != "only" {
			t.Errorf("Closest(%v) = %q, want %q", target, got.id, "only")
		}
	}
}

func TestClosestTieBreaksOnCatalogOrder(t *testing.T) {
	catalog := []site{
		{id: "first", loc: Point{Lat: 50, Lon: -100}},
		{id: "second", loc: Point{Lat: 50, Lon: -100}},
	}
	got, err := Closest(Point{Lat: 49, Lon: -99}, catalog)
	if err != nil {
		t.Fatalf("Closest() error = %v", err)
	}
	if got.id != "first" {
		t.Errorf("Closest() = %q, want %q", got.id, "first")
	}
}

func TestClosestExactMatch(t *testing.T) {
	catalog := []site{
		{id: "near", loc: Point{Lat: 53.55, Lon: -113.49}},
		{id: "exact", loc: Point{Lat: 53.54, Lon: -113.50}},
	}
	got, err := Closest(Point{Lat: 53.54, Lon: -113.50}, catalog)
	if err != nil {
		t.Fatalf("Closest() error = %v", err)
	}
	if got.id != "exact" {
		t.Errorf("Closest() = %q, want %q", got.id, "exact")
	}
}

func TestClosestIsMinimal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(200)
		catalog := make([]site, n)
		for i := range catalog {
			catalog[i] = site{
				id:  string(rune('a' + i%26)),
				loc: Point{Lat: 42 + rng.Float64()*40, Lon: -141 + rng.Float64()*89},
			}
		}
		target := Point{Lat: 42 + rng.Float64()*40, Lon: -141 + rng.Float64()*89}

		got, err := Closest(target, catalog)
		if err != nil {
			t.Fatalf("round %d: Closest() error = %v", round, err)
		}
		gotDist := Distance(target, got.Location())
		for _, s := range catalog {
			if d := Distance(target, s.Location()); d < gotDist {
				t.Fatalf("round %d: %v is %.3f km away, closer than chosen %.3f km", round, s.loc, d, gotDist)
			}
		}
	}
}
