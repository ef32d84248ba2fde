package workload

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewArrivalSampler_RejectsNonPositiveRate(t *testing.T) {
	if _, err := NewArrivalSampler("poisson", 0, 1); err == nil {
		t.Fatal("expected error for zero rate")
	}
	if _, err := NewArrivalSampler("poisson", -1, 1); err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestNewArrivalSampler_RejectsUnknownProcess(t *testing.T) {
	if _, err := NewArrivalSampler("bogus", 10, 1); err == nil {
		t.Fatal("expected error for unknown process")
	}
}

func TestPoissonSampler_AlwaysPositive(t *testing.T) {
	s, err := NewArrivalSampler("poisson", 100, 1)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		if iat := s.SampleIAT(rng); iat <= 0 {
			t.Fatalf("SampleIAT returned non-positive value %g", iat)
		}
	}
}

func TestGammaSampler_AlwaysPositive(t *testing.T) {
	s, err := NewArrivalSampler("gamma", 50, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		if iat := s.SampleIAT(rng); iat <= 0 {
			t.Fatalf("SampleIAT returned non-positive value %g", iat)
		}
	}
}

func TestWeibullSampler_AlwaysPositive(t *testing.T) {
	s, err := NewArrivalSampler("weibull", 30, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		if iat := s.SampleIAT(rng); iat <= 0 {
			t.Fatalf("SampleIAT returned non-positive value %g", iat)
		}
	}
}

func TestWeibullShapeFromCV_ConvergesNearTarget(t *testing.T) {
	for _, target := range []float64{0.3, 0.7, 1.0, 1.5, 2.0} {
		k := weibullShapeFromCV(target)
		got := weibullCV(k)
		if math.Abs(got-target) > 0.01 {
			t.Errorf("weibullShapeFromCV(%g) -> k=%g, CV=%g, want within 0.01", target, k, got)
		}
	}
}

func TestArrivalSampler_SameSeedReproducible(t *testing.T) {
	s1, _ := NewArrivalSampler("gamma", 20, 1.5)
	s2, _ := NewArrivalSampler("gamma", 20, 1.5)
	r1 := rand.New(rand.NewSource(42))
	r2 := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		a, b := s1.SampleIAT(r1), s2.SampleIAT(r2)
		if a != b {
			t.Fatalf("sample %d diverged: %g != %g", i, a, b)
		}
	}
}
