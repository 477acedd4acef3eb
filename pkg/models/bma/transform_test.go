package bma

import (
	"errors"
	"math"
	"testing"
)

func TestTransform_RoundTrip(t *testing.T) {
	lambdas := []float64{-1.5, -0.5, 0, 0.2, 0.5, 1, 2, 3.3}
	values := []float64{0.01, 0.5, 1, 7.25, 120, 5432.1}

	for _, lambda := range lambdas {
		for _, x := range values {
			y, err := Forward(x, lambda)
			if err != nil {
				t.Fatalf("Forward(%g, %g) unexpected error: %v", x, lambda, err)
			}
			got, err := Inverse(y, lambda)
			if err != nil {
				t.Fatalf("Inverse(%g, %g) unexpected error: %v", y, lambda, err)
			}
			if math.Abs(got-x) > 1e-9*math.Max(1, x) {
				t.Errorf("round trip of %g with lambda %g = %g", x, lambda, got)
			}
		}
	}
}

func TestTransform_Forward(t *testing.T) {
	tests := []struct {
		name    string
		x       float64
		lambda  float64
		want    float64
		wantErr bool
	}{
		{name: "unit lambda shifts by one", x: 10, lambda: 1, want: 9},
		{name: "square", x: 3, lambda: 2, want: 4},
		{name: "log limit", x: math.E, lambda: 0, want: 1},
		{name: "integer lambda tolerates negative", x: -2, lambda: 2, want: 1.5},
		{name: "fractional lambda rejects zero", x: 0, lambda: 0.5, wantErr: true},
		{name: "fractional lambda rejects negative", x: -1, lambda: 0.3, wantErr: true},
		{name: "log limit rejects zero", x: 0, lambda: 0, wantErr: true},
		{name: "negative lambda rejects zero", x: 0, lambda: -1, wantErr: true},
		{name: "overflow", x: 1e200, lambda: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Forward(tt.x, tt.lambda)
			if tt.wantErr {
				var domainErr *DomainError
				if !errors.As(err, &domainErr) {
					t.Fatalf("expected DomainError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Forward(%g, %g) = %g, want %g", tt.x, tt.lambda, got, tt.want)
			}
		})
	}
}

func TestTransform_InverseDomain(t *testing.T) {
	if _, err := Inverse(-3, 0.4); err == nil {
		t.Errorf("expected error for base below zero with fractional exponent")
	}
	if _, err := Inverse(1, -1); err == nil {
		t.Errorf("expected error for zero base with negative exponent")
	}
	if v, err := Inverse(-3, 1); err != nil || v != -2 {
		t.Errorf("Inverse(-3, 1) = %g, %v; want -2, nil", v, err)
	}
}

func TestTransform_ForwardAll(t *testing.T) {
	out, err := ForwardAll([]float64{1, 4, 9}, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 2, 4}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("out[%d] = %g, want %g", i, out[i], want[i])
		}
	}

	if _, err := ForwardAll([]float64{1, -4}, 0.5); err == nil {
		t.Errorf("expected error for negative member")
	}
}

func TestTransform_InverseEvenPowerRejectsNegativeBase(t *testing.T) {
	var domainErr *DomainError
	if _, err := Inverse(-5, 0.5); !errors.As(err, &domainErr) {
		t.Errorf("expected DomainError for even power of negative base, got %v", err)
	}
	if v, err := Inverse(-5, 1.0/3); err != nil || v >= 0 {
		t.Errorf("odd power must keep the sign, got %g, %v", v, err)
	}
}
