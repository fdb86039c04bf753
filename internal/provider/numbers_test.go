package provider

import (
	"fmt"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "6,325", want: 6325},
		{input: "₹ 1,23,456.50", want: 123456.50},
		{input: "74,500.00", want: 74500},
		{input: "2050.75", want: 2050.75},
		{input: "-12.5", want: -12.5},
		{input: "+99", want: 99},
		{input: "  1,000  ", want: 1000},
		{input: "", wantErr: true},
		{input: "N/A", wantErr: true},
		{input: "--", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePrice(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "1.23%", want: 1.23},
		{input: "-0.5 %", want: -0.5},
		{input: "+2.1", want: 2.1},
		{input: "0.0000%", want: 0},
		{input: "", want: 0},
		{input: "%", want: 0},
		{input: "12.34.56%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePercent(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePercent(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePercent(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePercent(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// Property: formatting a price with grouping separators and parsing it back
// recovers the original value.
func TestProperty_ParsePriceGroupedRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("grouped integer prices survive parsing", prop.ForAll(
		func(n int) bool {
			grouped := groupThousands(n)
			got, err := ParsePrice(grouped)
			return err == nil && got == float64(n)
		},
		gen.IntRange(0, 100000000),
	))

	properties.Property("two-decimal prices survive parsing", prop.ForAll(
		func(whole int, cents int) bool {
			s := fmt.Sprintf("%s.%02d", groupThousands(whole), cents)
			want, _ := strconv.ParseFloat(fmt.Sprintf("%d.%02d", whole, cents), 64)
			got, err := ParsePrice(s)
			return err == nil && math.Abs(got-want) < 1e-9
		},
		gen.IntRange(0, 10000000),
		gen.IntRange(0, 99),
	))

	properties.Property("percent strings parse without their suffix", prop.ForAll(
		func(whole int, frac int) bool {
			s := fmt.Sprintf("%d.%02d%%", whole, frac)
			want, _ := strconv.ParseFloat(fmt.Sprintf("%d.%02d", whole, frac), 64)
			got, err := ParsePercent(s)
			return err == nil && math.Abs(got-want) < 1e-9
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 99),
	))

	properties.TestingRun(t)
}

// groupThousands renders n with comma thousands separators ("6325" -> "6,325").
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
