package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"gopkg.in/yaml.v3"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Table names are interpolated into SQL, so only plain identifiers pass.
	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifier.MatchString(fl.Field().String())
	})
}

type Config struct {
	Log struct {
		Mode string `yaml:"mode" default:"prod" validate:"oneof=dev prod"`
	} `yaml:"log"`
	Store struct {
		DSN           string `yaml:"dsn" default:"hedgeflow.duckdb"`
		ForecastTable string `yaml:"forecast_table" default:"ensemble_forecasts" validate:"identifier"`
		DecisionTable string `yaml:"decision_table" default:"hedge_decisions" validate:"identifier"`
	} `yaml:"store"`
	// Mirror optionally copies every stored decision to PostgreSQL.
	Mirror struct {
		Postgres string `yaml:"postgres"`
		Table    string `yaml:"table" default:"hedge_decisions" validate:"identifier"`
	} `yaml:"mirror"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Backfill struct {
		Workers int `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
	} `yaml:"backfill"`
	Report struct {
		Scale int `yaml:"scale" default:"3" validate:"gte=0,lte=9"`
	} `yaml:"report"`
	Reservoirs []Reservoir `yaml:"reservoirs" validate:"required,min=1,dive"`
}

// Reservoir is the operational and calibration setup of one reservoir.
type Reservoir struct {
	Name          string  `yaml:"name" validate:"required"`
	Ceiling       float64 `yaml:"ceiling"`
	MaxHoldBack   float64 `yaml:"max_hold_back" validate:"gte=0"`
	RiskTolerance float64 `yaml:"risk_tolerance" validate:"gte=0,lt=1"`
	Storage       struct {
		Capacity float64 `yaml:"capacity" validate:"gt=0"`
		Weight   float64 `yaml:"weight" validate:"gte=0,lte=1"`
		Shape    float64 `yaml:"shape" default:"2" validate:"gt=0"`
	} `yaml:"storage"`
	// Lambda is a pointer because zero selects the log transform.
	Lambda        *float64  `yaml:"lambda" validate:"required"`
	MemberWeights []float64 `yaml:"member_weights" validate:"required,min=1,dive,gte=0"`
	SharedStdDev  float64   `yaml:"shared_std_dev" validate:"gt=0"`
	GridSize      int       `yaml:"grid_size" default:"500" validate:"gte=2"`
}

func (r Reservoir) Model() kkt.Reservoir {
	return kkt.Reservoir{
		Ceiling:     r.Ceiling,
		MaxHoldBack: r.MaxHoldBack,
		Storage: kkt.StorageValue{
			Capacity: r.Storage.Capacity,
			Weight:   r.Storage.Weight,
			Shape:    r.Storage.Shape,
		},
		RiskTolerance: r.RiskTolerance,
	}
}

func (r Reservoir) TransformLambda() float64 {
	if r.Lambda == nil {
		return 1
	}
	return *r.Lambda
}

func (r Reservoir) Parameters() bma.Parameters {
	weights := make([]float64, len(r.MemberWeights))
	copy(weights, r.MemberWeights)
	return bma.Parameters{MemberWeights: weights, SharedStdDev: r.SharedStdDev}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	for i := range c.Reservoirs {
		if err := defaults.Set(&c.Reservoirs[i]); err != nil {
			return nil, fmt.Errorf("reservoir %d defaults: %w", i, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Reservoirs))
	for _, r := range c.Reservoirs {
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("duplicate reservoir %q", r.Name)
		}
		seen[r.Name] = struct{}{}

		if err := r.Model().Validate(); err != nil {
			return fmt.Errorf("reservoir %q: %w", r.Name, err)
		}
		if err := r.Parameters().Validate(len(r.MemberWeights)); err != nil {
			return fmt.Errorf("reservoir %q: %w", r.Name, err)
		}
	}
	return nil
}

// Reservoir looks a reservoir up by name.
func (c *Config) Reservoir(name string) (Reservoir, bool) {
	for _, r := range c.Reservoirs {
		if r.Name == name {
			return r, true
		}
	}
	return Reservoir{}, false
}
