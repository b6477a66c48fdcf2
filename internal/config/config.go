package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lec-simulator/internal/data"
	"lec-simulator/internal/grid"
	"lec-simulator/internal/loadshift"
	"lec-simulator/internal/market"
	"lec-simulator/internal/model"
	"lec-simulator/internal/simulation"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Seed is used when a request does not carry one.
	Seed    uint64        `yaml:"seed"`
	Dataset DatasetConfig `yaml:"dataset"`

	// Optional: load battery parameters from a separate YAML.
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string           `yaml:"battery_file"`
	Battery     BatteryConfig    `yaml:"battery"`
	Tariffs     grid.Schedule    `yaml:"tariffs"`
	LoadShift   loadshift.Config `yaml:"load_shift"`
	Market      MarketConfig     `yaml:"market"`
}

// DatasetConfig selects the household dataset. JSONFile wins over LoadFile; with
// neither set a synthetic dataset is generated.
type DatasetConfig struct {
	LoadFile string `yaml:"load_file"`
	PVFile   string `yaml:"pv_file"`
	JSONFile string `yaml:"json_file"`
	// Timezone is the IANA zone of the CSV wall clock, e.g. "Europe/Berlin".
	// Empty keeps the offsets written in the files.
	Timezone  string          `yaml:"timezone"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

type SyntheticConfig struct {
	Households int    `yaml:"households"`
	Days       int    `yaml:"days"`
	Start      string `yaml:"start"` // YYYY-MM-DD
	Seed       uint64 `yaml:"seed"`
}

type BatteryConfig struct {
	Name                string  `yaml:"name"`
	CapacityKWh         float64 `yaml:"capacity_kwh"`
	MaxChargeKW         float64 `yaml:"max_charge_kw"`
	MaxDischargeKW      float64 `yaml:"max_discharge_kw"`
	ChargeEfficiency    float64 `yaml:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency"`
	MinSOC              float64 `yaml:"min_soc"`
	MaxSOC              float64 `yaml:"max_soc"`
	RetentionPerHour    float64 `yaml:"retention_per_hour"`
}

type MarketConfig struct {
	Pairing string `yaml:"pairing"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	b := model.DefaultBatteryParams()
	s := data.DefaultSyntheticOptions()
	return &Config{
		Dataset: DatasetConfig{Synthetic: SyntheticConfig{
			Households: s.Households,
			Days:       s.Days,
			Start:      s.Start.Format(time.DateOnly),
			Seed:       s.Seed,
		}},
		Battery: BatteryConfig{
			Name:                "home-10kwh",
			CapacityKWh:         b.CapacityKWh,
			MaxChargeKW:         b.MaxChargeKW,
			MaxDischargeKW:      b.MaxDischargeKW,
			ChargeEfficiency:    b.ChargeEfficiency,
			DischargeEfficiency: b.DischargeEfficiency,
			MinSOC:              b.MinSOC,
			MaxSOC:              b.MaxSOC,
			RetentionPerHour:    b.RetentionPerHour,
		},
		Tariffs:   grid.DefaultSchedule(),
		LoadShift: loadshift.DefaultConfig(),
		Market:    MarketConfig{Pairing: string(market.PairingProportional)},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		loaded, err := loadBatteryFile(resolve(path, c.BatteryFile))
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	for _, p := range []*string{&c.Dataset.LoadFile, &c.Dataset.PVFile, &c.Dataset.JSONFile} {
		if *p != "" {
			*p = resolve(path, *p)
		}
	}
	c.applyDefaults()
	return &c, nil
}

// resolve prefers interpreting rel relative to the config file directory, but falls
// back to the provided path (relative to cwd) if that doesn't exist.
func resolve(configPath, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	cand := filepath.Join(filepath.Dir(configPath), rel)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return rel
}

func (c *Config) applyDefaults() {
	d := Default()
	c.Battery = MergeBattery(d.Battery, c.Battery)
	if c.Tariffs.Base == (grid.Tariff{}) {
		c.Tariffs.Base = d.Tariffs.Base
	}
	if c.LoadShift == (loadshift.Config{}) {
		c.LoadShift = d.LoadShift
	}
	if c.Market.Pairing == "" {
		c.Market.Pairing = d.Market.Pairing
	}
	s, ds := &c.Dataset.Synthetic, d.Dataset.Synthetic
	if s.Households == 0 {
		s.Households = ds.Households
	}
	if s.Days == 0 {
		s.Days = ds.Days
	}
	if s.Start == "" {
		s.Start = ds.Start
	}
	if s.Seed == 0 {
		s.Seed = ds.Seed
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Battery.ToModelParams().Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	if err := c.Tariffs.Validate(); err != nil {
		return fmt.Errorf("tariffs invalid: %w", err)
	}
	if err := c.LoadShift.Validate(); err != nil {
		return fmt.Errorf("load_shift invalid: %w", err)
	}
	if _, err := market.ParsePairing(c.Market.Pairing); err != nil {
		return fmt.Errorf("market invalid: %w", err)
	}
	d := c.Dataset
	if d.JSONFile == "" && (d.LoadFile == "") != (d.PVFile == "") {
		return errors.New("dataset.load_file and dataset.pv_file must be set together")
	}
	if _, err := d.Synthetic.options(); err != nil {
		return fmt.Errorf("dataset.synthetic invalid: %w", err)
	}
	if _, err := d.location(); err != nil {
		return err
	}
	return nil
}

func (d DatasetConfig) location() (*time.Location, error) {
	if d.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("dataset.timezone invalid: %w", err)
	}
	return loc, nil
}

func (s SyntheticConfig) options() (data.SyntheticOptions, error) {
	start, err := time.Parse(time.DateOnly, s.Start)
	if err != nil {
		return data.SyntheticOptions{}, fmt.Errorf("start must be YYYY-MM-DD: %w", err)
	}
	if s.Households <= 0 || s.Days <= 0 {
		return data.SyntheticOptions{}, errors.New("households and days must be > 0")
	}
	return data.SyntheticOptions{Households: s.Households, Start: start, Days: s.Days, Seed: s.Seed}, nil
}

// Provider returns the dataset source the config describes.
func (c *Config) Provider() (data.Provider, error) {
	d := c.Dataset
	switch {
	case d.JSONFile != "":
		return data.JSONProvider{Path: d.JSONFile}, nil
	case d.LoadFile != "":
		loc, err := d.location()
		if err != nil {
			return nil, err
		}
		return data.CSVProvider{LoadPath: d.LoadFile, PVPath: d.PVFile, Location: loc}, nil
	}
	o, err := d.Synthetic.options()
	if err != nil {
		return nil, err
	}
	return data.SyntheticProvider{Options: o}, nil
}

// EngineOptions maps the config onto simulation options. Logger and Observer are left
// for the caller.
func (c *Config) EngineOptions() (simulation.Options, error) {
	pairing, err := market.ParsePairing(c.Market.Pairing)
	if err != nil {
		return simulation.Options{}, err
	}
	return simulation.Options{
		Battery:   c.Battery.ToModelParams(),
		Tariffs:   c.Tariffs,
		LoadShift: c.LoadShift,
		Pairing:   pairing,
	}, nil
}

func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		CapacityKWh:         b.CapacityKWh,
		MaxChargeKW:         b.MaxChargeKW,
		MaxDischargeKW:      b.MaxDischargeKW,
		ChargeEfficiency:    b.ChargeEfficiency,
		DischargeEfficiency: b.DischargeEfficiency,
		MinSOC:              b.MinSOC,
		MaxSOC:              b.MaxSOC,
		RetentionPerHour:    b.RetentionPerHour,
	}
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

func loadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, err
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityKWh != 0 {
		out.CapacityKWh = override.CapacityKWh
	}
	if override.MaxChargeKW != 0 {
		out.MaxChargeKW = override.MaxChargeKW
	}
	if override.MaxDischargeKW != 0 {
		out.MaxDischargeKW = override.MaxDischargeKW
	}
	if override.ChargeEfficiency != 0 {
		out.ChargeEfficiency = override.ChargeEfficiency
	}
	if override.DischargeEfficiency != 0 {
		out.DischargeEfficiency = override.DischargeEfficiency
	}
	// Note: these are allowed to be 0 in theory, but our configs use non-zero values.
	if override.MinSOC != 0 {
		out.MinSOC = override.MinSOC
	}
	if override.MaxSOC != 0 {
		out.MaxSOC = override.MaxSOC
	}
	if override.RetentionPerHour != 0 {
		out.RetentionPerHour = override.RetentionPerHour
	}
	return out
}
