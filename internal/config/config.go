// Package config provides run configuration for spinworld, loaded from YAML
// and checked against a JSON schema before use.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/spinworld/internal/agents"
	"github.com/talgya/spinworld/internal/social"
)

// Config contains every parameter of a simulation run.
type Config struct {
	Seed   int64 `json:"seed" yaml:"seed"`
	Rounds int   `json:"rounds" yaml:"rounds"`

	Population PopulationConfig `json:"population" yaml:"population"`
	Particle   ParticleConfig   `json:"particle" yaml:"particle"`
	Learner    LearnerConfig    `json:"learner" yaml:"learner"`
	Policy     PolicyConfig     `json:"policy" yaml:"policy"`
	Networks   NetworksConfig   `json:"networks" yaml:"networks"`
	Resources  ResourcesConfig  `json:"resources" yaml:"resources"`
	Mobility   MobilityConfig   `json:"mobility" yaml:"mobility"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// PopulationConfig sizes the compliant and non-compliant groups.
type PopulationConfig struct {
	CompliantAgents    int     `json:"c_agents" yaml:"c_agents"`
	CompliantPCheat    float64 `json:"c_pcheat" yaml:"c_pcheat"`
	NonCompliantAgents int     `json:"nc_agents" yaml:"nc_agents"`
	NonCompliantPCheat float64 `json:"nc_pcheat" yaml:"nc_pcheat"`
}

// ParticleConfig holds the parameters every particle shares.
type ParticleConfig struct {
	A     float64 `json:"a" yaml:"a"`
	B     float64 `json:"b" yaml:"b"`
	C     float64 `json:"c" yaml:"c"`
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
	Theta float64 `json:"theta" yaml:"theta"`
	Phi   float64 `json:"phi" yaml:"phi"`

	// CheatOn is PROVISION, DEMAND, APPROPRIATE or random.
	CheatOn string `json:"cheat_on" yaml:"cheat_on"`

	// WarningWeight scales warnings in the observed risk rate.
	WarningWeight float64 `json:"warning_weight" yaml:"warning_weight"`
}

// LearnerConfig selects how particles adapt their propensity to cheat.
type LearnerConfig struct {
	// Kind is WINDOWED (default) or ROUND.
	Kind       string `json:"kind" yaml:"kind"`
	PlanLength int    `json:"plan_length" yaml:"plan_length"`
	Normalize  bool   `json:"normalize" yaml:"normalize"`
}

// PolicyConfig selects how particles evaluate their networks.
type PolicyConfig struct {
	// Kind is THRESHOLD (default), UTILITY or AGE.
	Kind            string  `json:"kind" yaml:"kind"`
	EvaluateEvery   int     `json:"evaluate_every" yaml:"evaluate_every"`
	LeaveThreshold  int     `json:"leave_threshold" yaml:"leave_threshold"`
	Tolerance1      float64 `json:"tolerance1" yaml:"tolerance1"`
	Tolerance2      float64 `json:"tolerance2" yaml:"tolerance2"`
	Acclimatization int     `json:"acclimatization" yaml:"acclimatization"`
	BaseLifespan    int     `json:"base_lifespan" yaml:"base_lifespan"`
}

// NetworksConfig parameterises network creation.
type NetworksConfig struct {
	// Initial lists allocation methods of networks created before round 1.
	Initial           []string `json:"initial" yaml:"initial"`
	StrictNets        float64  `json:"strict_nets" yaml:"strict_nets"`
	StrictMonitoring  float64  `json:"strict_monitoring" yaml:"strict_monitoring"`
	LenientMonitoring float64  `json:"lenient_monitoring" yaml:"lenient_monitoring"`
	MonitoringCost    float64  `json:"monitoring_cost" yaml:"monitoring_cost"`
	SeverityLB        float64  `json:"severity_lb" yaml:"severity_lb"`
	SeverityUB        float64  `json:"severity_ub" yaml:"severity_ub"`
	Warnings          int      `json:"warnings" yaml:"warnings"`
	Forgiveness       float64  `json:"forgiveness" yaml:"forgiveness"`
}

// ResourcesConfig bounds generation and need.
type ResourcesConfig struct {
	Radius float64 `json:"radius" yaml:"radius"`
}

// MobilityConfig shapes movement on the torus.
type MobilityConfig struct {
	Size      int     `json:"size" yaml:"size"`
	Velocity  int     `json:"velocity" yaml:"velocity"`
	VConst    int     `json:"v_const" yaml:"v_const"`
	DriftBias float64 `json:"drift_bias" yaml:"drift_bias"`
}

// StorageConfig says where results go. Empty paths disable that output.
type StorageConfig struct {
	DBPath   string `json:"db_path" yaml:"db_path"`
	RoundLog string `json:"round_log" yaml:"round_log"`
	Comment  string `json:"comment" yaml:"comment"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
}

// Default returns the parameters of the standard experiment.
func Default() Config {
	return Config{
		Seed:   1,
		Rounds: 1000,
		Population: PopulationConfig{
			CompliantAgents:    20,
			CompliantPCheat:    0.025,
			NonCompliantAgents: 10,
			NonCompliantPCheat: 0.4,
		},
		Particle: ParticleConfig{
			A: 2, B: 1, C: 3,
			Alpha: 0.1, Beta: 0.1,
			Theta: 0.1, Phi: 0.1,
			CheatOn:       "PROVISION",
			WarningWeight: 1.0,
		},
		Learner: LearnerConfig{
			Kind:       "WINDOWED",
			PlanLength: agents.DefaultPlanLength,
		},
		Policy: PolicyConfig{
			Kind:            "THRESHOLD",
			EvaluateEvery:   20,
			LeaveThreshold:  agents.DefaultLeaveThreshold,
			Tolerance1:      0.1,
			Tolerance2:      0.5,
			Acclimatization: agents.DefaultAcclimatization,
			BaseLifespan:    agents.DefaultBaseLifespan,
		},
		Networks: NetworksConfig{
			StrictNets:        0.5,
			StrictMonitoring:  0.5,
			LenientMonitoring: 0.1,
			MonitoringCost:    0.3,
			SeverityLB:        0.2,
			SeverityUB:        1.0,
			Warnings:          1,
			Forgiveness:       1.0,
		},
		Resources: ResourcesConfig{Radius: 1},
		Mobility: MobilityConfig{
			Size:      5,
			Velocity:  1,
			VConst:    0,
			DriftBias: 0.25,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration against the schema, then checks the
// names that select behaviour.
func (c Config) Validate() error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := schema().Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	if _, err := agents.ParseLearnerKind(c.Learner.Kind); err != nil {
		errs = append(errs, err)
	}
	if _, err := agents.ParsePolicyKind(c.Policy.Kind); err != nil {
		errs = append(errs, err)
	}
	if !strings.EqualFold(c.Particle.CheatOn, agents.CheatRandom) {
		if _, err := agents.ParseCheatTarget(c.Particle.CheatOn); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range c.Networks.Initial {
		if _, err := social.ParseAllocationMethod(name); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Networks.SeverityLB > c.Networks.SeverityUB {
		errs = append(errs, fmt.Errorf("severity_lb %v above severity_ub %v", c.Networks.SeverityLB, c.Networks.SeverityUB))
	}
	if c.Policy.Tolerance1 > c.Policy.Tolerance2 {
		errs = append(errs, fmt.Errorf("tolerance1 %v above tolerance2 %v: leave threshold would exceed switch threshold",
			c.Policy.Tolerance1, c.Policy.Tolerance2))
	}
	if c.Population.CompliantAgents+c.Population.NonCompliantAgents == 0 {
		errs = append(errs, errors.New("population is empty"))
	}
	return errors.Join(errs...)
}

// Spawn returns the particle parameters the spawner needs.
func (c Config) Spawn() agents.SpawnConfig {
	learner, _ := agents.ParseLearnerKind(c.Learner.Kind)
	policy, _ := agents.ParsePolicyKind(c.Policy.Kind)
	return agents.SpawnConfig{
		Utility:         agents.UtilityModel{A: c.Particle.A, B: c.Particle.B, C: c.Particle.C},
		Alpha:           c.Particle.Alpha,
		Beta:            c.Particle.Beta,
		Theta:           c.Particle.Theta,
		Phi:             c.Particle.Phi,
		CheatOn:         c.Particle.CheatOn,
		WarningWeight:   c.Particle.WarningWeight,
		RollingWindow:   c.Learner.PlanLength,
		Learner:         learner,
		PlanLength:      c.Learner.PlanLength,
		Normalize:       c.Learner.Normalize,
		Policy:          policy,
		LeaveThreshold:  c.Policy.LeaveThreshold,
		Tolerance1:      c.Policy.Tolerance1,
		Tolerance2:      c.Policy.Tolerance2,
		Acclimatization: c.Policy.Acclimatization,
		BaseLifespan:    c.Policy.BaseLifespan,
	}
}

// NetworkParams returns the creation parameters for a strict or lenient network.
func (c Config) NetworkParams(kind social.NetworkKind) social.Params {
	level := c.Networks.LenientMonitoring
	if kind == social.Strict {
		level = c.Networks.StrictMonitoring
	}
	return social.Params{
		Kind:             kind,
		Allocation:       social.AllocateRandom,
		MonitoringLevel:  level,
		MonitoringCost:   c.Networks.MonitoringCost,
		SeverityLB:       c.Networks.SeverityLB,
		SeverityUB:       c.Networks.SeverityUB,
		WarningThreshold: c.Networks.Warnings,
		Forgiveness:      c.Networks.Forgiveness,
	}
}
