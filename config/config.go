package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ballpit/game"
)

const (
	DefaultAddr = ":8080"
	DefaultSeed = 1
)

// Settings is everything the server needs at start. Nothing here changes
// while it runs.
type Settings struct {
	Addr string
	Seed uint64
	Game game.Config
}

// InitConfig loads .env into the environment. A missing file is fine;
// real environment variables still apply.
func InitConfig(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("no .env loaded:", err)
		return
	}

	log.Println("Successfully loaded environment variables")
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil
}

// Load builds Settings from BALLPIT_* variables over game.DefaultConfig.
func Load() (Settings, error) {
	s := Settings{
		Addr: DefaultAddr,
		Seed: DefaultSeed,
		Game: game.DefaultConfig(),
	}
	g := &s.Game

	if v, err := GetEnvVariable("BALLPIT_ADDR"); err == nil {
		s.Addr = v
	}
	if err := lookupUint("BALLPIT_SEED", &s.Seed); err != nil {
		return Settings{}, err
	}
	if err := lookupInt("BALLPIT_BALL_COUNT", &g.BallCount); err != nil {
		return Settings{}, err
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"BALLPIT_BALL_RADIUS", &g.BallRadius},
		{"BALLPIT_GRAVITY_X", &g.Gravity.X},
		{"BALLPIT_GRAVITY_Y", &g.Gravity.Y},
		{"BALLPIT_WALL_DAMPING", &g.WallDamping},
		{"BALLPIT_HAND_RADIUS", &g.HandRadius},
		{"BALLPIT_HAND_MASS", &g.HandMass},
		{"BALLPIT_MAX_SPEED", &g.MaxSpeed},
	}
	for _, f := range floats {
		if err := lookupFloat(f.name, f.dst); err != nil {
			return Settings{}, err
		}
	}
	if v, err := GetEnvVariable("BALLPIT_BOUNDS"); err == nil {
		b, err := parseBounds(v)
		if err != nil {
			return Settings{}, fmt.Errorf("BALLPIT_BOUNDS: %w", err)
		}
		g.Bounds = b
	}
	if v, err := GetEnvVariable("BALLPIT_LEFT_JOINT"); err == nil {
		g.LeftJoint = v
	}
	if v, err := GetEnvVariable("BALLPIT_RIGHT_JOINT"); err == nil {
		g.RightJoint = v
	}

	if err := g.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

func lookupFloat(name string, dst *float64) error {
	v, err := GetEnvVariable(name)
	if err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = f
	return nil
}

func lookupInt(name string, dst *int) error {
	v, err := GetEnvVariable(name)
	if err != nil {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

func lookupUint(name string, dst *uint64) error {
	v, err := GetEnvVariable(name)
	if err != nil {
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// parseBounds reads "minX,minY,maxX,maxY".
func parseBounds(v string) (game.Bounds, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return game.Bounds{}, fmt.Errorf("want minX,minY,maxX,maxY, got %q", v)
	}
	var n [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return game.Bounds{}, err
		}
		n[i] = f
	}
	return game.Bounds{MinX: n[0], MinY: n[1], MaxX: n[2], MaxY: n[3]}, nil
}
