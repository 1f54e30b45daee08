// Package config loads the optional unamxx.toml settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"unamxx/internal/amxfmt"
	"unamxx/internal/charset"
)

// FileName is the settings file looked up next to the input.
const FileName = "unamxx.toml"

type Config struct {
	Decompile Decompile `toml:"decompile"`
	Print     Print     `toml:"print"`

	// Path is the file the config was read from, "" for defaults.
	Path string `toml:"-"`
}

type Decompile struct {
	Mode     string `toml:"mode"`
	MaxSteps int    `toml:"max-steps"`
	CellSize int    `toml:"cellsize"`
	Charset  string `toml:"charset"`
}

type Print struct {
	Indent  int  `toml:"indent"`
	EmitRaw bool `toml:"emit-raw"`
	Header  bool `toml:"header"`
}

// Default returns the settings used when no file is found.
func Default() *Config {
	return &Config{
		Decompile: Decompile{
			Mode:     amxfmt.ModeStrict.String(),
			CellSize: amxfmt.CellSize,
			Charset:  charset.Default,
		},
		Print: Print{Indent: 2, EmitRaw: true, Header: true},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("config: parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	c.Path = path
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for FileName. It returns the
// defaults when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks values that cannot be expressed in the TOML types.
func (c *Config) Validate() error {
	if _, err := amxfmt.ParseMode(c.Decompile.Mode); err != nil {
		return err
	}
	if c.Decompile.CellSize != amxfmt.CellSize {
		return fmt.Errorf("cellsize %d not supported, only %d", c.Decompile.CellSize, amxfmt.CellSize)
	}
	if c.Decompile.MaxSteps < 0 {
		return fmt.Errorf("max-steps must not be negative, got %d", c.Decompile.MaxSteps)
	}
	if _, err := charset.Lookup(c.Decompile.Charset); err != nil {
		return err
	}
	if c.Print.Indent < 0 || c.Print.Indent > 16 {
		return fmt.Errorf("print indent %d out of range 0..16", c.Print.Indent)
	}
	return nil
}

// Options converts the decompile section to parser options.
func (c *Config) Options() amxfmt.Options {
	mode, _ := amxfmt.ParseMode(c.Decompile.Mode)
	return amxfmt.Options{Mode: mode, MaxSteps: c.Decompile.MaxSteps}
}
