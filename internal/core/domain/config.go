package domain

// Config is an ordered record of compilation settings that targets mix in
// via their configs and public_configs lists.
type Config struct {
	CfgLabel    Label
	CFlags      []string
	Defines     []string
	IncludeDirs []string
}

// Label implements Item.
func (c *Config) Label() Label { return c.CfgLabel }

// AsTarget implements Item.
func (c *Config) AsTarget() *Target { return nil }

// Kind implements Item.
func (c *Config) Kind() string { return "config" }
