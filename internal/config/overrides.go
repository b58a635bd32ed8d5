package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Overrides carries command-line values. Nil fields leave the file value alone.
type Overrides struct {
	RemoteURL     *string
	Feedback      *string // comma separated names
	GainMode      *int
	Routing       *string
	Expand        *uint32
	LinkReadiness *uint32
	Slots         *int
	Strips        *int
	TickInterval  *string
	LogLevel      *string
	ProtocolLog   *string
}

// Apply copies the set overrides into c and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.RemoteURL != nil {
		c.Surface.RemoteURL = *o.RemoteURL
	}
	if o.Feedback != nil {
		c.Surface.Feedback = splitList(*o.Feedback)
	}
	if o.GainMode != nil {
		c.Surface.GainMode = *o.GainMode
	}
	if o.Routing != nil {
		c.Surface.Routing = *o.Routing
	}
	if o.Expand != nil {
		c.Surface.Expand = *o.Expand
	}
	if o.LinkReadiness != nil {
		c.Surface.LinkReadiness = *o.LinkReadiness
	}
	if o.Slots != nil {
		c.Surface.Slots = *o.Slots
	}
	if o.Strips != nil {
		c.Engine.Strips = *o.Strips
	}
	if o.TickInterval != nil {
		c.Engine.TickInterval = *o.TickInterval
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	if o.ProtocolLog != nil {
		c.Logging.ProtocolLog = *o.ProtocolLog
	}
	return c.Validate()
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
