package main

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"monkeycore/internal/core"
	"monkeycore/pkg/domain"
)

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// outcome reports a committed mutation.
type outcome struct {
	Operation string          `json:"operation"`
	Caller    domain.Identity `json:"caller"`
	Asset     *domain.Asset   `json:"asset,omitempty"`
	Offer     *domain.Offer   `json:"offer,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	Events    []eventRecord   `json:"events"`
}

type eventRecord struct {
	Name    string       `json:"name"`
	Payload domain.Event `json:"payload"`
}

func (a *app) outcome(op string, res core.Result) outcome {
	out := outcome{Operation: op, Caller: a.as(), Events: []eventRecord{}}
	for _, v := range res.Violations {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", v.Rule, v.Message))
	}
	for _, e := range a.events.Events() {
		out.Events = append(out.Events, eventRecord{Name: e.EventName(), Payload: e})
	}
	a.events.Reset()
	return out
}

// write renders v in the selected format. YAML is produced from the JSON
// encoding so both formats share field names.
func (a *app) write(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	switch a.output {
	case "", formatJSON:
		_, err = fmt.Fprintln(a.stdout, string(raw))
		return err
	case formatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
}

// blockStyle drops the flow and quoting styles carried over from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
