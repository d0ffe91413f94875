package swaprequest

import (
	"fmt"

	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
	"github.com/saiid2001/vsf-analyzer/internal/swaptemplate"
)

// VariableConfig names the locations at which a variable's value should be
// swapped to another instance's value; every other location keeps the
// reference instance's value. This is the shape enumerated by the
// candidate processor (spec §4.9's "variable_name: {where: [...]}" output).
type VariableConfig struct {
	Locations []string
}

// SwapRequest accumulates the observed values of a template's variables
// across every registered instance, so a caller can later evaluate a new
// request that swaps a chosen subset of variables to another instance's
// values.
type SwapRequest struct {
	Template  *swaptemplate.SwapRequestTemplate
	Variables map[string]*SwapVariable
	Instances []string
}

// Build creates a SwapRequest from one reference instance and the flat
// variable values the differ/classifier identified in it.
func Build(reference reqmodel.RequestInstance, variables map[string]string) *SwapRequest {
	tmpl := swaptemplate.Build(reference, variables)
	vars := make(map[string]*SwapVariable, len(variables))
	for name, value := range variables {
		sv := NewSwapVariable()
		sv.Register(reference.InstanceID, value)
		vars[name] = sv
	}
	return &SwapRequest{Template: tmpl, Variables: vars, Instances: []string{reference.InstanceID}}
}

// RegisterInstance extracts this template's variables from another
// captured instance and records each value against that instance's id.
// It fails with swaptemplate.ErrMultipleValues if the instance is
// internally inconsistent with the template.
func (r *SwapRequest) RegisterInstance(instance reqmodel.RequestInstance) error {
	values, err := r.Template.ExtractVariableValues(instance)
	if err != nil {
		return err
	}
	for name, value := range values {
		sv, ok := r.Variables[name]
		if !ok {
			sv = NewSwapVariable()
			r.Variables[name] = sv
		}
		sv.Register(instance.InstanceID, value)
	}
	r.Instances = append(r.Instances, instance.InstanceID)
	return nil
}

// ExtractValues is a thin pass-through to the underlying template, kept so
// callers that only hold a SwapRequest don't need to reach into Template.
func (r *SwapRequest) ExtractValues(instance reqmodel.RequestInstance) (map[string]string, error) {
	return r.Template.ExtractVariableValues(instance)
}

// Evaluate materializes a new request by taking every variable's value
// from instanceRefID by default, except the variables named in config,
// which take instanceID's value at the locations config lists.
func (r *SwapRequest) Evaluate(instanceID, instanceRefID string, config map[string]VariableConfig) (reqmodel.RequestInstance, error) {
	bindings := swaptemplate.Bindings{}
	for _, name := range r.Template.VariableNames() {
		sv, ok := r.Variables[name]
		if !ok {
			return reqmodel.RequestInstance{}, fmt.Errorf("swaprequest: no recorded values for variable %q", name)
		}
		refVal, ok := sv.Values[instanceRefID]
		if !ok {
			return reqmodel.RequestInstance{}, fmt.Errorf("swaprequest: variable %q has no value for reference instance %q", name, instanceRefID)
		}
		tags := map[string]string{"default": refVal}

		if cfg, swapped := config[name]; swapped {
			if swapVal, ok := sv.Values[instanceID]; ok {
				for _, loc := range cfg.Locations {
					tags[loc] = swapVal
				}
			}
		}
		bindings[name] = tags
	}
	return r.Template.Evaluate(bindings)
}

// EvaluateBindings evaluates with a caller-supplied binding set, used when
// all variable values are provided externally rather than derived from
// registered instances (spec §4.8's "variables provided externally" case).
func (r *SwapRequest) EvaluateBindings(bindings swaptemplate.Bindings) (reqmodel.RequestInstance, error) {
	return r.Template.Evaluate(bindings)
}

// ToDict serializes the SwapRequest for persistence/handoff.
func (r *SwapRequest) ToDict() map[string]any {
	vars := make(map[string]any, len(r.Variables))
	for name, sv := range r.Variables {
		vars[name] = sv.ToDict()
	}
	instances := make([]any, len(r.Instances))
	for i, id := range r.Instances {
		instances[i] = id
	}
	return map[string]any{
		"template":  r.Template.ToDict(),
		"variables": vars,
		"instances": instances,
	}
}

// FromDict reconstructs a SwapRequest from ToDict's output.
func FromDict(data map[string]any) (*SwapRequest, error) {
	tmplData, _ := data["template"].(map[string]any)
	tmpl, err := swaptemplate.SwapRequestTemplateFromDict(tmplData)
	if err != nil {
		return nil, err
	}
	vars := map[string]*SwapVariable{}
	if rawVars, ok := data["variables"].(map[string]any); ok {
		for name, raw := range rawVars {
			if m, ok := raw.(map[string]any); ok {
				vars[name] = SwapVariableFromDict(m)
			}
		}
	}
	var instances []string
	if rawInstances, ok := data["instances"].([]any); ok {
		for _, v := range rawInstances {
			if s, ok := v.(string); ok {
				instances = append(instances, s)
			}
		}
	}
	return &SwapRequest{Template: tmpl, Variables: vars, Instances: instances}, nil
}

// Preview renders a human-readable summary via the underlying template.
func (r *SwapRequest) Preview(onlyVar bool) string {
	return r.Template.Preview(onlyVar)
}

// Hash returns the underlying template's hash, the fingerprint used for
// (task_id, template_hash) dedup downstream.
func (r *SwapRequest) Hash() (string, error) {
	return r.Template.Hash()
}
